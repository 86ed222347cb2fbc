package pyext

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GoBuilder handles Go-based builds using CGO to create shared libraries.
//
// This builder compiles Go code into shared libraries (.so/.dll/.dylib)
// that can be loaded by Python using ctypes or cffi.
//
// Common use cases:
//   - High-performance extensions written in Go
//   - Reusing existing Go libraries in Python
//   - Cross-platform extensions leveraging Go's portability
//
// The assembled ExtensionSpec is exported to cgo through CGO_CFLAGS and
// CGO_LDFLAGS, so Go sources that include toolkit or interpreter headers
// compile against the same installation the build was configured with.
//
// Build command:
//
//	go build -buildmode=c-shared -o <module><ext-suffix>
type GoBuilder struct{}

// Name returns the builder name
func (b *GoBuilder) Name() string {
	return "Go"
}

// RequiredTools returns the tools needed for Go builds
func (b *GoBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:    "go",
			Purpose: "Go compiler and toolchain",
		},
		{
			Name:         "gcc",
			Alternatives: []string{"clang", "cc"},
			Purpose:      "C compiler (required for CGO)",
		},
	}
}

// CheckTools verifies that Go toolchain is available
func (b *GoBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the extension file
func (b *GoBuilder) CanBuild(extensionFile string) bool {
	// Look for .go files or go.mod
	ext := strings.ToLower(filepath.Ext(extensionFile))
	base := strings.ToLower(filepath.Base(extensionFile))
	return ext == ".go" || base == "go.mod"
}

// Build compiles the Go extension into a shared library
func (b *GoBuilder) Build(ctx context.Context, config *BuildConfig, extensionFile string) (*BuildResult, error) {
	return runCommonBuild(ctx, config, extensionFile, CommonBuildSteps{
		ConfigureFunc: b.noConfigure,
		BuildFunc:     b.runGoBuild(extensionFile),
		FindFunc:      b.findBuiltExtensions,
	})
}

// Clean removes build artifacts
func (b *GoBuilder) Clean(ctx context.Context, config *BuildConfig, extensionFile string) error {
	extensionPath := filepath.Join(config.PackageDir, extensionFile)
	extensionDir := filepath.Dir(extensionPath)

	cleanCmd := exec.CommandContext(ctx, "go", "clean")
	cleanCmd.Dir = extensionDir

	// Ignore errors - clean may not be necessary
	_ = cleanCmd.Run()

	matches, err := filepath.Glob(filepath.Join(extensionDir, b.outputName(config, extensionFile)))
	if err != nil {
		return nil
	}
	for _, match := range matches {
		_ = os.Remove(match)
	}
	return nil
}

// noConfigure is a no-op since Go doesn't need configuration
func (b *GoBuilder) noConfigure(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
	if config.Verbose {
		result.Output = append(result.Output, "Go modules, no configuration needed")
	}
	return nil
}

// runGoBuild executes go build to compile the shared library
func (b *GoBuilder) runGoBuild(extensionFile string) func(context.Context, *BuildConfig, string, *BuildResult) error {
	return func(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
		// Name the output like any other Python extension module
		outputName := b.outputName(config, extensionFile)
		if config.DestPath != "" {
			outputName = filepath.Join(config.DestPath, outputName)
		}

		// Build go build arguments
		args := []string{"build", "-buildmode=c-shared", "-o", outputName}

		// Add any additional build args
		args = append(args, config.BuildArgs...)

		// Run go build
		cmd := exec.CommandContext(ctx, "go", args...)
		cmd.Dir = extensionDir

		// Set environment variables
		cmd.Env = os.Environ()
		for key, value := range config.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
		}

		// Enable CGO and hand the assembled compiler configuration to it
		cmd.Env = append(cmd.Env, "CGO_ENABLED=1")
		cmd.Env = append(cmd.Env, b.cgoEnv(config)...)

		output, err := cmd.CombinedOutput()
		outputLines := strings.Split(string(output), "\n")
		result.Output = append(result.Output, outputLines...)

		if config.Verbose {
			result.Output = append(result.Output,
				fmt.Sprintf("Running: go %s", strings.Join(args, " ")),
				fmt.Sprintf("Working directory: %s", extensionDir))
		}

		if err != nil {
			return BuildError("Go", result.Output, err)
		}

		return nil
	}
}

// outputName returns the shared library filename for the extension module,
// carrying the interpreter's extension suffix so ctypes/cffi loaders and
// importlib agree on the name
func (b *GoBuilder) outputName(config *BuildConfig, extensionFile string) string {
	base := moduleBaseName(extensionFile)
	if base == "go" {
		// go.mod marks the module root; fall back to its directory name
		if dir := filepath.Base(filepath.Dir(extensionFile)); dir != "." && dir != string(filepath.Separator) {
			base = dir
		} else {
			base = "extension"
		}
	}
	return base + extSuffix(config)
}

// cgoEnv exports the extension spec and the located toolkit to cgo
func (b *GoBuilder) cgoEnv(config *BuildConfig) []string {
	var env []string

	if config.Spec != nil {
		if cflags := config.Spec.CompileFlags(); len(cflags) > 0 {
			env = append(env, fmt.Sprintf("CGO_CFLAGS=%s", strings.Join(cflags, " ")))
		}
		if ldflags := config.Spec.LinkFlags(); len(ldflags) > 0 {
			env = append(env, fmt.Sprintf("CGO_LDFLAGS=%s", strings.Join(ldflags, " ")))
		}
	}

	// Go sources that shell out to nvcc conventionally read CUDA_HOME
	if config.Toolkit != nil {
		env = append(env, fmt.Sprintf("%s=%s", ToolkitHomeEnv, config.Toolkit.Home))
	}

	return env
}

// findBuiltExtensions locates the compiled shared library files
func (b *GoBuilder) findBuiltExtensions(extensionDir string) ([]string, error) {
	var extensions []string

	// Go builds produce .so, .dll, or .dylib depending on platform
	patterns := []string{
		"*.so",    // Linux
		"*.dylib", // macOS
		"*.dll",   // Windows
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(extensionDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s in %s: %v", pattern, extensionDir, err)
		}

		for _, match := range matches {
			// Convert to relative path
			relPath, err := filepath.Rel(extensionDir, match)
			if err == nil {
				extensions = append(extensions, relPath)
			}
		}
	}

	return extensions, nil
}
