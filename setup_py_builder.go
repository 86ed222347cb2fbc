package pyext

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// SetupPyBuilder handles setup.py scripts - the traditional setuptools
// build path for Python packages that compile their own extensions.
//
// The script is run with "build_ext --inplace" so compiled extensions
// land next to their sources. The located toolkit root is exported as
// CUDA_HOME so the script's own discovery finds the same installation
// this build was configured against.
type SetupPyBuilder struct{}

// Name returns the builder name
func (b *SetupPyBuilder) Name() string {
	return "SetupPy"
}

// RequiredTools returns the tools needed for setup.py builds
func (b *SetupPyBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:         "python3",
			Alternatives: []string{"python"},
			Purpose:      "Python interpreter for setup.py",
		},
		{
			Name:         "g++",
			Alternatives: []string{"clang++", "c++", "cl"},
			Purpose:      "C/C++ compiler for native extensions",
		},
	}
}

// CheckTools verifies that Python and a compiler are available
func (b *SetupPyBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the extension file
func (b *SetupPyBuilder) CanBuild(extensionFile string) bool {
	return MatchesPattern(extensionFile, `setup\.py$`)
}

// Build compiles the extensions declared by the setup.py script
func (b *SetupPyBuilder) Build(ctx context.Context, config *BuildConfig, extensionFile string) (*BuildResult, error) {
	return runCommonBuild(ctx, config, extensionFile, CommonBuildSteps{
		ConfigureFunc: b.noConfigure,
		BuildFunc:     b.runBuildExt,
		FindFunc:      b.findBuiltExtensions,
	})
}

// Clean removes setuptools build artifacts
func (b *SetupPyBuilder) Clean(ctx context.Context, config *BuildConfig, extensionFile string) error {
	extensionPath := filepath.Join(config.PackageDir, extensionFile)
	extensionDir := filepath.Dir(extensionPath)

	cmd := exec.CommandContext(ctx, config.pythonExecutable(), "setup.py", "clean", "--all")
	cmd.Dir = extensionDir

	// Ignore errors - clean may not be necessary
	_ = cmd.Run()
	return nil
}

// noConfigure is a no-op since setup.py performs its own configuration
func (b *SetupPyBuilder) noConfigure(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
	if config.Verbose {
		result.Output = append(result.Output, "SetupPy builder, no configuration needed")
	}
	return nil
}

// runBuildExt executes python setup.py build_ext --inplace
func (b *SetupPyBuilder) runBuildExt(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
	python := config.pythonExecutable()

	args := []string{"setup.py", "build_ext", "--inplace"}

	// Add parallel jobs if specified
	if config.Parallel > 0 {
		args = append(args, fmt.Sprintf("--parallel=%d", config.Parallel))
	}

	args = append(args, config.BuildArgs...)

	cmd := exec.CommandContext(ctx, python, args...)
	cmd.Dir = extensionDir

	// Set environment variables
	cmd.Env = os.Environ()
	for key, value := range config.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	// Export the located toolkit so the script's discovery agrees with ours
	if config.Toolkit != nil {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", ToolkitHomeEnv, config.Toolkit.Home))
	}

	output, err := cmd.CombinedOutput()
	outputLines := strings.Split(string(output), "\n")
	result.Output = append(result.Output, outputLines...)

	if config.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: %s %s", python, strings.Join(args, " ")),
			fmt.Sprintf("Working directory: %s", extensionDir))
	}

	if err != nil {
		return BuildError("SetupPy", result.Output, err)
	}

	return nil
}

// findBuiltExtensions locates the compiled extension files
//
// build_ext --inplace places extensions next to their package sources,
// so the search descends into subdirectories as well.
func (b *SetupPyBuilder) findBuiltExtensions(extensionDir string) ([]string, error) {
	var extensions []string

	patterns := []string{
		"*.so",
		"*/*.so",
		"*.pyd",
		"*/*.pyd",
		"*.dylib",
		"*/*.dylib",
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(extensionDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s in %s: %v", pattern, extensionDir, err)
		}

		for _, match := range matches {
			relPath, err := filepath.Rel(extensionDir, match)
			if err == nil {
				extensions = append(extensions, relPath)
			}
		}
	}

	return extensions, nil
}
