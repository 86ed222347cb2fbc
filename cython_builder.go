package pyext

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CythonBuilder handles *.pyx files - the most common build path for
// Python native extensions that wrap C/C++ libraries.
//
// The build is the classic two-stage pipeline:
//  1. cython translates the .pyx source to C or C++
//  2. the system compiler compiles and links the result into a shared
//     library named with the interpreter's extension suffix
//
// Compiler and linker flags come from the assembled ExtensionSpec in the
// build configuration (include directories, library directories, linked
// libraries, language standard).
type CythonBuilder struct{}

// Name returns the builder name
func (b *CythonBuilder) Name() string {
	return "Cython"
}

// RequiredTools returns the tools needed for Cython builds
func (b *CythonBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:    "cython",
			Purpose: "Cython compiler",
		},
		{
			Name:         "g++",
			Alternatives: []string{"clang++", "c++", "cl"},
			Purpose:      "C/C++ compiler for native extensions",
		},
	}
}

// CheckTools verifies that cython and a C++ compiler are available
func (b *CythonBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the extension file
func (b *CythonBuilder) CanBuild(extensionFile string) bool {
	return MatchesPattern(extensionFile, `\.pyx$`)
}

// Build compiles the extension using the cython → compile → link workflow
func (b *CythonBuilder) Build(ctx context.Context, config *BuildConfig, extensionFile string) (*BuildResult, error) {
	return runCommonBuild(ctx, config, extensionFile, CommonBuildSteps{
		ConfigureFunc: b.runCythonize(extensionFile),
		BuildFunc:     b.compileAndLink(extensionFile),
		FindFunc:      b.findBuiltExtensions,
	})
}

// Clean removes generated translation units and compiled extensions
func (b *CythonBuilder) Clean(ctx context.Context, config *BuildConfig, extensionFile string) error {
	extensionPath := filepath.Join(config.PackageDir, extensionFile)
	extensionDir := filepath.Dir(extensionPath)
	base := moduleBaseName(extensionFile)

	patterns := []string{base + ".c", base + ".cpp", base + "*.so", base + "*.pyd", base + "*.dylib"}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(extensionDir, pattern))
		if err != nil {
			continue
		}
		for _, match := range matches {
			_ = os.Remove(match)
		}
	}

	return nil
}

// runCythonize translates the .pyx source into a C or C++ translation unit
func (b *CythonBuilder) runCythonize(extensionFile string) func(context.Context, *BuildConfig, string, *BuildResult) error {
	return func(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
		source := filepath.Base(extensionFile)
		generated := b.generatedSource(config, extensionFile)

		args := []string{"-3"}
		if b.language(config) == "c++" {
			args = append(args, "--cplus")
		}
		if config.Spec != nil {
			for _, dir := range config.Spec.IncludeDirs {
				args = append(args, "-I", dir)
			}
		}
		args = append(args, source, "-o", generated)

		cmd := exec.CommandContext(ctx, "cython", args...)
		cmd.Dir = extensionDir

		// Set environment variables
		cmd.Env = os.Environ()
		for key, value := range config.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
		}

		output, err := cmd.CombinedOutput()
		outputLines := strings.Split(string(output), "\n")
		result.Output = append(result.Output, outputLines...)

		if config.Verbose {
			result.Output = append(result.Output,
				fmt.Sprintf("Running: cython %s", strings.Join(args, " ")),
				fmt.Sprintf("Working directory: %s", extensionDir))
		}

		if err != nil {
			return BuildError("Cython", result.Output, err)
		}

		// Verify the translation unit was created
		generatedPath := filepath.Join(extensionDir, generated)
		if _, err := os.Stat(generatedPath); os.IsNotExist(err) {
			return BuildError("Cython", result.Output, fmt.Errorf("translation unit not generated"))
		}

		return nil
	}
}

// compileAndLink compiles the generated translation unit into a shared library
func (b *CythonBuilder) compileAndLink(extensionFile string) func(context.Context, *BuildConfig, string, *BuildResult) error {
	return func(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
		compiler := b.getCompiler(config)
		generated := b.generatedSource(config, extensionFile)
		output := moduleBaseName(extensionFile) + extSuffix(config)

		args := []string{"-shared", "-fPIC", "-O2"}
		if config.Spec != nil {
			args = append(args, config.Spec.CompileFlags()...)
		}
		args = append(args, generated, "-o", output)
		if config.Spec != nil {
			args = append(args, config.Spec.LinkFlags()...)
		}
		args = append(args, config.BuildArgs...)

		cmd := exec.CommandContext(ctx, compiler, args...)
		cmd.Dir = extensionDir

		// Set environment variables
		cmd.Env = os.Environ()
		for key, value := range config.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
		}

		out, err := cmd.CombinedOutput()
		outputLines := strings.Split(string(out), "\n")
		result.Output = append(result.Output, outputLines...)

		if config.Verbose {
			result.Output = append(result.Output,
				fmt.Sprintf("Running: %s %s", compiler, strings.Join(args, " ")),
				fmt.Sprintf("Working directory: %s", extensionDir))
		}

		if err != nil {
			return BuildError("Cython Compile", result.Output, err)
		}

		return nil
	}
}

// findBuiltExtensions locates the compiled extension files
func (b *CythonBuilder) findBuiltExtensions(extensionDir string) ([]string, error) {
	var extensions []string

	// Common extension file patterns
	patterns := []string{
		"*.so",    // Linux/Unix shared libraries
		"*.pyd",   // Windows Python extensions
		"*.dylib", // macOS dynamic libraries
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

// generatedSource returns the translation unit filename cython produces
func (b *CythonBuilder) generatedSource(config *BuildConfig, extensionFile string) string {
	base := moduleBaseName(extensionFile)
	if b.language(config) == "c++" {
		return base + ".cpp"
	}
	return base + ".c"
}

// language returns the extension implementation language, defaulting to c++
func (b *CythonBuilder) language(config *BuildConfig) string {
	if config.Spec != nil && config.Spec.Language != "" {
		return config.Spec.Language
	}
	return "c++"
}

// getCompiler returns the appropriate compiler for the platform
func (b *CythonBuilder) getCompiler(config *BuildConfig) string {
	// Check environment variable first
	if cxx := os.Getenv("CXX"); cxx != "" && b.language(config) == "c++" {
		return cxx
	}
	if cc := os.Getenv("CC"); cc != "" && b.language(config) == "c" {
		return cc
	}

	// Platform-specific defaults
	switch runtime.GOOS {
	case platformDarwin:
		if b.language(config) == "c" {
			return "clang"
		}
		return "clang++"
	default:
		if b.language(config) == "c" {
			return "gcc"
		}
		return "g++"
	}
}

// moduleBaseName returns the extension module name derived from the source file
func moduleBaseName(extensionFile string) string {
	base := filepath.Base(extensionFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// extSuffix returns the interpreter's extension filename suffix
func extSuffix(config *BuildConfig) string {
	if config.Python != nil && config.Python.ExtSuffix != "" {
		return config.Python.ExtSuffix
	}
	return ".so"
}
