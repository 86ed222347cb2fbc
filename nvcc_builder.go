package pyext

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// NvccBuilder handles CUDA sources compiled directly with nvcc.
//
// This builder compiles *.cu files into shared libraries that Python
// loads via ctypes/cffi or that Cython extensions link against.
//
// Common use cases:
//   - Hand-written CUDA kernels shipped alongside a Python package
//   - Device code too specialized for the package's main extension
//
// Build command:
//
//	nvcc -shared -Xcompiler -fPIC -o kernels.so kernels.cu
//
// The nvcc binary is resolved from the located toolkit's bin directory
// when a toolkit is configured, falling back to PATH otherwise.
type NvccBuilder struct{}

// Name returns the builder name
func (b *NvccBuilder) Name() string {
	return "Nvcc"
}

// RequiredTools returns the tools needed for CUDA builds
func (b *NvccBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:    "nvcc",
			Purpose: "CUDA compiler driver",
		},
		{
			Name:         "g++",
			Alternatives: []string{"clang++", "c++"},
			Purpose:      "Host C++ compiler for nvcc",
		},
	}
}

// CheckTools verifies that the CUDA toolchain is available
func (b *NvccBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the extension file
func (b *NvccBuilder) CanBuild(extensionFile string) bool {
	return strings.ToLower(filepath.Ext(extensionFile)) == ".cu"
}

// Build compiles the CUDA extension
func (b *NvccBuilder) Build(ctx context.Context, config *BuildConfig, extensionFile string) (*BuildResult, error) {
	return runCommonBuild(ctx, config, extensionFile, CommonBuildSteps{
		ConfigureFunc: b.noConfigure,
		BuildFunc:     b.runNvcc(extensionFile),
		FindFunc:      b.findBuiltExtensions,
	})
}

// Clean removes compiled shared libraries for the source
func (b *NvccBuilder) Clean(ctx context.Context, config *BuildConfig, extensionFile string) error {
	extensionPath := filepath.Join(config.PackageDir, extensionFile)
	extensionDir := filepath.Dir(extensionPath)
	base := moduleBaseName(extensionFile)

	matches, err := filepath.Glob(filepath.Join(extensionDir, base+"*.so"))
	if err != nil {
		return nil
	}
	for _, match := range matches {
		_ = os.Remove(match)
	}
	return nil
}

// noConfigure is a no-op since nvcc compiles sources directly
func (b *NvccBuilder) noConfigure(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
	if config.Verbose {
		result.Output = append(result.Output, "Nvcc builder, no configuration needed")
	}
	return nil
}

// runNvcc compiles the CUDA source into a shared library
func (b *NvccBuilder) runNvcc(extensionFile string) func(context.Context, *BuildConfig, string, *BuildResult) error {
	return func(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
		nvcc := b.getNvccPath(config)
		source := filepath.Base(extensionFile)
		output := moduleBaseName(extensionFile) + ".so"

		args := []string{"-shared", "-Xcompiler", "-fPIC", "-O3"}
		if config.Spec != nil {
			for _, dir := range config.Spec.IncludeDirs {
				args = append(args, "-I"+dir)
			}
			for _, dir := range config.Spec.LibraryDirs {
				args = append(args, "-L"+dir)
			}
			for _, lib := range config.Spec.Libraries {
				args = append(args, "-l"+lib)
			}
		}
		args = append(args, config.BuildArgs...)
		args = append(args, "-o", output, source)

		cmd := exec.CommandContext(ctx, nvcc, args...)
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
				fmt.Sprintf("Running: %s %s", nvcc, strings.Join(args, " ")),
				fmt.Sprintf("Working directory: %s", extensionDir))
		}

		if err != nil {
			return BuildError("Nvcc", result.Output, err)
		}

		return nil
	}
}

// findBuiltExtensions locates the compiled shared library files
func (b *NvccBuilder) findBuiltExtensions(extensionDir string) ([]string, error) {
	var extensions []string

	matches, err := filepath.Glob(filepath.Join(extensionDir, "*.so"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob *.so in %s: %v", extensionDir, err)
	}

	for _, match := range matches {
		// Convert to relative path
		relPath, err := filepath.Rel(extensionDir, match)
		if err == nil {
			extensions = append(extensions, relPath)
		}
	}

	return extensions, nil
}

// getNvccPath resolves nvcc from the located toolkit, then PATH
func (b *NvccBuilder) getNvccPath(config *BuildConfig) string {
	if config.Toolkit != nil {
		candidate := filepath.Join(config.Toolkit.Home, "bin", "nvcc")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "nvcc"
}
