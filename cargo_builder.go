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

// Platform constants
const (
	platformWindows = "windows"
	platformDarwin  = "darwin"
)

// CargoBuilder handles Rust-based builds using Cargo (PyO3/maturin-style
// extensions declared by a Cargo.toml)
type CargoBuilder struct{}

// Name returns the builder name
func (b *CargoBuilder) Name() string {
	return "Cargo"
}

// CanBuild checks if this builder can handle the extension file
func (b *CargoBuilder) CanBuild(extensionFile string) bool {
	return MatchesPattern(extensionFile, `Cargo\.toml$`)
}

// Build compiles the extension using cargo
func (b *CargoBuilder) Build(ctx context.Context, config *BuildConfig, extensionFile string) (*BuildResult, error) {
	result := &BuildResult{
		Success: false,
		Output:  []string{},
	}

	extensionPath := filepath.Join(config.PackageDir, extensionFile)
	extensionDir := filepath.Dir(extensionPath)

	// Step 1: Run cargo to build the Rust extension
	if err := b.runCargo(ctx, config, extensionDir, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 2: Find and rename built extensions to Python's expected format
	if err := b.processBuiltExtensions(ctx, config, extensionDir, result); err != nil {
		result.Error = err
		return result, err
	}

	result.Success = true
	return result, nil
}

// Clean removes build artifacts
func (b *CargoBuilder) Clean(ctx context.Context, config *BuildConfig, extensionFile string) error {
	extensionPath := filepath.Join(config.PackageDir, extensionFile)
	extensionDir := filepath.Dir(extensionPath)

	cmd := exec.CommandContext(ctx, "cargo", "clean")
	cmd.Dir = extensionDir

	return cmd.Run()
}

// runCargo executes cargo to build the Rust extension
func (b *CargoBuilder) runCargo(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
	cargoPath := b.getCargoPath()

	// Build cargo arguments
	args := []string{"rustc", "--release", "--crate-type", "cdylib"}

	// Add target if specified
	if target := os.Getenv("CARGO_BUILD_TARGET"); target != "" {
		args = append(args, "--target", target)
	}

	// Use locked dependencies if Cargo.lock exists
	lockPath := filepath.Join(extensionDir, "Cargo.lock")
	if _, err := os.Stat(lockPath); err == nil {
		args = append(args, "--locked")
	}

	// Add parallel jobs if specified
	if config.Parallel > 0 {
		args = append(args, "--jobs", fmt.Sprintf("%d", config.Parallel))
	}

	// Clean first if requested
	if config.CleanFirst {
		cleanCmd := exec.CommandContext(ctx, cargoPath, "clean")
		cleanCmd.Dir = extensionDir
		cleanOutput, _ := cleanCmd.CombinedOutput()
		result.Output = append(result.Output, strings.Split(string(cleanOutput), "\n")...)
	}

	// Add any custom build args
	args = append(args, config.BuildArgs...)

	// Add rustc-specific arguments for Python integration
	args = append(args, "--")
	args = append(args, b.getRustcArgs(config)...)

	cmd := exec.CommandContext(ctx, cargoPath, args...)
	cmd.Dir = extensionDir

	// Set environment variables for Rust/Python integration
	cmd.Env = os.Environ()
	for key, value := range config.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	// Set Python-specific environment variables
	cmd.Env = append(cmd.Env, b.getPythonEnv(config)...)

	output, err := cmd.CombinedOutput()
	outputLines := strings.Split(string(output), "\n")
	result.Output = append(result.Output, outputLines...)

	if config.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: %s %s", cargoPath, strings.Join(args, " ")),
			fmt.Sprintf("Working directory: %s", extensionDir))
	}

	if err != nil {
		return BuildError("Cargo", result.Output, err)
	}

	return nil
}

// processBuiltExtensions finds built Rust libraries and renames them for Python
func (b *CargoBuilder) processBuiltExtensions(_ context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
	// Find the target directory
	targetDir := filepath.Join(extensionDir, "target")
	if target := os.Getenv("CARGO_BUILD_TARGET"); target != "" {
		targetDir = filepath.Join(targetDir, target)
	}
	targetDir = filepath.Join(targetDir, "release")

	// Find built dynamic libraries
	builtLibs, err := b.findCargoOutputs(targetDir)
	if err != nil {
		return BuildError("Cargo", result.Output, fmt.Errorf("failed to find cargo outputs: %v", err))
	}

	if len(builtLibs) == 0 {
		return BuildError("Cargo", result.Output, fmt.Errorf("no dynamic libraries found in %s", targetDir))
	}

	// Process each built library
	for _, lib := range builtLibs {
		// Convert Rust library name to Python extension name
		pyExtName := b.getPythonExtensionName(config, lib)
		pyExtPath := filepath.Join(extensionDir, pyExtName)

		// Copy the library to the expected location
		if err := b.copyFile(lib, pyExtPath); err != nil {
			return BuildError("Cargo", result.Output, fmt.Errorf("failed to copy %s to %s: %v", lib, pyExtPath, err))
		}

		// Add to results
		relPath, _ := filepath.Rel(extensionDir, pyExtPath)
		result.Extensions = append(result.Extensions, relPath)

		if config.Verbose {
			result.Output = append(result.Output, fmt.Sprintf("Copied %s -> %s", lib, pyExtPath))
		}
	}

	return nil
}

// findCargoOutputs locates built dynamic libraries
func (b *CargoBuilder) findCargoOutputs(targetDir string) ([]string, error) {
	var outputs []string

	// Platform-specific library patterns
	var patterns []string
	switch runtime.GOOS {
	case platformWindows:
		patterns = []string{"*.dll"}
	case platformDarwin:
		patterns = []string{"*.dylib", "lib*.dylib"}
	default:
		patterns = []string{"*.so", "lib*.so"}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(targetDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s: %v", pattern, err)
		}
		outputs = append(outputs, matches...)
	}

	return outputs, nil
}

// getPythonExtensionName converts a Rust library name to Python extension format
//
// CPython only imports modules whose filename carries the interpreter's
// extension suffix, so libfoo.so becomes foo.cpython-311-....so when the
// runtime is known.
func (b *CargoBuilder) getPythonExtensionName(config *BuildConfig, libPath string) string {
	filename := filepath.Base(libPath)
	ext := filepath.Ext(filename)

	// Remove lib prefix if present
	filename = strings.TrimPrefix(filename, "lib")

	// Remove original extension and add Python's expected suffix
	name := strings.TrimSuffix(filename, ext)

	return name + extSuffix(config)
}

// getRustcArgs returns rustc arguments for Python integration
func (b *CargoBuilder) getRustcArgs(_ *BuildConfig) []string {
	var args []string

	// Platform-specific linking arguments
	switch runtime.GOOS {
	case platformDarwin:
		args = append(args, "-C", "link-arg=-Wl,-undefined,dynamic_lookup")
	case platformWindows:
		// Windows-specific linking
		args = append(args, "-C", "link-arg=-Wl,--dynamicbase", "-C", "link-arg=-Wl,--disable-auto-image-base", "-C", "link-arg=-static-libgcc")
	}

	return args
}

// getPythonEnv returns Python-specific environment variables for Cargo
//
// PyO3's build script consults PYO3_PYTHON to pick the interpreter it
// links against.
func (b *CargoBuilder) getPythonEnv(config *BuildConfig) []string {
	var env []string

	if config.Python != nil {
		if config.Python.Executable != "" {
			env = append(env, fmt.Sprintf("PYO3_PYTHON=%s", config.Python.Executable))
		}
		if config.Python.Version != "" {
			env = append(env, fmt.Sprintf("PYTHON_VERSION=%s", config.Python.Version))
		}
	}

	return env
}

// getCargoPath returns the path to the cargo executable
func (b *CargoBuilder) getCargoPath() string {
	if cargoPath := os.Getenv("CARGO"); cargoPath != "" {
		return cargoPath
	}
	return "cargo"
}

// copyFile copies a file from src to dst
func (b *CargoBuilder) copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	// Create destination directory if needed
	if mkdirErr := os.MkdirAll(filepath.Dir(dst), 0755); mkdirErr != nil {
		return mkdirErr
	}

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = destFile.ReadFrom(sourceFile)
	return err
}
