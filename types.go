package pyext

import "context"

// BuildResult contains the output and status of a build operation.
//
// After a build completes, this structure provides:
//   - Success status indicating if the build completed without errors
//   - Output lines captured from the build process (stdout/stderr)
//   - Extensions list of compiled extension files (.so/.pyd/.dylib)
//   - Error information if the build failed
type BuildResult struct {
	Success             bool     // True if build completed successfully
	Output              []string // Lines of output from the build process
	Extensions          []string // Paths to built extension files
	Error               error    // Error if build failed, nil otherwise
	MissingDependencies []string // Names of build-time dependencies that were missing
}

// BuildConfig contains configuration for the build process.
//
// This structure controls all aspects of the extension build:
//
// Source paths define where files are located:
//   - PackageDir: Root directory of the Python package source tree
//   - ExtensionDir: Directory containing extension source files
//   - DestPath: Destination directory for compiled extensions
//   - LibDir: Optional lib directory for extension installation
//
// Build configuration:
//   - BuildArgs: Additional arguments passed to the build system
//   - Env: Environment variables set during build
//   - Parallel: Number of parallel jobs for make -j (0 = default)
//
// Native build inputs:
//   - Toolkit: The located CUDA toolkit, nil when no toolkit is needed
//   - Spec: The assembled compiler configuration for direct compilation
//   - Python: The discovered host interpreter runtime
//
// Build behavior:
//   - Verbose: Enable detailed build output
//   - CleanFirst: Run clean target before building
//   - StopOnFailure: Stop after first failed extension (default behavior)
type BuildConfig struct {
	// Source paths
	PackageDir   string // Root directory of the Python package source tree
	ExtensionDir string // Directory containing the extension files
	DestPath     string // Destination for compiled extensions
	LibDir       string // Optional lib directory for extension installation

	// Build arguments
	BuildArgs []string          // Additional build arguments
	Env       map[string]string // Environment variables for build

	// Native build inputs
	Toolkit *Toolkit       // Located CUDA toolkit (nil if not required)
	Spec    *ExtensionSpec // Compiler configuration for direct compilation
	Python  *PythonRuntime // Host interpreter runtime

	// Build options
	Verbose    bool // Enable verbose output
	CleanFirst bool // Run clean before build
	Parallel   int  // Number of parallel jobs (for make -j)

	// Failure handling
	StopOnFailure bool // Stop after the first failed extension build
}

// pythonExecutable returns the configured interpreter, defaulting to python3.
func (c *BuildConfig) pythonExecutable() string {
	if c.Python != nil && c.Python.Executable != "" {
		return c.Python.Executable
	}
	return "python3"
}

// CommonBuildSteps defines the standard 3-step build pattern used by multiple builders.
//
// Most Python extension build systems follow a similar pattern:
//  1. Configure: Generate build files (Makefile, C++ sources from Cython, etc.)
//  2. Build: Compile the extension
//  3. Find: Locate the compiled extension files
//
// This structure allows builders to implement this pattern consistently
// while customizing each step's behavior.
//
// Example usage in a builder:
//
//	return runCommonBuild(ctx, config, extensionFile, CommonBuildSteps{
//	    ConfigureFunc: b.runCythonize,
//	    BuildFunc:     b.compileAndLink,
//	    FindFunc:      b.locateExtensions,
//	})
type CommonBuildSteps struct {
	// ConfigureFunc prepares the build environment (e.g., run cython, cmake)
	ConfigureFunc func(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error

	// BuildFunc compiles the extension (e.g., run make, cargo build)
	BuildFunc func(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error

	// FindFunc locates the compiled extension files after build completes
	FindFunc func(extensionDir string) ([]string, error)
}
