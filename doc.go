// Package pyext provides native extension compilation support for Python packages.
//
// This package is the Go equivalent of setuptools' build_ext machinery and
// supports multiple build systems commonly used by Python native extensions,
// including GPU-accelerated packages that compile against the CUDA toolkit.
//
// # Supported Build Systems
//
// The package includes builders for:
//   - *.pyx - Cython extensions translated to C/C++ and compiled directly
//   - setup.py - Traditional setuptools/distutils build_ext workflows
//   - CMakeLists.txt - CMake-based C/C++/CUDA extensions
//   - Cargo.toml - Rust-based extensions via PyO3/Cargo
//   - Makefile - Make-driven compilation workflows
//   - *.cu - Standalone CUDA kernels compiled with nvcc
//   - go.mod - Go-based extensions loaded via ctypes/cffi
//
// # Basic Usage
//
// Load a package descriptor and build everything it declares:
//
//	descriptor, err := pyext.LoadDescriptor("package.yaml")
//	if err != nil {
//	    return err
//	}
//
//	config := &pyext.BuildConfig{
//	    PackageDir: "/path/to/package",
//	    Verbose:    true,
//	}
//
//	results, err := descriptor.Build(ctx, config, nil)
//
// Or drive the factory directly for a known set of extension files:
//
//	factory := pyext.NewBuilderFactory()
//	extensions := []string{"rmm/_lib/device_buffer.pyx"}
//	results, err := factory.BuildAllExtensions(ctx, config, extensions)
//
// # Toolkit Discovery
//
// Packages that compile against CUDA locate the toolkit before any builder
// runs. LocateToolkit honors the CUDA_HOME environment variable and falls
// back to deriving the installation root from cuda-gdb on PATH. Discovery
// failures abort the build before a compiler is ever invoked:
//
//	toolkit, err := pyext.LocateToolkit(nil)
//	if err != nil {
//	    return err // CUDA_HOME unset and no cuda-gdb on PATH
//	}
//
// # Architecture
//
// The package uses a factory pattern with registered builders:
//
//	BuilderFactory
//	├── CythonBuilder (*.pyx)
//	├── SetupPyBuilder (setup.py)
//	├── CmakeBuilder (CMakeLists.txt)
//	├── CargoBuilder (Cargo.toml)
//	├── MakefileBuilder (Makefile)
//	├── NvccBuilder (*.cu)
//	└── GoBuilder (go.mod, *.go)
//
// Each builder implements the Builder interface and can:
//   - Detect if it can handle a given extension file
//   - Build the extension with proper error handling
//   - Clean build artifacts
//
// # Requirements
//
// Requires Go 1.25 or later.
//
// # Platform Support
//
// Full support on Linux and macOS. Limited Windows support (MinGW/MSYS2).
// Cross-compilation is supported with proper toolchain configuration.
package pyext
