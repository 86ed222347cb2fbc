package pyext

import (
	"os"
	"path/filepath"
	"testing"
)

const cythonBuilderName = "Cython"

// This test demonstrates how the extension building would work in practice
func TestExtensionBuildWorkflow(t *testing.T) {
	factory := NewBuilderFactory()

	// Simulate the extension files a package would declare
	extensions := []string{
		"rmm/_lib/device_buffer.pyx", // Most common (Cython wrapping a C++ library)
		"python/setup.py",            // setuptools
		"cpp/CMakeLists.txt",         // CMake
		"rust/Cargo.toml",            // Rust/PyO3
		"kernels/reduce.cu",          // Raw CUDA
	}

	for _, extension := range extensions {
		t.Run(extension, func(t *testing.T) {
			builder, err := factory.BuilderFor(extension)
			if err != nil {
				t.Fatalf("Failed to find builder for %s: %v", extension, err)
			}

			t.Logf("Found %s builder for %s", builder.Name(), extension)

			// Verify the builder can handle this extension
			if !builder.CanBuild(filepath.Base(extension)) {
				t.Errorf("Builder %s claims it cannot build %s", builder.Name(), extension)
			}
		})
	}
}

// Test builder priority - first match wins
func TestBuilderPriority(t *testing.T) {
	factory := NewBuilderFactory()

	// Test that .pyx takes precedence
	builder, err := factory.BuilderFor("rmm/_lib/device_buffer.pyx")
	if err != nil {
		t.Fatalf("Failed to find builder: %v", err)
	}

	if builder.Name() != cythonBuilderName {
		t.Errorf("Expected Cython builder for device_buffer.pyx, got %s", builder.Name())
	}
}

// End-to-end configuration assembly: descriptor -> toolkit -> spec, without
// invoking any compiler.
func TestBuildConfigurationAssembly(t *testing.T) {
	packageDir := t.TempDir()
	toolkitHome := t.TempDir()

	libDir := filepath.Join(packageDir, "rmm", "_lib")
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		t.Fatalf("failed to create source directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(libDir, "device_buffer.pyx"), []byte("# cython"), 0o600); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	descriptorYAML := `name: rmm
version: 0.14.0
extensions:
  - sources:
      - "rmm/_lib/**/*.pyx"
    include_dirs:
      - include
    libraries:
      - rmm
    compile_args:
      - -std=c++14
`
	descriptorPath := filepath.Join(packageDir, DefaultDescriptorFile)
	if err := os.WriteFile(descriptorPath, []byte(descriptorYAML), 0o600); err != nil {
		t.Fatalf("failed to write descriptor: %v", err)
	}

	descriptor, err := LoadDescriptor(descriptorPath)
	if err != nil {
		t.Fatalf("LoadDescriptor returned error: %v", err)
	}

	toolkit, err := LocateToolkit(&ToolkitOptions{
		Getenv: func(key string) string {
			if key == ToolkitHomeEnv {
				return toolkitHome
			}
			return ""
		},
	})
	if err != nil {
		t.Fatalf("LocateToolkit returned error: %v", err)
	}

	python := &PythonRuntime{
		Executable: "python3",
		Version:    "3.11",
		Prefix:     "/opt/conda",
		IncludeDir: "/opt/conda/include/python3.11",
		SiteLibDir: "/opt/conda/lib/python3.11/site-packages",
		ExtSuffix:  ".cpython-311-x86_64-linux-gnu.so",
	}

	ext := descriptor.Extensions[0]
	spec := BuildExtensionSpec(ExtensionInputs{
		Sources:            ext.Sources,
		ProjectIncludeDirs: ext.IncludeDirs,
		Libraries:          ext.Libraries,
		Language:           ext.Language,
		CompileArgs:        ext.CompileArgs,
		LinkArgs:           ext.LinkArgs,
	}, toolkit, python)

	// Toolkit headers always come last in the search path
	last := spec.IncludeDirs[len(spec.IncludeDirs)-1]
	if last != toolkit.IncludeDir() {
		t.Errorf("expected toolkit include dir last, got %s", last)
	}

	files, err := ExpandSourceGlobs(packageDir, ext.Sources)
	if err != nil {
		t.Fatalf("ExpandSourceGlobs returned error: %v", err)
	}
	if len(files) != 1 || files[0] != "rmm/_lib/device_buffer.pyx" {
		t.Fatalf("expected single pyx source, got %v", files)
	}

	factory := NewBuilderFactory()
	builder, err := factory.BuilderFor(files[0])
	if err != nil {
		t.Fatalf("BuilderFor returned error: %v", err)
	}
	if builder.Name() != cythonBuilderName {
		t.Errorf("expected Cython builder, got %s", builder.Name())
	}
}
