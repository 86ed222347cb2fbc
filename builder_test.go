package pyext

import (
	"context"
	"testing"
)

func TestBuilderFactory(t *testing.T) {
	factory := NewBuilderFactory()

	// Test that all expected builders are registered
	builders := factory.ListBuilders()
	if len(builders) != 7 {
		t.Errorf("Expected 7 builders, got %d", len(builders))
	}

	// Test builder detection for each type
	testCases := []struct {
		extensionFile string
		expectedName  string
	}{
		{"rmm/_lib/device_buffer.pyx", "Cython"},
		{"setup.py", "SetupPy"},
		{"python/setup.py", "SetupPy"},
		{"cpp/CMakeLists.txt", "CMake"},
		{"rust/Cargo.toml", "Cargo"},
		{"native/Makefile", "Makefile"},
		{"kernels/reduce.cu", "Nvcc"},
		{"goext/go.mod", "Go"},
	}

	for _, tc := range testCases {
		t.Run(tc.extensionFile, func(t *testing.T) {
			builder, err := factory.BuilderFor(tc.extensionFile)
			if err != nil {
				t.Fatalf("Expected builder for %s, got error: %v", tc.extensionFile, err)
			}

			if builder.Name() != tc.expectedName {
				t.Errorf("Expected builder %s for %s, got %s", tc.expectedName, tc.extensionFile, builder.Name())
			}
		})
	}

	// Test unsupported extension
	_, err := factory.BuilderFor("unknown.file")
	if err == nil {
		t.Error("Expected error for unsupported extension file")
	}
}

func TestBuilderDetection(t *testing.T) {
	testCases := []struct {
		name         string
		builder      Builder
		validFiles   []string
		invalidFiles []string
	}{
		{
			name:    "CythonBuilder",
			builder: &CythonBuilder{},
			validFiles: []string{
				"device_buffer.pyx",
				"rmm/_lib/device_buffer.pyx",
				"path/to/module.pyx",
			},
			invalidFiles: []string{
				"setup.py",
				"CMakeLists.txt",
				"Cargo.toml",
				"module.px",
				"module.py",
			},
		},
		{
			name:    "SetupPyBuilder",
			builder: &SetupPyBuilder{},
			validFiles: []string{
				"setup.py",
				"python/setup.py",
			},
			invalidFiles: []string{
				"setup.cfg",
				"setup.pyx",
				"CMakeLists.txt",
				"module.py",
			},
		},
		{
			name:    "CmakeBuilder",
			builder: &CmakeBuilder{},
			validFiles: []string{
				"CMakeLists.txt",
				"cpp/CMakeLists.txt",
			},
			invalidFiles: []string{
				"setup.py",
				"Makefile",
				"Cargo.toml",
				"cmake.txt",
			},
		},
		{
			name:    "CargoBuilder",
			builder: &CargoBuilder{},
			validFiles: []string{
				"Cargo.toml",
				"rust/Cargo.toml",
			},
			invalidFiles: []string{
				"setup.py",
				"Makefile",
				"CMakeLists.txt",
				"cargo.toml",
			},
		},
		{
			name:    "NvccBuilder",
			builder: &NvccBuilder{},
			validFiles: []string{
				"reduce.cu",
				"kernels/scan.cu",
			},
			invalidFiles: []string{
				"reduce.cuh",
				"setup.py",
				"module.pyx",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Test valid files
			for _, file := range tc.validFiles {
				if !tc.builder.CanBuild(file) {
					t.Errorf("%s should be able to build %s", tc.name, file)
				}
			}

			// Test invalid files
			for _, file := range tc.invalidFiles {
				if tc.builder.CanBuild(file) {
					t.Errorf("%s should not be able to build %s", tc.name, file)
				}
			}
		})
	}
}

func TestMatchesPattern(t *testing.T) {
	testCases := []struct {
		filename string
		patterns []string
		expected bool
	}{
		{"setup.py", []string{`setup\.py$`}, true},
		{"device_buffer.pyx", []string{`\.pyx$`}, true},
		{"CMakeLists.txt", []string{`CMakeLists\.txt$`}, true},
		{"Cargo.toml", []string{`Cargo\.toml$`}, true},
		{"reduce.cu", []string{`\.pyx$`, `\.cu$`}, true},
		{"unknown.file", []string{`setup\.py$`, `\.pyx$`}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			result := MatchesPattern(tc.filename, tc.patterns...)
			if result != tc.expected {
				t.Errorf("MatchesPattern(%s, %v) = %v, expected %v",
					tc.filename, tc.patterns, result, tc.expected)
			}
		})
	}
}

func TestMatchesExtension(t *testing.T) {
	testCases := []struct {
		filename   string
		extensions []string
		expected   bool
	}{
		{"module.so", []string{".so"}, true},
		{"module.SO", []string{".so"}, true},
		{"module.pyd", []string{".so", ".pyd"}, true},
		{"module.o", []string{".so", ".pyd"}, false},
		{"noext", []string{".so"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			result := MatchesExtension(tc.filename, tc.extensions...)
			if result != tc.expected {
				t.Errorf("MatchesExtension(%s, %v) = %v, expected %v",
					tc.filename, tc.extensions, result, tc.expected)
			}
		})
	}
}

func TestBuildError(t *testing.T) {
	output := []string{"line 1", "line 2", "error occurred"}
	err := BuildError("TestBuilder", output, nil)

	expected := "TestBuilder build failed: <nil>\n\nBuild output:\nline 1\nline 2\nerror occurred"
	if err.Error() != expected {
		t.Errorf("BuildError output mismatch.\nExpected: %s\nGot: %s", expected, err.Error())
	}
}

func TestBuildConfig(t *testing.T) {
	config := &BuildConfig{
		PackageDir:   "/path/to/package",
		ExtensionDir: "/path/to/package/rmm/_lib",
		DestPath:     "/path/to/dest",
		Python:       &PythonRuntime{Executable: "/usr/bin/python3"},
		Verbose:      true,
		Parallel:     4,
	}

	// Test that configuration values are properly set
	if config.PackageDir != "/path/to/package" {
		t.Errorf("Expected PackageDir '/path/to/package', got '%s'", config.PackageDir)
	}

	if config.Parallel != 4 {
		t.Errorf("Expected Parallel 4, got %d", config.Parallel)
	}

	if !config.Verbose {
		t.Error("Expected Verbose to be true")
	}

	if config.pythonExecutable() != "/usr/bin/python3" {
		t.Errorf("Expected configured interpreter, got '%s'", config.pythonExecutable())
	}

	if (&BuildConfig{}).pythonExecutable() != "python3" {
		t.Error("Expected python3 as the default interpreter")
	}
}

func TestBuildAllExtensions(t *testing.T) {
	factory := NewBuilderFactory()

	config := &BuildConfig{
		PackageDir: "/tmp/test",
	}

	ctx := context.Background()

	// Test with no extensions
	results, err := factory.BuildAllExtensions(ctx, config, nil)
	if err != nil {
		t.Errorf("Expected no error for empty extensions, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected 0 results for empty extensions, got %d", len(results))
	}

	// Test with unknown extension
	results, err = factory.BuildAllExtensions(ctx, config, []string{"unknown.file"})
	if err == nil {
		t.Error("Expected error for unknown extension")
	}
	if len(results) != 1 || results[0].Success {
		t.Error("Expected 1 failed result for unknown extension")
	}
}
