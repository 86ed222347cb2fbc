package pyext

import (
	"os"
	"path/filepath"
	"testing"
)

func TestModuleBaseName(t *testing.T) {
	testCases := []struct {
		extensionFile string
		expected      string
	}{
		{"device_buffer.pyx", "device_buffer"},
		{"rmm/_lib/device_buffer.pyx", "device_buffer"},
		{"kernels/reduce.cu", "reduce"},
		{"noext", "noext"},
	}

	for _, tc := range testCases {
		t.Run(tc.extensionFile, func(t *testing.T) {
			if got := moduleBaseName(tc.extensionFile); got != tc.expected {
				t.Errorf("moduleBaseName(%s) = %s, expected %s", tc.extensionFile, got, tc.expected)
			}
		})
	}
}

func TestExtSuffix(t *testing.T) {
	config := &BuildConfig{
		Python: &PythonRuntime{ExtSuffix: ".cpython-311-x86_64-linux-gnu.so"},
	}
	if got := extSuffix(config); got != ".cpython-311-x86_64-linux-gnu.so" {
		t.Errorf("expected interpreter suffix, got %s", got)
	}

	if got := extSuffix(&BuildConfig{}); got != ".so" {
		t.Errorf("expected .so fallback, got %s", got)
	}
}

func TestCythonGeneratedSource(t *testing.T) {
	builder := &CythonBuilder{}

	cppConfig := &BuildConfig{Spec: &ExtensionSpec{Language: "c++"}}
	if got := builder.generatedSource(cppConfig, "device_buffer.pyx"); got != "device_buffer.cpp" {
		t.Errorf("expected device_buffer.cpp, got %s", got)
	}

	cConfig := &BuildConfig{Spec: &ExtensionSpec{Language: "c"}}
	if got := builder.generatedSource(cConfig, "device_buffer.pyx"); got != "device_buffer.c" {
		t.Errorf("expected device_buffer.c, got %s", got)
	}

	// No spec defaults to c++
	if got := builder.generatedSource(&BuildConfig{}, "device_buffer.pyx"); got != "device_buffer.cpp" {
		t.Errorf("expected c++ default, got %s", got)
	}
}

func TestCythonGetCompilerHonorsEnvironment(t *testing.T) {
	builder := &CythonBuilder{}

	t.Setenv("CXX", "/opt/compilers/g++-13")
	config := &BuildConfig{Spec: &ExtensionSpec{Language: "c++"}}
	if got := builder.getCompiler(config); got != "/opt/compilers/g++-13" {
		t.Errorf("expected CXX override, got %s", got)
	}

	t.Setenv("CC", "/opt/compilers/gcc-13")
	cConfig := &BuildConfig{Spec: &ExtensionSpec{Language: "c"}}
	if got := builder.getCompiler(cConfig); got != "/opt/compilers/gcc-13" {
		t.Errorf("expected CC override, got %s", got)
	}
}

func TestCythonFindBuiltExtensions(t *testing.T) {
	extensionDir := t.TempDir()

	files := []string{
		"device_buffer.cpython-311-x86_64-linux-gnu.so",
		"device_buffer.cpp",
		"device_buffer.pyx",
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(extensionDir, name), []byte("content"), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	builder := &CythonBuilder{}
	extensions, err := builder.findBuiltExtensions(extensionDir)
	if err != nil {
		t.Fatalf("findBuiltExtensions returned error: %v", err)
	}

	if len(extensions) != 1 {
		t.Fatalf("expected 1 extension, got %v", extensions)
	}
	if extensions[0] != "device_buffer.cpython-311-x86_64-linux-gnu.so" {
		t.Errorf("unexpected extension %s", extensions[0])
	}
}
