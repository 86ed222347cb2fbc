package pyext

import (
	"path/filepath"
	"reflect"
	"testing"
)

func testRuntime() *PythonRuntime {
	return &PythonRuntime{
		Executable: "python3",
		Version:    "3.11",
		Prefix:     "/opt/conda",
		IncludeDir: "/opt/conda/include/python3.11",
		SiteLibDir: "/opt/conda/lib/python3.11/site-packages",
		ExtSuffix:  ".cpython-311-x86_64-linux-gnu.so",
	}
}

func TestBuildExtensionSpecIncludeOrder(t *testing.T) {
	toolkit := &Toolkit{Home: "/usr/local/cuda"}
	python := testRuntime()

	spec := BuildExtensionSpec(ExtensionInputs{
		Sources:            []string{"rmm/_lib/**/*.pyx"},
		ProjectIncludeDirs: []string{"include", "../cpp/include"},
		Libraries:          []string{"rmm"},
		CompileArgs:        []string{"-std=c++14"},
	}, toolkit, python)

	expectedIncludes := []string{
		"include",
		"../cpp/include",
		"/opt/conda/include",
		filepath.Join("/usr/local/cuda", "include"),
	}
	if !reflect.DeepEqual(spec.IncludeDirs, expectedIncludes) {
		t.Errorf("unexpected include order:\nexpected %v\ngot      %v", expectedIncludes, spec.IncludeDirs)
	}

	expectedLibDirs := []string{
		"/opt/conda/lib/python3.11/site-packages",
		filepath.Join("/opt/conda", "lib"),
	}
	if !reflect.DeepEqual(spec.LibraryDirs, expectedLibDirs) {
		t.Errorf("unexpected library dirs:\nexpected %v\ngot      %v", expectedLibDirs, spec.LibraryDirs)
	}

	if spec.Language != "c++" {
		t.Errorf("expected default language c++, got %s", spec.Language)
	}
}

func TestBuildExtensionSpecIsDeterministic(t *testing.T) {
	toolkit := &Toolkit{Home: "/usr/local/cuda"}
	python := testRuntime()
	in := ExtensionInputs{
		Sources:            []string{"rmm/_lib/device_buffer.pyx"},
		ProjectIncludeDirs: []string{"include"},
		Libraries:          []string{"rmm"},
		CompileArgs:        []string{"-std=c++14"},
		LinkArgs:           []string{"-Wl,--as-needed"},
	}

	first := BuildExtensionSpec(in, toolkit, python)
	second := BuildExtensionSpec(in, toolkit, python)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different specs:\n%+v\n%+v", first, second)
	}
}

func TestBuildExtensionSpecDoesNotAliasInputs(t *testing.T) {
	toolkit := &Toolkit{Home: "/usr/local/cuda"}
	python := testRuntime()

	libraries := []string{"rmm"}
	spec := BuildExtensionSpec(ExtensionInputs{
		Sources:   []string{"a.pyx"},
		Libraries: libraries,
	}, toolkit, python)

	libraries[0] = "mutated"
	if spec.Libraries[0] != "rmm" {
		t.Error("spec aliased the caller's libraries slice")
	}
}

func TestBuildExtensionSpecExplicitLanguage(t *testing.T) {
	spec := BuildExtensionSpec(ExtensionInputs{
		Sources:  []string{"a.pyx"},
		Language: "c",
	}, &Toolkit{Home: "/usr/local/cuda"}, testRuntime())

	if spec.Language != "c" {
		t.Errorf("expected language c, got %s", spec.Language)
	}
}

func TestCompileFlags(t *testing.T) {
	spec := &ExtensionSpec{
		IncludeDirs:      []string{"include", "/usr/local/cuda/include"},
		ExtraCompileArgs: []string{"-std=c++14"},
	}

	expected := []string{"-Iinclude", "-I/usr/local/cuda/include", "-std=c++14"}
	if !reflect.DeepEqual(spec.CompileFlags(), expected) {
		t.Errorf("expected compile flags %v, got %v", expected, spec.CompileFlags())
	}
}

func TestLinkFlags(t *testing.T) {
	spec := &ExtensionSpec{
		LibraryDirs:   []string{"/opt/conda/lib"},
		Libraries:     []string{"rmm", "cudart"},
		ExtraLinkArgs: []string{"-Wl,--as-needed"},
	}

	expected := []string{"-L/opt/conda/lib", "-lrmm", "-lcudart", "-Wl,--as-needed"}
	if !reflect.DeepEqual(spec.LinkFlags(), expected) {
		t.Errorf("expected link flags %v, got %v", expected, spec.LinkFlags())
	}
}
