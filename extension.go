package pyext

// ExtensionSpec is the compiler-facing configuration for one native
// extension: what to compile and the include/library/flag lists the
// compiler and linker are invoked with.
//
// An ExtensionSpec is assembled once by BuildExtensionSpec and consumed
// by builders; it is never mutated afterwards. Directory entries are not
// checked for existence here - a missing header or library directory
// surfaces later as a compiler or linker error.
type ExtensionSpec struct {
	// Sources are glob patterns for the extension source files,
	// relative to the package directory (e.g., "rmm/_lib/**/*.pyx").
	Sources []string

	// IncludeDirs is the ordered compiler include search path.
	// Project directories come first, toolkit headers last.
	IncludeDirs []string

	// LibraryDirs is the linker library search path.
	LibraryDirs []string

	// Libraries are the native library names to link against,
	// without prefix or suffix (e.g., "rmm" for librmm.so).
	Libraries []string

	// Language is the implementation language, "c" or "c++".
	Language string

	// ExtraCompileArgs are additional compiler flags (e.g., -std=c++14).
	ExtraCompileArgs []string

	// ExtraLinkArgs are additional linker flags.
	ExtraLinkArgs []string
}

// ExtensionInputs are the static, project-supplied parts of an
// extension specification, typically declared in package.yaml.
type ExtensionInputs struct {
	Sources            []string // Source glob patterns
	ProjectIncludeDirs []string // Project header directories, in order
	Libraries          []string // Native libraries to link against
	Language           string   // "c" or "c++" (default "c++")
	CompileArgs        []string // Extra compiler flags
	LinkArgs           []string // Extra linker flags
}

// BuildExtensionSpec assembles the compiler configuration for one
// extension from the project inputs, the located toolkit and the
// discovered Python runtime.
//
// The include search path is ordered project-first:
//  1. the project's own header directories, in declared order
//  2. the parent of the Python include directory
//  3. the toolkit include directory
//
// Library search directories are the Python platform site-packages
// directory and <prefix>/lib, where companion native libraries are
// conventionally installed.
//
// The result is a pure function of its inputs: identical inputs yield
// identical specs, with no hidden global state consulted.
func BuildExtensionSpec(in ExtensionInputs, toolkit *Toolkit, python *PythonRuntime) *ExtensionSpec {
	language := in.Language
	if language == "" {
		language = "c++"
	}

	includeDirs := make([]string, 0, len(in.ProjectIncludeDirs)+2)
	includeDirs = append(includeDirs, in.ProjectIncludeDirs...)
	includeDirs = append(includeDirs, python.IncludeParentDir(), toolkit.IncludeDir())

	return &ExtensionSpec{
		Sources:          append([]string{}, in.Sources...),
		IncludeDirs:      includeDirs,
		LibraryDirs:      []string{python.SiteLibDir, python.PrefixLibDir()},
		Libraries:        append([]string{}, in.Libraries...),
		Language:         language,
		ExtraCompileArgs: append([]string{}, in.CompileArgs...),
		ExtraLinkArgs:    append([]string{}, in.LinkArgs...),
	}
}

// CompileFlags returns the -I and extra compiler flags in invocation order.
func (s *ExtensionSpec) CompileFlags() []string {
	flags := make([]string, 0, len(s.IncludeDirs)+len(s.ExtraCompileArgs))
	for _, dir := range s.IncludeDirs {
		flags = append(flags, "-I"+dir)
	}
	flags = append(flags, s.ExtraCompileArgs...)
	return flags
}

// LinkFlags returns the -L, -l and extra linker flags in invocation order.
func (s *ExtensionSpec) LinkFlags() []string {
	flags := make([]string, 0, len(s.LibraryDirs)+len(s.Libraries)+len(s.ExtraLinkArgs))
	for _, dir := range s.LibraryDirs {
		flags = append(flags, "-L"+dir)
	}
	for _, lib := range s.Libraries {
		flags = append(flags, "-l"+lib)
	}
	flags = append(flags, s.ExtraLinkArgs...)
	return flags
}
