package pyext

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/sh"
)

// pythonProbeScript queries the interpreter for everything the build
// configuration needs, one value per line. Keeping the probe to a single
// interpreter invocation keeps discovery cheap and atomic.
const pythonProbeScript = `import sys, sysconfig
print(sysconfig.get_python_version())
print(sys.prefix)
print(sysconfig.get_path("include"))
print(sysconfig.get_path("platlib"))
print(sysconfig.get_config_var("EXT_SUFFIX") or ".so")
`

// PythonRuntime describes the host Python installation that extensions
// are compiled against.
//
// All fields are discovered once from the interpreter and never mutated.
type PythonRuntime struct {
	Executable string // Path or name of the interpreter (e.g., python3)
	Version    string // Python version, major.minor (e.g., "3.11")
	Prefix     string // sys.prefix
	IncludeDir string // sysconfig include path (contains Python.h)
	SiteLibDir string // platform site-packages directory
	ExtSuffix  string // extension filename suffix (e.g., ".cpython-311-x86_64-linux-gnu.so")
}

// IncludeParentDir returns the parent of the interpreter include path.
//
// Compilers are given the parent so that both pythonX.Y/ and sibling
// header directories resolve, matching how distutils-era build scripts
// configured the search path.
func (p *PythonRuntime) IncludeParentDir() string {
	return filepath.Dir(p.IncludeDir)
}

// PrefixLibDir returns <sys.prefix>/lib, the conventional location of
// the interpreter's shared libraries and of libraries installed into
// the same prefix (conda environments in particular).
func (p *PythonRuntime) PrefixLibDir() string {
	return filepath.Join(p.Prefix, "lib")
}

// DiscoverPython probes the given interpreter and returns its runtime
// description. An empty executable defaults to "python3".
//
// The interpreter is invoked once with an inline sysconfig script; any
// failure to execute it is returned wrapped with the interpreter name.
func DiscoverPython(executable string) (*PythonRuntime, error) {
	if executable == "" {
		executable = "python3"
	}

	out, err := sh.Output(executable, "-c", pythonProbeScript)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s for build configuration: %w", executable, err)
	}

	runtime, err := parsePythonProbe(out)
	if err != nil {
		return nil, fmt.Errorf("unexpected output from %s: %w", executable, err)
	}
	runtime.Executable = executable

	return runtime, nil
}

// parsePythonProbe parses the five-line probe output into a runtime
// description. Split out from DiscoverPython so it can be tested without
// an interpreter.
func parsePythonProbe(out string) (*PythonRuntime, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 5 {
		return nil, fmt.Errorf("expected 5 lines of interpreter output, got %d", len(lines))
	}

	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	return &PythonRuntime{
		Version:    lines[0],
		Prefix:     lines[1],
		IncludeDir: lines[2],
		SiteLibDir: lines[3],
		ExtSuffix:  lines[4],
	}, nil
}
