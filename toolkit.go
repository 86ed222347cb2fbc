package pyext

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ToolkitHomeEnv is the environment variable that overrides CUDA toolkit
// discovery. When set, its value is used as the toolkit root directly.
const ToolkitHomeEnv = "CUDA_HOME"

// companionTool is probed on PATH when no override is given. The CUDA
// toolkit installs it under <root>/bin, so the toolkit root is the
// grandparent directory of the resolved binary.
const companionTool = "cuda-gdb"

var (
	// ErrToolkitNotFound indicates that neither the environment override
	// nor PATH probing located a CUDA toolkit installation.
	ErrToolkitNotFound = errors.New("CUDA toolkit not found")

	// ErrInvalidToolkitPath indicates the resolved toolkit root does not
	// exist as a directory.
	ErrInvalidToolkitPath = errors.New("invalid CUDA toolkit path")
)

// Toolkit is a validated CUDA toolkit installation root.
//
// A Toolkit is computed once at build-configuration time and never
// mutated. The zero value is not usable; obtain one from LocateToolkit.
type Toolkit struct {
	// Home is the toolkit root directory (e.g., /usr/local/cuda).
	Home string
}

// IncludeDir returns the toolkit header directory used as a compiler
// include search path. Existence is not checked here - a missing header
// directory surfaces later as a compiler error.
func (t *Toolkit) IncludeDir() string {
	return filepath.Join(t.Home, "include")
}

// ToolkitOptions controls toolkit discovery.
//
// The zero value selects the production defaults: the CUDA_HOME
// environment variable, the cuda-gdb companion tool, and the real
// os/exec PATH lookup. Tests inject LookPath and Getenv to exercise
// discovery without a CUDA installation.
type ToolkitOptions struct {
	// EnvVar overrides the environment variable name (default CUDA_HOME).
	EnvVar string

	// CompanionTool overrides the binary probed on PATH (default cuda-gdb).
	CompanionTool string

	// LookPath resolves a binary name against the search path.
	// Defaults to exec.LookPath.
	LookPath func(file string) (string, error)

	// Getenv reads an environment variable. Defaults to os.Getenv.
	Getenv func(key string) string
}

func (o *ToolkitOptions) envVar() string {
	if o != nil && o.EnvVar != "" {
		return o.EnvVar
	}
	return ToolkitHomeEnv
}

func (o *ToolkitOptions) companionTool() string {
	if o != nil && o.CompanionTool != "" {
		return o.CompanionTool
	}
	return companionTool
}

func (o *ToolkitOptions) lookPath(file string) (string, error) {
	if o != nil && o.LookPath != nil {
		return o.LookPath(file)
	}
	return exec.LookPath(file)
}

func (o *ToolkitOptions) getenv(key string) string {
	if o != nil && o.Getenv != nil {
		return o.Getenv(key)
	}
	return os.Getenv(key)
}

// LocateToolkit discovers the CUDA toolkit installation root.
//
// Discovery order:
//  1. The environment override (CUDA_HOME by default). When set, its
//     value is used directly.
//  2. PATH probing for the companion tool (cuda-gdb by default). The
//     toolkit root is derived as the grandparent directory of the
//     resolved binary (<root>/bin/cuda-gdb).
//
// The resolved root must exist as a directory. Both discovery paths
// receive the same validation.
//
// Errors:
//   - ErrToolkitNotFound when neither source yields a path. The message
//     names the environment variable the user should set.
//   - ErrInvalidToolkitPath when the resolved path is not an existing
//     directory. The message includes the resolved path.
//
// Both errors are fatal: the build cannot proceed and no compilation is
// attempted. Discovery performs no filesystem mutation.
func LocateToolkit(opts *ToolkitOptions) (*Toolkit, error) {
	envVar := opts.envVar()

	home := opts.getenv(envVar)
	if home == "" {
		tool := opts.companionTool()
		toolPath, err := opts.lookPath(tool)
		if err != nil {
			return nil, fmt.Errorf("%w: %s is not in PATH; set %s to the toolkit installation directory",
				ErrToolkitNotFound, tool, envVar)
		}
		// <root>/bin/cuda-gdb -> <root>
		home = filepath.Dir(filepath.Dir(toolPath))
	}

	info, err := os.Stat(home)
	if err != nil {
		return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidToolkitPath, home)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidToolkitPath, home)
	}

	return &Toolkit{Home: home}, nil
}
