package pyext

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocateToolkitEnvOverride(t *testing.T) {
	home := t.TempDir()

	lookPathCalled := false
	opts := &ToolkitOptions{
		Getenv: func(key string) string {
			if key != ToolkitHomeEnv {
				t.Fatalf("unexpected env lookup for %s", key)
			}
			return home
		},
		LookPath: func(string) (string, error) {
			lookPathCalled = true
			return "", errors.New("should not be called")
		},
	}

	toolkit, err := LocateToolkit(opts)
	if err != nil {
		t.Fatalf("LocateToolkit returned error: %v", err)
	}

	if toolkit.Home != home {
		t.Errorf("expected toolkit home %s, got %s", home, toolkit.Home)
	}

	// The override is authoritative; PATH must never be probed
	if lookPathCalled {
		t.Error("expected PATH probe to be skipped when override is set")
	}
}

func TestLocateToolkitDerivesRootFromCompanionTool(t *testing.T) {
	root := t.TempDir()
	binDir := filepath.Join(root, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("failed to create bin directory: %v", err)
	}

	toolPath := filepath.Join(binDir, "cuda-gdb")
	if err := os.WriteFile(toolPath, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("failed to write companion tool: %v", err)
	}

	opts := &ToolkitOptions{
		Getenv: func(string) string { return "" },
		LookPath: func(file string) (string, error) {
			if file != "cuda-gdb" {
				t.Fatalf("unexpected PATH lookup for %s", file)
			}
			return toolPath, nil
		},
	}

	toolkit, err := LocateToolkit(opts)
	if err != nil {
		t.Fatalf("LocateToolkit returned error: %v", err)
	}

	if toolkit.Home != root {
		t.Errorf("expected derived root %s, got %s", root, toolkit.Home)
	}

	expectedInclude := filepath.Join(root, "include")
	if toolkit.IncludeDir() != expectedInclude {
		t.Errorf("expected include dir %s, got %s", expectedInclude, toolkit.IncludeDir())
	}
}

func TestLocateToolkitNotFound(t *testing.T) {
	opts := &ToolkitOptions{
		Getenv:   func(string) string { return "" },
		LookPath: func(string) (string, error) { return "", errors.New("not found") },
	}

	_, err := LocateToolkit(opts)
	if !errors.Is(err, ErrToolkitNotFound) {
		t.Fatalf("expected ErrToolkitNotFound, got %v", err)
	}

	// The message must tell the user which variable to set
	if !strings.Contains(err.Error(), ToolkitHomeEnv) {
		t.Errorf("expected error to name %s, got %q", ToolkitHomeEnv, err.Error())
	}
}

func TestLocateToolkitInvalidOverridePath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-toolkit")

	opts := &ToolkitOptions{
		Getenv: func(string) string { return missing },
	}

	_, err := LocateToolkit(opts)
	if !errors.Is(err, ErrInvalidToolkitPath) {
		t.Fatalf("expected ErrInvalidToolkitPath, got %v", err)
	}

	// The message must include the path that failed validation
	if !strings.Contains(err.Error(), missing) {
		t.Errorf("expected error to include %s, got %q", missing, err.Error())
	}
}

func TestLocateToolkitInvalidDerivedPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")

	opts := &ToolkitOptions{
		Getenv: func(string) string { return "" },
		LookPath: func(string) (string, error) {
			return filepath.Join(missing, "bin", "cuda-gdb"), nil
		},
	}

	// Derived roots get the same validation as the override
	_, err := LocateToolkit(opts)
	if !errors.Is(err, ErrInvalidToolkitPath) {
		t.Fatalf("expected ErrInvalidToolkitPath for stale PATH entry, got %v", err)
	}
}

func TestLocateToolkitOverrideFileNotDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cuda")
	if err := os.WriteFile(file, []byte("not a directory"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	opts := &ToolkitOptions{
		Getenv: func(string) string { return file },
	}

	_, err := LocateToolkit(opts)
	if !errors.Is(err, ErrInvalidToolkitPath) {
		t.Fatalf("expected ErrInvalidToolkitPath for non-directory, got %v", err)
	}

	// The message must say the path is not a directory, not that it is missing
	if !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("expected a not-a-directory message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), file) {
		t.Errorf("expected error to include %s, got %q", file, err.Error())
	}
}

func TestLocateToolkitCustomEnvVar(t *testing.T) {
	home := t.TempDir()

	opts := &ToolkitOptions{
		EnvVar: "HIP_HOME",
		Getenv: func(key string) string {
			if key == "HIP_HOME" {
				return home
			}
			return ""
		},
	}

	toolkit, err := LocateToolkit(opts)
	if err != nil {
		t.Fatalf("LocateToolkit returned error: %v", err)
	}
	if toolkit.Home != home {
		t.Errorf("expected toolkit home %s, got %s", home, toolkit.Home)
	}

	opts.Getenv = func(string) string { return "" }
	opts.LookPath = func(string) (string, error) { return "", errors.New("not found") }

	_, err = LocateToolkit(opts)
	if err == nil || !strings.Contains(err.Error(), "HIP_HOME") {
		t.Errorf("expected error to name the configured variable, got %v", err)
	}
}
