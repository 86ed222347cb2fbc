package pyext

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ulikunitz/xz"
)

func writeArchiveFixture(t *testing.T) (string, *Descriptor) {
	t.Helper()
	packageDir := t.TempDir()

	files := map[string]string{
		"rmm/_lib/device_buffer.so":  "binary",
		"rmm/_lib/device_buffer.pxd": "cdef",
	}
	for rel, content := range files {
		path := filepath.Join(packageDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}

	descriptor := &Descriptor{
		Name:        "rmm",
		Version:     "0.14.0",
		PackageData: []string{"rmm/_lib/*.pxd"},
	}

	return packageDir, descriptor
}

func listTarEntries(t *testing.T, r io.Reader) []string {
	t.Helper()

	var names []string
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read tar entry: %v", err)
		}
		names = append(names, header.Name)
	}
	sort.Strings(names)
	return names
}

func TestPackageTarGz(t *testing.T) {
	packageDir, descriptor := writeArchiveFixture(t)
	outDir := t.TempDir()

	outPath, err := descriptor.Package(packageDir, outDir, ArchiveTarGz, []string{"rmm/_lib/device_buffer.so"})
	if err != nil {
		t.Fatalf("Package returned error: %v", err)
	}

	expectedName := filepath.Join(outDir, "rmm-0.14.0.tar.gz")
	if outPath != expectedName {
		t.Errorf("expected artifact %s, got %s", expectedName, outPath)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open artifact: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("failed to open gzip stream: %v", err)
	}

	names := listTarEntries(t, gz)
	expected := []string{
		"rmm-0.14.0/rmm/_lib/device_buffer.pxd",
		"rmm-0.14.0/rmm/_lib/device_buffer.so",
	}
	if len(names) != len(expected) {
		t.Fatalf("expected entries %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("expected entry %s, got %s", expected[i], names[i])
		}
	}
}

func TestPackageTarXz(t *testing.T) {
	packageDir, descriptor := writeArchiveFixture(t)
	outDir := t.TempDir()

	outPath, err := descriptor.Package(packageDir, outDir, ArchiveTarXz, []string{"rmm/_lib/device_buffer.so"})
	if err != nil {
		t.Fatalf("Package returned error: %v", err)
	}

	if filepath.Base(outPath) != "rmm-0.14.0.tar.xz" {
		t.Errorf("expected rmm-0.14.0.tar.xz, got %s", filepath.Base(outPath))
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open artifact: %v", err)
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		t.Fatalf("failed to open xz stream: %v", err)
	}

	names := listTarEntries(t, xr)
	if len(names) != 2 {
		t.Fatalf("expected 2 entries, got %v", names)
	}
}

func TestPackageRejectsEmptyContents(t *testing.T) {
	packageDir := t.TempDir()
	descriptor := &Descriptor{Name: "empty", Version: "1.0.0"}

	if _, err := descriptor.Package(packageDir, t.TempDir(), ArchiveTarGz, nil); err == nil {
		t.Error("expected error when nothing matches")
	}
}

func TestPackageRejectsUnknownFormat(t *testing.T) {
	packageDir, descriptor := writeArchiveFixture(t)

	_, err := descriptor.Package(packageDir, t.TempDir(), ArchiveFormat("zip"), []string{"rmm/_lib/device_buffer.so"})
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}
