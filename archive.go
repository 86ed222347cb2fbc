package pyext

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/ulikunitz/xz"
)

// ArchiveFormat selects the compression applied to a package artifact.
type ArchiveFormat string

const (
	// ArchiveTarGz produces a gzip-compressed tarball (name-version.tar.gz).
	ArchiveTarGz ArchiveFormat = "tar.gz"

	// ArchiveTarXz produces an xz-compressed tarball (name-version.tar.xz).
	ArchiveTarXz ArchiveFormat = "tar.xz"
)

// Extension returns the filename suffix for the format, including the dot.
func (f ArchiveFormat) Extension() string {
	return "." + string(f)
}

// Package bundles the built extensions and the descriptor's package data
// into a source-distribution style archive under outDir. It returns the
// path to the written artifact.
//
// Entries are stored with the artifact name as the leading path component
// (rmm-0.14.0/rmm/_lib/lib.so), matching the layout tools expect when
// unpacking a distribution.
func (d *Descriptor) Package(packageDir, outDir string, format ArchiveFormat, built []string) (string, error) {
	files := append([]string{}, built...)

	dataFiles, err := ExpandSourceGlobs(packageDir, d.PackageData)
	if err != nil {
		return "", err
	}
	files = append(files, dataFiles...)
	files = uniqueStrings(files)
	sort.Strings(files)

	if len(files) == 0 {
		return "", fmt.Errorf("nothing to package for %s", d.ArtifactName())
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	outPath := filepath.Join(outDir, d.ArtifactName()+format.Extension())
	if err := writeArchive(packageDir, outPath, d.ArtifactName(), format, files); err != nil {
		return "", err
	}

	return outPath, nil
}

// writeArchive streams the listed package-relative files into a compressed
// tarball rooted at prefix.
func writeArchive(packageDir, outPath, prefix string, format ArchiveFormat, files []string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", outPath, err)
	}
	defer out.Close()

	var compressor io.WriteCloser
	switch format {
	case ArchiveTarXz:
		compressor, err = xz.NewWriter(out)
		if err != nil {
			return fmt.Errorf("failed to initialize xz writer: %w", err)
		}
	case ArchiveTarGz:
		compressor = gzip.NewWriter(out)
	default:
		return fmt.Errorf("unsupported archive format %q", format)
	}

	tw := tar.NewWriter(compressor)

	for _, rel := range files {
		if err := addArchiveEntry(tw, packageDir, prefix, rel); err != nil {
			tw.Close()
			compressor.Close()
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive %s: %w", outPath, err)
	}
	if err := compressor.Close(); err != nil {
		return fmt.Errorf("failed to flush compressor for %s: %w", outPath, err)
	}

	return out.Close()
}

func addArchiveEntry(tw *tar.Writer, packageDir, prefix, rel string) error {
	srcPath := filepath.Join(packageDir, filepath.FromSlash(rel))

	info, err := os.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("failed to stat archive entry %s: %w", rel, err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("failed to build header for %s: %w", rel, err)
	}
	header.Name = prefix + "/" + filepath.ToSlash(rel)

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", rel, err)
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", rel, err)
	}
	defer in.Close()

	if _, err := io.Copy(tw, in); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %w", rel, err)
	}

	return nil
}
