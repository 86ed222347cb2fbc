package pyext

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var nativeLibraryExtensions = map[string]struct{}{
	".so":    {},
	".pyd":   {},
	".dll":   {},
	".dylib": {},
}

// finalizeNativeExtensions copies compiled native libraries into the install
// target directory structure and returns their paths relative to the package
// root. If no install target is configured, or no native libraries are
// present, the original build outputs are returned relative to the package
// root - the in-place layout that "build_ext --inplace" produces.
func finalizeNativeExtensions(config *BuildConfig, extensionFile, extensionDir string, built []string) ([]string, error) {
	if len(built) == 0 {
		return nil, nil
	}

	var hasNative bool
	for _, rel := range built {
		if isNativeLibrary(rel) {
			hasNative = true
			break
		}
	}

	if !hasNative {
		return makePackageRelative(config.PackageDir, extensionFile, built), nil
	}

	primaryDest, extraDests := installTargets(config)
	if primaryDest == "" {
		return makePackageRelative(config.PackageDir, extensionFile, built), nil
	}

	var installed []string

	for _, rel := range built {
		if !isNativeLibrary(rel) {
			continue
		}

		srcPath := filepath.Join(extensionDir, rel)
		if info, err := os.Stat(srcPath); err != nil || !info.Mode().IsRegular() {
			continue
		}

		relDest := determineInstallRelativePath(extensionFile, rel)
		if relDest == "" {
			relDest = filepath.Base(rel)
		}

		if err := copyFile(srcPath, filepath.Join(primaryDest, relDest)); err != nil {
			return nil, err
		}

		for _, dest := range extraDests {
			if err := copyFile(srcPath, filepath.Join(dest, relDest)); err != nil {
				return nil, err
			}
		}

		if relPath, err := filepath.Rel(config.PackageDir, filepath.Join(primaryDest, relDest)); err == nil {
			installed = append(installed, filepath.ToSlash(relPath))
		} else {
			installed = append(installed, filepath.ToSlash(filepath.Join(primaryDest, relDest)))
		}
	}

	return installed, nil
}

func makePackageRelative(packageDir, extensionFile string, built []string) []string {
	var relPaths []string
	baseDir := filepath.Dir(extensionFile)

	for _, rel := range built {
		full := filepath.Join(baseDir, rel)
		if packageDir != "" {
			if cleaned, err := filepath.Rel(packageDir, filepath.Join(packageDir, full)); err == nil {
				relPaths = append(relPaths, filepath.ToSlash(cleaned))
				continue
			}
		}
		relPaths = append(relPaths, filepath.ToSlash(full))
	}

	return relPaths
}

func isNativeLibrary(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := nativeLibraryExtensions[ext]
	return ok
}

func installTargets(config *BuildConfig) (primary string, additional []string) {
	baseDirs := gatherBaseDirectories(config)
	if len(baseDirs) == 0 {
		return "", nil
	}

	siteDir, useSite := pythonSiteDirectory(config)

	for i, base := range baseDirs {
		target := base
		if useSite {
			target = filepath.Join(base, siteDir)
		}

		if i == 0 {
			primary = target
		} else {
			additional = append(additional, target)
		}
	}

	additional = uniqueStrings(additional)
	return primary, additional
}

func gatherBaseDirectories(config *BuildConfig) []string {
	var dirs []string

	add := func(dir string) {
		if dir == "" {
			return
		}
		if !filepath.IsAbs(dir) && config.PackageDir != "" {
			dir = filepath.Join(config.PackageDir, dir)
		}
		dirs = append(dirs, filepath.Clean(dir))
	}

	add(config.DestPath)
	add(config.LibDir)

	return uniqueStrings(dirs)
}

// pythonSiteDirectory returns the prefix-style install subdirectory
// (lib/pythonX.Y/site-packages) for the configured interpreter version.
func pythonSiteDirectory(config *BuildConfig) (string, bool) {
	if config.Python == nil {
		return "", false
	}

	major, minor, ok := parsePythonVersion(config.Python.Version)
	if !ok || major < 3 {
		return "", false
	}

	return filepath.Join("lib", fmt.Sprintf("python%d.%d", major, minor), "site-packages"), true
}

// determineInstallRelativePath maps a built artifact back onto its package
// module path. Extensions are built next to their sources, so the install
// path is the source directory joined with the artifact's own relative path.
func determineInstallRelativePath(extensionFile, builtRel string) string {
	relDir := filepath.Dir(extensionFile)
	if relDir == "." {
		return safeRelativePath(builtRel)
	}
	return safeRelativePath(filepath.Join(relDir, builtRel))
}

func copyFile(srcPath, destPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(destPath)
	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		return mkErr
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

func safeRelativePath(path string) string {
	clean := filepath.Clean(path)
	if clean == "." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return filepath.Base(path)
	}
	return clean
}

func parsePythonVersion(version string) (major, minor int, ok bool) {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return 0, 0, false
	}

	var err error
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}

	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}

	return major, minor, true
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{})
	var result []string

	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result
}
