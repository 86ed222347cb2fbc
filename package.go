package pyext

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DescriptorExtension declares one native extension in the package
// descriptor: what to compile and the project-supplied parts of its
// compiler configuration.
type DescriptorExtension struct {
	Sources     []string `yaml:"sources"`
	IncludeDirs []string `yaml:"include_dirs"`
	Libraries   []string `yaml:"libraries"`
	Language    string   `yaml:"language"`
	CompileArgs []string `yaml:"compile_args"`
	LinkArgs    []string `yaml:"link_args"`
}

// Descriptor is the declarative package record loaded from package.yaml.
//
// It mirrors what a setup.py declares: distribution metadata, runtime
// dependency names, auxiliary data files to bundle, and the native
// extensions to compile. The descriptor is immutable for the duration
// of a build.
type Descriptor struct {
	Name        string                `yaml:"name"`
	Version     string                `yaml:"version"`
	Description string                `yaml:"description"`
	URL         string                `yaml:"url"`
	Author      string                `yaml:"author"`
	License     string                `yaml:"license"`
	Classifiers []string              `yaml:"classifiers"`
	Requires    []string              `yaml:"requires"`
	PackageData []string              `yaml:"package_data"`
	Extensions  []DescriptorExtension `yaml:"extensions"`
}

// DefaultDescriptorFile is the descriptor filename looked up relative
// to the package directory.
const DefaultDescriptorFile = "package.yaml"

// LoadDescriptor reads and validates a package descriptor.
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor %s: %w", path, err)
	}

	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor %s: %w", path, err)
	}

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid descriptor %s: %w", path, err)
	}

	return &d, nil
}

// Validate checks the backend-imposed schema: a distributable package
// needs at least a name and a version.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("package name is required")
	}
	if d.Version == "" {
		return fmt.Errorf("package version is required")
	}
	for i, ext := range d.Extensions {
		if len(ext.Sources) == 0 {
			return fmt.Errorf("extension %d declares no sources", i)
		}
	}
	return nil
}

// ArtifactName returns the base name of the package artifact, without
// the archive extension (e.g., "rmm-0.14.0").
func (d *Descriptor) ArtifactName() string {
	return d.Name + "-" + d.Version
}

// Build configures and compiles every extension declared by the descriptor.
//
// The flow is strictly linear: locate the toolkit, discover the Python
// runtime, assemble each extension's compiler configuration, then hand
// the sources to the builder factory. Toolkit discovery failures
// short-circuit the build - no builder is ever invoked and no compiler
// runs when the toolkit cannot be located or validated.
//
// Built native libraries are finalized into the configured install
// layout; each BuildResult's Extensions list holds the package-relative
// installed paths.
func (d *Descriptor) Build(ctx context.Context, config *BuildConfig, toolkitOpts *ToolkitOptions) ([]*BuildResult, error) {
	if config.Toolkit == nil {
		toolkit, err := LocateToolkit(toolkitOpts)
		if err != nil {
			return nil, err
		}
		config.Toolkit = toolkit
	}

	if config.Python == nil {
		python, err := DiscoverPython("")
		if err != nil {
			return nil, err
		}
		config.Python = python
	}

	factory := NewBuilderFactory()

	var all []*BuildResult
	for _, ext := range d.Extensions {
		config.Spec = BuildExtensionSpec(ExtensionInputs{
			Sources:            ext.Sources,
			ProjectIncludeDirs: ext.IncludeDirs,
			Libraries:          ext.Libraries,
			Language:           ext.Language,
			CompileArgs:        ext.CompileArgs,
			LinkArgs:           ext.LinkArgs,
		}, config.Toolkit, config.Python)

		files, err := ExpandSourceGlobs(config.PackageDir, ext.Sources)
		if err != nil {
			return all, err
		}
		if len(files) == 0 {
			return all, fmt.Errorf("no sources matched patterns %v under %s", ext.Sources, config.PackageDir)
		}

		results, err := factory.BuildAllExtensions(ctx, config, files)
		for i, result := range results {
			if result == nil || !result.Success {
				continue
			}
			extensionDir := filepath.Dir(filepath.Join(config.PackageDir, files[i]))
			installed, finalizeErr := finalizeNativeExtensions(config, files[i], extensionDir, result.Extensions)
			if finalizeErr != nil {
				result.Success = false
				result.Error = finalizeErr
				if err == nil {
					err = finalizeErr
				}
				continue
			}
			result.Extensions = installed
		}

		all = append(all, results...)
		if err != nil {
			return all, err
		}
	}

	return all, nil
}

// ExpandSourceGlobs resolves source glob patterns relative to the package
// directory and returns matching files as package-relative paths.
//
// Patterns support the usual filepath.Glob syntax plus a "**" segment
// for recursive matching, which is how descriptors conventionally select
// every Cython source under a package (e.g., "rmm/_lib/**/*.pyx").
// Segments after "**" must match the trailing path of each candidate,
// so "a/**/b/*.pyx" only matches .pyx files inside a b/ directory.
func ExpandSourceGlobs(packageDir string, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	add := func(match string) {
		rel, err := filepath.Rel(packageDir, match)
		if err != nil {
			rel = match
		}
		rel = filepath.ToSlash(rel)
		if _, ok := seen[rel]; ok {
			return
		}
		seen[rel] = struct{}{}
		files = append(files, rel)
	}

	for _, pattern := range patterns {
		if strings.Contains(pattern, "**") {
			matches, err := expandRecursiveGlob(packageDir, pattern)
			if err != nil {
				return nil, err
			}
			for _, match := range matches {
				add(match)
			}
			continue
		}

		matches, err := filepath.Glob(filepath.Join(packageDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid source pattern %s: %v", pattern, err)
		}
		for _, match := range matches {
			add(match)
		}
	}

	sort.Strings(files)
	return files, nil
}

// expandRecursiveGlob handles patterns with a "**" segment by walking the
// directory prefix and matching the trailing path segments against the
// pattern remainder, so "a/**/b/*.pyx" only matches files inside a b/
// directory.
func expandRecursiveGlob(packageDir, pattern string) ([]string, error) {
	idx := strings.Index(pattern, "**")
	prefix := strings.TrimSuffix(pattern[:idx], "/")
	remainder := strings.TrimPrefix(pattern[idx+2:], "/")

	root := filepath.Join(packageDir, filepath.FromSlash(prefix))
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var matches []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if matchTrailingSegments(filepath.ToSlash(rel), remainder) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s for pattern %s: %v", root, pattern, err)
	}

	return matches, nil
}

// matchTrailingSegments reports whether the trailing segments of the
// slash-separated rel path match the slash-separated pattern, segment by
// segment. An empty pattern matches everything (a bare "dir/**").
func matchTrailingSegments(rel, pattern string) bool {
	if pattern == "" {
		return true
	}

	relParts := strings.Split(rel, "/")
	patternParts := strings.Split(pattern, "/")
	if len(patternParts) > len(relParts) {
		return false
	}

	tail := relParts[len(relParts)-len(patternParts):]
	for i, part := range patternParts {
		if matched, err := filepath.Match(part, tail[i]); err != nil || !matched {
			return false
		}
	}
	return true
}
