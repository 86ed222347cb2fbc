// internal/cli/build.go
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	pyext "github.com/contriboss/python-extension-go"
)

var (
	destPath      string
	archiveFormat string
	outDir        string
	keepGoing     bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the extensions declared by the package descriptor",
	Long: `Build compiles every native extension the package descriptor declares.

The CUDA toolkit is located first (CUDA_HOME, then cuda-gdb on PATH); if it
cannot be found or validated the build aborts before any compiler runs.
The host interpreter is then probed for include paths, library locations and
the extension filename suffix, and each extension is handed to the builder
matching its build system.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		descriptor, config, err := loadBuildInputs()
		if err != nil {
			return err
		}
		config.DestPath = destPath
		config.StopOnFailure = !keepGoing

		results, err := descriptor.Build(cmd.Context(), config, nil)
		for _, result := range results {
			if verbose {
				for _, line := range result.Output {
					fmt.Println(line)
				}
			}
			for _, ext := range result.Extensions {
				fmt.Printf("built %s\n", ext)
			}
		}
		if err != nil {
			return err
		}

		if archiveFormat == "" || archiveFormat == "none" {
			return nil
		}

		var built []string
		for _, result := range results {
			built = append(built, result.Extensions...)
		}

		artifact, err := descriptor.Package(config.PackageDir, outDir, pyext.ArchiveFormat(archiveFormat), built)
		if err != nil {
			return err
		}
		fmt.Printf("packaged %s\n", artifact)

		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&destPath, "dest", "", "install compiled extensions under this directory")
	buildCmd.Flags().StringVar(&archiveFormat, "archive", "none", "archive format for the built package (tar.gz, tar.xz, none)")
	buildCmd.Flags().StringVar(&outDir, "out", "dist", "output directory for package archives")
	buildCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue building remaining extensions after a failure")
}

// loadBuildInputs resolves the descriptor and the shared build configuration
// from the global flags.
func loadBuildInputs() (*pyext.Descriptor, *pyext.BuildConfig, error) {
	absDir, err := filepath.Abs(packageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve package directory: %w", err)
	}
	if info, err := os.Stat(absDir); err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("package directory does not exist: %s", absDir)
	}

	path := descriptorFile
	if path == "" {
		path = filepath.Join(absDir, pyext.DefaultDescriptorFile)
	}

	descriptor, err := pyext.LoadDescriptor(path)
	if err != nil {
		return nil, nil, err
	}

	config := &pyext.BuildConfig{
		PackageDir:    absDir,
		Verbose:       verbose,
		Parallel:      parallel,
		StopOnFailure: true,
	}

	if pythonExe != "" {
		python, err := pyext.DiscoverPython(pythonExe)
		if err != nil {
			return nil, nil, err
		}
		config.Python = python
	}

	return descriptor, config, nil
}
