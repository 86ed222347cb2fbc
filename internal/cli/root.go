// internal/cli/root.go
package cli

import (
	"github.com/spf13/cobra"
)

var (
	packageDir     string
	descriptorFile string
	pythonExe      string
	verbose        bool
	parallel       int
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pyext-build",
	Short: "Native extension builder for Python packages",
	Long: `pyext-build - Native extension builder for Python packages

Compiles the native extensions a Python package declares (Cython, setup.py,
CMake, Cargo, Make, nvcc, Go) against the host interpreter and the located
CUDA toolkit, then optionally bundles the results into a distributable
archive.`,
	Version: "0.1.0",
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&packageDir, "package-dir", "C", ".", "root directory of the package source tree")
	rootCmd.PersistentFlags().StringVar(&descriptorFile, "descriptor", "", "package descriptor path (default <package-dir>/package.yaml)")
	rootCmd.PersistentFlags().StringVar(&pythonExe, "python", "", "Python interpreter to build against (default python3)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose build output")
	rootCmd.PersistentFlags().IntVarP(&parallel, "parallel", "j", 0, "number of parallel build jobs")

	// Add commands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(versionCmd)
}
