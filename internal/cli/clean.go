// internal/cli/clean.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pyext "github.com/contriboss/python-extension-go"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove build artifacts for every declared extension",
	RunE: func(cmd *cobra.Command, args []string) error {
		descriptor, config, err := loadBuildInputs()
		if err != nil {
			return err
		}

		factory := pyext.NewBuilderFactory()

		for _, ext := range descriptor.Extensions {
			files, err := pyext.ExpandSourceGlobs(config.PackageDir, ext.Sources)
			if err != nil {
				return err
			}

			for _, file := range files {
				builder, err := factory.BuilderFor(file)
				if err != nil {
					continue
				}
				if err := builder.Clean(cmd.Context(), config, file); err != nil {
					return fmt.Errorf("failed to clean %s: %w", file, err)
				}
				if verbose {
					fmt.Printf("cleaned %s\n", file)
				}
			}
		}

		return nil
	},
}
