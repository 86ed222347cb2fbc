// internal/cli/tools.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pyext "github.com/contriboss/python-extension-go"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Check that the build tools for each builder are available",
	RunE: func(cmd *cobra.Command, args []string) error {
		factory := pyext.NewBuilderFactory()

		var missing int
		for _, builder := range factory.ListBuilders() {
			checker, ok := builder.(pyext.ToolChecker)
			if !ok {
				continue
			}

			if err := checker.CheckTools(); err != nil {
				missing++
				fmt.Printf("%-10s missing: %v\n", builder.Name(), err)
				continue
			}
			fmt.Printf("%-10s ok\n", builder.Name())
		}

		if missing > 0 {
			return fmt.Errorf("%d builder(s) have missing tools", missing)
		}
		return nil
	},
}
