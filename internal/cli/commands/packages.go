package commands

import (
	"github.com/spf13/cobra"
)

// NewPackagesCommand creates the packages command.
func NewPackagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "packages",
		Short: "List resolvable packages",
		Long: `List every package found under the search roots.

The roots come from package_path, or ROS_PACKAGE_PATH when that is empty.
When two roots hold a package of the same name, the earlier root wins and
only that package is listed.`,
		Example: `  paramimport packages
  paramimport packages --package-path ./src -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return renderPackages(cmd.OutOrStdout(), cc.Cfg.OutputFormat, cc.Resolver.List())
		},
	}
}
