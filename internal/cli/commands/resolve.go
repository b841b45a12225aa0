package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <package>",
		Short: "Print the directory of a package",
		Long: `Print the directory of the named package.

The command fails when no package of that name is found under the search
roots.`,
		Example: `  paramimport resolve rosparam_tutorials`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			path, ok := cc.Resolver.Resolve(args[0])
			if !ok {
				return fmt.Errorf("package %q not found (search roots: %v)", args[0], cc.Resolver.Roots())
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
