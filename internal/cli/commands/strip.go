package commands

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/paramimport/internal/cli/config"
	"github.com/leapstack-labs/paramimport/internal/source"
	"github.com/spf13/cobra"
)

// NewStripCommand creates the strip command.
func NewStripCommand() *cobra.Command {
	var listComments bool

	cmd := &cobra.Command{
		Use:   "strip <file>",
		Short: "Print a source file with its comments blanked",
		Long: `Print the file with every comment replaced by spaces.

All other text keeps its line, column and byte offset, which is what the
loader executes. With --comments the removed comments are listed instead.`,
		Example: `  paramimport strip cfg/Tutorial.params
  paramimport strip cfg/Tutorial.params --comments -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStrip(cmd, args[0], listComments)
		},
	}

	cmd.Flags().BoolVar(&listComments, "comments", false, "List the removed comments instead of printing the text")

	return cmd
}

func runStrip(cmd *cobra.Command, path string, listComments bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if listComments {
		comments, err := source.Comments(string(data))
		if err != nil {
			return fmt.Errorf("failed to tokenize %s: %w", path, err)
		}
		cfg := config.GetConfig(cmd.Context())
		return renderComments(cmd.OutOrStdout(), cfg.OutputFormat, comments)
	}

	stripped, err := source.StripComments(string(data))
	if err != nil {
		return fmt.Errorf("failed to tokenize %s: %w", path, err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), stripped)
	return err
}
