package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/leapstack-labs/paramimport/internal/importer"
	"github.com/leapstack-labs/paramimport/internal/paramgen"
	"github.com/leapstack-labs/paramimport/internal/watch"
	"github.com/spf13/cobra"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	var (
		relativePath string
		watchFiles   bool
	)

	cmd := &cobra.Command{
		Use:   "load <package> <file>...",
		Short: "Borrow parameter definitions from a package",
		Long: `Execute one or more parameter definition files of a package and print
the parameters they declare.

Each file is looked up under --relative-path inside the package first, then
under params_dir. Files are loaded concurrently; a file that declares no
parameter generator is reported and makes the command fail.

With --watch the files are loaded again whenever one of them changes, until
the command is interrupted.`,
		Example: `  paramimport load rosparam_tutorials Tutorial.params
  paramimport load my_pkg Node.params Driver.params --relative-path params -o json
  paramimport load my_pkg Node.params --watch`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			requests := make([]importer.Request, 0, len(args)-1)
			for _, file := range args[1:] {
				requests = append(requests, importer.Request{Package: args[0], File: file, RelativePath: relativePath})
			}

			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			if watchFiles {
				return watchLoad(cmd, cc, requests)
			}
			return runLoad(cmd.Context(), cmd, cc, requests)
		},
	}

	cmd.Flags().StringVar(&relativePath, "relative-path", "", "Directory inside the package tried before params_dir")
	cmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, "Reload whenever a loaded file changes")

	return cmd
}

func runLoad(ctx context.Context, cmd *cobra.Command, cc *CommandContext, requests []importer.Request) error {
	if cc.Cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cc.Cfg.Timeout)
		defer cancel()
	}

	results, err := cc.Importer.LoadAll(ctx, requests)
	if err != nil {
		return err
	}

	reports := make([]loadReport, 0, len(results))
	missing := 0
	for _, res := range results {
		report := newLoadReport(res)
		if !report.Found {
			missing++
		}
		reports = append(reports, report)
	}

	if err := renderReports(cmd.OutOrStdout(), cc.Cfg.OutputFormat, reports); err != nil {
		return err
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d definitions not found", missing, len(reports))
	}
	return nil
}

// watchLoad reruns runLoad whenever one of the requested files changes. Only
// files whose package resolves can be watched.
func watchLoad(cmd *cobra.Command, cc *CommandContext, requests []importer.Request) error {
	var files []string
	for _, req := range requests {
		pkgPath, ok := cc.Resolver.Resolve(req.Package)
		if !ok {
			return fmt.Errorf("package %q not found", req.Package)
		}
		files = append(files, cc.Importer.ParamsPath(pkgPath, req.File, req.RelativePath))
	}

	w, err := watch.New(files, watch.WithLogger(cc.Logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return w.Run(ctx, func(ctx context.Context) error {
		err := runLoad(ctx, cmd, cc, requests)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return nil
	})
}

func newLoadReport(res importer.Result) loadReport {
	report := loadReport{
		Source: res.Request.String(),
		Found:  res.Found,
	}
	if !res.Found {
		return report
	}

	report.Type = res.Value.Type()
	if d, ok := paramgen.FromValue(res.Value); ok {
		report.Parameters = d.Parameters()
	}
	if g, ok := res.Value.(*paramgen.Generator); ok {
		if target, ok := g.Target(); ok {
			report.Target = &target
		}
	}
	return report
}
