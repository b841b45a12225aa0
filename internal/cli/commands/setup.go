package commands

import (
	"log/slog"

	"github.com/leapstack-labs/paramimport/internal/cli/config"
	"github.com/leapstack-labs/paramimport/internal/importer"
	"github.com/leapstack-labs/paramimport/internal/loader"
	"github.com/leapstack-labs/paramimport/internal/registry"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Resolver *registry.Resolver
	Importer *importer.Importer
}

// NewCommandContext builds the resolver, loader and importer described by
// the configuration stored in the command's context.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	resolver := registry.NewResolver(cfg.PackagePath, registry.WithLogger(logger))

	l, err := newLoader(cfg, logger)
	if err != nil {
		return nil, err
	}

	imp := importer.New(resolver, l,
		importer.WithLogger(logger),
		importer.WithParamsDir(cfg.ParamsDir),
		importer.WithConcurrency(cfg.Concurrency),
	)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Resolver: resolver,
		Importer: imp,
	}, nil
}

func newLoader(cfg *config.Config, logger *slog.Logger) (*loader.Loader, error) {
	pattern, err := cfg.ExitRegexp()
	if err != nil {
		return nil, err
	}

	opts := []loader.Option{
		loader.WithExitPattern(pattern),
		loader.WithLogger(logger),
		loader.WithTempDir(cfg.TempDir),
	}
	if cfg.Marker != "" {
		opts = append(opts, loader.WithMatcher(loader.TypeNameMatcher(cfg.Marker)))
	}
	return loader.New(opts...)
}
