// Package cli implements pythctl, a command line client that works on
// the configured store directly.
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/MikhailRaia/pyth/internal/app"
	"github.com/MikhailRaia/pyth/internal/config"
	"github.com/MikhailRaia/pyth/internal/generator"
	"github.com/MikhailRaia/pyth/internal/service"
	"github.com/MikhailRaia/pyth/internal/storage"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	dsn        string
	filePath   string
	sqlitePath string
	redisAddr  string
	baseURL    string

	cfg *config.Config
}

// NewRootCommand builds the pythctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "pythctl",
		Short:         "Manage pyth short links from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a JSON config file")
	flags.StringVarP(&opts.dsn, "dsn", "d", "", "PostgreSQL connection string")
	flags.StringVarP(&opts.filePath, "file", "f", "", "path to the file storage journal")
	flags.StringVarP(&opts.sqlitePath, "sqlite", "s", "", "path to the SQLite database")
	flags.StringVarP(&opts.redisAddr, "redis", "r", "", "Redis address of the read cache")
	flags.StringVarP(&opts.baseURL, "base-url", "b", "", "base URL of short links")

	root.AddCommand(
		newMigrateCommand(opts),
		newMakeCommand(opts),
		newDecodeCommand(opts),
		newDeleteCommand(opts),
	)

	return root
}

// load resolves the configuration like the server does, then applies
// the flags given on the command line.
func (o *options) load(cmd *cobra.Command) error {
	var args []string
	if o.configPath != "" {
		args = append(args, "-c", o.configPath)
	}

	cfg, err := config.Load(flag.NewFlagSet("pythctl", flag.ContinueOnError), args)
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	if changed("dsn") {
		cfg.DatabaseDSN = o.dsn
	}
	if changed("file") {
		cfg.FileStoragePath = o.filePath
	}
	if changed("sqlite") {
		cfg.SQLitePath = o.sqlitePath
	}
	if changed("redis") {
		cfg.RedisAddr = o.redisAddr
	}
	if changed("base-url") {
		cfg.BaseURL = o.baseURL
	}

	o.cfg = cfg
	return nil
}

func (o *options) openStorage(ctx context.Context) (storage.LinkStorage, error) {
	if o.cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return app.OpenStorage(ctx, o.cfg)
}

// withService opens the store, runs fn against a LinkService and closes the store.
func (o *options) withService(ctx context.Context, fn func(*service.LinkService) error) error {
	store, err := o.openStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	allocatorCfg := generator.DefaultConfig()
	allocatorCfg.MinLength = o.cfg.TokenLength
	allocatorCfg.Reserved = service.ReservedLinks

	return fn(service.NewLinkService(store, generator.NewAllocator(store, allocatorCfg), nil, o.cfg.BaseURL))
}
