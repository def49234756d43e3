package cli

import (
	"fmt"

	"github.com/MikhailRaia/pyth/internal/app"
	"github.com/MikhailRaia/pyth/internal/service"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the links table of the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			migrated, err := app.Migrate(cmd.Context(), store)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			if !migrated {
				fmt.Fprintf(cmd.OutOrStdout(), "%s storage has no schema to migrate\n", opts.cfg.Storage())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s storage migrated\n", opts.cfg.Storage())
			return nil
		},
	}
}

func newMakeCommand(opts *options) *cobra.Command {
	var link, target, password string

	cmd := &cobra.Command{
		Use:   "make",
		Short: "Create a short link",
		Example: `  pythctl make --target https://go.dev --password hunter2
  pythctl make --link go --target go.dev --password hunter2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(s *service.LinkService) error {
				l, err := s.Make(cmd.Context(), link, target, password)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", s.ShortURL(l.Link), l.Target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&link, "link", "l", "", "token to use, random when empty")
	cmd.Flags().StringVarP(&target, "target", "t", "", "target URL")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password protecting the link")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newDecodeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <link>",
		Short: "Print the target of a short link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(s *service.LinkService) error {
				target, err := s.Decode(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), target)
				return nil
			})
		},
	}
}

func newDeleteCommand(opts *options) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "delete <link>",
		Short: "Delete a short link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withService(cmd.Context(), func(s *service.LinkService) error {
				if err := s.Delete(cmd.Context(), args[0], password); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s removed\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password of the link")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
