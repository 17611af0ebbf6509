package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/giterra/internal/application/planet"
	"github.com/bryanwahyu/giterra/internal/bootstrap"
	"github.com/bryanwahyu/giterra/internal/middleware"
)

func newPlanetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "planet USER",
		Short: "Print the stored planet of a user as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := middleware.ValidateUsername(args[0]); err != nil {
				return err
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			store, err := bootstrap.OpenStore(cmd.Context(), cfg, opts.logger(cfg))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			view, err := planet.NewService(store).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		},
	}
}
