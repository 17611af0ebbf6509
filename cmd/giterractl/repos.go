package main

import (
	"strconv"

	"github.com/spf13/cobra"

	sigapp "github.com/bryanwahyu/giterra/internal/application/signals"
	"github.com/bryanwahyu/giterra/internal/bootstrap"
)

func newReposCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "repos USER",
		Short: "List a user's public repositories, most starred first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			collector := sigapp.NewCollector(bootstrap.HostingClient(cfg), opts.logger(cfg))
			repos, err := collector.Repositories(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(repos))
			for _, r := range repos {
				rows = append(rows, []string{r.Name, strconv.Itoa(r.Stars), r.Language, r.UpdatedAt.Format("2006-01-02")})
			}
			return renderTable(cmd.OutOrStdout(), []string{"Name", "Stars", "Language", "Updated"}, rows)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 30, "maximum repositories, 0 lists all")
	return cmd
}
