package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/giterra/internal/application/analysis"
	"github.com/bryanwahyu/giterra/internal/bootstrap"
)

func newCollectCmd(opts *options) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "collect USER...",
		Short: "Analyze the most starred repositories of each user",
		Long: `Run one analysis per user over their top repositories, most starred
first. Users are processed one after another; a failing user does not stop
the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, users []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := opts.logger(cfg)
			app, err := bootstrap.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			var rows [][]string
			var errs []error
			for _, user := range users {
				ctx := cmd.Context()
				names, err := app.Collector.RepositoryNames(ctx, user, top)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", user, err))
					continue
				}
				if len(names) == 0 {
					log.Warn("user has no public repositories", "username", user)
					continue
				}
				res, err := app.Analysis.Analyze(ctx, analysis.AnalyzeCommand{Username: user, Repos: names})
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", user, err))
					continue
				}
				rows = append(rows, []string{
					user,
					themeLabel(res.Summary.Theme),
					strconv.FormatFloat(res.Summary.TotalScore, 'f', 1, 64),
					strconv.Itoa(len(res.Repositories)),
					strconv.Itoa(len(res.FailedRepositories)),
				})
			}
			if len(rows) > 0 {
				if err := renderTable(cmd.OutOrStdout(), []string{"User", "Theme", "Score", "Repos", "Failed"}, rows); err != nil {
					return err
				}
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 8, "repositories per user")
	return cmd
}
