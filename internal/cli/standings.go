package cli

import (
	"fmt"
	"text/tabwriter"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/config"
	"daily-quiz-service/internal/observability"
	"github.com/spf13/cobra"
)

// NewStandingsCmd prints the leaderboard for a period from the configured storage.
func NewStandingsCmd(configPath *string) *cobra.Command {
	var (
		period string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Print the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.ParsePeriod(period)
			if err != nil {
				return err
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger, err := observability.NewLogger(cfg.Log.Level)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			s, err := openStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer s.Close()
			opts, err := engineOptions(cfg, logger, nil)
			if err != nil {
				return err
			}
			if limit == 0 {
				limit = cfg.Quiz.LeaderboardLimit
			}

			entries, err := app.NewRanking(s.attempts, s.questions, s.users, opts...).TopRanks(cmd.Context(), p, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tUSER\tSCORE\tAVG TIME")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%d\t%.3fs\n", e.Rank, e.Username, e.Score, e.AvgResponseTime)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&period, "period", "weekly", "weekly, monthly or alltime")
	cmd.Flags().IntVar(&limit, "limit", 0, "rank limit (defaults to quiz.leaderboard_limit)")
	return cmd
}
