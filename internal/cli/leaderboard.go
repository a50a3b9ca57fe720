package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quizterios-service/internal/config"
	"quizterios-service/internal/logger"
)

// NewLeaderboardCmd prints or clears the persisted top 10.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var wipe bool
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the stored leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Env)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			b, err := openBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()

			if wipe {
				if err := b.leaderboard.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "leaderboard cleared")
				return nil
			}

			lb, err := b.leaderboard.Load(cmd.Context())
			if err != nil {
				return err
			}
			if len(lb) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "leaderboard is empty")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tNAME\tSCORE\tDATE")
			for i, e := range lb {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", i+1, e.PlayerName, e.Score, e.DateLabel)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&wipe, "clear", false, "remove every stored entry")
	return cmd
}
