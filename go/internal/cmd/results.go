package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcdev12/wordbingo/go/internal/events"
	"github.com/mcdev12/wordbingo/go/internal/results"
)

// NewResultsCommand creates the results command group for the game archive.
func NewResultsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Read and fill the finished-game archive",
	}
	cmd.AddCommand(newResultsRecentCommand(rootOpts))
	cmd.AddCommand(newResultsRecordCommand(rootOpts))
	return cmd
}

func newResultsRecentCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recently finished games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := setupResultsStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			games, err := store.RecentGames(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), rootOpts, games, func(w io.Writer) error {
				return writeGames(w, games)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of games")
	return cmd
}

func writeGames(w io.Writer, games []results.Game) error {
	if len(games) == 0 {
		fmt.Fprintln(w, "no games recorded")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ROOM\tFINISHED\tREASON\tPLAYERS\tWORDS\tWINNER")
	for _, g := range games {
		winner := "-"
		if top, ok := g.Winner(); ok {
			winner = fmt.Sprintf("%s (%d)", top.Name, top.Score)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			g.RoomCode, g.FinishedAt.Format(time.RFC3339), g.Reason, len(g.Leaderboard), len(g.DrawnWords), winner)
	}
	return tw.Flush()
}

// newResultsRecordCommand archives games from the event stream, for
// deployments where the game servers do not write to Postgres themselves.
func newResultsRecordCommand(rootOpts *RootOptions) *cobra.Command {
	var durable string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Archive finished games from the event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts.ConfigFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := setupResultsStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			consumerConfig := events.DefaultConsumerConfig()
			consumerConfig.URL = cfg.Events.NatsURL
			consumerConfig.StreamName = cfg.Events.StreamName
			consumerConfig.ConsumerName = durable
			consumerConfig.SubjectFilter = cfg.JetStreamConfig().Subject(events.GameFinished)

			consumer, err := events.NewConsumer(ctx, consumerConfig, results.NewRecorder(store))
			if err != nil {
				return err
			}
			defer consumer.Close()

			return consumer.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&durable, "durable", "results-recorder", "durable consumer name")
	return cmd
}
