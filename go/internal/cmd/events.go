package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcdev12/wordbingo/go/internal/events"
)

// NewEventsCommand creates the events command group.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Read the room event stream",
	}
	cmd.AddCommand(newEventsTailCommand(rootOpts))
	return cmd
}

func newEventsTailCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		all  bool
		room string
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print room events as they are published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts.ConfigFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			consumerConfig := events.DefaultConsumerConfig()
			consumerConfig.URL = cfg.Events.NatsURL
			consumerConfig.StreamName = cfg.Events.StreamName
			consumerConfig.SubjectFilter = cfg.Events.SubjectPrefix + ".>"
			consumerConfig.DeliverNew = !all

			printer := &eventPrinter{w: cmd.OutOrStdout(), opts: rootOpts, room: room}
			consumer, err := events.NewConsumer(ctx, consumerConfig, printer)
			if err != nil {
				return err
			}
			defer consumer.Close()

			return consumer.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "replay the whole stream before following it")
	cmd.Flags().StringVar(&room, "room", "", "only events of this room code")
	return cmd
}

// eventPrinter is an events.Publisher that writes each event to w.
type eventPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	opts *RootOptions
	room string
}

func (p *eventPrinter) Publish(_ context.Context, e events.Event) error {
	if p.room != "" && e.RoomCode != p.room {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.opts.Format == "json" {
		return json.NewEncoder(p.w).Encode(e)
	}
	_, err := fmt.Fprintf(p.w, "%s  %-5s  %-13s  %s\n",
		e.OccurredAt.Format(time.RFC3339), e.RoomCode, e.Type, e.Payload)
	return err
}
