package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcdev12/wordbingo/go/internal/admin"
)

type roomsOptions struct {
	server  string
	timeout time.Duration
}

func (o *roomsOptions) client() *admin.Client {
	return admin.NewClient(&http.Client{Timeout: o.timeout}, o.server)
}

// NewRoomsCommand creates the rooms command group, a client of the admin API.
func NewRoomsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &roomsOptions{}

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Inspect live rooms on a running server",
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", getEnv("WORDBINGO_SERVER", "http://localhost:8080"), "server base URL")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	cmd.AddCommand(newRoomsListCommand(rootOpts, opts))
	cmd.AddCommand(newRoomsGetCommand(rootOpts, opts))
	return cmd
}

func newRoomsListCommand(rootOpts *RootOptions, opts *roomsOptions) *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List live rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rooms, err := opts.client().ListRooms(cmd.Context(), state)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), rootOpts, rooms, func(w io.Writer) error {
				if len(rooms) == 0 {
					fmt.Fprintln(w, "no live rooms")
					return nil
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "CODE\tSTATE\tPLAYERS\tDRAWN\tREMAINING\tSECONDS LEFT\tCREATED")
				for _, r := range rooms {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
						r.Code, r.State, len(r.Players), r.WordsDrawn, r.WordsRemaining, r.SecondsLeft,
						r.CreatedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "only rooms in this state (lobby|playing|finished)")
	return cmd
}

func newRoomsGetCommand(rootOpts *RootOptions, opts *roomsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get CODE",
		Short: "Show one room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.client().GetRoom(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), rootOpts, r, func(w io.Writer) error {
				fmt.Fprintf(w, "Room %s (%s)\n", r.Code, r.State)
				fmt.Fprintf(w, "Words drawn %d, remaining %d\n", r.WordsDrawn, r.WordsRemaining)
				if r.SecondsLeft > 0 {
					fmt.Fprintf(w, "%ds left\n", r.SecondsLeft)
				}
				if r.EndReason != "" {
					fmt.Fprintf(w, "Ended: %s\n", r.EndReason.Message())
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "PLAYER\tSCORE")
				for _, p := range r.Players {
					fmt.Fprintf(tw, "%s\t%d\n", p.Name, p.Score)
				}
				return tw.Flush()
			})
		},
	}
}
