package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mcdev12/wordbingo/go/internal/vocabulary"
)

// NewVocabCommand creates the vocab command group.
func NewVocabCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Inspect vocabulary files",
		Long:  "Check or list a vocabulary YAML file. Without a path the built-in vocabulary is used.",
	}
	cmd.AddCommand(newVocabCheckCommand(rootOpts))
	cmd.AddCommand(newVocabListCommand(rootOpts))
	return cmd
}

func vocabFromArgs(args []string) (*vocabulary.Table, string, error) {
	if len(args) == 0 {
		t, err := vocabulary.Default()
		return t, "built-in", err
	}
	t, err := vocabulary.Load(args[0])
	return t, args[0], err
}

func newVocabCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var cardSize int

	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Validate a vocabulary file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, source, err := vocabFromArgs(args)
			if err != nil {
				return fmt.Errorf("invalid vocabulary: %w", err)
			}

			result := struct {
				Source   string `json:"source"`
				Entries  int    `json:"entries"`
				CardSize int    `json:"cardSize"`
				Warning  string `json:"warning,omitempty"`
			}{Source: source, Entries: table.Len(), CardSize: cardSize}
			if table.Len() < cardSize {
				result.Warning = fmt.Sprintf("cards will hold only %d cells", table.Len())
			}

			return render(cmd.OutOrStdout(), rootOpts, result, func(w io.Writer) error {
				fmt.Fprintf(w, "✓ %s: %d entries\n", result.Source, result.Entries)
				if result.Warning != "" {
					fmt.Fprintf(w, "warning: %s\n", result.Warning)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&cardSize, "card-size", defaultConfig().Game.CardSize, "card size the vocabulary must cover")
	return cmd
}

func newVocabListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [path]",
		Short: "Print every vocabulary entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, _, err := vocabFromArgs(args)
			if err != nil {
				return fmt.Errorf("invalid vocabulary: %w", err)
			}

			entries := table.Entries()
			return render(cmd.OutOrStdout(), rootOpts, entries, func(w io.Writer) error {
				tw := newTable(w)
				fmt.Fprintln(tw, "#\tNATIVE\tROMANIZED\tTRANSLATION")
				for _, e := range entries {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Index, e.Native, e.Romanized, e.Translation)
				}
				return tw.Flush()
			})
		},
	}
}
