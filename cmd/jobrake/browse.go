package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobrake/internal/browse"
	"github.com/amishk599/jobrake/internal/filter"
	"github.com/amishk599/jobrake/internal/model"
)

var browseOpts struct {
	titles    []string
	locations []string
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored postings interactively (TUI)",
	Long: "Shows the source picker, then a split view of every stored posting next to the ones " +
		"matching the keyword filters.",
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	f := browseCmd.Flags()
	f.StringSliceVar(&browseOpts.titles, "title", nil, "title keyword for the matched pane; repeatable")
	f.StringSliceVar(&browseOpts.locations, "location", nil, "location keyword for the matched pane; repeatable")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	// Log output before the alt-screen starts corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := newApp(context.Background(), cfg, silentLogger, false)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	defer a.Close()

	var summarizer browse.Summarizer
	if cfg.AI.Enabled {
		summarizer = a.analyst
	}

	for {
		sources, quit, err := browse.RunSourcePicker(cfg.EnabledSources())
		if err != nil {
			return fmt.Errorf("picker: %w", err)
		}
		if quit {
			return nil
		}

		label := "stored postings"
		if len(sources) == 1 {
			label = string(sources[0]) + " postings"
		}
		all, err := browse.RunLoader(label, func(ctx context.Context) ([]model.Posting, error) {
			listing, err := a.jobs.List(ctx)
			if err != nil {
				return nil, err
			}
			return filter.Apply(filter.New(filter.Options{Sources: sources}), listing.Jobs), nil
		})
		if err != nil {
			fmt.Printf("Error loading postings: %v\n", err)
			continue
		}

		opts := jobsFilterOptions(cfg.Filters, browseOpts.titles, browseOpts.locations, nil, false)
		matched := filter.Apply(filter.New(opts), all)

		wantQuit, err := browse.RunBrowser(all, matched, summarizer)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
	}
}
