package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobrake/internal/service"
)

var scrapeOpts struct {
	title    string
	location string
	sources  []string
	dryRun   bool
	asJSON   bool
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the job boards once and print the stored postings",
	Long: "Run one scrape for --title and --location across the selected sources, store the results, " +
		"and print every stored posting. --dry-run keeps the results in memory only.",
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	f := scrapeCmd.Flags()
	f.StringVar(&scrapeOpts.title, "title", "", "job title to search for")
	f.StringVar(&scrapeOpts.location, "location", "", "location to search in")
	f.StringSliceVar(&scrapeOpts.sources, "source", nil, "source to query (indeed, linkedin, glassdoor); repeatable, default from config")
	f.BoolVar(&scrapeOpts.dryRun, "dry-run", false, "keep results in memory, do not write to the store")
	f.BoolVar(&scrapeOpts.asJSON, "json", false, "print the listing as JSON")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Server.RequestTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, logger, scrapeOpts.dryRun)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	defer a.Close()

	req := service.ScrapeRequest{
		Title:    scrapeOpts.title,
		Location: scrapeOpts.location,
	}
	if cmd.Flags().Changed("source") {
		req.Sources = append([]string{}, scrapeOpts.sources...)
	}

	res, err := a.jobs.ScrapeAndList(ctx, req)
	if err != nil {
		logger.Error("scrape failed", "error", err)
		return err
	}

	for _, r := range res.Reports {
		if r.Unavailable() {
			logger.Warn("source unavailable", "source", r.Source, "error", r.Err)
		}
	}
	logger.Info("scrape complete", "run_id", res.RunID, "added", res.Added, "stored", res.Count)

	if scrapeOpts.asJSON {
		return writeJSON(os.Stdout, res)
	}
	printScrapeSummary(os.Stdout, res)
	printPostings(os.Stdout, res.Jobs)
	return nil
}

func printScrapeSummary(w io.Writer, res service.ScrapeResult) {
	fmt.Fprintf(w, "Run %s: %d new postings\n", res.RunID, res.Added)
	for _, r := range res.Reports {
		status := "ok"
		if r.Unavailable() {
			status = "unavailable: " + r.Err.Error()
		}
		fmt.Fprintf(w, "  %-10s %3d normalized %3d skipped  %s\n", r.Source, r.Normalized, len(r.Skipped), status)
	}
	fmt.Fprintln(w)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
