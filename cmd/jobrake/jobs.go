package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobrake/internal/config"
	"github.com/amishk599/jobrake/internal/filter"
	"github.com/amishk599/jobrake/internal/model"
	"github.com/amishk599/jobrake/internal/service"
)

var jobsOpts struct {
	id        int64
	titles    []string
	locations []string
	sources   []string
	all       bool
	asJSON    bool
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List stored postings, or show one with --id",
	Long: "List every stored posting, newest first. --title and --location narrow the list by keyword; " +
		"without them the filters from config.yaml apply unless --all is set.",
	Args: cobra.NoArgs,
	RunE: runJobs,
}

func init() {
	f := jobsCmd.Flags()
	f.Int64Var(&jobsOpts.id, "id", 0, "show a single posting by id")
	f.StringSliceVar(&jobsOpts.titles, "title", nil, "title keyword; repeatable")
	f.StringSliceVar(&jobsOpts.locations, "location", nil, "location keyword; repeatable")
	f.StringSliceVar(&jobsOpts.sources, "source", nil, "only postings from this source; repeatable")
	f.BoolVar(&jobsOpts.all, "all", false, "ignore the filters from config")
	f.BoolVar(&jobsOpts.asJSON, "json", false, "print JSON")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger, false)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	defer a.Close()

	if cmd.Flags().Changed("id") {
		p, err := a.jobs.GetByID(ctx, jobsOpts.id)
		if err != nil {
			return fmt.Errorf("job %d: %w", jobsOpts.id, err)
		}
		if jobsOpts.asJSON {
			return writeJSON(os.Stdout, p)
		}
		printPosting(os.Stdout, p)
		return nil
	}

	listing, err := a.jobs.List(ctx)
	if err != nil {
		logger.Error("list failed", "error", err)
		return err
	}

	f := filter.New(jobsFilterOptions(cfg.Filters, jobsOpts.titles, jobsOpts.locations, jobsOpts.sources, jobsOpts.all))
	matched := filter.Apply(f, listing.Jobs)
	logger.Debug("filtered postings", "stored", listing.Count, "matched", len(matched))

	if jobsOpts.asJSON {
		return writeJSON(os.Stdout, service.Listing{Jobs: matched, Count: len(matched)})
	}
	printPostings(os.Stdout, matched)
	return nil
}

// jobsFilterOptions merges command-line keywords with the configured filters.
// Keywords given on the command line replace the configured include lists and
// drop the configured excludes.
func jobsFilterOptions(fc config.FilterConfig, titles, locations, sources []string, all bool) filter.Options {
	opts := filter.Options{Sources: model.ParseSources(sources)}
	if len(titles) > 0 || len(locations) > 0 {
		opts.TitleKeywords = titles
		opts.Locations = locations
		return opts
	}
	if all {
		return opts
	}
	opts.TitleKeywords = fc.TitleKeywords
	opts.TitleExcludeKeywords = fc.TitleExcludeKeywords
	opts.Locations = fc.Locations
	opts.ExcludeLocations = fc.ExcludeLocations
	return opts
}

func printPostings(w io.Writer, ps []model.Posting) {
	if len(ps) == 0 {
		fmt.Fprintln(w, "No postings.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPOSTED\tSOURCE\tTITLE\tCOMPANY\tLOCATION")
	for _, p := range ps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.DatePosted, p.Source, p.Title, p.Company, p.Location)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%d postings\n", len(ps))
}

func printPosting(w io.Writer, p model.Posting) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%d\n", p.ID)
	fmt.Fprintf(tw, "Title\t%s\n", p.Title)
	fmt.Fprintf(tw, "Company\t%s\n", p.Company)
	fmt.Fprintf(tw, "Location\t%s\n", p.Location)
	fmt.Fprintf(tw, "Source\t%s\n", p.Source)
	fmt.Fprintf(tw, "Posted\t%s\n", p.DatePosted)
	fmt.Fprintf(tw, "URL\t%s\n", p.URL)
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%s\n", p.Description)
}
