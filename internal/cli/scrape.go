package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/uniscrape/internal/app"
	"github.com/law-makers/uniscrape/internal/config"
	"github.com/law-makers/uniscrape/internal/institutions"
	"github.com/law-makers/uniscrape/internal/pipeline"
	"github.com/law-makers/uniscrape/internal/report"
	"github.com/law-makers/uniscrape/internal/ui"
	"github.com/law-makers/uniscrape/internal/utils/headers"
)

var (
	format   string
	output   string
	hdrs     []string
	render   bool
	parallel int
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <institution>",
	Short: "Scrape one institution's catalog",
	Long: `Fetches every catalog page of one institution, stores the programs and
prints the run report.

Institutions: ` + strings.Join(institutions.Slugs(), ", "),
	Example: `  # Scrape Hanze and print a summary
  uniscrape scrape hanze

  # Write the HTML report to a file
  uniscrape scrape rug --format html --output rug.html

  # Send an extra header with every request
  uniscrape scrape ou -H "Cookie: consent=1"`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: institutions.Slugs(),
	RunE:      runScrape,
}

// scrapeAllCmd represents the scrape-all command
var scrapeAllCmd = &cobra.Command{
	Use:   "scrape-all",
	Short: "Seed and scrape every enabled institution",
	Long: `Seeds the institution table, then scrapes every enabled institution in a
fixed order. Course counts are printed before and after.

Institutions are independent, so --parallel runs several at once. Pages of a
single institution are always applied in order.`,
	Example: `  # Scrape everything, one institution at a time
  uniscrape scrape-all

  # Four institutions at once
  uniscrape scrape-all --parallel 4`,
	Args: cobra.NoArgs,
	RunE: runScrapeAll,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(scrapeAllCmd)

	scrapeCmd.Flags().StringVarP(&format, "format", "f", report.FormatText, "Report format: text, html, markdown or json")
	scrapeCmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to this file instead of stdout")
	scrapeCmd.Flags().StringArrayVarP(&hdrs, "header", "H", []string{}, "Extra request header (e.g., -H \"Referer: https://x\")")
	scrapeCmd.Flags().BoolVar(&render, "render", false, "Fetch pages through headless Chrome")

	scrapeAllCmd.Flags().IntVarP(&parallel, "parallel", "p", 0, fmt.Sprintf("Institutions scraped at once (1-%d, default from config)", pipeline.MaxWorkers))
}

func runScrape(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	slug := args[0]

	extra, err := headers.Parse(hdrs)
	if err != nil {
		return err
	}
	site := a.Config.Site(slug)
	site.Headers = headers.Merge(site.Headers, extra)
	if render {
		site.Render = true
	}
	if a.Config.Sites == nil {
		a.Config.Sites = map[string]config.SiteConfig{}
	}
	a.Config.Sites[slug] = site

	log.Info().Str("institution", slug).Msg("Starting scrape")
	rep, err := a.Scrape(cmd.Context(), slug)
	if err != nil {
		return err
	}

	if err := writeReport(rep, format, output); err != nil {
		return err
	}
	if rep.Fatal {
		return fmt.Errorf("scrape of %s failed: %s", slug, strings.Join(rep.Errors, "; "))
	}
	return nil
}

func writeReport(rep *pipeline.Report, format, path string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	if err := report.Write(w, rep, format); err != nil {
		return err
	}
	if path != "" {
		fmt.Printf("%s Saved report to %s\n", ui.Success("✓"), path)
	}
	return nil
}

func runScrapeAll(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	ctx := cmd.Context()

	if _, err := a.Seed(ctx); err != nil {
		return err
	}

	fmt.Println(ui.Bold("Before"))
	if err := printStats(cmd, a); err != nil {
		return err
	}

	strategies, err := a.Strategies()
	if err != nil {
		return err
	}

	workers := parallel
	if workers == 0 {
		workers = a.Config.Parallel
	}

	bar := progressbar.NewOptions(len(strategies),
		progressbar.OptionSetDescription("Scraping institutions"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	reports := a.Runner.RunAll(ctx, strategies, workers, func(rep *pipeline.Report) {
		log.Info().
			Str("institution", rep.Institution.Slug).
			Int("processed", rep.CoursesProcessed).
			Int("pages", rep.PagesScraped).
			Int("errors", len(rep.Faults)).
			Msg("Institution done")
		bar.Add(1)
	})
	bar.Finish()

	fmt.Println(ui.Bold("\nAfter"))
	if err := printStats(cmd, a); err != nil {
		return err
	}

	fmt.Println(ui.Bold("\nRuns"))
	report.Summary(os.Stdout, reports)
	for _, rep := range reports {
		for _, e := range rep.Errors {
			if strings.HasPrefix(e, "Debug - ") {
				continue
			}
			fmt.Fprintf(os.Stdout, "  %s %s: %s\n", ui.Error("!"), rep.Institution.Slug, e)
		}
	}
	return nil
}

func printStats(cmd *cobra.Command, a *app.Application) error {
	stats, err := a.Store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	report.Stats(os.Stdout, stats)
	return nil
}
