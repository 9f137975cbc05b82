package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-harvester/internal/harvest"
	"github.com/jonathan/resume-harvester/internal/observability"
)

var crawlCommand = &cobra.Command{
	Use:   "crawl",
	Short: "Walk the list pages and harvest every entity",
	Long: `Crawls list pages sequentially starting from --start-page, fetching each
entity's detail page and downloading its resume document. The crawl stops at
the first empty page, when pagination ends, or at the MAX_PAGES cap.`,
	RunE: runCrawlCmd,
}

var (
	crawlKind       string
	crawlStartPage  int
	crawlUseBrowser bool
	crawlVerbose    bool
)

func init() {
	crawlCommand.Flags().StringVarP(&crawlKind, "kind", "k", "candidate", "Entity kind to crawl: candidate or case")
	crawlCommand.Flags().IntVar(&crawlStartPage, "start-page", 1, "First list page to visit")
	crawlCommand.Flags().BoolVar(&crawlUseBrowser, "use-browser", false, "Drive a headless browser instead of plain HTTP (requires Chrome)")
	crawlCommand.Flags().BoolVarP(&crawlVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(crawlCommand)
}

func runCrawlCmd(_ *cobra.Command, _ []string) error {
	kind, err := parseKind(crawlKind)
	if err != nil {
		return err
	}

	_, orchestrator, cleanup, err := setup(crawlUseBrowser, crawlVerbose)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	runErr := orchestrator.Run(ctx, harvest.Options{
		Kind:      kind,
		Mode:      harvest.ModeFullCrawl,
		StartPage: crawlStartPage,
	})
	observability.NewPrinter(os.Stdout).PrintRunSummary(orchestrator.Journal())
	return runErr
}
