package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/s0up4200/qbitkeeper/filter"
	"github.com/s0up4200/qbitkeeper/maintenance"
	"github.com/s0up4200/qbitkeeper/policy"
)

var (
	autoResume   bool
	noAutoResume bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Perform one maintenance pass",
	Long: `Perform one maintenance pass: reannounce torrents with no working
tracker, pause incomplete torrents that would overflow the free space of the
download area, optionally resume paused torrents when space is available, and
optionally tag torrents by tracker.`,
	PreRunE: initializeApp,
	RunE:    runRun,
}

func init() {
	runCmd.Flags().BoolVar(&autoResume, "auto-resume", false, "resume paused torrents when space is available")
	runCmd.Flags().BoolVar(&noAutoResume, "no-auto-resume", false, "never resume paused torrents")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	// Flags take precedence over the config file.
	resume := cfg.Space.AutoResume
	if autoResume {
		resume = true
	}
	if noAutoResume {
		resume = false
	}

	opts := maintenance.Options{
		DownloadDir:       cfg.Space.DownloadDir,
		MinFreeBytes:      cfg.Space.MinFreeBytes(),
		AutoResume:        resume,
		SkipForceStart:    cfg.Space.SkipForceStart,
		DryRun:            cfg.Safety.DryRun,
		CreateMissingTags: cfg.Tagging.CreateMissing,
	}

	if cfg.Filter.Protect != "" {
		protect, err := filter.Compile(cfg.Filter.Protect)
		if err != nil {
			return fmt.Errorf("invalid protect expression: %w", err)
		}
		opts.Protect = protect.Predicate()
	}

	if cfg.Tagging.Enabled {
		rules := make([]policy.TagRule, 0, len(cfg.Tagging.Trackers))
		for _, rule := range cfg.Tagging.Trackers {
			rules = append(rules, policy.TagRule{Tag: rule.Tag, Pattern: rule.Pattern})
		}
		tagger, err := policy.NewTagger(rules)
		if err != nil {
			return fmt.Errorf("invalid tagging rules: %w", err)
		}
		opts.Tagger = tagger
	}

	logger.Debug().Msg("startup")

	runner := maintenance.NewRunner(qbtClient, logger, opts)
	report, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	printSummary(report)

	logger.Debug().Msg("shutdown")

	if report.Failures > 0 {
		return fmt.Errorf("%d actions failed", report.Failures)
	}
	return nil
}

func printSummary(report *maintenance.Report) {
	stats := report.Plan.Stats

	if report.DryRun {
		color.Yellow("[DRY RUN] no changes were made")
	}

	fmt.Printf("Processed %d torrents: %d paused, %d incomplete (%s left to download)\n",
		stats.Total, stats.Paused, stats.Incomplete, humanize.IBytes(uint64(stats.AmountLeft)))
	fmt.Printf("Free space: %s (budget after margin: %s)\n",
		humanize.IBytes(uint64(max(report.FreeBytes, 0))), formatBudget(stats.Budget))

	if report.Plan.IsEmpty() {
		color.Green("✓ Nothing to do")
		return
	}

	if report.DryRun {
		fmt.Printf("Would reannounce %d, pause %d, resume %d, tag %d\n",
			len(report.Plan.Reannounce), len(report.Plan.Pause), len(report.Plan.Resume), len(report.Plan.Tags))
		return
	}

	fmt.Printf("Reannounced %d, paused %d, resumed %d, tagged %d\n",
		report.Reannounced, report.Paused, report.Resumed, report.Tagged)

	if report.Failures > 0 {
		color.Red("✗ %d actions failed", report.Failures)
	} else {
		color.Green("✓ Done")
	}
}

func formatBudget(budget int64) string {
	if budget < 0 {
		return "-" + humanize.IBytes(uint64(-budget))
	}
	return humanize.IBytes(uint64(budget))
}
