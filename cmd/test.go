package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/s0up4200/qbitkeeper/diskspace"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:     "test",
	Short:   "Test connection to qBittorrent",
	Long:    `Test the connection to the qBittorrent server and display basic information.`,
	PreRunE: initializeApp,
	RunE:    runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fmt.Printf("Testing connection to qBittorrent at %s...\n", cfg.Qbittorrent.Host)

	// Connection is already tested during client creation
	color.Green("✓ Connection successful!")

	appVersion, err := qbtClient.AppVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get app version: %w", err)
	}
	apiVersion, err := qbtClient.WebAPIVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get web API version: %w", err)
	}

	torrents, err := qbtClient.GetAllTorrents(ctx)
	if err != nil {
		return fmt.Errorf("failed to get torrents: %w", err)
	}

	var paused, incomplete, checking int
	for _, t := range torrents {
		if t.IsPaused() {
			paused++
		}
		if t.IsIncomplete() {
			incomplete++
		}
		if t.IsChecking() {
			checking++
		}
	}

	fmt.Printf("\nqBittorrent %s (Web API %s)\n", appVersion, apiVersion)
	fmt.Printf("- Total torrents: %d\n", len(torrents))
	fmt.Printf("- Paused: %d\n", paused)
	fmt.Printf("- Incomplete: %d\n", incomplete)
	fmt.Printf("- Checking: %d\n", checking)

	free, err := diskspace.Free(cfg.Space.DownloadDir)
	if err != nil {
		color.Red("✗ Failed to stat download dir %s: %v", cfg.Space.DownloadDir, err)
	} else {
		fmt.Printf("\nDownload area %s:\n", cfg.Space.DownloadDir)
		fmt.Printf("- Free space: %s\n", humanize.IBytes(uint64(free)))
		fmt.Printf("- Minimum free margin: %s\n", humanize.IBytes(uint64(cfg.Space.MinFreeBytes())))
	}

	if cfg.Tagging.Enabled {
		fmt.Printf("\nTracker tagging: enabled (%d rules)\n", len(cfg.Tagging.Trackers))
		for _, rule := range cfg.Tagging.Trackers {
			fmt.Printf("  • %s ← /%s/\n", rule.Tag, rule.Pattern)
		}
	} else {
		fmt.Println("\nTracker tagging: disabled")
	}

	return nil
}
