package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/s0up4200/qbitkeeper/filter"
)

var (
	filterExpr string
	preset     string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List torrents matching a filter expression",
	Long: `List all torrents on the server that match the specified filter
expression, e.g. 'Incomplete and AmountLeft > 1024*1024*1024' or
'hasTag("keep")'.`,
	PreRunE: initializeApp,
	RunE:    runList,
}

func init() {
	listCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	listCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	expr, err := getFilterExpression()
	if err != nil {
		return err
	}

	logger.Info().Str("filter", expr).Msg("Searching torrents")

	compiled, err := filter.Compile(expr)
	if err != nil {
		return fmt.Errorf("invalid filter expression: %w", err)
	}

	torrents, err := qbtClient.GetAllTorrents(cmd.Context())
	if err != nil {
		return err
	}

	var matched int
	for _, t := range torrents {
		ok, err := compiled.Evaluate(t)
		if err != nil {
			logger.Warn().Err(err).Str("name", t.Name).Msg("filter evaluation failed")
			continue
		}
		if !ok {
			continue
		}

		if matched == 0 {
			fmt.Println(strings.Repeat("-", 80))
		}
		matched++

		fmt.Printf("• %s  %s [%s]\n", t.ShortHash(), t.Name, t.State)
		fmt.Printf("  Size: %s", humanize.IBytes(uint64(t.Size)))
		if t.AmountLeft > 0 {
			fmt.Printf("  Left: %s", humanize.IBytes(uint64(t.AmountLeft)))
		}
		if t.Category != "" {
			fmt.Printf("  Category: %s", t.Category)
		}
		if len(t.Tags) > 0 {
			fmt.Printf("  Tags: %s", strings.Join(t.Tags, ", "))
		}
		fmt.Println()
	}

	if matched == 0 {
		fmt.Println("No torrents found matching the filter criteria.")
		return nil
	}

	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("%d of %d torrents matched\n", matched, len(torrents))

	return nil
}

// getFilterExpression determines the filter expression to use
func getFilterExpression() (string, error) {
	// Priority: command line filter > preset > default
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		if presetFilter, ok := cfg.Filter.Presets[preset]; ok {
			return presetFilter, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	if cfg.Filter.Default != "" {
		return cfg.Filter.Default, nil
	}

	return "", fmt.Errorf("no filter expression specified")
}
