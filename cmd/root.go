package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/qbitkeeper/config"
	"github.com/s0up4200/qbitkeeper/qbittorrent"
)

var (
	cfgFile   string
	cfg       *config.Config
	logger    zerolog.Logger
	qbtClient *qbittorrent.Client

	// Command flags
	dryRun bool
)

var (
	version   string
	buildTime string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "qbitkeeper",
	Short: "A maintenance agent for a qBittorrent server",
	Long: `qbitkeeper runs a single maintenance pass against a qBittorrent server:
it reannounces torrents with no working tracker, pauses incomplete torrents
that would overflow the free space of the download area, optionally resumes
them when space frees up, and optionally tags torrents by tracker.

It is meant to be invoked periodically by cron or a systemd timer.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersion records the version injected at build time.
func SetVersion(v, bt string) {
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			v = info.Main.Version
		}
	}
	version = v
	buildTime = bt
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("qbitkeeper version: %s\n", version)
		if buildTime != "" && buildTime != "unknown" {
			fmt.Printf("Build Time:         %s\n", buildTime)
		}
	},
	DisableFlagsInUseLine: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "d", false, "perform a dry run without making changes")

	rootCmd.AddCommand(versionCmd)
}

// initializeApp initializes the configuration, logger and API client
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err = setupLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	// Override dry-run from command line if specified
	if cmd.Flags().Changed("dry-run") {
		cfg.Safety.DryRun = dryRun
	}

	// Create qBittorrent client
	var opts []qbittorrent.Option
	if cfg.Qbittorrent.Timeout > 0 {
		opts = append(opts, qbittorrent.WithTimeout(time.Duration(cfg.Qbittorrent.Timeout)*time.Second))
	}
	if cfg.Qbittorrent.BasicUser != "" {
		opts = append(opts, qbittorrent.WithBasicAuth(cfg.Qbittorrent.BasicUser, cfg.Qbittorrent.BasicPass))
	}
	if cfg.Qbittorrent.TLSSkipVerify {
		opts = append(opts, qbittorrent.WithInsecureSkipVerify())
	}

	qbtClient, err = qbittorrent.NewClient(cmd.Context(),
		cfg.Qbittorrent.Host, cfg.Qbittorrent.Username, cfg.Qbittorrent.Password,
		logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create qBittorrent client: %w", err)
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) (zerolog.Logger, error) {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	var writers []io.Writer

	if cfg.Format == "json" {
		writers = append(writers, os.Stderr)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
		})
	}

	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, file)
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger(), nil
}
