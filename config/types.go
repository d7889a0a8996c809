package config

// Config represents the complete configuration structure
type Config struct {
	Qbittorrent QbittorrentConfig `mapstructure:"qbittorrent"`
	Space       SpaceConfig       `mapstructure:"space"`
	Tagging     TaggingConfig     `mapstructure:"tagging"`
	Filter      FilterConfig      `mapstructure:"filter"`
	Safety      SafetyConfig      `mapstructure:"safety"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// QbittorrentConfig holds Web API connection details
type QbittorrentConfig struct {
	Host          string `mapstructure:"host"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	BasicUser     string `mapstructure:"basic_user"`
	BasicPass     string `mapstructure:"basic_pass"`
	TLSSkipVerify bool   `mapstructure:"tls_skip_verify"`
	Timeout       int    `mapstructure:"timeout"`
}

// SpaceConfig controls the disk-space pause/resume policy
type SpaceConfig struct {
	DownloadDir    string  `mapstructure:"download_dir"`
	MinFreeGB      float64 `mapstructure:"min_free_gb"`
	AutoResume     bool    `mapstructure:"auto_resume"`
	SkipForceStart bool    `mapstructure:"skip_force_start"`
}

// TaggingConfig controls tagging torrents by tracker
type TaggingConfig struct {
	Enabled       bool             `mapstructure:"enabled"`
	CreateMissing bool             `mapstructure:"create_missing"`
	Trackers      []TrackerTagRule `mapstructure:"trackers"`
}

// TrackerTagRule maps a tracker URL regex to a tag
type TrackerTagRule struct {
	Tag     string `mapstructure:"tag"`
	Pattern string `mapstructure:"pattern"`
}

// FilterConfig contains filter expressions
type FilterConfig struct {
	// Protect exempts matching torrents from the space policy.
	Protect string `mapstructure:"protect"`

	// Default is the expression used by the list command when no --filter
	// is given.
	Default string `mapstructure:"default"`

	// Presets are named expressions selectable with --preset.
	Presets map[string]string `mapstructure:"presets"`
}

// SafetyConfig contains safety-related settings
type SafetyConfig struct {
	DryRun bool `mapstructure:"dry_run"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
	File   string `mapstructure:"file"`
}

// MinFreeBytes returns the configured minimum free space in bytes.
func (s SpaceConfig) MinFreeBytes() int64 {
	return int64(s.MinFreeGB * 1024 * 1024 * 1024)
}
