// Package maintenance drives one pass of the maintenance agent: gather a
// snapshot from the server, build a plan, apply it.
package maintenance

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/s0up4200/qbitkeeper/diskspace"
	"github.com/s0up4200/qbitkeeper/policy"
	"github.com/s0up4200/qbitkeeper/qbittorrent"
)

// Client is the slice of the qBittorrent client the runner needs.
type Client interface {
	GetAllTorrents(ctx context.Context) ([]*qbittorrent.TorrentInfo, error)
	ResolveTrackers(ctx context.Context, torrents []*qbittorrent.TorrentInfo) error
	Pause(ctx context.Context, hashes []string) error
	Resume(ctx context.Context, hashes []string) error
	Reannounce(ctx context.Context, hashes []string) error
	AddTags(ctx context.Context, hashes []string, tag string) error
	CreateTags(ctx context.Context, tags []string) error
}

// Options configures a maintenance pass.
type Options struct {
	DownloadDir       string
	MinFreeBytes      int64
	AutoResume        bool
	SkipForceStart    bool
	DryRun            bool
	CreateMissingTags bool

	// Protect exempts matching torrents from the pause and resume phases.
	Protect func(*qbittorrent.TorrentInfo) bool

	// Tagger enables the tracker tagging pass when set.
	Tagger *policy.Tagger
}

// Report is the outcome of a pass.
type Report struct {
	Plan      policy.Plan
	FreeBytes int64
	DryRun    bool

	Reannounced int
	Paused      int
	Resumed     int
	Tagged      int
	Failures    int
}

// Runner executes maintenance passes.
type Runner struct {
	client Client
	logger zerolog.Logger
	opts   Options

	// freeSpace is swapped out in tests.
	freeSpace func(string) (int64, error)
}

// NewRunner creates a Runner.
func NewRunner(client Client, logger zerolog.Logger, opts Options) *Runner {
	return &Runner{
		client:    client,
		logger:    logger,
		opts:      opts,
		freeSpace: diskspace.Free,
	}
}

// Run performs one maintenance pass and returns what was done.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	torrents, err := r.client.GetAllTorrents(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.client.ResolveTrackers(ctx, torrents); err != nil {
		return nil, fmt.Errorf("failed to resolve trackers: %w", err)
	}

	free, err := r.freeSpace(r.opts.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get free space: %w", err)
	}

	r.logger.Info().
		Str("free", humanize.IBytes(uint64(max(free, 0)))).
		Str("download_dir", r.opts.DownloadDir).
		Int("torrents", len(torrents)).
		Msg("snapshot gathered")

	plan := policy.BuildPlan(
		policy.Snapshot{Torrents: torrents, FreeBytes: free},
		policy.Rules{
			MinFreeBytes:   r.opts.MinFreeBytes,
			AutoResume:     r.opts.AutoResume,
			SkipForceStart: r.opts.SkipForceStart,
			Protected:      r.opts.Protect,
			Tagger:         r.opts.Tagger,
		},
	)

	for _, t := range plan.Skipped {
		r.logger.Info().
			Str("hash", t.ShortHash()).
			Str("name", t.Name).
			Str("category", t.Category).
			Str("state", t.State).
			Float64("progress", t.Progress).
			Msg("skipping")
	}

	report := &Report{
		Plan:      plan,
		FreeBytes: free,
		DryRun:    r.opts.DryRun,
	}

	r.applyTags(ctx, &plan, report)
	r.applyReannounce(ctx, &plan, report)
	r.applyPause(ctx, &plan, report)
	r.applyResume(ctx, &plan, report)

	return report, nil
}

func (r *Runner) applyReannounce(ctx context.Context, plan *policy.Plan, report *Report) {
	for _, t := range plan.Reannounce {
		if r.opts.DryRun {
			r.reannounceEvent(t).Bool("dry_run", true).Msg("would reannounce")
			continue
		}

		if err := r.client.Reannounce(ctx, []string{t.Hash}); err != nil {
			r.logger.Error().Err(err).Str("hash", t.ShortHash()).Msg("reannounce failed")
			report.Failures++
			continue
		}
		r.reannounceEvent(t).Msg("reannounce")
		report.Reannounced++
	}
}

func (r *Runner) reannounceEvent(t *qbittorrent.TorrentInfo) *zerolog.Event {
	return r.logger.Info().
		Str("hash", t.ShortHash()).
		Str("name", t.Name).
		Str("state", t.State).
		Str("category", t.Category)
}

func (r *Runner) applyPause(ctx context.Context, plan *policy.Plan, report *Report) {
	for _, t := range plan.Pause {
		if r.opts.DryRun {
			r.spaceEvent(t).Bool("dry_run", true).Msg("would pause")
			continue
		}

		if err := r.client.Pause(ctx, []string{t.Hash}); err != nil {
			r.logger.Error().Err(err).Str("hash", t.ShortHash()).Msg("pause failed")
			report.Failures++
			continue
		}
		r.spaceEvent(t).Msg("pause")
		report.Paused++
	}
}

func (r *Runner) spaceEvent(t *qbittorrent.TorrentInfo) *zerolog.Event {
	return r.logger.Info().
		Str("hash", t.ShortHash()).
		Str("name", t.Name).
		Str("left", humanize.IBytes(uint64(t.AmountLeft)))
}

func (r *Runner) applyResume(ctx context.Context, plan *policy.Plan, report *Report) {
	for _, t := range plan.Resume {
		if r.opts.DryRun {
			r.spaceEvent(t).Bool("dry_run", true).Msg("would resume")
			continue
		}

		if err := r.client.Resume(ctx, []string{t.Hash}); err != nil {
			r.logger.Error().Err(err).Str("hash", t.ShortHash()).Msg("resume failed")
			report.Failures++
			continue
		}
		r.spaceEvent(t).Msg("resume")
		report.Resumed++

		// Reannounce on resume so the torrent re-registers promptly.
		if err := r.client.Reannounce(ctx, []string{t.Hash}); err != nil {
			r.logger.Error().Err(err).Str("hash", t.ShortHash()).Msg("reannounce failed")
			report.Failures++
			continue
		}
		r.logger.Info().Str("hash", t.ShortHash()).Str("name", t.Name).Msg("reannounce")
	}
}

func (r *Runner) applyTags(ctx context.Context, plan *policy.Plan, report *Report) {
	if len(plan.Tags) == 0 {
		return
	}

	// Group by tag so each tag is one API call.
	byTag := make(map[string][]string)
	var tags []string
	for _, action := range plan.Tags {
		if _, ok := byTag[action.Tag]; !ok {
			tags = append(tags, action.Tag)
		}
		byTag[action.Tag] = append(byTag[action.Tag], action.Torrent.Hash)

		event := r.logger.Info().
			Str("hash", action.Torrent.ShortHash()).
			Str("name", action.Torrent.Name).
			Str("tag", action.Tag)
		if r.opts.DryRun {
			event.Bool("dry_run", true).Msg("would tag")
		} else {
			event.Msg("tag")
		}
	}

	if r.opts.DryRun {
		return
	}

	if r.opts.CreateMissingTags {
		if err := r.client.CreateTags(ctx, tags); err != nil {
			r.logger.Warn().Err(err).Msg("failed to create tags")
		}
	}

	for _, tag := range tags {
		if err := r.client.AddTags(ctx, byTag[tag], tag); err != nil {
			r.logger.Error().Err(err).Str("tag", tag).Msg("tagging failed")
			report.Failures++
			continue
		}
		report.Tagged += len(byTag[tag])
	}
}
