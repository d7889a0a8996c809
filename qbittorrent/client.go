package qbittorrent

import (
	"context"
	"fmt"
	"time"

	"github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"
)

// Client wraps the qBittorrent Web API client.
type Client struct {
	client *qbittorrent.Client
	logger zerolog.Logger
}

// NewClient creates a new qBittorrent client and verifies the credentials
// by logging in.
func NewClient(ctx context.Context, host, username, password string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if host == "" {
		return nil, fmt.Errorf("qbittorrent host is required")
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	client := qbittorrent.NewClient(qbittorrent.Config{
		Host:          host,
		Username:      username,
		Password:      password,
		BasicUser:     options.basicUser,
		BasicPass:     options.basicPass,
		TLSSkipVerify: options.tlsSkipVerify,
		Timeout:       int(options.timeout / time.Second),
	})

	if err := client.LoginCtx(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	return &Client{
		client: client,
		logger: logger,
	}, nil
}

// GetAllTorrents retrieves all torrents known to the server.
func (c *Client) GetAllTorrents(ctx context.Context) ([]*TorrentInfo, error) {
	torrents, err := c.client.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get torrents: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d torrents from qBittorrent", len(torrents))

	results := make([]*TorrentInfo, 0, len(torrents))
	for _, t := range torrents {
		results = append(results, &TorrentInfo{
			Hash:         t.Hash,
			Name:         t.Name,
			State:        string(t.State),
			Category:     t.Category,
			Tags:         splitTags(t.Tags),
			Tracker:      t.Tracker,
			SavePath:     t.SavePath,
			Size:         t.Size,
			AmountLeft:   t.AmountLeft,
			Downloaded:   t.Downloaded,
			Progress:     t.Progress,
			Ratio:        t.Ratio,
			AddedOn:      time.Unix(t.AddedOn, 0),
			CompletionOn: time.Unix(t.CompletionOn, 0),
			ForceStart:   t.ForceStart,
		})
	}

	return results, nil
}

// GetTrackers returns the tracker entries for a torrent.
func (c *Client) GetTrackers(ctx context.Context, hash string) ([]TrackerInfo, error) {
	if hash == "" {
		return nil, ErrInvalidHash
	}

	trackers, err := c.client.GetTorrentTrackersCtx(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get trackers for %s: %w", hash, err)
	}

	results := make([]TrackerInfo, 0, len(trackers))
	for _, tr := range trackers {
		results = append(results, TrackerInfo{
			URL:     tr.Url,
			Status:  TrackerStatus(tr.Status),
			Message: tr.Message,
		})
	}

	return results, nil
}

// Pause pauses the torrents identified by the given hashes.
func (c *Client) Pause(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}
	if err := c.client.PauseCtx(ctx, hashes); err != nil {
		return fmt.Errorf("failed to pause torrents: %w", err)
	}
	return nil
}

// Resume resumes the torrents identified by the given hashes.
func (c *Client) Resume(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}
	if err := c.client.ResumeCtx(ctx, hashes); err != nil {
		return fmt.Errorf("failed to resume torrents: %w", err)
	}
	return nil
}

// Reannounce asks the torrents to reannounce to their trackers.
func (c *Client) Reannounce(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}
	if err := c.client.ReAnnounceTorrentsCtx(ctx, hashes); err != nil {
		return fmt.Errorf("failed to reannounce torrents: %w", err)
	}
	return nil
}

// AddTags adds a tag to the given torrents. Existing tags are kept.
func (c *Client) AddTags(ctx context.Context, hashes []string, tag string) error {
	if len(hashes) == 0 || tag == "" {
		return nil
	}
	if err := c.client.AddTagsCtx(ctx, hashes, tag); err != nil {
		return fmt.Errorf("failed to add tag %q: %w", tag, err)
	}
	return nil
}

// CreateTags registers tags on the server so they show up in the UI even
// before the first torrent carries them.
func (c *Client) CreateTags(ctx context.Context, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	if err := c.client.CreateTagsCtx(ctx, tags); err != nil {
		return fmt.Errorf("failed to create tags: %w", err)
	}
	return nil
}

// AppVersion returns the qBittorrent application version.
func (c *Client) AppVersion(ctx context.Context) (string, error) {
	version, err := c.client.GetAppVersionCtx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get app version: %w", err)
	}
	return version, nil
}

// WebAPIVersion returns the Web API version of the server.
func (c *Client) WebAPIVersion(ctx context.Context) (string, error) {
	version, err := c.client.GetWebAPIVersionCtx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get web API version: %w", err)
	}
	return version, nil
}
