package qbittorrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// trackerFetchConcurrency bounds the number of parallel tracker lookups.
const trackerFetchConcurrency = 10

// ResolveTrackers fills in WorkingTracker for every torrent whose summary
// carried no tracker URL. The torrent list endpoint leaves Tracker empty for
// torrents with more than one tracker, so an empty field alone does not mean
// the torrent is unregistered; the per-torrent tracker list settles it.
//
// Lookups run concurrently with bounded parallelism. A failed lookup is
// logged and the torrent is left marked as having no working tracker.
func (c *Client) ResolveTrackers(ctx context.Context, torrents []*TorrentInfo) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(trackerFetchConcurrency)

	for _, torrent := range torrents {
		if torrent.Tracker != "" {
			torrent.WorkingTracker = true
			continue
		}

		g.Go(func() error {
			trackers, err := c.GetTrackers(ctx, torrent.Hash)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				c.logger.Warn().Err(err).
					Str("hash", torrent.ShortHash()).
					Str("name", torrent.Name).
					Msg("failed to fetch trackers")
				return nil
			}

			for _, tr := range trackers {
				if tr.Status != TrackerDisabled && tr.IsWorking() {
					torrent.WorkingTracker = true
					break
				}
			}
			return nil
		})
	}

	return g.Wait()
}
