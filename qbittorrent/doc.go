// Package qbittorrent provides a client for interacting with the qBittorrent Web API.
//
// This package wraps the autobrr/go-qbittorrent library to provide a higher-level
// interface tailored for the qbitkeeper maintenance pass: torrent snapshots,
// tracker inspection, and the pause/resume/reannounce/tag calls the policy
// engine issues.
//
// # Features
//
//   - Connection management with authentication
//   - Torrent snapshot retrieval
//   - Concurrent tracker resolution for torrents without a tracker URL
//   - Pause, resume, reannounce and tag operations
//   - Context-aware operations for graceful cancellation
//
// # Usage
//
//	client, err := qbittorrent.NewClient(ctx, host, username, password, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	torrents, err := client.GetAllTorrents(ctx)
//	if err == nil {
//	    _ = client.ResolveTrackers(ctx, torrents)
//	}
package qbittorrent
