package qbittorrent

import (
	"strings"
	"time"
)

// TorrentInfo is a snapshot of a single torrent as reported by the Web API.
type TorrentInfo struct {
	Hash         string
	Name         string
	State        string
	Category     string
	Tags         []string
	Tracker      string
	SavePath     string
	Size         int64
	AmountLeft   int64
	Downloaded   int64
	Progress     float64
	Ratio        float64
	AddedOn      time.Time
	CompletionOn time.Time
	ForceStart   bool

	// WorkingTracker is set by ResolveTrackers for torrents whose summary
	// carried no tracker URL. It reports whether any real tracker entry is
	// contactable.
	WorkingTracker bool
}

// ShortHash returns the last 6 characters of the info-hash, the form used
// in log lines.
func (t *TorrentInfo) ShortHash() string {
	if len(t.Hash) <= 6 {
		return t.Hash
	}
	return t.Hash[len(t.Hash)-6:]
}

// IsPaused reports whether the torrent is paused. qBittorrent 5.x renamed
// the paused states to stopped, so both spellings count.
func (t *TorrentInfo) IsPaused() bool {
	return strings.Contains(t.State, "paused") || strings.Contains(t.State, "stopped")
}

// IsChecking reports whether the torrent is rechecking data.
func (t *TorrentInfo) IsChecking() bool {
	return strings.Contains(t.State, "checking")
}

// IsMoving reports whether the torrent is being relocated.
func (t *TorrentInfo) IsMoving() bool {
	return t.State == "moving"
}

// IsIncomplete reports whether the torrent still has data to download.
// The completion timestamp is checked as well as progress: a completed
// torrent that lost its data shows progress < 1 but keeps its completion
// time, and those must never be touched.
func (t *TorrentInfo) IsIncomplete() bool {
	return t.Progress != 1.0 && t.CompletionOn.Unix() <= 0
}

// HasTag reports whether the torrent carries the given tag.
func (t *TorrentInfo) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if strings.EqualFold(have, tag) {
			return true
		}
	}
	return false
}

// splitTags splits the comma separated tag string the API returns.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// TrackerInfo describes one tracker entry of a torrent.
type TrackerInfo struct {
	URL     string
	Status  TrackerStatus
	Message string
}

// TrackerStatus mirrors the Web API tracker status codes.
type TrackerStatus int

const (
	TrackerDisabled     TrackerStatus = 0 // DHT, PeX and LSD pseudo entries
	TrackerNotContacted TrackerStatus = 1
	TrackerOK           TrackerStatus = 2
	TrackerUpdating     TrackerStatus = 3
	TrackerNotWorking   TrackerStatus = 4
)

// IsWorking reports whether the tracker entry is a real tracker that is
// contactable or in the process of being contacted.
func (tr TrackerInfo) IsWorking() bool {
	return tr.Status == TrackerOK || tr.Status == TrackerUpdating
}
