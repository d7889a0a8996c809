package policy

import (
	"github.com/s0up4200/qbitkeeper/qbittorrent"
)

// Snapshot is the input to a maintenance pass: the torrent list as reported
// by the server and the free space of the download area.
type Snapshot struct {
	Torrents  []*qbittorrent.TorrentInfo
	FreeBytes int64
}

// Rules holds the policy knobs for a pass.
type Rules struct {
	// MinFreeBytes is subtracted from the free space before the simulation;
	// the remainder is the budget incomplete torrents may fill.
	MinFreeBytes int64

	// AutoResume resumes paused incomplete torrents when they fit the budget.
	AutoResume bool

	// SkipForceStart exempts force-started torrents from the pause phase.
	SkipForceStart bool

	// Protected, when set, exempts matching torrents from the pause and
	// resume phases.
	Protected func(*qbittorrent.TorrentInfo) bool

	// Tagger, when set, enables the tracker tagging pass.
	Tagger *Tagger
}

// TagAction assigns a tag to a torrent.
type TagAction struct {
	Torrent *qbittorrent.TorrentInfo
	Tag     string
}

// Plan is the outcome of a pass: the actions to apply, in order.
type Plan struct {
	Reannounce []*qbittorrent.TorrentInfo
	Pause      []*qbittorrent.TorrentInfo
	Resume     []*qbittorrent.TorrentInfo
	Tags       []TagAction
	Skipped    []*qbittorrent.TorrentInfo
	Stats      Stats
}

// Stats summarizes what the pass saw.
type Stats struct {
	Total      int
	Paused     int
	Incomplete int

	// AmountLeft is the number of bytes still to download across all
	// incomplete torrents.
	AmountLeft int64

	// Budget is FreeBytes minus MinFreeBytes. It can be negative.
	Budget int64

	// ActiveLeft is the projected number of outstanding bytes on active
	// incomplete torrents after the plan is applied.
	ActiveLeft int64
}

// IsEmpty reports whether the plan contains no actions.
func (p *Plan) IsEmpty() bool {
	return len(p.Reannounce) == 0 && len(p.Pause) == 0 && len(p.Resume) == 0 && len(p.Tags) == 0
}
