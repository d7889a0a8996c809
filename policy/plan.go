// Package policy computes the actions of a maintenance pass from a snapshot
// of torrent and disk state. BuildPlan performs no I/O and is deterministic
// for a given snapshot; applying the plan is the caller's concern.
package policy

import (
	"sort"

	"github.com/s0up4200/qbitkeeper/qbittorrent"
)

// BuildPlan runs the classification and space simulation over a snapshot and
// returns the actions to apply.
func BuildPlan(snap Snapshot, rules Rules) Plan {
	plan := Plan{}

	// Stable iteration order regardless of how the server sorted the list.
	torrents := make([]*qbittorrent.TorrentInfo, len(snap.Torrents))
	copy(torrents, snap.Torrents)
	sort.Slice(torrents, func(i, j int) bool {
		return torrents[i].Hash < torrents[j].Hash
	})

	var incomplete []*qbittorrent.TorrentInfo

	for _, t := range torrents {
		plan.Stats.Total++

		if t.IsIncomplete() {
			incomplete = append(incomplete, t)
			plan.Stats.Incomplete++
			plan.Stats.AmountLeft += t.AmountLeft
		}

		// Paused torrents are counted but never reannounced or tagged.
		if t.IsPaused() {
			plan.Stats.Paused++
			continue
		}

		if t.IsChecking() || t.IsMoving() {
			plan.Skipped = append(plan.Skipped, t)
			continue
		}

		if rules.Tagger != nil {
			if tag := rules.Tagger.TagFor(t.Tracker); tag != "" && !t.HasTag(tag) {
				plan.Tags = append(plan.Tags, TagAction{Torrent: t, Tag: tag})
			}
		}

		// No working tracker: ask for a reannounce and move on.
		if t.Tracker == "" && !t.WorkingTracker {
			plan.Reannounce = append(plan.Reannounce, t)
			continue
		}
	}

	simulateSpace(&plan, incomplete, snap.FreeBytes, rules)

	return plan
}

// simulateSpace decides which incomplete torrents to pause or resume so the
// outstanding active download volume stays within the free-space budget.
func simulateSpace(plan *Plan, incomplete []*qbittorrent.TorrentInfo, freeBytes int64, rules Rules) {
	var paused, active []*qbittorrent.TorrentInfo
	var totalPaused, totalActive int64

	for _, t := range incomplete {
		if t.IsPaused() {
			paused = append(paused, t)
			totalPaused += t.AmountLeft
		} else {
			active = append(active, t)
			totalActive += t.AmountLeft
		}
	}

	budget := freeBytes - rules.MinFreeBytes
	plan.Stats.Budget = budget

	protected := func(t *qbittorrent.TorrentInfo) bool {
		return rules.Protected != nil && rules.Protected(t)
	}

	if rules.AutoResume {
		// Everything outstanding fits: resume every paused incomplete torrent.
		if totalPaused+totalActive < budget {
			for _, t := range paused {
				if protected(t) {
					continue
				}
				plan.Resume = append(plan.Resume, t)
				totalActive += t.AmountLeft
			}
			plan.Stats.ActiveLeft = totalActive
			return
		}

		// Otherwise resume piecemeal, smallest remaining first, while the
		// projected active volume still fits.
		if totalActive < budget {
			sortByAmountLeft(paused, false)
			for _, t := range paused {
				if protected(t) {
					continue
				}
				if totalActive+t.AmountLeft < budget {
					plan.Resume = append(plan.Resume, t)
					totalActive += t.AmountLeft
				}
			}
			plan.Stats.ActiveLeft = totalActive
			return
		}
	}

	// More outstanding than budget: pause largest remaining first until the
	// active volume fits.
	sortByAmountLeft(active, true)
	for _, t := range active {
		if totalActive < budget {
			break
		}
		if protected(t) {
			continue
		}
		if t.ForceStart && rules.SkipForceStart {
			continue
		}

		plan.Pause = append(plan.Pause, t)
		totalActive -= t.AmountLeft
	}

	plan.Stats.ActiveLeft = totalActive
}

// sortByAmountLeft orders torrents by outstanding bytes, hash as tiebreak.
func sortByAmountLeft(torrents []*qbittorrent.TorrentInfo, descending bool) {
	sort.Slice(torrents, func(i, j int) bool {
		a, b := torrents[i], torrents[j]
		if a.AmountLeft == b.AmountLeft {
			return a.Hash < b.Hash
		}
		if descending {
			return a.AmountLeft > b.AmountLeft
		}
		return a.AmountLeft < b.AmountLeft
	})
}
