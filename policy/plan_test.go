package policy

import (
	"testing"
	"time"

	"github.com/s0up4200/qbitkeeper/qbittorrent"
)

const gib = int64(1024 * 1024 * 1024)

type torrentSpec struct {
	hash       string
	name       string
	state      string
	left       int64
	tracker    string
	working    bool
	forceStart bool
	tags       []string
}

func makeTorrent(spec torrentSpec) *qbittorrent.TorrentInfo {
	progress := 1.0
	completion := time.Unix(1700000000, 0)
	if spec.left > 0 {
		progress = 0.5
		completion = time.Unix(0, 0)
	}

	name := spec.name
	if name == "" {
		name = "torrent-" + spec.hash
	}

	return &qbittorrent.TorrentInfo{
		Hash:           spec.hash,
		Name:           name,
		State:          spec.state,
		AmountLeft:     spec.left,
		Progress:       progress,
		CompletionOn:   completion,
		Tracker:        spec.tracker,
		WorkingTracker: spec.working,
		ForceStart:     spec.forceStart,
		Tags:           spec.tags,
	}
}

func hashes(torrents []*qbittorrent.TorrentInfo) []string {
	out := make([]string, len(torrents))
	for i, t := range torrents {
		out[i] = t.Hash
	}
	return out
}

func assertHashes(t *testing.T, what string, got []*qbittorrent.TorrentInfo, want ...string) {
	t.Helper()
	gotHashes := hashes(got)
	if len(gotHashes) != len(want) {
		t.Fatalf("%s = %v, want %v", what, gotHashes, want)
	}
	for i := range want {
		if gotHashes[i] != want[i] {
			t.Fatalf("%s = %v, want %v", what, gotHashes, want)
		}
	}
}

func TestBuildPlanReannounce(t *testing.T) {
	snap := Snapshot{
		Torrents: []*qbittorrent.TorrentInfo{
			makeTorrent(torrentSpec{hash: "aaa", state: "stalledDL", left: 1 * gib}),
			makeTorrent(torrentSpec{hash: "bbb", state: "uploading", tracker: "http://tracker.example/announce"}),
			makeTorrent(torrentSpec{hash: "ccc", state: "pausedDL", left: 1 * gib}),
			makeTorrent(torrentSpec{hash: "ddd", state: "checkingDL", left: 1 * gib}),
			makeTorrent(torrentSpec{hash: "eee", state: "downloading", left: 1 * gib, working: true}),
		},
		FreeBytes: 100 * gib,
	}

	plan := BuildPlan(snap, Rules{})

	// Only the active torrent with no working tracker gets a reannounce.
	// Paused and checking torrents are left alone even without a tracker.
	assertHashes(t, "Reannounce", plan.Reannounce, "aaa")
	assertHashes(t, "Skipped", plan.Skipped, "ddd")

	if plan.Stats.Total != 5 {
		t.Errorf("Stats.Total = %d, want 5", plan.Stats.Total)
	}
	if plan.Stats.Paused != 1 {
		t.Errorf("Stats.Paused = %d, want 1", plan.Stats.Paused)
	}
	if plan.Stats.Incomplete != 4 {
		t.Errorf("Stats.Incomplete = %d, want 4", plan.Stats.Incomplete)
	}
}

func TestBuildPlanPausesLargestFirst(t *testing.T) {
	snap := Snapshot{
		Torrents: []*qbittorrent.TorrentInfo{
			makeTorrent(torrentSpec{hash: "aaa", state: "downloading", left: 10 * gib, working: true}),
			makeTorrent(torrentSpec{hash: "bbb", state: "downloading", left: 30 * gib, working: true}),
			makeTorrent(torrentSpec{hash: "ccc", state: "downloading", left: 20 * gib, working: true}),
		},
		FreeBytes: 25 * gib,
	}

	plan := BuildPlan(snap, Rules{})

	// 60 GiB outstanding against 25 GiB free: pausing the 30 GiB torrent
	// leaves 30 GiB, still over, so the 20 GiB one goes too.
	assertHashes(t, "Pause", plan.Pause, "bbb", "ccc")
	if plan.Stats.ActiveLeft != 10*gib {
		t.Errorf("Stats.ActiveLeft = %d, want %d", plan.Stats.ActiveLeft, 10*gib)
	}
}

func TestBuildPlanNoPauseWhenFits(t *testing.T) {
	snap := Snapshot{
		Torrents: []*qbittorrent.TorrentInfo{
			makeTorrent(torrentSpec{hash: "aaa", state: "downloading", left: 5 * gib, working: true}),
			makeTorrent(torrentSpec{hash: "bbb", state: "downloading", left: 5 * gib, working: true}),
		},
		FreeBytes: 50 * gib,
	}

	plan := BuildPlan(snap, Rules{MinFreeBytes: 10 * gib})

	if len(plan.Pause) != 0 {
		t.Fatalf("Pause = %v, want none", hashes(plan.Pause))
	}
	if plan.Stats.Budget != 40*gib {
		t.Errorf("Stats.Budget = %d, want %d", plan.Stats.Budget, 40*gib)
	}
}

func TestBuildPlanMinFreeMargin(t *testing.T) {
	snap := Snapshot{
		Torrents: []*qbittorrent.TorrentInfo{
			makeTorrent(torrentSpec{hash: "aaa", state: "downloading", left: 8 * gib, working: true}),
		},
		FreeBytes: 10 * gib,
	}

	// Fits raw free space but not the margin-adjusted budget.
	plan := BuildPlan(snap, Rules{MinFreeBytes: 5 * gib})
	assertHashes(t, "Pause", plan.Pause, "aaa")
}

func TestBuildPlanAutoResumeAll(t *testing.T) {
	snap := Snapshot{
		Torrents: []*qbittorrent.TorrentInfo{
			makeTorrent(torrentSpec{hash: "aaa", state: "pausedDL", left: 5 * gib}),
			makeTorrent(torrentSpec{hash: "bbb", state: "pausedDL", left: 3 * gib}),
			makeTorrent(torrentSpec{hash: "ccc", state: "downloading", left: 2 * gib, working: true}),
		},
		FreeBytes: 100 * gib,
	}

	plan := BuildPlan(snap, Rules{AutoResume: true})

	assertHashes(t, "Resume", plan.Resume, "aaa", "bbb")
	if len(plan.Pause) != 0 {
		t.Fatalf("Pause = %v, want none", hashes(plan.Pause))
	}
}

func TestBuildPlanAutoResumePiecemeal(t *testing.T) {
	snap := Snapshot{
		Torrents: []*qbittorrent.TorrentInfo{
			makeTorrent(torrentSpec{hash: "aaa", state: "pausedDL", left: 30 * gib}),
			makeTorrent(torrentSpec{hash: "bbb", state: "pausedDL", left: 4 * gib}),
			makeTorrent(torrentSpec{hash: "ccc", state: "pausedDL", left: 8 * gib}),
			makeTorrent(torrentSpec{hash: "ddd", state: "downloading", left: 5 * gib, working: true}),
		},
		FreeBytes: 20 * gib,
	}

	plan := BuildPlan(snap, Rules{AutoResume: true})

	// Total outstanding (47 GiB) exceeds the budget, active (5 GiB) fits.
	// Smallest paused first: 5+4 < 20, 9+8 < 20, 17+30 does not fit.
	assertHashes(t, "Resume", plan.Resume, "bbb", "ccc")
	if plan.Stats.ActiveLeft != 17*gib {
		t.Errorf("Stats.ActiveLeft = %d, want %d", plan.Stats.ActiveLeft, 17*gib)
	}
}

func TestBuildPlanAutoResumeFallsThroughToPause(t *testing.T) {
	snap := Snapshot{
		Torrents: []*qbittorrent.TorrentInfo{
			makeTorrent(torrentSpec{hash: "aaa", state: "pausedDL", left: 5 * gib}),
			makeTorrent(torrentSpec{hash: "bbb", state: "downloading", left: 40 * gib, working: true}),
			makeTorrent(torrentSpec{hash: "ccc", state: "downloading", left: 10 * gib, working: true}),
		},
		FreeBytes: 15 * gib,
	}

	plan := BuildPlan(snap, Rules{AutoResume: true})

	if len(plan.Resume) != 0 {
		t.Fatalf("Resume = %v, want none", hashes(plan.Resume))
	}
	assertHashes(t, "Pause", plan.Pause, "bbb")
}

func TestBuildPlanNoTorrentPausedAndResumed(t *testing.T) {
	snap := Snapshot{
		Torrents: []*qbittorrent.TorrentInfo{
			makeTorrent(torrentSpec{hash: "aaa", state: "pausedDL", left: 1 * gib}),
			makeTorrent(torrentSpec{hash: "bbb", state: "downloading", left: 2 * gib, working: true}),
		},
		FreeBytes: 100 * gib,
	}

	plan := BuildPlan(snap, Rules{AutoResume: true})

	resumed := make(map[string]bool)
	for _, t2 := range plan.Resume {
		resumed[t2.Hash] = true
	}
	for _, t2 := range plan.Pause {
		if resumed[t2.Hash] {
			t.Fatalf("torrent %s both paused and resumed", t2.Hash)
		}
	}
}

func TestBuildPlanProtectedNeverPaused(t *testing.T) {
	snap := Snapshot{
		Torrents: []*qbittorrent.TorrentInfo{
			makeTorrent(torrentSpec{hash: "aaa", state: "downloading", left: 30 * gib, working: true, tags: []string{"keep"}}),
			makeTorrent(torrentSpec{hash: "bbb", state: "downloading", left: 20 * gib, working: true}),
		},
		FreeBytes: 10 * gib,
	}

	rules := Rules{
		Protected: func(t *qbittorrent.TorrentInfo) bool { return t.HasTag("keep") },
	}

	plan := BuildPlan(snap, rules)

	// The protected torrent keeps its outstanding bytes in the simulation,
	// so the other one still gets paused.
	assertHashes(t, "Pause", plan.Pause, "bbb")
}

func TestBuildPlanSkipForceStart(t *testing.T) {
	snap := Snapshot{
		Torrents: []*qbittorrent.TorrentInfo{
			makeTorrent(torrentSpec{hash: "aaa", state: "forcedDL", left: 30 * gib, working: true, forceStart: true}),
			makeTorrent(torrentSpec{hash: "bbb", state: "downloading", left: 20 * gib, working: true}),
		},
		FreeBytes: 10 * gib,
	}

	plan := BuildPlan(snap, Rules{SkipForceStart: true})
	assertHashes(t, "Pause", plan.Pause, "bbb")

	plan = BuildPlan(snap, Rules{})
	assertHashes(t, "Pause", plan.Pause, "aaa", "bbb")
}

func TestBuildPlanNegativeBudgetPausesEverything(t *testing.T) {
	snap := Snapshot{
		Torrents: []*qbittorrent.TorrentInfo{
			makeTorrent(torrentSpec{hash: "aaa", state: "downloading", left: 1 * gib, working: true}),
			makeTorrent(torrentSpec{hash: "bbb", state: "downloading", left: 2 * gib, working: true}),
		},
		FreeBytes: 1 * gib,
	}

	plan := BuildPlan(snap, Rules{MinFreeBytes: 50 * gib})
	assertHashes(t, "Pause", plan.Pause, "bbb", "aaa")
}

func TestBuildPlanIgnoresCompletedTorrentThatLostData(t *testing.T) {
	lost := makeTorrent(torrentSpec{hash: "aaa", state: "downloading", working: true})
	lost.Progress = 0.7
	lost.CompletionOn = time.Unix(1700000000, 0)
	lost.AmountLeft = 30 * gib

	snap := Snapshot{
		Torrents:  []*qbittorrent.TorrentInfo{lost},
		FreeBytes: 1 * gib,
	}

	plan := BuildPlan(snap, Rules{})

	if len(plan.Pause) != 0 {
		t.Fatalf("Pause = %v, want none", hashes(plan.Pause))
	}
	if plan.Stats.Incomplete != 0 {
		t.Errorf("Stats.Incomplete = %d, want 0", plan.Stats.Incomplete)
	}
}

func TestBuildPlanEmptySnapshot(t *testing.T) {
	plan := BuildPlan(Snapshot{FreeBytes: 10 * gib}, Rules{AutoResume: true})

	if !plan.IsEmpty() {
		t.Fatal("expected empty plan for empty snapshot")
	}
	if plan.Stats.Total != 0 {
		t.Errorf("Stats.Total = %d, want 0", plan.Stats.Total)
	}
}

func TestBuildPlanDeterministicOrder(t *testing.T) {
	build := func(order []string) []string {
		var torrents []*qbittorrent.TorrentInfo
		for _, h := range order {
			torrents = append(torrents, makeTorrent(torrentSpec{hash: h, state: "downloading", left: 10 * gib, working: true}))
		}
		plan := BuildPlan(Snapshot{Torrents: torrents, FreeBytes: 5 * gib}, Rules{})
		return hashes(plan.Pause)
	}

	first := build([]string{"ccc", "aaa", "bbb"})
	second := build([]string{"bbb", "ccc", "aaa"})

	if len(first) != len(second) {
		t.Fatalf("plans differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("plans differ: %v vs %v", first, second)
		}
	}
	// Equal remainders break ties by hash.
	if first[0] != "aaa" {
		t.Errorf("expected hash tiebreak, got %v", first)
	}
}

func TestBuildPlanTagging(t *testing.T) {
	tagger, err := NewTagger([]TagRule{
		{Tag: "tracker-a", Pattern: `tracker-a\.example`},
		{Tag: "tracker-b", Pattern: `tracker-b\.example`},
	})
	if err != nil {
		t.Fatalf("NewTagger: %v", err)
	}

	snap := Snapshot{
		Torrents: []*qbittorrent.TorrentInfo{
			makeTorrent(torrentSpec{hash: "aaa", state: "uploading", tracker: "https://tracker-a.example/announce?key=x"}),
			makeTorrent(torrentSpec{hash: "bbb", state: "uploading", tracker: "https://tracker-b.example/announce", tags: []string{"tracker-b"}}),
			makeTorrent(torrentSpec{hash: "ccc", state: "pausedUP", tracker: "https://tracker-a.example/announce"}),
			makeTorrent(torrentSpec{hash: "ddd", state: "uploading", tracker: "https://unknown.example/announce"}),
		},
		FreeBytes: 100 * gib,
	}

	plan := BuildPlan(snap, Rules{Tagger: tagger})

	if len(plan.Tags) != 1 {
		t.Fatalf("Tags = %v, want exactly one action", plan.Tags)
	}
	if plan.Tags[0].Torrent.Hash != "aaa" || plan.Tags[0].Tag != "tracker-a" {
		t.Fatalf("Tags[0] = %s/%s, want aaa/tracker-a", plan.Tags[0].Torrent.Hash, plan.Tags[0].Tag)
	}
}
