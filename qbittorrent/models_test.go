package qbittorrent

import (
	"testing"
	"time"
)

func TestShortHash(t *testing.T) {
	cases := map[string]string{
		"3b245504cf5f11bbdbe1201cea6a6bf45aee1bc0": "ee1bc0",
		"abc":    "abc",
		"aee1bc": "aee1bc",
		"":       "",
	}

	for hash, want := range cases {
		info := &TorrentInfo{Hash: hash}
		if got := info.ShortHash(); got != want {
			t.Errorf("ShortHash(%q) = %q, want %q", hash, got, want)
		}
	}
}

func TestStateHelpers(t *testing.T) {
	tests := []struct {
		state    string
		paused   bool
		checking bool
	}{
		{state: "pausedDL", paused: true},
		{state: "pausedUP", paused: true},
		{state: "stoppedDL", paused: true},
		{state: "stoppedUP", paused: true},
		{state: "downloading"},
		{state: "stalledDL"},
		{state: "checkingDL", checking: true},
		{state: "checkingUP", checking: true},
		{state: "checkingResumeData", checking: true},
		{state: "uploading"},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			info := &TorrentInfo{State: tt.state}
			if got := info.IsPaused(); got != tt.paused {
				t.Errorf("IsPaused() = %v, want %v", got, tt.paused)
			}
			if got := info.IsChecking(); got != tt.checking {
				t.Errorf("IsChecking() = %v, want %v", got, tt.checking)
			}
		})
	}
}

func TestIsIncomplete(t *testing.T) {
	tests := []struct {
		name         string
		progress     float64
		completionOn time.Time
		want         bool
	}{
		{
			name:         "partial download",
			progress:     0.4,
			completionOn: time.Unix(0, 0),
			want:         true,
		},
		{
			name:         "finished",
			progress:     1.0,
			completionOn: time.Unix(1700000000, 0),
			want:         false,
		},
		{
			name:         "completed torrent that lost its data",
			progress:     0.9,
			completionOn: time.Unix(1700000000, 0),
			want:         false,
		},
		{
			name:         "finished but completion unset",
			progress:     1.0,
			completionOn: time.Unix(0, 0),
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &TorrentInfo{Progress: tt.progress, CompletionOn: tt.completionOn}
			if got := info.IsIncomplete(); got != tt.want {
				t.Errorf("IsIncomplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitTags(t *testing.T) {
	got := splitTags("keep, tracker-a,  ,b")
	want := []string{"keep", "tracker-a", "b"}
	if len(got) != len(want) {
		t.Fatalf("splitTags returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splitTags returned %v, want %v", got, want)
		}
	}

	if splitTags("") != nil {
		t.Fatalf("splitTags(\"\") should be nil")
	}
}

func TestHasTag(t *testing.T) {
	info := &TorrentInfo{Tags: []string{"keep", "Tracker-A"}}

	if !info.HasTag("keep") {
		t.Errorf("expected HasTag(keep) to be true")
	}
	if !info.HasTag("tracker-a") {
		t.Errorf("expected tag matching to be case-insensitive")
	}
	if info.HasTag("other") {
		t.Errorf("expected HasTag(other) to be false")
	}
}

func TestTrackerIsWorking(t *testing.T) {
	working := []TrackerStatus{TrackerOK, TrackerUpdating}
	broken := []TrackerStatus{TrackerDisabled, TrackerNotContacted, TrackerNotWorking}

	for _, status := range working {
		if !(TrackerInfo{Status: status}).IsWorking() {
			t.Errorf("expected status %d to be working", status)
		}
	}
	for _, status := range broken {
		if (TrackerInfo{Status: status}).IsWorking() {
			t.Errorf("expected status %d to not be working", status)
		}
	}
}
