package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// LeaderboardSize caps how many entries are kept.
const LeaderboardSize = 10

// LeaderboardKey is the storage key holding the serialized leaderboard.
const LeaderboardKey = "quizterios-leaderboard"

// LeaderboardEntry is one recorded final score. Entries are never mutated
// after creation.
type LeaderboardEntry struct {
	PlayerName  string `json:"name"`
	Score       int    `json:"score"`
	DateLabel   string `json:"date"`
	CreatedAtMs int64  `json:"timestamp"`
}

// Leaderboard is ordered by score descending, then most recent first.
type Leaderboard []LeaderboardEntry

// InsertEntry returns a new leaderboard with entry added, re-sorted and
// truncated to LeaderboardSize. The existing slice is left untouched.
func InsertEntry(existing Leaderboard, entry LeaderboardEntry) Leaderboard {
	next := make(Leaderboard, 0, len(existing)+1)
	next = append(next, existing...)
	next = append(next, entry)
	return next.normalized()
}

// Normalize sorts and caps a leaderboard read from storage.
func Normalize(lb Leaderboard) Leaderboard {
	next := make(Leaderboard, len(lb))
	copy(next, lb)
	return next.normalized()
}

func (lb Leaderboard) normalized() Leaderboard {
	sort.SliceStable(lb, func(i, j int) bool {
		if lb[i].Score != lb[j].Score {
			return lb[i].Score > lb[j].Score
		}
		return lb[i].CreatedAtMs > lb[j].CreatedAtMs
	})
	if len(lb) > LeaderboardSize {
		lb = lb[:LeaderboardSize]
	}
	return lb
}

// IsSorted reports whether lb respects the leaderboard ordering and size cap.
func IsSorted(lb Leaderboard) bool {
	if len(lb) > LeaderboardSize {
		return false
	}
	for i := 1; i < len(lb); i++ {
		prev, cur := lb[i-1], lb[i]
		if prev.Score < cur.Score {
			return false
		}
		if prev.Score == cur.Score && prev.CreatedAtMs < cur.CreatedAtMs {
			return false
		}
	}
	return true
}

// EncodeLeaderboard serializes a leaderboard into its stored JSON form.
func EncodeLeaderboard(lb Leaderboard) ([]byte, error) {
	if lb == nil {
		lb = Leaderboard{}
	}
	data, err := json.Marshal(lb)
	if err != nil {
		return nil, fmt.Errorf("%w: encode leaderboard: %w", ErrStorage, err)
	}
	return data, nil
}

// DecodeLeaderboard parses a stored leaderboard. Empty input yields an empty
// leaderboard; malformed input or negative scores yield ErrStorage.
func DecodeLeaderboard(data []byte) (Leaderboard, error) {
	if len(data) == 0 {
		return Leaderboard{}, nil
	}
	var lb Leaderboard
	if err := json.Unmarshal(data, &lb); err != nil {
		return Leaderboard{}, fmt.Errorf("%w: decode leaderboard: %w", ErrStorage, err)
	}
	for _, entry := range lb {
		if entry.Score < 0 {
			return Leaderboard{}, fmt.Errorf("%w: negative score for %q", ErrStorage, entry.PlayerName)
		}
	}
	return Normalize(lb), nil
}

// InsertIntoStored decodes a stored value, inserts entry and returns the new
// leaderboard. An unreadable stored value counts as empty and is replaced.
func InsertIntoStored(data []byte, entry LeaderboardEntry) Leaderboard {
	current, err := DecodeLeaderboard(data)
	if err != nil {
		current = Leaderboard{}
	}
	return InsertEntry(current, entry)
}
