package app

import (
	"fmt"
	"sort"
	"strings"

	"quiz-room-service/internal/domain"
)

// rankEntries sorts by score descending, stable on the incoming order, and
// fills in 1-based ranks.
func rankEntries(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// FormatResults renders a leaderboard for the room. It reports false when
// nobody answered, in which case nothing should be sent.
func FormatResults(lb domain.Leaderboard) (string, bool) {
	if len(lb.Entries) == 0 {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 RESULTS: %s\n\n", lb.QuizName)
	for _, e := range lb.Entries {
		fmt.Fprintf(&b, "%d. %s - %d\n", e.Rank, e.DisplayName, e.Score)
	}
	return b.String(), true
}
