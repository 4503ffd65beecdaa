// Package standings computes individual and team season leaderboards from
// point-scored placement records.
//
// Every function here is pure: it reads a snapshot of records and returns a
// freshly built, ordered leaderboard. Ordering never depends on map iteration.
package standings

// competitionRanks assigns standard competition ranks to n sorted entries.
// Entry i shares the rank of entry i-1 when tied(i-1, i); otherwise it gets
// its 1-based position, so two entries tied at 1 are followed by rank 3.
func competitionRanks(n int, tied func(prev, cur int) bool) []int {
	ranks := make([]int, n)
	for i := 0; i < n; i++ {
		if i > 0 && tied(i-1, i) {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}
