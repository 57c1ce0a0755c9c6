package main

import "sort"

const MatchDuration = 65.0 // seconds

// Match holds the per-room match state. Remaining is only decremented
// while Running; the decrement that would take it to zero ends the
// match instead of being broadcast.
type Match struct {
	Duration  float64
	Remaining float64
	Running   bool
}

// NewMatch returns a match in the waiting state
func NewMatch() Match {
	return Match{Duration: MatchDuration}
}

// computeRankings sorts players by kill count descending and picks the
// winner: absent when there are no players or nobody scored, a synthetic
// "Draw" record when the top kill count is shared, otherwise the single
// top player.
func computeRankings(players map[string]*Player) ([]RankEntry, *WinnerInfo) {
	if len(players) == 0 {
		return nil, nil
	}

	rankings := make([]RankEntry, 0, len(players))
	for _, p := range players {
		rankings = append(rankings, RankEntry{ID: p.ID, Name: p.Name, Kills: p.Kills})
	}
	sort.Slice(rankings, func(i, j int) bool {
		return rankings[i].Kills > rankings[j].Kills
	})

	top := rankings[0].Kills
	if top == 0 {
		// Everyone at zero is a no-winner, not a tie
		return rankings, nil
	}

	atTop := 0
	for _, r := range rankings {
		if r.Kills == top {
			atTop++
		}
	}
	if atTop > 1 {
		return rankings, &WinnerInfo{Name: "Draw", Kills: top}
	}

	id := rankings[0].ID
	return rankings, &WinnerInfo{ID: &id, Name: rankings[0].Name, Kills: top}
}
