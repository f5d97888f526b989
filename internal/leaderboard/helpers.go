package leaderboard

import ws "github.com/gokatarajesh/duel-platform/pkg/http/ws"

func toWSEntries(entries []Entry) []ws.LeaderboardEntry {
	result := make([]ws.LeaderboardEntry, len(entries))
	for i, e := range entries {
		result[i] = ws.LeaderboardEntry{
			Rank:   i + 1,
			UserID: e.UserID.String(),
			Rating: e.Rating,
			Wins:   e.Wins,
			Losses: e.Losses,
			Draws:  e.Draws,
			Games:  e.Games,
		}
	}
	return result
}
