// Package stats aggregates completed sessions into per-player and per-game
// summaries.
package stats

import (
	"sort"
	"time"

	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

// PlayerStats summarizes one player's completed sessions.
type PlayerStats struct {
	PlayerID     string  `json:"playerId"`
	Name         string  `json:"name"`
	GamesPlayed  int     `json:"gamesPlayed"`
	Wins         int     `json:"wins"`
	WinRate      float64 `json:"winRate"`
	AverageScore float64 `json:"averageScore"`
	CoopWins     int     `json:"coopWins"`
}

// GameStats summarizes one game's completed sessions.
type GameStats struct {
	GameType        string    `json:"gameType"`
	Plays           int       `json:"plays"`
	LastPlayed      time.Time `json:"lastPlayed"`
	AverageDuration float64   `json:"averageDuration"`
}

// Summary holds both aggregations.
type Summary struct {
	Players []PlayerStats `json:"players"`
	Games   []GameStats   `json:"games"`
}

// Compute aggregates sessions. Players without a completed session are
// listed with zero counts; sessions naming unknown player ids still count
// under that id. Players sort by wins then name, games by plays then name.
func Compute(players []storage.Player, sessions []storage.GameSession) Summary {
	type playerTotals struct {
		stats     PlayerStats
		scoreSum  float64
		scoreSeen int
	}
	byPlayer := make(map[string]*playerTotals, len(players))
	for _, player := range players {
		byPlayer[player.ID] = &playerTotals{stats: PlayerStats{PlayerID: player.ID, Name: player.Name}}
	}

	type gameTotals struct {
		stats       GameStats
		durationSum int
		durationN   int
	}
	byGame := map[string]*gameTotals{}

	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		game, ok := byGame[s.GameType]
		if !ok {
			game = &gameTotals{stats: GameStats{GameType: s.GameType}}
			byGame[s.GameType] = game
		}
		game.stats.Plays++
		if played := playedAt(s); played.After(game.stats.LastPlayed) {
			game.stats.LastPlayed = played
		}
		if s.Duration > 0 {
			game.durationSum += s.Duration
			game.durationN++
		}

		for _, playerID := range s.Players {
			totals, ok := byPlayer[playerID]
			if !ok {
				totals = &playerTotals{stats: PlayerStats{PlayerID: playerID, Name: playerID}}
				byPlayer[playerID] = totals
			}
			totals.stats.GamesPlayed++
			if score, ok := s.Scores[playerID]; ok {
				totals.scoreSum += score
				totals.scoreSeen++
			}
			switch {
			case s.IsCooperative && s.CoopResult == storage.CoopWon:
				totals.stats.CoopWins++
				totals.stats.Wins++
			case !s.IsCooperative && s.Winner == playerID:
				totals.stats.Wins++
			}
		}
	}

	summary := Summary{Players: make([]PlayerStats, 0, len(byPlayer)), Games: make([]GameStats, 0, len(byGame))}
	for _, totals := range byPlayer {
		if totals.stats.GamesPlayed > 0 {
			totals.stats.WinRate = float64(totals.stats.Wins) / float64(totals.stats.GamesPlayed)
		}
		if totals.scoreSeen > 0 {
			totals.stats.AverageScore = totals.scoreSum / float64(totals.scoreSeen)
		}
		summary.Players = append(summary.Players, totals.stats)
	}
	for _, totals := range byGame {
		if totals.durationN > 0 {
			totals.stats.AverageDuration = float64(totals.durationSum) / float64(totals.durationN)
		}
		summary.Games = append(summary.Games, totals.stats)
	}

	sort.Slice(summary.Players, func(i, j int) bool {
		a, b := summary.Players[i], summary.Players[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.PlayerID < b.PlayerID
	})
	sort.Slice(summary.Games, func(i, j int) bool {
		a, b := summary.Games[i], summary.Games[j]
		if a.Plays != b.Plays {
			return a.Plays > b.Plays
		}
		return a.GameType < b.GameType
	})
	return summary
}

func playedAt(s storage.GameSession) time.Time {
	switch {
	case !s.EndTime.IsZero():
		return s.EndTime
	case !s.Date.IsZero():
		return s.Date
	}
	return s.CreatedAt
}
