package stats

import (
	"math"
	"testing"
	"time"

	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

func TestComputeCountsOnlyCompletedSessions(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 2, 1, 18, 0, 0, 0, time.UTC)
	players := []storage.Player{{ID: "p1", Name: "Ana"}, {ID: "p2", Name: "Bo"}, {ID: "p3", Name: "Cy"}}
	sessions := []storage.GameSession{
		{GameType: "Catan", Players: []string{"p1", "p2"}, Scores: map[string]float64{"p1": 10, "p2": 6}, Winner: "p1", Completed: true, Duration: 60, EndTime: day},
		{GameType: "Catan", Players: []string{"p1", "p2"}, Scores: map[string]float64{"p1": 4, "p2": 10}, Winner: "p2", Completed: true, Duration: 90, EndTime: day.Add(24 * time.Hour)},
		{GameType: "Pandemic", IsCooperative: true, Players: []string{"p1", "p2"}, CoopResult: storage.CoopWon, Completed: true, EndTime: day},
		{GameType: "Catan", Players: []string{"p1", "p3"}, Winner: "p3", Duration: 500},
	}

	summary := Compute(players, sessions)
	if len(summary.Players) != 3 {
		t.Fatalf("players = %d, want 3", len(summary.Players))
	}
	first := summary.Players[0]
	if first.PlayerID != "p1" || first.Wins != 2 || first.GamesPlayed != 3 || first.CoopWins != 1 {
		t.Fatalf("first player = %+v", first)
	}
	if math.Abs(first.WinRate-2.0/3.0) > 1e-9 {
		t.Fatalf("win rate = %v, want 0.667", first.WinRate)
	}
	if first.AverageScore != 7 {
		t.Fatalf("average score = %v, want 7", first.AverageScore)
	}
	last := summary.Players[2]
	if last.PlayerID != "p3" || last.GamesPlayed != 0 || last.WinRate != 0 {
		t.Fatalf("idle player = %+v", last)
	}

	if len(summary.Games) != 2 {
		t.Fatalf("games = %d, want 2", len(summary.Games))
	}
	catan := summary.Games[0]
	if catan.GameType != "Catan" || catan.Plays != 2 || catan.AverageDuration != 75 {
		t.Fatalf("catan = %+v", catan)
	}
	if !catan.LastPlayed.Equal(day.Add(24 * time.Hour)) {
		t.Fatalf("last played = %v", catan.LastPlayed)
	}
	if summary.Games[1].AverageDuration != 0 {
		t.Fatalf("pandemic duration = %v, want 0", summary.Games[1].AverageDuration)
	}
}

func TestComputeEmpty(t *testing.T) {
	t.Parallel()

	summary := Compute(nil, nil)
	if summary.Players == nil || summary.Games == nil {
		t.Fatal("expected non-nil slices for JSON encoding")
	}
}

func TestComputeUnknownPlayerID(t *testing.T) {
	t.Parallel()

	summary := Compute(nil, []storage.GameSession{{GameType: "Chess", Players: []string{"ghost"}, Winner: "ghost", Completed: true}})
	if len(summary.Players) != 1 || summary.Players[0].Name != "ghost" || summary.Players[0].WinRate != 1 {
		t.Fatalf("players = %+v", summary.Players)
	}
}
