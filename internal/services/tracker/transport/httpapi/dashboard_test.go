package httpapi

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/playlog/internal/services/tracker/stats"
	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

func TestDashboardPageRendersTables(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	view := dashboardView{
		Summary: stats.Summary{
			Players: []stats.PlayerStats{{PlayerID: "p1", Name: "Ana", GamesPlayed: 4, Wins: 3, WinRate: 0.75, AverageScore: 41.3, CoopWins: 1}},
			Games:   []stats.GameStats{{GameType: "Root", Plays: 4, LastPlayed: day, AverageDuration: 92.4}},
		},
		Sessions: []storage.GameSession{{GameType: "Root", Date: day, Completed: true, Winner: "p1"}},
		Players:  map[string]string{"p1": "Ana"},
		Locale:   "en-US",
	}

	var buf bytes.Buffer
	if err := dashboardPage(view).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render dashboard: %v", err)
	}
	html := buf.String()
	for _, want := range []string{
		`<html lang="en-US">`,
		"<th>Win rate</th>",
		"<td>Ana</td><td>4</td><td>3</td><td>75%</td><td>41.3</td><td>1</td>",
		"<td>Root</td><td>4</td><td>2026-03-14</td><td>92</td>",
		"<li>Root on 2026-03-14: Ana won</li>",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("dashboard = %s, want %q", html, want)
		}
	}
}

func TestDashboardPageEscapesLocale(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := dashboardPage(dashboardView{Locale: `"><script>`}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render dashboard: %v", err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Fatalf("dashboard = %s, want escaped locale", buf.String())
	}
}

func TestDashboardPageHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := dashboardPage(dashboardView{Locale: "en-US"}).Render(ctx, &buf)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("render err = %v, want %v", err, context.Canceled)
	}
}
