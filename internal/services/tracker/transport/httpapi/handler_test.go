package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/playlog/internal/platform/kvstore"
	"github.com/louisbranch/playlog/internal/services/tracker/integration/bgg"
	"github.com/louisbranch/playlog/internal/services/tracker/service"
	"github.com/louisbranch/playlog/internal/services/tracker/storage/sqlite"
)

type stubMetadata struct{}

func (stubMetadata) Search(_ context.Context, query string) ([]bgg.SearchResult, error) {
	return []bgg.SearchResult{{ID: "13", Name: query, Year: 1995}}, nil
}

func (stubMetadata) Thing(_ context.Context, gameID string) (bgg.Detail, error) {
	return bgg.Detail{ID: gameID, Name: "Catan", MinPlayers: 3, MaxPlayers: 4, Expansions: []bgg.Link{{ID: "325", Name: "Seafarers"}}}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *bytes.Buffer) {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "playlog.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	prefs, err := kvstore.New(context.Background(), store)
	if err != nil {
		t.Fatalf("new kvstore: %v", err)
	}
	n := 0
	svc := service.NewService(service.Stores{Players: store, Templates: store, Sessions: store}, stubMetadata{}, prefs,
		service.WithIDGenerator(func() (string, error) {
			n++
			return fmt.Sprintf("id-%d", n), nil
		}),
	)
	var logs bytes.Buffer
	server := httptest.NewServer(NewHandler(svc, log.New(&logs, "", 0)))
	t.Cleanup(server.Close)
	return server, &logs
}

func doJSON(t *testing.T, server *httptest.Server, method, path string, body any, target any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	var body map[string]string
	if status := doJSON(t, server, http.MethodGet, "/health", nil, &body); status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestPlayerEndpoints(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	var created playerJSON
	if status := doJSON(t, server, http.MethodPost, "/api/players", map[string]string{"name": "Ana"}, &created); status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	if created.ID != "id-1" || created.Name != "Ana" {
		t.Fatalf("created = %+v", created)
	}

	var errBody map[string]string
	if status := doJSON(t, server, http.MethodPost, "/api/players", map[string]string{"name": " "}, &errBody); status != http.StatusBadRequest {
		t.Fatalf("blank status = %d", status)
	}
	if errBody["code"] != "PLAYER_NAME_EMPTY" || errBody["error"] != "Player name cannot be empty" {
		t.Fatalf("error body = %v", errBody)
	}

	var players []playerJSON
	doJSON(t, server, http.MethodGet, "/api/players", nil, &players)
	if len(players) != 1 {
		t.Fatalf("players = %+v", players)
	}

	if status := doJSON(t, server, http.MethodDelete, "/api/players/id-1", nil, nil); status != http.StatusNoContent {
		t.Fatalf("delete status = %d", status)
	}
	if status := doJSON(t, server, http.MethodGet, "/api/players/id-1", nil, &errBody); status != http.StatusNotFound {
		t.Fatalf("get deleted status = %d", status)
	}
}

func TestSessionEndpoints(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	doJSON(t, server, http.MethodPost, "/api/templates", templateJSON{Name: "Catan", SupportsCompetitive: true, MinPlayers: 2, MaxPlayers: 4}, nil)
	doJSON(t, server, http.MethodPost, "/api/templates/Catan/extensions", extensionJSON{Name: "5-6 Players", MaxPlayers: 6}, nil)
	doJSON(t, server, http.MethodPost, "/api/players", map[string]string{"name": "Ana"}, nil)
	doJSON(t, server, http.MethodPost, "/api/players", map[string]string{"name": "Bo"}, nil)

	var extensions []extensionJSON
	doJSON(t, server, http.MethodGet, "/api/templates/Catan/extensions", nil, &extensions)
	if len(extensions) != 1 || extensions[0].BaseGameName != "Catan" {
		t.Fatalf("extensions = %+v", extensions)
	}

	start := time.Now().Add(-30 * time.Minute).UTC()
	var started sessionJSON
	status := doJSON(t, server, http.MethodPost, "/api/sessions", startSessionRequest{
		GameType:  "Catan",
		Players:   []string{"id-2", "id-3"},
		StartTime: start,
	}, &started)
	if status != http.StatusCreated {
		t.Fatalf("start status = %d", status)
	}

	var errBody map[string]string
	status = doJSON(t, server, http.MethodPost, "/api/sessions", startSessionRequest{GameType: "Catan", Players: []string{"id-2"}}, &errBody)
	if status != http.StatusBadRequest || errBody["code"] != "SESSION_PLAYER_COUNT" {
		t.Fatalf("too few status = %d body = %v", status, errBody)
	}
	if !strings.Contains(errBody["error"], "Catan is played by 2 to 4 players, got 1") {
		t.Fatalf("localized message = %q", errBody["error"])
	}

	var done sessionJSON
	status = doJSON(t, server, http.MethodPost, "/api/sessions/"+started.ID+"/complete", completeSessionRequest{
		Scores: map[string]float64{"id-2": 4, "id-3": 9},
	}, &done)
	if status != http.StatusOK || done.Winner != "id-3" || !done.Completed {
		t.Fatalf("complete status = %d session = %+v", status, done)
	}
	status = doJSON(t, server, http.MethodPost, "/api/sessions/"+started.ID+"/complete", completeSessionRequest{}, &errBody)
	if status != http.StatusConflict {
		t.Fatalf("recomplete status = %d", status)
	}

	var sessions []sessionJSON
	doJSON(t, server, http.MethodGet, "/api/sessions?game=Catan&completed=true", nil, &sessions)
	if len(sessions) != 1 {
		t.Fatalf("sessions = %+v", sessions)
	}
	if status := doJSON(t, server, http.MethodGet, "/api/sessions?limit=x", nil, &errBody); status != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", status)
	}

	var summary struct {
		Players []struct {
			PlayerID string `json:"playerId"`
			Wins     int    `json:"wins"`
		} `json:"players"`
	}
	doJSON(t, server, http.MethodGet, "/api/stats", nil, &summary)
	if len(summary.Players) != 2 || summary.Players[0].PlayerID != "id-3" || summary.Players[0].Wins != 1 {
		t.Fatalf("stats = %+v", summary)
	}
}

func TestMetadataAndPreferenceEndpoints(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	var results []bgg.SearchResult
	doJSON(t, server, http.MethodGet, "/api/bgg/search?q=catan", nil, &results)
	if len(results) != 1 || results[0].ID != "13" {
		t.Fatalf("results = %+v", results)
	}

	var imported struct {
		Template   templateJSON    `json:"template"`
		Extensions []extensionJSON `json:"extensions"`
	}
	if status := doJSON(t, server, http.MethodPost, "/api/bgg/import/13", nil, &imported); status != http.StatusCreated {
		t.Fatalf("import status = %d", status)
	}
	if imported.Template.Name != "Catan" || len(imported.Extensions) != 1 {
		t.Fatalf("imported = %+v", imported)
	}

	if status := doJSON(t, server, http.MethodPut, "/api/preferences/locale", preferenceRequest{Value: "en-GB"}, nil); status != http.StatusOK {
		t.Fatalf("set preference status = %d", status)
	}
	var pref map[string]string
	doJSON(t, server, http.MethodGet, "/api/preferences/locale", nil, &pref)
	if pref["value"] != "en-GB" {
		t.Fatalf("preference = %v", pref)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	resp, err := server.Client().Post(server.URL+"/api/players", "application/json", strings.NewReader(`{"name":`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestDashboardRendersEscapedNames(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	doJSON(t, server, http.MethodPost, "/api/players", map[string]string{"name": "<b>Ana</b>"}, nil)

	resp, err := server.Client().Get(server.URL + "/")
	if err != nil {
		t.Fatalf("get dashboard: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read dashboard: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("content type = %q", resp.Header.Get("Content-Type"))
	}
	html := string(body)
	if !strings.Contains(html, "&lt;b&gt;Ana&lt;/b&gt;") || strings.Contains(html, "<b>Ana</b>") {
		t.Fatalf("dashboard did not escape names: %s", html)
	}
	if !strings.Contains(html, "No completed sessions yet.") {
		t.Fatalf("dashboard = %s", html)
	}
}

func TestDashboardUsesAcceptLanguage(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, server.URL+"/", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("get dashboard: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read dashboard: %v", err)
	}
	html := string(body)
	if !strings.Contains(html, `lang="pt-BR"`) || !strings.Contains(html, "Nenhum jogador ainda.") {
		t.Fatalf("dashboard = %s", html)
	}
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	resp, err := server.Client().Get(server.URL + "/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
