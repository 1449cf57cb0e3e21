package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/louisbranch/playlog/internal/platform/errors"
	"github.com/louisbranch/playlog/internal/platform/kvstore"
	"github.com/louisbranch/playlog/internal/services/tracker/integration/bgg"
	"github.com/louisbranch/playlog/internal/services/tracker/session"
	"github.com/louisbranch/playlog/internal/services/tracker/storage"
	"github.com/louisbranch/playlog/internal/services/tracker/storage/sqlite"
)

var fixedNow = time.Date(2026, 5, 2, 19, 30, 0, 0, time.UTC)

type fakeMetadata struct {
	detail bgg.Detail
	err    error
}

func (f fakeMetadata) Search(_ context.Context, query string) ([]bgg.SearchResult, error) {
	return []bgg.SearchResult{{ID: "13", Name: query}}, f.err
}

func (f fakeMetadata) Thing(context.Context, string) (bgg.Detail, error) {
	return f.detail, f.err
}

func sequentialIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("id-%d", n), nil
	}
}

func newTestService(t *testing.T, metadata Metadata) (*Service, *sqlite.Store) {
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
	t.Cleanup(func() { _ = prefs.Close() })

	svc := NewService(Stores{Players: store, Templates: store, Sessions: store}, metadata, prefs,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
	)
	return svc, store
}

func TestPlayerLifecycle(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.CreatePlayer(ctx, " "); apperrors.CodeOf(err) != apperrors.CodePlayerNameEmpty {
		t.Fatalf("blank name err = %v", err)
	}
	player, err := svc.CreatePlayer(ctx, " Ana ")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if player.ID != "id-1" || player.Name != "Ana" {
		t.Fatalf("player = %+v", player)
	}
	renamed, err := svc.RenamePlayer(ctx, player.ID, "Ana B")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Name != "Ana B" {
		t.Fatalf("name = %q, want %q", renamed.Name, "Ana B")
	}
	if err := svc.DeletePlayer(ctx, player.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = svc.GetPlayer(ctx, player.ID)
	if apperrors.CodeOf(err) != apperrors.CodeNotFound || !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted err = %v", err)
	}
}

func TestSessionFlowAndStats(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.CreateTemplate(ctx, storage.GameTemplate{Name: "Catan", SupportsCompetitive: true, MinPlayers: 2, MaxPlayers: 4}); err != nil {
		t.Fatalf("create template: %v", err)
	}
	if _, err := svc.CreateTemplate(ctx, storage.GameTemplate{Name: "Catan"}); apperrors.CodeOf(err) != apperrors.CodeAlreadyExists {
		t.Fatalf("duplicate template err = %v", err)
	}
	ana, _ := svc.CreatePlayer(ctx, "Ana")
	bo, _ := svc.CreatePlayer(ctx, "Bo")

	if _, err := svc.StartSession(ctx, session.StartInput{GameType: "Catan", Players: []string{ana.ID, "ghost"}}); apperrors.CodeOf(err) != apperrors.CodeSessionUnknownPlayer {
		t.Fatalf("unknown player err = %v", err)
	}
	if _, err := svc.StartSession(ctx, session.StartInput{GameType: "Chess", Players: []string{ana.ID}}); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("unknown game err = %v", err)
	}

	started, err := svc.StartSession(ctx, session.StartInput{
		GameType:  "Catan",
		Players:   []string{ana.ID, bo.ID},
		StartTime: fixedNow.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	done, err := svc.CompleteSession(ctx, started.ID, session.Outcome{Scores: map[string]float64{ana.ID: 10, bo.ID: 8}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Winner != ana.ID || done.Duration != 60 {
		t.Fatalf("winner = %q duration = %d", done.Winner, done.Duration)
	}
	if _, err := svc.CompleteSession(ctx, started.ID, session.Outcome{}); apperrors.CodeOf(err) != apperrors.CodeSessionAlreadyCompleted {
		t.Fatalf("second complete err = %v", err)
	}

	stored, err := svc.GetSession(ctx, started.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !stored.Completed || stored.Scores[bo.ID] != 8 {
		t.Fatalf("stored = %+v", stored)
	}

	if _, err := svc.StartSession(ctx, session.StartInput{GameType: "Catan", Players: []string{ana.ID, bo.ID}}); err != nil {
		t.Fatalf("start open session: %v", err)
	}
	summary, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(summary.Games) != 1 || summary.Games[0].Plays != 1 {
		t.Fatalf("games = %+v", summary.Games)
	}
	if summary.Players[0].PlayerID != ana.ID || summary.Players[0].Wins != 1 {
		t.Fatalf("players = %+v", summary.Players)
	}
}

func TestRecordCharacterEventPersists(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	if _, err := svc.CreateTemplate(ctx, storage.GameTemplate{
		Name:                   "Gloomhaven",
		Characters:             []string{"Brute"},
		IsCooperativeByDefault: true,
		MaxPlayers:             4,
	}); err != nil {
		t.Fatalf("create template: %v", err)
	}
	ana, _ := svc.CreatePlayer(ctx, "Ana")
	started, err := svc.StartSession(ctx, session.StartInput{
		GameType:   "Gloomhaven",
		Players:    []string{ana.ID},
		Characters: map[string]string{ana.ID: "Brute"},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !started.IsCooperative {
		t.Fatal("expected cooperative default")
	}
	if _, err := svc.RecordCharacterEvent(ctx, started.ID, storage.CharacterEvent{Type: storage.CharacterDeath, CharacterID: "Brute"}); err != nil {
		t.Fatalf("death: %v", err)
	}
	stored, err := svc.GetSession(ctx, started.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.DeadCharacters["Brute"] || len(stored.CharacterHistory) != 1 {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestImportGameCreatesTemplateAndExtensions(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, fakeMetadata{detail: bgg.Detail{
		ID:         "13",
		Name:       "Catan",
		MinPlayers: 3,
		MaxPlayers: 4,
		Expansions: []bgg.Link{{ID: "325", Name: "Seafarers"}, {ID: "926", Name: "Cities & Knights"}},
	}})
	ctx := context.Background()

	imported, err := svc.ImportGame(ctx, "13")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported.Template.Name != "Catan" || len(imported.Extensions) != 2 {
		t.Fatalf("imported = %+v", imported)
	}
	extensions, err := svc.ListExtensions(ctx, "Catan")
	if err != nil {
		t.Fatalf("list extensions: %v", err)
	}
	if len(extensions) != 2 {
		t.Fatalf("extensions = %+v", extensions)
	}
	if _, err := svc.ImportGame(ctx, "13"); apperrors.CodeOf(err) != apperrors.CodeAlreadyExists {
		t.Fatalf("reimport err = %v", err)
	}
}

func TestMetadataNotConfigured(t *testing.T) {
	t.Parallel()

	svc := NewService(Stores{}, nil, nil)
	if _, err := svc.SearchGames(context.Background(), "catan"); apperrors.CodeOf(err) != apperrors.CodeMetadataUnavailable {
		t.Fatalf("search err = %v", err)
	}
	if _, err := svc.ListPlayers(context.Background()); err == nil {
		t.Fatal("expected store not configured error")
	}
}

func TestPreferencesPersistThroughStore(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, nil)
	ctx := context.Background()
	if err := svc.SetPreference(ctx, " ", "x"); apperrors.CodeOf(err) != apperrors.CodePreferenceKeyEmpty {
		t.Fatalf("blank key err = %v", err)
	}
	if err := svc.SetPreference(ctx, "locale", "pt-BR"); err != nil {
		t.Fatalf("set preference: %v", err)
	}
	if got := svc.Preference("locale", "en-US"); got != "pt-BR" {
		t.Fatalf("locale = %q, want %q", got, "pt-BR")
	}
	persisted, err := store.LoadPreferences(ctx)
	if err != nil {
		t.Fatalf("load preferences: %v", err)
	}
	if persisted["locale"] != "pt-BR" {
		t.Fatalf("persisted = %v", persisted)
	}
}
