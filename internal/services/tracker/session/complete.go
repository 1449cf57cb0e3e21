package session

import (
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "github.com/louisbranch/playlog/internal/platform/errors"
	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

// Outcome is the result recorded when a session ends.
type Outcome struct {
	Scores       map[string]float64
	Winner       string
	WinCondition string
	CoopResult   storage.CoopResult
	EndTime      time.Time
}

// Complete records outcome on s and marks it completed.
//
// Competitive sessions take the explicit winner when given, otherwise the
// player with the highest unique score; a shared top score is recorded as
// a tie with no winner. Cooperative sessions require a won or lost result.
func Complete(s storage.GameSession, outcome Outcome, now func() time.Time) (storage.GameSession, error) {
	if now == nil {
		now = time.Now
	}
	if s.Completed {
		return storage.GameSession{}, apperrors.New(apperrors.CodeSessionAlreadyCompleted, fmt.Sprintf("session %s already completed", s.ID))
	}

	players := make(map[string]struct{}, len(s.Players))
	for _, player := range s.Players {
		players[player] = struct{}{}
	}
	scores := make(map[string]float64, len(outcome.Scores))
	for player, score := range outcome.Scores {
		player = strings.TrimSpace(player)
		if _, ok := players[player]; !ok {
			return storage.GameSession{}, apperrors.WithMetadata(apperrors.CodeSessionUnknownPlayer,
				fmt.Sprintf("score for non-player %s", player), map[string]string{"Player": player})
		}
		scores[player] = score
	}

	endTime := outcome.EndTime
	if endTime.IsZero() {
		endTime = now()
	}
	endTime = endTime.UTC()
	if !s.StartTime.IsZero() && endTime.Before(s.StartTime) {
		return storage.GameSession{}, apperrors.New(apperrors.CodeSessionInvalidTiming, "session ends before it starts")
	}

	s.Scores = scores
	s.Winner = ""
	s.WinCondition = strings.TrimSpace(outcome.WinCondition)
	s.CoopResult = ""

	if s.IsCooperative {
		switch outcome.CoopResult {
		case storage.CoopWon, storage.CoopLost:
			s.CoopResult = outcome.CoopResult
		default:
			return storage.GameSession{}, apperrors.New(apperrors.CodeSessionCoopResultRequired, "cooperative session needs a won or lost result")
		}
	} else {
		winner := strings.TrimSpace(outcome.Winner)
		if winner != "" {
			if _, ok := players[winner]; !ok {
				return storage.GameSession{}, apperrors.WithMetadata(apperrors.CodeSessionWinnerNotPlayer,
					fmt.Sprintf("winner %s is not a player", winner), map[string]string{"Player": winner})
			}
			s.Winner = winner
		} else if leader, tied := topScorer(scores); tied {
			s.WinCondition = WinConditionTie
		} else {
			s.Winner = leader
		}
	}

	s.EndTime = endTime
	s.Duration = Duration(s.StartTime, endTime)
	s.Completed = true
	return s, nil
}

// Duration returns the whole minutes between start and end, or zero when
// either is unset or end precedes start.
func Duration(start, end time.Time) int {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0
	}
	return int(math.Round(end.Sub(start).Minutes()))
}

// topScorer returns the highest-scoring player and whether that score is
// shared. Without scores there is no leader and no tie.
func topScorer(scores map[string]float64) (string, bool) {
	if len(scores) == 0 {
		return "", false
	}
	leader := ""
	best := math.Inf(-1)
	tied := false
	for player, score := range scores {
		switch {
		case score > best:
			leader, best, tied = player, score, false
		case score == best:
			tied = true
		}
	}
	if tied {
		return "", true
	}
	return leader, false
}
