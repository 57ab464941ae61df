package stats_test

import (
	"testing"
	"time"

	"edmon/internal/journal"
	"edmon/internal/stats"
)

var testClock = time.Date(2024, 5, 14, 18, 0, 0, 0, time.UTC)

func TestRecordEventCounters(t *testing.T) {
	s := stats.NewSession()
	s.RecordEvent(journal.AcceptedEvent{Timestamp: testClock})
	s.RecordEvent(journal.AcceptedEvent{Timestamp: testClock})
	s.RecordEvent(journal.CompletedEvent{Timestamp: testClock})
	s.RecordEvent(journal.FailedEvent{Timestamp: testClock})
	s.RecordEvent(journal.AbandonedEvent{Timestamp: testClock})
	s.RecordEvent(journal.MissionsEvent{Timestamp: testClock})
	s.RecordEvent(nil)

	c := s.Counts()
	if c.MissionAccepted != 2 || c.MissionCompleted != 1 || c.MissionFailed != 1 {
		t.Fatalf("mission counters: %+v", c)
	}
	if c.MissionAbandoned != 1 || c.MissionsEvent != 1 {
		t.Fatalf("mission counters: %+v", c)
	}
}

func TestPlayerTallies(t *testing.T) {
	s := stats.NewSession()
	s.RecordRaw(map[string]any{"event": "player_join", "player": "cmdr_a"}, testClock)
	s.RecordRaw(map[string]any{"event": "player_join", "player": "cmdr_b"}, testClock.Add(time.Minute))
	s.RecordRaw(map[string]any{"event": "player_kill", "killer": "cmdr_a"}, testClock)
	s.RecordRaw(map[string]any{"event": "player_kill", "killer": "cmdr_a"}, testClock)
	s.RecordRaw(map[string]any{"event": "player_death", "player": "cmdr_b"}, testClock)
	// Unknown players never get a row.
	s.RecordRaw(map[string]any{"event": "player_kill", "killer": "cmdr_ghost"}, testClock)
	s.RecordRaw(map[string]any{"event": "player_death", "player": "cmdr_ghost"}, testClock)

	c := s.Counts()
	if c.PlayerJoin != 2 || c.PlayerKill != 3 || c.PlayerDeath != 2 {
		t.Fatalf("counters: %+v", c)
	}
	players := s.Players()
	if len(players) != 2 {
		t.Fatalf("expected 2 players, have %d", len(players))
	}
	if players[0].Name != "cmdr_a" || players[0].Kills != 2 || players[0].Deaths != 0 {
		t.Fatalf("top player: %+v", players[0])
	}
	if players[1].Name != "cmdr_b" || players[1].Deaths != 1 {
		t.Fatalf("second player: %+v", players[1])
	}
	if !players[0].JoinedAt.Equal(testClock) {
		t.Fatalf("join time = %v", players[0].JoinedAt)
	}
}

func TestRejoinKeepsFirstJoinTime(t *testing.T) {
	s := stats.NewSession()
	s.RecordRaw(map[string]any{"event": "player_join", "player": "cmdr_a"}, testClock)
	s.RecordRaw(map[string]any{"event": "player_join", "player": "cmdr_a"}, testClock.Add(time.Hour))
	players := s.Players()
	if len(players) != 1 || !players[0].JoinedAt.Equal(testClock) {
		t.Fatalf("players: %+v", players)
	}
	if s.Counts().PlayerJoin != 2 {
		t.Fatalf("join counter = %d", s.Counts().PlayerJoin)
	}
}

func TestUnknownRawTagIgnored(t *testing.T) {
	s := stats.NewSession()
	s.RecordRaw(map[string]any{"event": "FSDJump"}, testClock)
	if got := s.Counts(); got != (stats.Counts{}) {
		t.Fatalf("counters changed: %+v", got)
	}
}

func TestSkippedAndReset(t *testing.T) {
	s := stats.NewSession()
	s.RecordSkipped()
	s.RecordSkipped()
	s.RecordRaw(map[string]any{"event": "game_start"}, testClock)
	s.RecordRaw(map[string]any{"event": "player_join", "player": "cmdr_a"}, testClock)
	if c := s.Counts(); c.SkippedLines != 2 || c.GameStart != 1 {
		t.Fatalf("counters: %+v", c)
	}
	s.Reset()
	if c := s.Counts(); c != (stats.Counts{}) {
		t.Fatalf("reset left counters: %+v", c)
	}
	if got := s.Players(); len(got) != 0 {
		t.Fatalf("reset left players: %+v", got)
	}
}
