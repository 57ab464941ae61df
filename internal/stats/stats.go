// Package stats keeps the plain per-session counters that sit beside
// the mission registry: how many of each event arrived, and who played.
package stats

import (
	"sort"
	"sync"
	"time"

	"edmon/internal/journal"
)

// Counts is a snapshot of the event counters.
type Counts struct {
	MissionAccepted  int `json:"mission_accepted"`
	MissionCompleted int `json:"mission_completed"`
	MissionFailed    int `json:"mission_failed"`
	MissionAbandoned int `json:"mission_abandoned"`
	MissionsEvent    int `json:"missions_event"`

	PlayerJoin  int `json:"player_join"`
	PlayerQuit  int `json:"player_quit"`
	PlayerKill  int `json:"player_kill"`
	PlayerDeath int `json:"player_death"`
	GameStart   int `json:"game_start"`
	GameEnd     int `json:"game_end"`

	SkippedLines int `json:"skipped_lines"`
}

// Player is the per-player tally.
type Player struct {
	Name     string    `json:"player"`
	Kills    int       `json:"kills"`
	Deaths   int       `json:"deaths"`
	JoinedAt time.Time `json:"join_time"`
}

// Session accumulates counters for one monitoring session. Safe for
// concurrent use.
type Session struct {
	mu      sync.RWMutex
	counts  Counts
	players map[string]*Player
}

func NewSession() *Session {
	return &Session{players: map[string]*Player{}}
}

// RecordEvent counts one typed mission event.
func (s *Session) RecordEvent(ev journal.Event) {
	if ev == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ev.Kind() {
	case journal.KindAccepted:
		s.counts.MissionAccepted++
	case journal.KindCompleted:
		s.counts.MissionCompleted++
	case journal.KindFailed:
		s.counts.MissionFailed++
	case journal.KindAbandoned:
		s.counts.MissionAbandoned++
	case journal.KindMissions:
		s.counts.MissionsEvent++
	}
}

// RecordRaw counts a generic (non-mission) record and maintains the
// player tallies. Kills and deaths only count for players seen joining;
// anything else about the record is ignored.
func (s *Session) RecordRaw(raw map[string]any, at time.Time) {
	tag, _ := raw["event"].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	switch tag {
	case "player_join":
		s.counts.PlayerJoin++
		if name, ok := raw["player"].(string); ok && name != "" {
			if _, seen := s.players[name]; !seen {
				s.players[name] = &Player{Name: name, JoinedAt: at}
			}
		}
	case "player_quit":
		s.counts.PlayerQuit++
	case "player_kill":
		s.counts.PlayerKill++
		if name, ok := raw["killer"].(string); ok {
			if p, seen := s.players[name]; seen {
				p.Kills++
			}
		}
	case "player_death":
		s.counts.PlayerDeath++
		if name, ok := raw["player"].(string); ok {
			if p, seen := s.players[name]; seen {
				p.Deaths++
			}
		}
	case "game_start":
		s.counts.GameStart++
	case "game_end":
		s.counts.GameEnd++
	}
}

// RecordSkipped counts a line that could not be decoded.
func (s *Session) RecordSkipped() {
	s.mu.Lock()
	s.counts.SkippedLines++
	s.mu.Unlock()
}

// Counts returns a copy of the current counters.
func (s *Session) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts
}

// Players returns the player tallies sorted by kills, descending.
func (s *Session) Players() []Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kills != out[j].Kills {
			return out[i].Kills > out[j].Kills
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Reset zeroes everything; used on new-session boundaries.
func (s *Session) Reset() {
	s.mu.Lock()
	s.counts = Counts{}
	s.players = map[string]*Player{}
	s.mu.Unlock()
}
