package missions

import (
	"sort"

	"edmon/internal/domain"
)

// recordKey is the dedup key within a ledger. Two acceptances sharing a
// localised name collapse onto one record even when their mission ids
// differ.
func recordKey(m domain.Mission) string { return m.LocalisedName }

// Ledger tracks the massacre missions issued by one faction against one
// target, with running kill and reward totals.
type Ledger struct {
	faction           string
	records           map[string]*domain.Mission
	totalInitialKills int
	totalCurrentKills int
	totalReward       int64
}

func NewLedger(faction string) *Ledger {
	return &Ledger{
		faction: faction,
		records: map[string]*domain.Mission{},
	}
}

func (l *Ledger) Faction() string { return l.faction }

func (l *Ledger) Len() int { return len(l.records) }

// Add stores a mission and reports whether a new record was created. On
// a key collision only the stored record's current kill count is
// replaced; the running totals are left as they are.
func (l *Ledger) Add(m domain.Mission) bool {
	key := recordKey(m)
	if existing, ok := l.records[key]; ok {
		existing.CurrentKillCount = m.CurrentKillCount
		return false
	}
	stored := m
	l.records[key] = &stored
	l.totalInitialKills += m.InitialKillCount
	l.totalCurrentKills += m.CurrentKillCount
	l.totalReward += m.Reward
	return true
}

// UpdateKillCount sets the remaining kills for the mission with the
// given id, keeping the running total in step. Negative counts clamp to
// zero. Returns false when the id is not tracked here.
func (l *Ledger) UpdateKillCount(missionID int64, kills int) bool {
	if kills < 0 {
		kills = 0
	}
	for _, m := range l.records {
		if m.MissionID == missionID {
			l.totalCurrentKills += kills - m.CurrentKillCount
			m.CurrentKillCount = kills
			return true
		}
	}
	return false
}

// Remove drops the mission with the given id and subtracts its
// contribution from the totals. Returns false when the id is not
// tracked here.
func (l *Ledger) Remove(missionID int64) bool {
	for key, m := range l.records {
		if m.MissionID == missionID {
			l.totalInitialKills -= m.InitialKillCount
			l.totalCurrentKills -= m.CurrentKillCount
			l.totalReward -= m.Reward
			delete(l.records, key)
			return true
		}
	}
	return false
}

// Progress is the overall completion percentage across this ledger's
// missions, 0 when nothing is tracked.
func (l *Ledger) Progress() float64 {
	if l.totalInitialKills == 0 {
		return 0.0
	}
	return float64(l.totalCurrentKills) / float64(l.totalInitialKills) * 100
}

// Snapshot returns the tracked missions as values, ordered by dedup key.
func (l *Ledger) Snapshot() []domain.Mission {
	keys := make([]string, 0, len(l.records))
	for key := range l.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]domain.Mission, 0, len(keys))
	for _, key := range keys {
		out = append(out, *l.records[key])
	}
	return out
}

func (l *Ledger) Summary() domain.LedgerSummary {
	ms := make(map[string]domain.Mission, len(l.records))
	for key, m := range l.records {
		ms[key] = *m
	}
	return domain.LedgerSummary{
		Faction:           l.faction,
		Missions:          ms,
		TotalInitialKills: l.totalInitialKills,
		TotalCurrentKills: l.totalCurrentKills,
		TotalReward:       l.totalReward,
		Progress:          l.Progress(),
	}
}
