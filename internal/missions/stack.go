package missions

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"edmon/internal/domain"
	"edmon/internal/journal"
)

// DefaultMarker is the substring that identifies massacre mission
// templates in the journal's Name field.
const DefaultMarker = "Mission_Massacre"

type Options struct {
	// Marker overrides DefaultMarker when non-empty.
	Marker string
	Logger *slog.Logger
}

// Stack is the mission registry, grouped by target faction and then by
// issuing faction. All methods are safe for concurrent use; writes are
// serialized behind a single lock.
type Stack struct {
	mu      sync.RWMutex
	targets map[string]map[string]*Ledger
	// index maps mission ids of stored records to their owning ledger.
	// Ids discarded by a dedup collision are never indexed.
	index  map[int64]location
	marker string
	log    *slog.Logger
}

type location struct {
	target string
	issuer string
}

func New(o Options) *Stack {
	if o.Marker == "" {
		o.Marker = DefaultMarker
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Stack{
		targets: map[string]map[string]*Ledger{},
		index:   map[int64]location{},
		marker:  o.Marker,
		log:     o.Logger,
	}
}

// Process applies one journal event to the registry and reports whether
// it changed or matched tracked state. Acceptances of non-massacre
// missions, mission board snapshots, and removals of unknown ids all
// return false.
func (s *Stack) Process(ev journal.Event) bool {
	if ev == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ev := ev.(type) {
	case journal.AcceptedEvent:
		return s.accept(ev)
	case journal.CompletedEvent:
		return s.remove(ev.MissionID, "completed")
	case journal.FailedEvent:
		return s.remove(ev.MissionID, "failed")
	case journal.AbandonedEvent:
		return s.remove(ev.MissionID, "abandoned")
	case journal.MissionsEvent:
		return false
	}
	return false
}

func (s *Stack) accept(ev journal.AcceptedEvent) bool {
	if !strings.Contains(ev.Name, s.marker) {
		return false
	}
	m := newMission(ev)
	bucket := s.targets[m.TargetFaction]
	if bucket == nil {
		bucket = map[string]*Ledger{}
		s.targets[m.TargetFaction] = bucket
	}
	led := bucket[m.Faction]
	if led == nil {
		led = NewLedger(m.Faction)
		bucket[m.Faction] = led
	}
	if led.Add(m) {
		s.index[m.MissionID] = location{target: m.TargetFaction, issuer: m.Faction}
	}
	s.log.Info("massacre mission added",
		"mission", m.LocalisedName,
		"target", m.TargetFaction,
		"issuer", m.Faction,
		"kills", m.InitialKillCount)
	return true
}

func (s *Stack) remove(missionID int64, reason string) bool {
	loc, ok := s.index[missionID]
	if !ok {
		return false
	}
	bucket := s.targets[loc.target]
	led := bucket[loc.issuer]
	if led == nil || !led.Remove(missionID) {
		delete(s.index, missionID)
		return false
	}
	delete(s.index, missionID)
	// Empty ledgers and empty target buckets are never retained.
	if led.Len() == 0 {
		delete(bucket, loc.issuer)
	}
	if len(bucket) == 0 {
		delete(s.targets, loc.target)
	}
	s.log.Info("mission removed",
		"mission_id", missionID,
		"reason", reason,
		"issuer", loc.issuer,
		"target", loc.target)
	return true
}

// UpdateKillCount sets the remaining kills for a tracked mission.
// Returns false when the id is unknown.
func (s *Stack) UpdateKillCount(missionID int64, kills int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.index[missionID]
	if !ok {
		return false
	}
	led := s.targets[loc.target][loc.issuer]
	if led == nil || !led.UpdateKillCount(missionID, kills) {
		return false
	}
	s.log.Info("mission kills updated", "mission_id", missionID, "kills", kills)
	return true
}

// Summary builds a deep copy of the registry with per-ledger, per-target
// and overall rollups. It never mutates state: calling it twice without
// intervening events yields identical results.
func (s *Stack) Summary() domain.StackSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := domain.StackSummary{TargetFactions: map[string]domain.TargetSummary{}}
	for target, bucket := range s.targets {
		ts := domain.TargetSummary{Factions: map[string]domain.LedgerSummary{}}
		for issuer, led := range bucket {
			ls := led.Summary()
			ts.Factions[issuer] = ls
			ts.TotalInitialKills += ls.TotalInitialKills
			ts.TotalCurrentKills += ls.TotalCurrentKills
			ts.TotalReward += ls.TotalReward
			ts.TotalMissions += len(ls.Missions)
		}
		out.TargetFactions[target] = ts
		out.TotalInitialKills += ts.TotalInitialKills
		out.TotalCurrentKills += ts.TotalCurrentKills
		out.TotalReward += ts.TotalReward
		out.TotalMissions += ts.TotalMissions
	}
	return out
}

// View copies the registry into the plain nested-map form consumed by
// the ratio calculator.
func (s *Stack) View() domain.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := domain.View{}
	for target, bucket := range s.targets {
		inner := make(map[string][]domain.Mission, len(bucket))
		for issuer, led := range bucket {
			inner[issuer] = led.Snapshot()
		}
		v[target] = inner
	}
	return v
}

// TargetFactions lists the tracked target factions in sorted order.
func (s *Stack) TargetFactions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.targets))
	for target := range s.targets {
		out = append(out, target)
	}
	sort.Strings(out)
	return out
}

// IssuingFactions lists the factions issuing missions against the given
// target, in sorted order. Unknown targets yield an empty list.
func (s *Stack) IssuingFactions(target string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket := s.targets[target]
	out := make([]string, 0, len(bucket))
	for issuer := range bucket {
		out = append(out, issuer)
	}
	sort.Strings(out)
	return out
}

// Len is the number of tracked missions.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// Clear drops every tracked mission.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = map[string]map[string]*Ledger{}
	s.index = map[int64]location{}
	s.log.Info("mission stack cleared")
}

func (s *Stack) String() string {
	sum := s.Summary()
	return fmt.Sprintf("MissionStack: %d missions, %d/%d kills, %d CR total reward",
		sum.TotalMissions, sum.TotalCurrentKills, sum.TotalInitialKills, sum.TotalReward)
}

func newMission(ev journal.AcceptedEvent) domain.Mission {
	return domain.Mission{
		MissionID:          ev.MissionID,
		Name:               ev.Name,
		LocalisedName:      ev.LocalisedName,
		Faction:            ev.Faction,
		TargetFaction:      ev.TargetFaction,
		InitialKillCount:   ev.KillCount,
		CurrentKillCount:   ev.KillCount,
		Reward:             ev.Reward,
		Expiry:             ev.Expiry,
		ExpiresAt:          ev.ExpiresAt,
		Wing:               ev.Wing,
		DestinationSystem:  ev.DestinationSystem,
		DestinationStation: ev.DestinationStation,
		AcceptedAt:         ev.Timestamp,
	}
}
