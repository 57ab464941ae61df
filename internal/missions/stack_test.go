package missions_test

import (
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"edmon/internal/domain"
	"edmon/internal/journal"
	"edmon/internal/missions"
)

var testClock = time.Date(2024, 5, 14, 18, 0, 0, 0, time.UTC)

func newTestStack() *missions.Stack {
	return missions.New(missions.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func newTestStackMission(id int64, localised string, kills int, reward int64) domain.Mission {
	return domain.Mission{
		MissionID:        id,
		Name:             "Mission_Massacre",
		LocalisedName:    localised,
		InitialKillCount: kills,
		CurrentKillCount: kills,
		Reward:           reward,
		AcceptedAt:       testClock,
	}
}

func massacre(id int64, localised, issuer, target string, kills int, reward int64) journal.AcceptedEvent {
	return journal.AcceptedEvent{
		Timestamp:     testClock,
		Faction:       issuer,
		Name:          "Mission_Massacre",
		LocalisedName: localised,
		TargetFaction: target,
		KillCount:     kills,
		Reward:        reward,
		MissionID:     id,
	}
}

func TestAcceptFiltersNonMassacre(t *testing.T) {
	s := newTestStack()
	ev := massacre(1, "Deliver 6 units of gold", "Military Gamers", "Mizete Jet Society", 0, 100000)
	ev.Name = "Mission_Delivery"
	if s.Process(ev) {
		t.Fatalf("non-massacre mission must not be handled")
	}
	if got := s.Summary().TotalMissions; got != 0 {
		t.Fatalf("stack should stay empty, has %d missions", got)
	}
}

func TestAcceptTracksMission(t *testing.T) {
	s := newTestStack()
	if !s.Process(massacre(1, "Kill pirates A", "Military Gamers", "Mizete Jet Society", 30, 40561668)) {
		t.Fatalf("massacre mission should be handled")
	}
	sum := s.Summary()
	if sum.TotalMissions != 1 || sum.TotalInitialKills != 30 || sum.TotalCurrentKills != 30 {
		t.Fatalf("summary rollups: %+v", sum)
	}
	if sum.TotalReward != 40561668 {
		t.Fatalf("total reward = %d", sum.TotalReward)
	}
	ledger := sum.TargetFactions["Mizete Jet Society"].Factions["Military Gamers"]
	m, ok := ledger.Missions["Kill pirates A"]
	if !ok {
		t.Fatalf("mission not filed under its localised name: %+v", ledger.Missions)
	}
	if m.MissionID != 1 || m.CurrentKillCount != 30 || m.InitialKillCount != 30 {
		t.Fatalf("stored mission: %+v", m)
	}
}

// Repeated acceptances with the same localised name collapse onto the
// first record: only its current kill count is refreshed, the totals
// keep their original contribution, and the newer mission id is
// forgotten entirely.
func TestDuplicateLocalisedName(t *testing.T) {
	s := newTestStack()
	s.Process(massacre(1, "Kill pirates A", "Military Gamers", "Mizete Jet Society", 30, 1000))
	if !s.Process(massacre(2, "Kill pirates A", "Military Gamers", "Mizete Jet Society", 45, 2000)) {
		t.Fatalf("duplicate acceptance is still a handled event")
	}
	sum := s.Summary()
	ledger := sum.TargetFactions["Mizete Jet Society"].Factions["Military Gamers"]
	if len(ledger.Missions) != 1 {
		t.Fatalf("expected one record, got %d", len(ledger.Missions))
	}
	m := ledger.Missions["Kill pirates A"]
	if m.MissionID != 1 {
		t.Fatalf("original record should survive, got id %d", m.MissionID)
	}
	if m.CurrentKillCount != 45 {
		t.Fatalf("current kills should be refreshed, got %d", m.CurrentKillCount)
	}
	if ledger.TotalInitialKills != 30 || ledger.TotalCurrentKills != 30 || ledger.TotalReward != 1000 {
		t.Fatalf("totals must keep the first contribution: %+v", ledger)
	}
	// The discarded id is unknown to the registry.
	if s.Process(journal.CompletedEvent{Timestamp: testClock, MissionID: 2}) {
		t.Fatalf("discarded id must not be removable")
	}
	if !s.Process(journal.CompletedEvent{Timestamp: testClock, MissionID: 1}) {
		t.Fatalf("surviving id should be removable")
	}
}

func TestUpdateKillCount(t *testing.T) {
	s := newTestStack()
	s.Process(massacre(7, "Kill pirates A", "Military Gamers", "Mizete Jet Society", 30, 1000))
	if !s.UpdateKillCount(7, 12) {
		t.Fatalf("update of tracked mission failed")
	}
	ledger := s.Summary().TargetFactions["Mizete Jet Society"].Factions["Military Gamers"]
	if ledger.Missions["Kill pirates A"].CurrentKillCount != 12 {
		t.Fatalf("current kills = %d", ledger.Missions["Kill pirates A"].CurrentKillCount)
	}
	if ledger.TotalCurrentKills != 12 || ledger.TotalInitialKills != 30 {
		t.Fatalf("totals after update: %+v", ledger)
	}
	if s.UpdateKillCount(999, 5) {
		t.Fatalf("unknown id must not update")
	}
	if !s.UpdateKillCount(7, -3) {
		t.Fatalf("negative update should still apply")
	}
	ledger = s.Summary().TargetFactions["Mizete Jet Society"].Factions["Military Gamers"]
	if ledger.Missions["Kill pirates A"].CurrentKillCount != 0 || ledger.TotalCurrentKills != 0 {
		t.Fatalf("negative counts must clamp to zero: %+v", ledger)
	}
}

func TestRemovePrunesEmptyGroups(t *testing.T) {
	s := newTestStack()
	s.Process(massacre(1, "Kill pirates A", "Military Gamers", "Mizete Jet Society", 30, 1000))
	s.Process(massacre(2, "Kill pirates B", "Gatorma Labour", "Brothers of Nijoten", 45, 2000))
	s.Process(massacre(3, "Kill pirates C", "Military Gamers", "Brothers of Nijoten", 25, 3000))

	if !s.Process(journal.CompletedEvent{Timestamp: testClock, MissionID: 1}) {
		t.Fatalf("removal failed")
	}
	if got := s.TargetFactions(); !reflect.DeepEqual(got, []string{"Brothers of Nijoten"}) {
		t.Fatalf("empty target bucket must be pruned, have %v", got)
	}

	if !s.Process(journal.FailedEvent{Timestamp: testClock, MissionID: 2}) {
		t.Fatalf("removal failed")
	}
	if got := s.IssuingFactions("Brothers of Nijoten"); !reflect.DeepEqual(got, []string{"Military Gamers"}) {
		t.Fatalf("empty ledger must be pruned, have %v", got)
	}

	if !s.Process(journal.AbandonedEvent{Timestamp: testClock, MissionID: 3}) {
		t.Fatalf("removal failed")
	}
	if got := s.Summary(); got.TotalMissions != 0 || len(got.TargetFactions) != 0 {
		t.Fatalf("stack should be empty: %+v", got)
	}
}

func TestRemoveUnknownIDLeavesStateAlone(t *testing.T) {
	s := newTestStack()
	s.Process(massacre(1, "Kill pirates A", "Military Gamers", "Mizete Jet Society", 30, 1000))
	before := s.Summary()
	if s.Process(journal.CompletedEvent{Timestamp: testClock, MissionID: 999}) {
		t.Fatalf("unknown id must not be handled")
	}
	if after := s.Summary(); !reflect.DeepEqual(before, after) {
		t.Fatalf("summary changed across a no-op removal:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestSummaryIsIdempotentAndDetached(t *testing.T) {
	s := newTestStack()
	s.Process(massacre(1, "Kill pirates A", "Military Gamers", "Mizete Jet Society", 30, 1000))
	s.Process(massacre(2, "Kill pirates B", "Gatorma Labour", "Mizete Jet Society", 45, 2000))

	first := s.Summary()
	second := s.Summary()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("summaries differ without intervening events")
	}
	// Mutating a snapshot must not leak back into the registry.
	delete(first.TargetFactions, "Mizete Jet Society")
	if got := s.Summary(); !reflect.DeepEqual(got, second) {
		t.Fatalf("summary is not a deep copy")
	}
}

func TestMissionsSnapshotIgnored(t *testing.T) {
	s := newTestStack()
	ev := journal.MissionsEvent{
		Timestamp: testClock,
		Active:    []map[string]any{{"MissionID": float64(1)}},
	}
	if s.Process(ev) {
		t.Fatalf("mission board snapshots must not be handled")
	}
}

func TestClear(t *testing.T) {
	s := newTestStack()
	s.Process(massacre(1, "Kill pirates A", "Military Gamers", "Mizete Jet Society", 30, 1000))
	if s.Len() != 1 {
		t.Fatalf("len = %d", s.Len())
	}
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("len after clear = %d", s.Len())
	}
	if got := s.Summary(); got.TotalMissions != 0 || got.TotalReward != 0 {
		t.Fatalf("clear left state behind: %+v", got)
	}
	if s.Process(journal.CompletedEvent{Timestamp: testClock, MissionID: 1}) {
		t.Fatalf("cleared missions must be unknown")
	}
}

func TestStringSummarizes(t *testing.T) {
	s := newTestStack()
	s.Process(massacre(1, "Kill pirates A", "Military Gamers", "Mizete Jet Society", 30, 1000))
	got := s.String()
	if !strings.Contains(got, "1 missions") || !strings.Contains(got, "30/30 kills") {
		t.Fatalf("unexpected string: %q", got)
	}
}

func TestLedgerProgress(t *testing.T) {
	l := missions.NewLedger("Military Gamers")
	if l.Progress() != 0 {
		t.Fatalf("empty ledger progress = %v", l.Progress())
	}
	l.Add(newTestStackMission(1, "Kill pirates A", 30, 1000))
	l.Add(newTestStackMission(2, "Kill pirates B", 45, 2000))
	if !l.UpdateKillCount(1, 15) {
		t.Fatalf("update failed")
	}
	if got := l.Progress(); got != 80.0 {
		t.Fatalf("progress = %v, want 80", got)
	}
}

func TestConcurrentProcessAndSummarize(t *testing.T) {
	s := newTestStack()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int64) {
			defer wg.Done()
			s.Process(massacre(n, "Kill pirates", "Military Gamers", "Mizete Jet Society", 10, 100))
		}(int64(i))
		go func() {
			defer wg.Done()
			_ = s.Summary()
			_ = s.View()
		}()
	}
	wg.Wait()
	if got := s.Summary().TotalMissions; got != 1 {
		t.Fatalf("same localised name should collapse to one record, got %d", got)
	}
}
