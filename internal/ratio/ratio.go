// Package ratio derives a per-target-faction completion-efficiency
// figure from a read-only view of the mission registry.
package ratio

import "edmon/internal/domain"

// FactionDetail is the per-issuing-faction slice of a breakdown.
type FactionDetail struct {
	RemainingKills int `json:"remaining_kills"`
	MissionCount   int `json:"mission_count"`
}

// Breakdown carries the full calculation for one target faction.
type Breakdown struct {
	Ratio               float64                  `json:"ratio"`
	Factions            map[string]FactionDetail `json:"faction_details"`
	TotalRemainingKills int                      `json:"total_remaining_kills"`
	FactionCount        int                      `json:"faction_count"`
}

// Calculator computes kill ratios. It holds no state; every method is a
// pure function of the view it is given.
type Calculator struct{}

// Ratios computes the kill ratio for every target faction in the view.
func (Calculator) Ratios(v domain.View) map[string]float64 {
	out := make(map[string]float64, len(v))
	for target, bucket := range v {
		out[target] = targetRatio(bucket)
	}
	return out
}

// DetailedBreakdown expands the ratio calculation with per-issuer
// remaining kills and mission counts.
func (Calculator) DetailedBreakdown(v domain.View) map[string]Breakdown {
	out := make(map[string]Breakdown, len(v))
	for target, bucket := range v {
		b := Breakdown{
			Ratio:        targetRatio(bucket),
			Factions:     make(map[string]FactionDetail, len(bucket)),
			FactionCount: len(bucket),
		}
		for issuer, records := range bucket {
			rem := remainingKills(records)
			b.Factions[issuer] = FactionDetail{
				RemainingKills: rem,
				MissionCount:   len(records),
			}
			b.TotalRemainingKills += rem
		}
		out[target] = b
	}
	return out
}

// targetRatio implements the historical formula: a lone issuing faction
// is always 1.0, and with n factions the weighted expression
// (max/total)*(avg/max) collapses to 1/n for any positive distribution
// of remaining kills. The collapse is deliberate; downstream displays
// and tests depend on the formula exactly as written, not on the
// even-distribution story told about it.
func targetRatio(bucket map[string][]domain.Mission) float64 {
	if len(bucket) == 0 {
		return 0.0
	}
	if len(bucket) == 1 {
		return 1.0
	}
	total := 0
	maxRemaining := 0
	for _, records := range bucket {
		rem := remainingKills(records)
		total += rem
		if rem > maxRemaining {
			maxRemaining = rem
		}
	}
	if total == 0 {
		return 0.0
	}
	avg := float64(total) / float64(len(bucket))
	r := (float64(maxRemaining) / float64(total)) * (avg / float64(maxRemaining))
	return min(1.0, max(0.0, r))
}

func remainingKills(records []domain.Mission) int {
	total := 0
	for _, m := range records {
		total += m.CurrentKillCount
	}
	return total
}
