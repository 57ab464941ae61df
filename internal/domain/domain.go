package domain

import "time"

type Mission struct {
	MissionID          int64      `json:"mission_id"`
	Name               string     `json:"name"`
	LocalisedName      string     `json:"localised_name"`
	Faction            string     `json:"faction"`
	TargetFaction      string     `json:"target_faction"`
	InitialKillCount   int        `json:"initial_kill_count"`
	CurrentKillCount   int        `json:"current_kill_count"`
	Reward             int64      `json:"reward"`
	Expiry             string     `json:"expiry,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	Wing               bool       `json:"wing"`
	DestinationSystem  string     `json:"destination_system,omitempty"`
	DestinationStation string     `json:"destination_station,omitempty"`
	AcceptedAt         time.Time  `json:"accepted_at"`
}

// View is a read-only copy of the registry: target faction -> issuing
// faction -> missions.
type View map[string]map[string][]Mission

type LedgerSummary struct {
	Faction           string             `json:"faction_name"`
	Missions          map[string]Mission `json:"missions"`
	TotalInitialKills int                `json:"total_initial_kills"`
	TotalCurrentKills int                `json:"total_current_kills"`
	TotalReward       int64              `json:"total_reward"`
	Progress          float64            `json:"progress_percentage"`
}

type TargetSummary struct {
	Factions          map[string]LedgerSummary `json:"factions"`
	TotalInitialKills int                      `json:"total_initial_kills"`
	TotalCurrentKills int                      `json:"total_current_kills"`
	TotalReward       int64                    `json:"total_reward"`
	TotalMissions     int                      `json:"total_missions"`
}

type StackSummary struct {
	TargetFactions    map[string]TargetSummary `json:"target_factions"`
	TotalInitialKills int                      `json:"total_initial_kills"`
	TotalCurrentKills int                      `json:"total_current_kills"`
	TotalReward       int64                    `json:"total_reward"`
	TotalMissions     int                      `json:"total_missions"`
}
