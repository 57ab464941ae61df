package journal

import "time"

// Kind identifies a journal event type by its wire tag.
type Kind string

const (
	KindMissions  Kind = "Missions"
	KindAccepted  Kind = "MissionAccepted"
	KindCompleted Kind = "MissionCompleted"
	KindFailed    Kind = "MissionFailed"
	KindAbandoned Kind = "MissionAbandoned"
)

// Event is a parsed mission-related journal entry.
type Event interface {
	Kind() Kind
	When() time.Time
}

// MissionsEvent is the periodic snapshot of the mission board. It is
// informational only and never changes tracked state.
type MissionsEvent struct {
	Timestamp time.Time        `json:"timestamp"`
	Active    []map[string]any `json:"active"`
	Failed    []map[string]any `json:"failed"`
	Complete  []map[string]any `json:"complete"`
}

func (e MissionsEvent) Kind() Kind      { return KindMissions }
func (e MissionsEvent) When() time.Time { return e.Timestamp }

// AcceptedEvent carries the full mission sheet handed out at the mission
// board. Fields absent from the journal line keep their zero value; keys
// outside the known set are preserved verbatim in Extra.
type AcceptedEvent struct {
	Timestamp           time.Time      `json:"timestamp"`
	Faction             string         `json:"faction"`
	Name                string         `json:"name"`
	LocalisedName       string         `json:"localised_name"`
	TargetType          string         `json:"target_type"`
	TargetTypeLocalised string         `json:"target_type_localised"`
	TargetFaction       string         `json:"target_faction"`
	KillCount           int            `json:"kill_count"`
	DestinationSystem   string         `json:"destination_system"`
	DestinationStation  string         `json:"destination_station"`
	Expiry              string         `json:"expiry"`
	ExpiresAt           *time.Time     `json:"expires_at,omitempty"`
	Wing                bool           `json:"wing"`
	Influence           string         `json:"influence"`
	Reputation          string         `json:"reputation"`
	Reward              int64          `json:"reward"`
	MissionID           int64          `json:"mission_id"`
	Extra               map[string]any `json:"extra,omitempty"`
}

func (e AcceptedEvent) Kind() Kind      { return KindAccepted }
func (e AcceptedEvent) When() time.Time { return e.Timestamp }

type CompletedEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Faction   string         `json:"faction"`
	Name      string         `json:"name"`
	MissionID int64          `json:"mission_id"`
	Reward    int64          `json:"reward"`
	Extra     map[string]any `json:"extra,omitempty"`
}

func (e CompletedEvent) Kind() Kind      { return KindCompleted }
func (e CompletedEvent) When() time.Time { return e.Timestamp }

type FailedEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Name      string         `json:"name"`
	MissionID int64          `json:"mission_id"`
	Extra     map[string]any `json:"extra,omitempty"`
}

func (e FailedEvent) Kind() Kind      { return KindFailed }
func (e FailedEvent) When() time.Time { return e.Timestamp }

type AbandonedEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Name      string         `json:"name"`
	MissionID int64          `json:"mission_id"`
	Extra     map[string]any `json:"extra,omitempty"`
}

func (e AbandonedEvent) Kind() Kind      { return KindAbandoned }
func (e AbandonedEvent) When() time.Time { return e.Timestamp }
