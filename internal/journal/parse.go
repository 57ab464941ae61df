package journal

import (
	"fmt"
	"slices"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Journal timestamps are ISO 8601 with a trailing Z and optional
// fractional seconds.
const timeLayout = "2006-01-02T15:04:05.999999999"

// Parser turns raw journal lines into typed events. The zero value is
// ready to use; Now is only overridden in tests.
type Parser struct {
	Now func() time.Time
}

func (p Parser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Decode unmarshals one journal line into its raw key set.
func Decode(line []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, fmt.Errorf("decode journal line: %w", err)
	}
	return raw, nil
}

// Parse decodes a journal line and returns the typed event, or nil if
// the event tag is not one of the mission kinds.
func (p Parser) Parse(line []byte) (Event, error) {
	raw, err := Decode(line)
	if err != nil {
		return nil, err
	}
	return p.ParseMap(raw), nil
}

// ParseMap dispatches on the event tag. Unrecognized tags yield nil,
// never an error.
func (p Parser) ParseMap(raw map[string]any) Event {
	switch Kind(stringField(raw, "event")) {
	case KindMissions:
		return p.parseMissions(raw)
	case KindAccepted:
		return p.parseAccepted(raw)
	case KindCompleted:
		return p.parseCompleted(raw)
	case KindFailed:
		return p.parseFailed(raw)
	case KindAbandoned:
		return p.parseAbandoned(raw)
	}
	return nil
}

// IsMissionEvent reports whether a raw journal entry carries one of the
// mission event tags.
func IsMissionEvent(raw map[string]any) bool {
	return strings.HasPrefix(stringField(raw, "event"), "Mission")
}

func (p Parser) parseMissions(raw map[string]any) Event {
	return MissionsEvent{
		Timestamp: p.parseTime(stringField(raw, "timestamp")),
		Active:    listField(raw, "Active"),
		Failed:    listField(raw, "Failed"),
		Complete:  listField(raw, "Complete"),
	}
}

func (p Parser) parseAccepted(raw map[string]any) Event {
	expiry, expiresAt := parseExpiry(stringField(raw, "Expiry"))
	return AcceptedEvent{
		Timestamp:           p.parseTime(stringField(raw, "timestamp")),
		Faction:             stringField(raw, "Faction"),
		Name:                stringField(raw, "Name"),
		LocalisedName:       stringField(raw, "LocalisedName"),
		TargetType:          stringField(raw, "TargetType"),
		TargetTypeLocalised: stringField(raw, "TargetType_Localised"),
		TargetFaction:       stringField(raw, "TargetFaction"),
		KillCount:           intField(raw, "KillCount"),
		DestinationSystem:   stringField(raw, "DestinationSystem"),
		DestinationStation:  stringField(raw, "DestinationStation"),
		Expiry:              expiry,
		ExpiresAt:           expiresAt,
		Wing:                boolField(raw, "Wing"),
		Influence:           stringField(raw, "Influence"),
		Reputation:          stringField(raw, "Reputation"),
		Reward:              int64Field(raw, "Reward"),
		MissionID:           int64Field(raw, "MissionID"),
		Extra: extraFields(raw,
			"timestamp", "event", "Faction", "Name", "LocalisedName",
			"TargetType", "TargetType_Localised", "TargetFaction",
			"KillCount", "DestinationSystem", "DestinationStation",
			"Expiry", "Wing", "Influence", "Reputation", "Reward", "MissionID"),
	}
}

func (p Parser) parseCompleted(raw map[string]any) Event {
	return CompletedEvent{
		Timestamp: p.parseTime(stringField(raw, "timestamp")),
		Faction:   stringField(raw, "Faction"),
		Name:      stringField(raw, "Name"),
		MissionID: int64Field(raw, "MissionID"),
		Reward:    int64Field(raw, "Reward"),
		Extra:     extraFields(raw, "timestamp", "event", "Faction", "Name", "MissionID", "Reward"),
	}
}

func (p Parser) parseFailed(raw map[string]any) Event {
	return FailedEvent{
		Timestamp: p.parseTime(stringField(raw, "timestamp")),
		Name:      stringField(raw, "Name"),
		MissionID: int64Field(raw, "MissionID"),
		Extra:     extraFields(raw, "timestamp", "event", "Name", "MissionID"),
	}
}

func (p Parser) parseAbandoned(raw map[string]any) Event {
	return AbandonedEvent{
		Timestamp: p.parseTime(stringField(raw, "timestamp")),
		Name:      stringField(raw, "Name"),
		MissionID: int64Field(raw, "MissionID"),
		Extra:     extraFields(raw, "timestamp", "event", "Name", "MissionID"),
	}
}

// Timestamp reads a raw record's timestamp under the usual fallback
// policy. Useful for records that never become typed events.
func (p Parser) Timestamp(raw map[string]any) time.Time {
	return p.parseTime(stringField(raw, "timestamp"))
}

// parseTime reads a journal timestamp. A missing or malformed value
// falls back to the current wall clock rather than failing the event.
func (p Parser) parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, strings.TrimSuffix(s, "Z")); err == nil {
		return t.UTC()
	}
	return p.now()
}

// parseExpiry returns the expiry with any trailing Z stripped, plus the
// parsed time when the value is well formed. There is no wall-clock
// fallback here: a bad expiry means no expiry.
func parseExpiry(s string) (string, *time.Time) {
	if s == "" {
		return "", nil
	}
	s = strings.TrimSuffix(s, "Z")
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return s, nil
	}
	t = t.UTC()
	return s, &t
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}

func boolField(raw map[string]any, key string) bool {
	b, _ := raw[key].(bool)
	return b
}

func intField(raw map[string]any, key string) int {
	return int(int64Field(raw, key))
}

func int64Field(raw map[string]any, key string) int64 {
	switch v := raw[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func listField(raw map[string]any, key string) []map[string]any {
	items, _ := raw[key].([]any)
	if len(items) == 0 {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func extraFields(raw map[string]any, known ...string) map[string]any {
	var extra map[string]any
	for k, v := range raw {
		if slices.Contains(known, k) {
			continue
		}
		if extra == nil {
			extra = map[string]any{}
		}
		extra[k] = v
	}
	return extra
}
