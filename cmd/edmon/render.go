package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/viper"

	"edmon/internal/config"
	"edmon/internal/domain"
	"edmon/internal/missions"
	"edmon/internal/ratio"
	"edmon/internal/stats"
)

// document bundles every snapshot for --json output.
type document struct {
	SessionID string                     `json:"session_id,omitempty"`
	Summary   domain.StackSummary        `json:"summary"`
	Ratios    map[string]float64         `json:"ratios"`
	Breakdown map[string]ratio.Breakdown `json:"breakdown"`
	Events    stats.Counts               `json:"event_stats"`
	Players   []stats.Player             `json:"player_stats"`
}

// renderAll prints the full picture: missions, ratios, breakdown and
// session counters, as tables or one JSON document.
func renderAll(w io.Writer, cfg *config.Config, stack *missions.Stack, sess *stats.Session, sessionID string) error {
	sum := stack.Summary()
	view := stack.View()
	var calc ratio.Calculator
	doc := document{
		SessionID: sessionID,
		Summary:   sum,
		Ratios:    calc.Ratios(view),
		Breakdown: calc.DetailedBreakdown(view),
		Events:    sess.Counts(),
		Players:   sess.Players(),
	}
	if viper.GetBool("json") {
		return printJSON(doc)
	}
	renderMissionTable(w, sum)
	renderRatioTable(w, cfg, doc.Breakdown)
	renderBreakdownTable(w, doc.Breakdown)
	renderStatsTable(w, doc.Events)
	renderPlayerTable(w, doc.Players)
	return nil
}

func renderMissionTable(w io.Writer, sum domain.StackSummary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Massacre Missions")
	tw.AppendHeader(table.Row{"Target Faction", "Issuing Faction", "Mission", "Kills", "Reward", "Expiry", "Wing"})
	for _, target := range sortedKeys(sum.TargetFactions) {
		bucket := sum.TargetFactions[target]
		for _, issuer := range sortedKeys(bucket.Factions) {
			ledger := bucket.Factions[issuer]
			for _, name := range sortedKeys(ledger.Missions) {
				m := ledger.Missions[name]
				expiry := ""
				if m.ExpiresAt != nil {
					expiry = m.ExpiresAt.Format("2006-01-02 15:04")
				}
				wing := "No"
				if m.Wing {
					wing = "Yes"
				}
				tw.AppendRow(table.Row{
					target, issuer, name,
					fmt.Sprintf("%d/%d", m.CurrentKillCount, m.InitialKillCount),
					groupDigits(m.Reward),
					expiry, wing,
				})
			}
		}
	}
	tw.AppendFooter(table.Row{
		"Total", "", fmt.Sprintf("%d missions", sum.TotalMissions),
		fmt.Sprintf("%d/%d", sum.TotalCurrentKills, sum.TotalInitialKills),
		groupDigits(sum.TotalReward) + " CR", "", "",
	})
	tw.Render()
}

func renderRatioTable(w io.Writer, cfg *config.Config, breakdown map[string]ratio.Breakdown) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Kill Ratio by Target Faction")
	tw.AppendHeader(table.Row{"Target Faction", "Issuing Factions", "Total Remaining Kills", "Kill Ratio"})
	for _, target := range sortedKeys(breakdown) {
		b := breakdown[target]
		tw.AppendRow(table.Row{target, b.FactionCount, b.TotalRemainingKills, colorRatio(cfg, b.Ratio)})
	}
	tw.Render()
}

func renderBreakdownTable(w io.Writer, breakdown map[string]ratio.Breakdown) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Detailed Breakdown")
	tw.AppendHeader(table.Row{"Target Faction", "Issuing Faction", "Mission Count", "Remaining Kills"})
	for _, target := range sortedKeys(breakdown) {
		b := breakdown[target]
		for _, issuer := range sortedKeys(b.Factions) {
			d := b.Factions[issuer]
			tw.AppendRow(table.Row{target, issuer, d.MissionCount, d.RemainingKills})
		}
	}
	tw.Render()
}

func renderStatsTable(w io.Writer, c stats.Counts) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Event Statistics")
	tw.AppendHeader(table.Row{"Event", "Count"})
	rows := []struct {
		name  string
		count int
	}{
		{"Mission Accepted", c.MissionAccepted},
		{"Mission Completed", c.MissionCompleted},
		{"Mission Failed", c.MissionFailed},
		{"Mission Abandoned", c.MissionAbandoned},
		{"Missions Event", c.MissionsEvent},
		{"Player Join", c.PlayerJoin},
		{"Player Quit", c.PlayerQuit},
		{"Player Kill", c.PlayerKill},
		{"Player Death", c.PlayerDeath},
		{"Game Start", c.GameStart},
		{"Game End", c.GameEnd},
		{"Skipped Lines", c.SkippedLines},
	}
	for _, r := range rows {
		tw.AppendRow(table.Row{r.name, r.count})
	}
	tw.Render()
}

func renderPlayerTable(w io.Writer, players []stats.Player) {
	if len(players) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Player Statistics")
	tw.AppendHeader(table.Row{"Player", "Kills", "Deaths", "Join Time"})
	for _, p := range players {
		tw.AppendRow(table.Row{p.Name, p.Kills, p.Deaths, p.JoinedAt.Format("2006-01-02 15:04:05")})
	}
	tw.Render()
}

// colorRatio applies the efficiency indicator thresholds: green at or
// above good, yellow at or above warn, red below.
func colorRatio(cfg *config.Config, r float64) string {
	s := fmt.Sprintf("%.4f", r)
	switch {
	case r >= cfg.Display.GoodRatio:
		return text.FgGreen.Sprint(s)
	case r >= cfg.Display.WarnRatio:
		return text.FgYellow.Sprint(s)
	default:
		return text.FgRed.Sprint(s)
	}
}

// groupDigits renders an integer with thousands separators.
func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
