package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"edmon/internal/config"
	"edmon/internal/missions"
	"edmon/internal/monitor"
	"edmon/internal/stats"
)

var rootCmd = &cobra.Command{
	Use:   "edmon",
	Short: "Elite Dangerous massacre mission monitor",
	Long: `edmon watches an Elite Dangerous journal folder and keeps a live picture
of your massacre mission stack:
- Missions are grouped by the faction you are hunting (target) and the
  faction paying you (issuer), with running kill and reward totals.
- The kill ratio per target faction tells you how your missions stack
  across issuers; a lone issuer is always 1.00.
- Completing, failing or abandoning a mission drops it from the stack.
- A new journal file means a new game session: everything starts over.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("EDMON")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("config", "edmon.yml", "config file path")
	rootCmd.PersistentFlags().String("journal-dir", "", "journal folder (overrides config)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "", "log level (overrides config)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("journal-dir", rootCmd.PersistentFlags().Lookup("journal-dir"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(replayCmd())
	rootCmd.AddCommand(sampleCmd())
	rootCmd.AddCommand(configCmd())
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the journal folder and render the mission stack live",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			stack := missions.New(missions.Options{
				Marker: cfg.Missions.MassacreMarker,
				Logger: logger,
			})
			sess := stats.NewSession()
			mon := monitor.New(monitor.Options{
				Dir:                   cfg.JournalDir(),
				PollInterval:          cfg.PollInterval(),
				RotationCheckInterval: cfg.RotationCheckInterval(),
				Stack:                 stack,
				Stats:                 sess,
				Logger:                logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			done := make(chan error, 1)
			go func() { done <- mon.Run(ctx) }()

			for {
				select {
				case err := <-done:
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				case <-mon.Updates():
					clearScreen()
					if err := renderAll(os.Stdout, cfg, stack, sess, mon.SessionID().String()); err != nil {
						return err
					}
				}
			}
		},
	}
	return cmd
}

func replayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <journal.log>",
		Short: "Ingest one complete journal file and print the final state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			stack := missions.New(missions.Options{
				Marker: cfg.Missions.MassacreMarker,
				Logger: logger,
			})
			sess := stats.NewSession()
			mon := monitor.New(monitor.Options{
				Dir:    filepath.Dir(args[0]),
				Stack:  stack,
				Stats:  sess,
				Logger: logger,
			})
			if err := mon.Replay(args[0]); err != nil {
				return err
			}
			return renderAll(os.Stdout, cfg, stack, sess, "")
		},
	}
	return cmd
}

func sampleCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a sample journal file for demos and manual testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			now := time.Now().UTC()
			path := filepath.Join(dir, fmt.Sprintf("Journal.%s.01.log", now.Format("2006-01-02T150405")))
			if err := os.WriteFile(path, []byte(sampleJournal(now)), 0o644); err != nil {
				return err
			}
			fmt.Printf("Sample journal written: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "sample_logs", "folder to write the sample journal into")
	return cmd
}

// sampleJournal is the three-mission demo scenario: two factions
// hunting Mizete Jet Society and one hunting Brothers of Nijoten.
func sampleJournal(now time.Time) string {
	stamp := now.Format("2006-01-02T15:04:05Z")
	expiry := now.Truncate(24 * time.Hour).Add(23*time.Hour + 59*time.Minute + 59*time.Second).Format("2006-01-02T15:04:05Z")
	line := func(issuer, name, localised, target string, kills int, system, station string, wing bool, reward int64, id int64) string {
		return fmt.Sprintf(`{"timestamp":%q,"event":"MissionAccepted","Faction":%q,"Name":%q,`+
			`"LocalisedName":%q,"TargetType":"$MissionUtil_FactionTag_Pirate;","TargetType_Localised":"Pirates",`+
			`"TargetFaction":%q,"KillCount":%d,"DestinationSystem":%q,"DestinationStation":%q,`+
			`"Expiry":%q,"Wing":%t,"Influence":"++","Reputation":"++","Reward":%d,"MissionID":%d}`,
			stamp, issuer, name, localised, target, kills, system, station, expiry, wing, reward, id)
	}
	return line("Military Gamers", "Mission_Massacre", "Kill Mizete Jet Society faction Pirates",
		"Mizete Jet Society", 30, "Mizete", "Porges Orbital", false, 40561668, 1037083037) + "\n" +
		line("Gatorma Labour", "Mission_MassacreWing", "Kill Mizete Jet Society faction Pirates",
			"Mizete Jet Society", 45, "Mizete", "Sakers Station", true, 16295619, 1037083079) + "\n" +
		line("Military Gamers", "Mission_Massacre", "Kill Brothers of Nijoten faction Pirates",
			"Brothers of Nijoten", 25, "Nijoten", "Maury Beacon", false, 30106172, 1037083115) + "\n"
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configInitCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the active config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
	return cmd
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default edmon.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("config")
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	return cmd
}

// --- helpers ---

// loadConfig reads the config file and applies flag/env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if dir := viper.GetString("journal-dir"); dir != "" {
		cfg.Journal.Dir = dir
	}
	if level := viper.GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func clearScreen() {
	fmt.Print("\033[2J\033[H")
}
