// Command arenasim runs the survival arena with experience-guided agents.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/hindsight/internal/advisor"
	"github.com/talgya/hindsight/internal/api"
	"github.com/talgya/hindsight/internal/arena"
	"github.com/talgya/hindsight/internal/persistence"
)

func main() {
	var (
		seed     = flag.Int64("seed", 42, "world seed (0 = random)")
		agents   = flag.Int("agents", 4, "number of agents")
		dbPath   = flag.String("db", "data/hindsight.db", "SQLite path for experience memory")
		apiPort  = flag.Int("port", 8080, "debug API port (0 = disabled)")
		tickRate = flag.Duration("tick", 50*time.Millisecond, "wall-clock time per arena tick")
		saveEach = flag.Duration("save", time.Minute, "interval between memory saves")
		fresh    = flag.Bool("fresh", false, "ignore saved memories and start clean")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("HINDSIGHT — experience-guided survival arena")

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(*dbPath), 0755)
	db, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", *dbPath)

	// ── Arena ─────────────────────────────────────────────────────────
	arenaCfg := arena.DefaultConfig()
	arenaCfg.Seed = *seed
	arenaCfg.Agents = *agents

	engineCfg := advisor.DefaultConfig()

	world, err := arena.New(arenaCfg, engineCfg)
	if err != nil {
		slog.Error("failed to build arena", "error", err)
		os.Exit(1)
	}

	// ── Restore saved experience ──────────────────────────────────────
	if !*fresh {
		snaps := make(map[string]advisor.Snapshot)
		for _, view := range world.AgentViews() {
			snap, err := db.LoadMemory(view.ID)
			if err != nil {
				slog.Error("failed to load memory", "agent", view.ID, "error", err)
				os.Exit(1)
			}
			snaps[view.ID] = snap
		}
		if n := world.RestoreMemories(snaps); n > 0 {
			slog.Info("experience restored", "agents", n)
		} else {
			slog.Info("no saved experience found, agents start naive")
		}
	}

	for _, view := range world.AgentViews() {
		if err := db.RecordEpisodeStart(view.Episode, view.ID, time.Now().UTC().Format(time.RFC3339)); err != nil {
			slog.Warn("failed to record episode", "agent", view.ID, "error", err)
		}
	}

	// ── Debug API ─────────────────────────────────────────────────────
	if *apiPort > 0 {
		apiServer := &api.Server{Arena: world, Port: *apiPort}
		apiServer.Start()
	}

	// ── Run loop ──────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*tickRate)
	defer ticker.Stop()
	saveTicker := time.NewTicker(*saveEach)
	defer saveTicker.Stop()

	fmt.Printf("\nArena is live: %d agents learning by hindsight.\n", *agents)
	if *apiPort > 0 {
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", *apiPort)
	}
	fmt.Println("Running... (Ctrl+C to stop)")

	running := true
	for running {
		select {
		case <-ticker.C:
			world.Step()

			if world.Status().Tick%1000 == 0 {
				logProgress(world)
			}

		case <-saveTicker.C:
			if err := db.SaveAll(world.MemorySnapshots()); err != nil {
				slog.Error("periodic save failed", "error", err)
			}

		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			running = false
		}
	}

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveAll(world.MemorySnapshots()); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Arena stopped. Experience saved.")
}

func logProgress(world *arena.Arena) {
	status := world.Status()
	totalDeaths, totalKills, totalContexts := 0, 0, 0
	for _, v := range world.AgentViews() {
		totalDeaths += v.Deaths
		totalKills += v.Kills
		totalContexts += v.Contexts
	}
	slog.Info("arena progress",
		"tick", status.Tick,
		"alive", status.Alive,
		"deaths", totalDeaths,
		"kills", totalKills,
		"contexts", totalContexts,
	)
}
