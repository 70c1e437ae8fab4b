package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielpatrickdp/tray-ico/go-controller/internal/codec"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/episode"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/logging"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/operator"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/physics"
	"github.com/danielpatrickdp/tray-ico/go-controller/internal/state"
)

// #region main
func main() {
	os.Exit(run())
}

// run owns every resource of the process so that deferred closes happen before
// main exits with its status.
func run() int {
	journalPath := envOr("ICO_JOURNAL", "data/mICO_log.csv")
	dbPath := os.Getenv("ADAPTIVE_DB")
	physicsAddr := os.Getenv("PHYSICS_ADDR")
	tickHz := envFloat("TICK_HZ", 60)
	grace := envDuration("FATAL_GRACE", 30*time.Second)
	maxTicks := envInt("MAX_TICKS", 0)

	// CSV journal is the source of truth for the weight
	csvJournal, err := logging.OpenCSV(journalPath)
	if err != nil {
		log.Printf("[ERROR] failed to open journal: %v", err)
		return 1
	}
	defer csvJournal.Close()

	var journal logging.Journal = csvJournal
	if dbPath != "" {
		store, err := state.NewStore(dbPath)
		if err != nil {
			log.Printf("[ERROR] failed to open store: %v", err)
			return 1
		}
		defer store.Close()
		mirror, err := state.NewRunJournal(store, csvJournal.Load())
		if err != nil {
			log.Printf("[ERROR] failed to start run: %v", err)
			return 1
		}
		log.Printf("[INFO] mirroring run %s to %s", mirror.RunID(), dbPath)
		journal = logging.NewTee(csvJournal, mirror)
	}

	// Physics: remote engine if configured, otherwise the built-in simulator
	var engine physics.Engine
	if physicsAddr != "" {
		client, err := codec.NewPhysicsClient(physicsAddr)
		if err != nil {
			log.Printf("[ERROR] failed to connect to physics service at %s: %v", physicsAddr, err)
			return 1
		}
		defer client.Close()
		engine = client
	} else {
		engine = physics.NewSim(physics.DefaultSimConfig())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands := make(chan operator.Command, 16)
	go func() {
		if err := operator.ReadCommands(ctx, os.Stdin, operator.DefaultConfig(), commands); err != nil {
			log.Printf("[ERROR] operator input: %v", err)
		}
	}()

	var pace time.Duration
	if tickHz > 0 {
		pace = time.Duration(float64(time.Second) / tickHz)
	}

	fmt.Println("Tray controller ready.")
	fmt.Printf("  Journal: %s | Physics: %s | %.0f Hz\n", journalPath, physicsLabel(physicsAddr), tickHz)
	fmt.Println("Commands: left, right, stop, reset, quit")

	ctrl := episode.NewController(engine, journal, episode.DefaultConfig())
	status, err := ctrl.Run(ctx, episode.RunOptions{Commands: commands, MaxTicks: maxTicks, Pace: pace})
	final := ctrl.State()
	log.Printf("[INFO] run ended: status=%s weight=%.6f attempts=%d ticks=%d",
		status, final.Weight, final.Attempt, ctrl.Ticks())

	if err != nil {
		switch {
		case errors.Is(err, episode.ErrDiverged):
			log.Printf("[ERROR] learning diverged: %v", err)
		case errors.Is(err, episode.ErrPersist):
			log.Printf("[ERROR] journal write failed: %v", err)
		default:
			log.Printf("[ERROR] run failed: %v", err)
		}
		// leave the final state on screen before exiting
		log.Printf("[INFO] exiting in %s", grace)
		time.Sleep(grace)
		return 1
	}
	return 0
}
// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("invalid %s=%q: %v", key, v, err)
	}
	return f
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s=%q: %v", key, v, err)
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid %s=%q: %v", key, v, err)
	}
	return d
}

func physicsLabel(addr string) string {
	if addr == "" {
		return "built-in"
	}
	return addr
}
// #endregion helpers
