package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/voidrunner/simcore/internal/component"
	"github.com/voidrunner/simcore/internal/config"
	"github.com/voidrunner/simcore/internal/core/ecs"
	"github.com/voidrunner/simcore/internal/core/event"
	"github.com/voidrunner/simcore/internal/core/spatial"
	coresys "github.com/voidrunner/simcore/internal/core/system"
	"github.com/voidrunner/simcore/internal/data"
	"github.com/voidrunner/simcore/internal/factory"
	"github.com/voidrunner/simcore/internal/mathx"
	"github.com/voidrunner/simcore/internal/persist"
	"github.com/voidrunner/simcore/internal/physics"
	"github.com/voidrunner/simcore/internal/scheduler"
	"github.com/voidrunner/simcore/internal/scripting"
	"github.com/voidrunner/simcore/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              simcore  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     fixed-step simulation kernel host     \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, value string) {
	dotsLen := 42 - len(label) - len(value)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), value)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Host logic ────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg := config.Defaults()
	if p := os.Getenv("SIMCORE_CONFIG"); p != "" {
		loaded, err := config.Load(p)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Data and rules
	printSection("data")
	archetypes, err := data.LoadArchetypeTable(cfg.Data.Archetypes)
	if err != nil {
		return fmt.Errorf("archetypes: %w", err)
	}
	printStat("archetypes", fmt.Sprint(archetypes.Count()))

	rules, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer rules.Close()
	printOK("lua rules loaded")
	fmt.Println()

	// 4. Core: store, bus, stepper, scheduler
	store := ecs.NewStore(ecs.Options{
		CompactEvery:    cfg.Store.CompactEvery,
		InitialCapacity: cfg.Store.InitialCapacity,
	}, log.Named("store"))
	bus := event.NewBus()
	b := cfg.Physics.Bounds
	stepper := physics.NewStepper(store, bus, physics.Config{
		CellSize: cfg.Physics.CellSize,
		Bounds:   physics.Rect{Min: mathx.V(b[0], b[1]), Max: mathx.V(b[2], b[3])},
	}, log.Named("physics"))
	sched := scheduler.New(scheduler.Config{
		TargetFrameTime: cfg.Scheduler.TargetFrameTime(),
		FixedTimeStep:   cfg.Scheduler.FixedTimeStep(),
		MaxFrameSkip:    cfg.Scheduler.MaxFrameSkip,
		FPSWindow:       cfg.Scheduler.FPSWindow,
		StopTimeout:     cfg.Scheduler.StopTimeout.Duration,
	}, store, stepper, scheduler.WithBus(bus), scheduler.WithLogger(log.Named("scheduler")))

	// 5. Collaborators
	fac := factory.New(store, archetypes, log.Named("factory"))
	reaper := system.NewReaper(store, bus, fac, "blast", log)
	aiSys := system.NewAISystem(store)
	weaponSys := system.NewWeaponSystem(store, fac, log)
	contactSys := system.NewContactSystem(store, bus, rules, reaper, log)

	runner := coresys.NewRunner()
	runner.Register(aiSys)
	runner.Register(weaponSys)
	runner.Register(system.NewLifetimeSystem(store, rules, reaper))
	runner.Register(system.NewCleanupSystem(store, reaper))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		telemetry, endSession, err := openTelemetry(ctx, cfg, store, bus, log)
		if err != nil {
			return err
		}
		runner.Register(telemetry)
		telemetry.Start(ctx)
		defer func() {
			telemetry.Close()
			endSession(persist.SessionSummary{
				FixedSteps: sched.FixedSteps(),
				GameTime:   sched.TotalGameTime().Seconds(),
			})
		}()
	}

	// 6. Scenario
	printSection("scenario")
	player, err := spawnScenario(fac, cfg.Demo)
	if err != nil {
		return fmt.Errorf("spawn scenario: %w", err)
	}
	printStat("entities", fmt.Sprint(store.Len()))
	fmt.Println()

	event.Subscribe(bus, func(ev event.EntityDied) {
		log.Info("entity died", zap.Stringer("entity", ev.Entity), zap.Stringer("killer", ev.Killer))
	})
	event.Subscribe(bus, func(fs event.FrameStats) {
		log.Debug("frame stats", zap.Float64("fps", fs.FrameRate), zap.Uint64("fixed_steps", fs.FixedSteps))
	})

	sched.OnUpdate(func(dt time.Duration) {
		autopilot(store, weaponSys, player, log)
	})
	sched.OnUpdate(runner.Tick)
	sched.OnFixedUpdate(aiSys.FixedUpdate)

	// 7. Run until signalled or the demo duration elapses
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	var deadline <-chan time.Time
	if d := cfg.Demo.Duration.Duration; d > 0 {
		deadline = time.After(d)
	}

	sched.Start(ctx)
	select {
	case sig := <-shutdownCh:
		log.Info("shutdown signal", zap.String("signal", sig.String()))
	case <-deadline:
		log.Info("demo duration elapsed")
	}
	sched.Stop()

	hits := contactSys.Hits()
	score := 0
	if p, ok := ecs.GetComponent[component.Player](store, player); ok {
		score = p.Score
	}
	log.Info("simulation stopped",
		zap.Duration("game_time", sched.TotalGameTime()),
		zap.Uint64("fixed_steps", sched.FixedSteps()),
		zap.Float64("fps", sched.FrameRate()),
		zap.Uint64("projectiles", weaponSys.Fired()),
		zap.Uint64("hits", hits),
		zap.Int("score", score))
	return nil
}

// spawnScenario places the player at the origin with enemies on a ring and
// power-ups scattered between.
func spawnScenario(fac *factory.Factory, demo config.DemoConfig) (ecs.EntityID, error) {
	player, err := fac.SpawnPlayer(mathx.Vec2{})
	if err != nil {
		return 0, err
	}
	for i := 0; i < demo.Enemies; i++ {
		a := 2 * math.Pi * float64(i) / float64(demo.Enemies)
		if _, err := fac.SpawnEnemy("grunt", mathx.V(400*math.Cos(a), 400*math.Sin(a))); err != nil {
			return 0, err
		}
	}
	kinds := []string{"medkit", "shield_cell", "overdrive"}
	for i := 0; i < demo.PowerUps; i++ {
		a := 2*math.Pi*float64(i)/float64(max(demo.PowerUps, 1)) + math.Pi/4
		if _, err := fac.SpawnPowerUp(kinds[i%len(kinds)], mathx.V(150*math.Cos(a), 150*math.Sin(a))); err != nil {
			return 0, err
		}
	}
	return player, nil
}

// autopilot stands in for the excluded input layer: the player shoots the
// nearest enemy whenever its weapon is ready.
func autopilot(store *ecs.Store, weapons *system.WeaponSystem, player ecs.EntityID, log *zap.Logger) {
	t, ok := ecs.GetComponent[component.Transform](store, player)
	if !ok {
		return
	}
	target, ok := spatial.ClosestEntityExcept[component.AI](store, t.Position, player)
	if !ok {
		return
	}
	tt, ok := ecs.GetComponent[component.Transform](store, target)
	if !ok {
		return
	}
	if _, err := weapons.FireAt(player, tt.Position); err != nil {
		log.Warn("player fire failed", zap.Error(err))
	}
}

// openTelemetry connects, migrates and opens a session. The returned func
// closes the session and the pool.
func openTelemetry(ctx context.Context, cfg *config.Config, store *ecs.Store, bus *event.Bus, log *zap.Logger) (*system.TelemetrySystem, func(persist.SessionSummary), error) {
	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(dbCtx, cfg.Telemetry, log)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry database: %w", err)
	}
	if err := persist.RunMigrations(dbCtx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	repo := persist.NewTelemetryRepo(db)
	session, err := repo.StartSession(dbCtx, cfg.Scheduler.FixedTimeStep(), cfg.Scheduler.MaxFrameSkip)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	printOK(fmt.Sprintf("telemetry session %d", session))

	t := system.NewTelemetrySystem(store, bus, repo, session, cfg.Telemetry.FlushEvery.Duration, log.Named("telemetry"))
	endSession := func(sum persist.SessionSummary) {
		endCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.EndSession(endCtx, session, sum); err != nil {
			log.Warn("end telemetry session", zap.Error(err))
		}
		db.Close()
	}
	return t, endSession, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
