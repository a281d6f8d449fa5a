package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rivo/tview"
	"github.com/spf13/pflag"

	"github.com/lowaak/workout-timer/internal/analytics"
	"github.com/lowaak/workout-timer/internal/cache"
	"github.com/lowaak/workout-timer/internal/config"
	"github.com/lowaak/workout-timer/internal/go_func_utils"
	"github.com/lowaak/workout-timer/internal/logging"
	"github.com/lowaak/workout-timer/internal/presets"
	"github.com/lowaak/workout-timer/internal/timer"
	"github.com/lowaak/workout-timer/internal/workout"
)

const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "workout_timer: %v\n", err)
		return exitUsage
	}

	logs := logging.New(cfg)
	defer logs.Close()
	logger := logs.Logger
	logger.Printf("Starting workout timer (tick %s, headless %t)", cfg.TickInterval, cfg.Headless)

	catalog, err := presets.LoadFile(cfg.PresetsFile)
	if errors.Is(err, fs.ErrNotExist) {
		// leave a template the user can edit next time
		catalog = presets.DefaultCatalog()
		if err := presets.SaveFile(cfg.PresetsFile, catalog); err != nil {
			logger.Printf("Presets file %s not found and could not be created: %v", cfg.PresetsFile, err)
		} else {
			logger.Printf("Presets file %s not found, wrote the built-in presets to it", cfg.PresetsFile)
		}
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "workout_timer: %v\n", err)
		return exitError
	}

	engine := timer.NewEngine(timer.EngineConfig{
		TickInterval:      cfg.TickInterval,
		PausePollInterval: cfg.PausePollInterval,
	}, logger)
	tracker := analytics.NewLogTracker(logger)
	logger.Printf("Analytics session %s", tracker.SessionID())

	model := workout.NewUIModel(logger, logs.UILines)
	controller := workout.NewTimerController(workout.NewTimerControllerArg{
		Model:     model,
		Timer:     timer.NewWorkoutTimer(engine, logger),
		Presets:   catalog,
		Cache:     cache.New[string, time.Duration](nil),
		Tracker:   tracker,
		Logger:    logger,
		Work:      cfg.Work,
		Rest:      cfg.Rest,
		Rounds:    cfg.Reps,
		CustomTTL: cfg.CustomTTL,
	})
	controller.ResetTimer()
	if err := controller.LoadPreset(cfg.Preset); err != nil {
		fmt.Fprintf(os.Stderr, "workout_timer: %v\n", err)
		controller.Shutdown()
		model.Shutdown()
		return exitUsage
	}

	var impl workout.UIViewImpl
	var headless *workout.HeadlessUIViewImpl
	if cfg.Headless {
		headless = workout.NewHeadlessUIView(os.Stdout, logger)
		impl = headless
	} else {
		impl = workout.NewCursesUIView(logger, tview.NewApplication(), model)
	}

	view := workout.NewBaseUIView(workout.NewBaseUIViewArg{
		UIViewImpl:   impl,
		UIModel:      model,
		UIController: controller,
		Logger:       logger,
	})

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	var interrupted atomic.Bool
	runDone := make(chan struct{})
	go_func_utils.SafeGo(logger, func() {
		select {
		case sig := <-sigs:
			logger.Printf("Received %s, closing", sig)
			interrupted.Store(true)
			model.RequestCloseApplication()
		case <-runDone:
		}
	})

	runErr := view.Run()
	close(runDone)

	view.Shutdown()
	controller.Shutdown()
	model.Shutdown()
	if dropped := logs.Dropped(); dropped > 0 {
		logger.Printf("UI log channel dropped %d lines", dropped)
	}
	logger.Println("Workout timer stopped")

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "workout_timer: %v\n", runErr)
		return exitError
	}
	if headless != nil && !headless.Completed() {
		if interrupted.Load() {
			return exitInterrupted
		}
		return exitError
	}
	return exitOK
}
