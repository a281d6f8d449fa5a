package workout

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/workout-timer/internal/go_func_utils"
	"github.com/lowaak/workout-timer/internal/presets"
	"github.com/lowaak/workout-timer/internal/timer"
)

// BaseUIView contains the base logic shared by all UI implementations
type BaseUIView struct {
	uiViewImpl   UIViewImpl
	uiModel      *UIModel
	uiController *TimerController
	context      context.Context
	cancelFunc   context.CancelFunc
	waitGroup    sync.WaitGroup
	logger       *log.Logger
}

// NewBaseUIViewArg holds the arguments for creating a new BaseUIView
type NewBaseUIViewArg struct {
	UIViewImpl   UIViewImpl
	UIModel      *UIModel
	UIController *TimerController
	Logger       *log.Logger
}

// NewBaseUIView creates a new BaseUIView with the given implementation
func NewBaseUIView(args NewBaseUIViewArg) *BaseUIView {
	if args.Logger == nil {
		panic("BaseUIView: logger cannot be nil")
	}
	if args.UIViewImpl == nil {
		panic("BaseUIView: UIViewImpl cannot be nil")
	}
	if args.UIModel == nil {
		panic("BaseUIView: UIModel cannot be nil")
	}
	if args.UIController == nil {
		panic("BaseUIView: UIController cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())

	base := &BaseUIView{
		uiViewImpl:   args.UIViewImpl,
		uiModel:      args.UIModel,
		uiController: args.UIController,
		context:      ctx,
		cancelFunc:   cancel,
		logger:       args.Logger,
	}

	args.UIViewImpl.Initialize(args.UIController)
	args.UIViewImpl.SetupKeyboardHandlers(args.UIController)
	args.UIViewImpl.SetMode(args.UIModel.GetUIState().Mode)

	base.waitGroup.Add(1)
	go_func_utils.SafeGo(base.logger, func() { base.monitorLogResize() })
	base.updateLogDisplay()

	base.setupEventListeners()

	return base
}

// listen forwards every value of one model event to handle on its own
// goroutine, redrawing after each one, until the view shuts down
func listen[T any](base *BaseUIView, size int, register func(chan<- T) func(), handle func(T)) {
	ch := make(chan T, size)
	unregister := register(ch)
	base.waitGroup.Add(1)
	go_func_utils.SafeGo(base.logger, func() {
		defer base.waitGroup.Done()
		defer unregister()
		for {
			select {
			case <-base.context.Done():
				return
			case v, ok := <-ch:
				if !ok {
					return
				}
				handle(v)
				base.draw()
			}
		}
	})
}

func (base *BaseUIView) setupEventListeners() {
	// When a new log arrives, update the display to show the tail
	listen(base, 1, base.uiModel.ListenToLog, func(string) {
		base.updateLogDisplay()
	})

	listen(base, 1, base.uiModel.ListenToPresets, func(list []presets.Preset) {
		base.uiViewImpl.SetPresetList(list)
	})

	// Model state notifications only wake the listener; the handler renders
	// what the model holds now, so a send dropped on a full channel is
	// covered by the one still queued.
	listen(base, 1, base.uiModel.ListenToSetup, func(SetupSummary) {
		base.uiViewImpl.UpdateSetup(base.uiModel.GetSetup())
	})

	listen(base, 1, base.uiModel.ListenToUIState, func(UIState) {
		base.uiViewImpl.SetMode(base.uiModel.GetUIState().Mode)
	})

	listen(base, 1, base.uiModel.ListenToRunState, func(timer.RunState) {
		base.uiViewImpl.UpdateRunState(base.uiModel.GetRunState())
	})

	listen(base, 4, base.uiModel.ListenToCues, func(cue Cue) {
		base.uiViewImpl.ShowCue(cue)
	})

	closeChan := make(chan struct{}, 1)
	closeUnregister := base.uiModel.ListenToCloseApplication(closeChan)
	base.waitGroup.Add(1)
	go_func_utils.SafeGo(base.logger, func() {
		defer base.waitGroup.Done()
		defer closeUnregister()
		select {
		case <-base.context.Done():
			return
		case _, ok := <-closeChan:
			if !ok {
				return
			}
			base.uiViewImpl.Stop()
		}
	})
}

func (base *BaseUIView) draw() {
	if err := base.uiViewImpl.Draw(); err != nil {
		base.logger.Printf("BaseUIView: Error drawing: %v", err)
	}
}

func (base *BaseUIView) updateLogDisplay() {
	height := base.uiViewImpl.GetLogViewHeight()
	if height <= 0 {
		return
	}

	logLines := base.uiModel.GetLogTail(height)

	base.uiViewImpl.ClearLogView()
	for _, line := range logLines {
		if err := base.uiViewImpl.WriteLogLine(line + "\n"); err != nil {
			base.logger.Printf("BaseUIView: Error writing to log view: %v", err)
		}
	}
}

func (base *BaseUIView) monitorLogResize() {
	defer base.waitGroup.Done()
	var lastHeight int
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-base.context.Done():
			return
		case <-ticker.C:
			height := base.uiViewImpl.GetLogViewHeight()
			if height != lastHeight && height > 0 {
				lastHeight = height
				base.updateLogDisplay()
				base.draw()
			}
		}
	}
}

// Shutdown stops all goroutines and waits for them to finish
func (base *BaseUIView) Shutdown() {
	base.logger.Println("BaseUIView: Shutting down")
	base.cancelFunc()
	base.waitGroup.Wait()
	base.logger.Println("BaseUIView: Shutdown complete")
}

// Run starts the UI and blocks until it exits
func (base *BaseUIView) Run() error {
	return base.uiViewImpl.Run()
}
