package analytics

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrUnsupportedParam is returned for parameter values other than
// int, int64, float32, float64 and string.
var ErrUnsupportedParam = errors.New("unsupported analytics parameter")

// Event names
const (
	EventTimerStart          = "timer_start"
	EventTimerStop           = "timer_stop"
	EventTimerStartOrPause   = "timer_start_or_pause"
	EventTimerSelectStandard = "timer_select_standard"
)

// Parameter names
const (
	ParamItemID = "item_id"
	ParamRunID  = "run_id"
)

type Params map[string]any

// Tracker records user actions
type Tracker interface {
	LogEvent(name string, params Params) error
}

// LogTracker writes events to the application log, tagged with a session id
// generated when the tracker is created.
type LogTracker struct {
	logger    *log.Logger
	sessionID string

	mu     sync.Mutex
	counts map[string]int
}

func NewLogTracker(logger *log.Logger) *LogTracker {
	if logger == nil {
		panic("LogTracker: logger cannot be nil")
	}
	return &LogTracker{
		logger:    logger,
		sessionID: uuid.NewString(),
		counts:    make(map[string]int),
	}
}

func (t *LogTracker) SessionID() string {
	return t.sessionID
}

// LogEvent validates params and logs the event. Nothing is recorded when a
// parameter has an unsupported type.
func (t *LogTracker) LogEvent(name string, params Params) error {
	rendered, err := renderParams(params)
	if err != nil {
		return fmt.Errorf("event %s: %w", name, err)
	}

	t.mu.Lock()
	t.counts[name]++
	t.mu.Unlock()

	if rendered == "" {
		t.logger.Printf("Analytics: [%s] %s", t.sessionID, name)
	} else {
		t.logger.Printf("Analytics: [%s] %s %s", t.sessionID, name, rendered)
	}
	return nil
}

// Count returns how many times name has been logged this session
func (t *LogTracker) Count(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[name]
}

// NewRunID returns an identifier for one timer run
func NewRunID() string {
	return uuid.NewString()
}

func renderParams(params Params) (string, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := params[k].(type) {
		case int, int64, float32, float64:
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		case string:
			parts = append(parts, fmt.Sprintf("%s=%q", k, v))
		default:
			return "", fmt.Errorf("%w: %s has type %T", ErrUnsupportedParam, k, v)
		}
	}
	return strings.Join(parts, " "), nil
}
