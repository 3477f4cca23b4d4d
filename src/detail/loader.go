// Package detail implements the lazy, at-most-once loader behind each
// photo's detail region. A loader is claimed the moment its region first
// becomes sufficiently visible, before the fetch resolves, so repeated
// intersection events can never start a second fetch.
package detail

import (
	"context"
	"strconv"
	"strings"
	"sync"

	m "retroview_services/src/models"
)

// VisibilityThreshold is the viewport visibility ratio that triggers the
// fetch.
const VisibilityThreshold = 0.10

type State int

const (
	StateUnobserved State = iota
	StatePending
	StateLoaded
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateUnobserved:
		return "unobserved"
	case StatePending:
		return "pending"
	case StateLoaded:
		return "loaded"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

type FetchFunc func(ctx context.Context) (m.PhotoDetails, error)

type Result struct {
	Details m.PhotoDetails
	Err     error
}

// Loader binds one photo's detail region to one fetch. Transitions are
// strict: Unobserved -> Pending -> Loaded | Errored, and both outcomes are
// terminal for the page view.
type Loader struct {
	fetch FetchFunc

	mu     sync.Mutex
	state  State
	result Result
	ready  chan struct{}
}

func NewLoader(fetch FetchFunc) *Loader {
	return &Loader{fetch: fetch, ready: make(chan struct{})}
}

// Observe feeds one visibility event into the state machine. The first call
// at or above the threshold claims the loader and starts the fetch; every
// later call is a no-op regardless of ratio. It returns true when this call
// started the fetch.
func (l *Loader) Observe(ctx context.Context, ratio float64) bool {
	if ratio < VisibilityThreshold {
		return false
	}
	l.mu.Lock()
	if l.state != StateUnobserved {
		l.mu.Unlock()
		return false
	}
	// Claim before fetching: rapid in/out/in toggles hit the Pending
	// state, not a second fetch.
	l.state = StatePending
	l.mu.Unlock()

	go l.run(ctx)
	return true
}

func (l *Loader) run(ctx context.Context) {
	details, err := l.fetch(ctx)

	l.mu.Lock()
	if err != nil {
		l.state = StateErrored
		l.result = Result{Err: err}
	} else {
		l.state = StateLoaded
		l.result = Result{Details: details}
	}
	l.mu.Unlock()
	close(l.ready)
}

func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Ready is closed once the loader reaches a terminal state.
func (l *Loader) Ready() <-chan struct{} {
	return l.ready
}

// Result returns the terminal outcome. Only valid after Ready is closed.
func (l *Loader) Result() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.result
}

// View is the rendered detail region, with the empty-value fallbacks every
// render path must agree on.
type View struct {
	Tags        string `json:"tags"`
	Views       string `json:"views"`
	Comments    string `json:"comments"`
	Description string `json:"description,omitempty"`
}

// Render converts raw details into display text: tags joined or "None",
// views or "N/A", comment count or "0".
func Render(d m.PhotoDetails) View {
	view := View{
		Tags:        "None",
		Views:       "N/A",
		Comments:    strconv.Itoa(d.CommentCount),
		Description: d.Description,
	}
	if len(d.Tags) > 0 {
		view.Tags = strings.Join(d.Tags, ", ")
	}
	if d.HasViews {
		view.Views = strconv.Itoa(d.Views)
	}
	return view
}
