package progressive

import (
	"context"
	"errors"
	"time"

	m "retroview_services/src/models"
)

// ErrAborted signals that a rung failed to load and the ladder stopped,
// keeping the last successfully revealed rung on screen.
var ErrAborted = errors.New("progressive: ladder aborted on failed rung")

const (
	// DefaultInitialDelay paces the first rung's reveal after its load.
	DefaultInitialDelay = 100 * time.Millisecond
	// DefaultStepDelay paces every later rung.
	DefaultStepDelay = 400 * time.Millisecond
)

type EventKind int

const (
	// EventLoad asks the consumer to start loading a rung.
	EventLoad EventKind = iota
	// EventReveal tells the consumer to show a loaded rung.
	EventReveal
)

type Event struct {
	Kind  EventKind
	Index int
	Rung  m.SizeDescriptor
}

// Scheduler walks one ladder rung by rung: emit a load request, wait for the
// consumer's ack, pause, reveal, continue. One Scheduler serves one photo
// and is not reusable.
type Scheduler struct {
	InitialDelay time.Duration
	StepDelay    time.Duration

	rungs  []m.SizeDescriptor
	events chan Event
	acks   chan error
}

func NewScheduler(rungs []m.SizeDescriptor) *Scheduler {
	return &Scheduler{
		InitialDelay: DefaultInitialDelay,
		StepDelay:    DefaultStepDelay,
		rungs:        rungs,
		events:       make(chan Event),
		acks:         make(chan error, 1),
	}
}

// Events delivers the load/reveal sequence. The channel closes when the
// ladder finishes or aborts.
func (s *Scheduler) Events() <-chan Event {
	return s.events
}

// Ack reports the outcome of the most recently requested rung load. A nil
// error lets the ladder continue; anything else aborts it. Acks that arrive
// with no load outstanding never block the caller and are discarded before
// the next rung's load, so a duplicate report cannot stand in for it.
func (s *Scheduler) Ack(err error) {
	select {
	case s.acks <- err:
	default:
	}
}

// Run drives the ladder until completion, a failed rung, or ctx
// cancellation. It returns the index of the last revealed rung (-1 when
// nothing was shown).
func (s *Scheduler) Run(ctx context.Context) (lastRevealed int, err error) {
	defer close(s.events)
	lastRevealed = -1

	for i, rung := range s.rungs {
		// Discard any ack left over from a duplicate report on the
		// previous rung; this load gets acked on its own.
		select {
		case <-s.acks:
		default:
		}
		if err := s.emit(ctx, Event{Kind: EventLoad, Index: i, Rung: rung}); err != nil {
			return lastRevealed, err
		}

		select {
		case ackErr := <-s.acks:
			if ackErr != nil {
				return lastRevealed, ErrAborted
			}
		case <-ctx.Done():
			return lastRevealed, ctx.Err()
		}

		delay := s.StepDelay
		if i == 0 {
			delay = s.InitialDelay
		}
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return lastRevealed, ctx.Err()
		}

		if err := s.emit(ctx, Event{Kind: EventReveal, Index: i, Rung: rung}); err != nil {
			return lastRevealed, err
		}
		lastRevealed = i
	}
	return lastRevealed, nil
}

func (s *Scheduler) emit(ctx context.Context, ev Event) error {
	select {
	case s.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
