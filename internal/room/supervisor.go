package room

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultNewRoundDelay is the pause between rounds.
	DefaultNewRoundDelay = 10 * time.Second
	// DefaultAutoActionDelay is the grace before blinds are auto-posted.
	DefaultAutoActionDelay = 1500 * time.Millisecond

	mailboxSize = 256
)

// SupervisorConfig wires a supervisor's collaborators. Gateway is
// required; everything else has a usable default.
type SupervisorConfig struct {
	Gateway Gateway
	Logger  *log.Logger
	Clock   quartz.Clock

	NewRoundDelay   time.Duration
	AutoActionDelay time.Duration
}

func (cfg *SupervisorConfig) applyDefaults() {
	if cfg.Logger == nil {
		cfg.Logger = log.New(nil)
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.NewRoundDelay == 0 {
		cfg.NewRoundDelay = DefaultNewRoundDelay
	}
	if cfg.AutoActionDelay == 0 {
		cfg.AutoActionDelay = DefaultAutoActionDelay
	}
}

// Supervisor owns one room machine. A single goroutine drains the
// mailbox in arrival order, applies transitions and interprets the
// returned effects; actors and timers requested by the machine run
// outside that goroutine and feed their results back through the
// mailbox.
type Supervisor struct {
	gateway Gateway
	logger  *log.Logger
	clock   quartz.Clock

	newRoundDelay   time.Duration
	autoActionDelay time.Duration

	mailbox chan Event
	stopped chan struct{}
	done    chan struct{}

	stopOnce sync.Once
	cancel   context.CancelFunc

	mu          sync.Mutex
	state       State
	rc          RoomContext
	resumed     bool
	actorCancel context.CancelFunc
	timer       *quartz.Timer
}

// NewSupervisor builds a supervisor for a fresh room. The machine starts
// in idle and advances on its own if enough players are already seated.
func NewSupervisor(cfg SupervisorConfig, rc RoomContext) *Supervisor {
	return newSupervisor(cfg, State{Phase: PhaseIdle}, rc, false)
}

// ResumeSupervisor builds a supervisor from a snapshot produced by an
// earlier machine (typically the bootstrap shadow). The snapshot phase's
// actor or timer is re-armed on start instead of replaying transitions.
func ResumeSupervisor(cfg SupervisorConfig, state State, rc RoomContext) *Supervisor {
	return newSupervisor(cfg, state, rc, true)
}

func newSupervisor(cfg SupervisorConfig, state State, rc RoomContext, resumed bool) *Supervisor {
	cfg.applyDefaults()
	return &Supervisor{
		gateway:         cfg.Gateway,
		logger:          cfg.Logger.WithPrefix("room"),
		clock:           cfg.Clock,
		newRoundDelay:   cfg.NewRoundDelay,
		autoActionDelay: cfg.AutoActionDelay,
		mailbox:         make(chan Event, mailboxSize),
		stopped:         make(chan struct{}),
		done:            make(chan struct{}),
		state:           state,
		rc:              rc,
		resumed:         resumed,
	}
}

// Start launches the machine loop and subscribes it to the gateway's
// event feed. It returns immediately.
func (s *Supervisor) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.loop(ctx)
		return nil
	})
	group.Go(func() error {
		s.pump(ctx)
		return nil
	})
	go func() {
		_ = group.Wait()
		close(s.done)
	}()
}

// Stop shuts the supervisor down: in-flight actors and timers are
// cancelled and the loop drains out. Blocks until everything has exited.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopped)
		if s.cancel != nil {
			s.cancel()
		}
	})
	<-s.done
}

// Post delivers an event to the machine. It blocks only while the
// mailbox is full, and becomes a no-op once the supervisor stops.
func (s *Supervisor) Post(ev Event) {
	select {
	case s.mailbox <- ev:
	case <-s.stopped:
	}
}

// Snapshot returns the machine's current position and a deep copy of its
// context. The copy shares nothing mutable with the running machine.
func (s *Supervisor) Snapshot() (State, RoomContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.rc.Clone()
}

// pump forwards the gateway's event feed into the mailbox.
func (s *Supervisor) pump(ctx context.Context) {
	events := s.gateway.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.Post(ev)
		}
	}
}

func (s *Supervisor) loop(ctx context.Context) {
	defer func() {
		s.cancelActor()
		s.stopTimer()
	}()

	// Arm the initial state: fresh machines walk the idle entry, resumed
	// machines re-arm the snapshot phase's actor or timer.
	var effects []Effect
	s.mu.Lock()
	if s.resumed {
		effects = EntryEffects(s.state)
	} else {
		s.state, s.rc, effects = Start(s.rc)
	}
	s.mu.Unlock()
	for _, ev := range s.interpret(ctx, nil, effects) {
		s.dispatch(ctx, ev)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.mailbox:
			s.dispatch(ctx, ev)
		}
	}
}

// dispatch applies one external event and any events the machine raises
// while handling it, before the next external event is considered.
func (s *Supervisor) dispatch(ctx context.Context, ev Event) {
	queue := []Event{ev}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		if _, ok := next.(EndOfStreet); ok {
			s.mu.Lock()
			acted := AllRunnersActed(s.rc)
			s.mu.Unlock()
			if !acted {
				s.logger.Warn("street ending before every runner acted", "event", next.Type())
			}
		}

		s.mu.Lock()
		prev := s.state
		state, rc, effects := Transition(s.state, s.rc, next)
		s.state, s.rc = state, rc
		s.mu.Unlock()

		if state != prev {
			s.logger.Debug("transition", "from", prev, "to", state, "event", next.Type())
			s.cancelActor()
			s.stopTimer()
		}

		queue = s.interpret(ctx, queue, effects)
	}
}

func (s *Supervisor) interpret(ctx context.Context, queue []Event, effects []Effect) []Event {
	for _, eff := range effects {
		switch e := eff.(type) {
		case RaiseEvent:
			queue = append(queue, e.Event)
		case InvokeActor:
			s.invoke(ctx, e.Kind)
		case StartTimer:
			s.startTimer(e.Kind)
		}
	}
	return queue
}

// invoke starts the actor for a phase, replacing whatever actor was
// running. The actor gets a snapshot of the context, never the live one.
func (s *Supervisor) invoke(ctx context.Context, kind ActorKind) {
	actorCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.actorCancel != nil {
		s.actorCancel()
	}
	s.actorCancel = cancel
	rc := s.rc.Clone()
	s.mu.Unlock()

	go func() {
		defer cancel()
		ev, err := s.runActor(actorCtx, kind, rc)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.logger.Error("actor failed", "actor", kind, "error", err)
			}
			return
		}
		if ev != nil {
			s.Post(ev)
		}
	}()
}

func (s *Supervisor) runActor(ctx context.Context, kind ActorKind, rc RoomContext) (Event, error) {
	switch kind {
	case ActorPrepareRoom:
		return s.gateway.PrepareRoom(ctx, rc)
	case ActorRevealOwnHand:
		return s.gateway.RevealOwnHand(ctx, rc)
	case ActorPreFlopAutoActions:
		return s.autoPostBlind(ctx, rc)
	case ActorRevealCommunityCards:
		return s.gateway.RevealCommunityCards(ctx, rc, rc.Street)
	case ActorRevealHand:
		return s.gateway.RevealHand(ctx, rc)
	case ActorRefreshRoom:
		return s.gateway.RefreshRoom(ctx, rc)
	}
	return nil, nil
}

func (s *Supervisor) cancelActor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.actorCancel != nil {
		s.actorCancel()
		s.actorCancel = nil
	}
}

func (s *Supervisor) startTimer(kind TimerKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clock.AfterFunc(s.newRoundDelay, func() {
		s.Post(TimerElapsed{Kind: kind})
	})
}

func (s *Supervisor) stopTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
