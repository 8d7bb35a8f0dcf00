package room

import (
	"context"
	"time"

	"github.com/coder/quartz"
)

const (
	replayPollInterval = 50 * time.Millisecond
	replayPollTimeout  = 5 * time.Second
	replaySettle       = 250 * time.Millisecond
)

// Bootstrap reconstructs a room mid-round and hands back a live,
// subscribed supervisor.
//
// A shadow machine replays the historical events against a gateway that
// does nothing, with the context flagged as preparing so the auto-action
// policy stays quiet. Replayed actions are only delivered once the shadow
// is actually waiting for one, because the machine drops actions arriving
// in any other phase; between events the shadow gets a short settle so
// internally raised events land. The live supervisor is then resumed from
// the shadow's snapshot with the real gateway.
//
// All waits run on the injected clock, so the whole procedure is
// deterministic under a mock.
func Bootstrap(ctx context.Context, cfg SupervisorConfig, initial RoomContext, history []Event) (*Supervisor, error) {
	cfg.applyDefaults()

	shadowCtx, cancelShadow := context.WithCancel(ctx)
	defer cancelShadow()

	shadowRC := initial.Clone()
	shadowRC.IsPreparing = true

	shadowCfg := cfg
	shadowCfg.Gateway = noopGateway{}
	shadowCfg.Logger = cfg.Logger.WithPrefix("shadow")

	shadow := NewSupervisor(shadowCfg, shadowRC)
	shadow.Start(shadowCtx)

	for _, ev := range history {
		if _, ok := ev.(PlayerPerformedAction); ok {
			if err := waitForPendingAction(ctx, cfg, shadow); err != nil {
				shadow.Stop()
				return nil, err
			}
		}
		shadow.Post(ev)
		if err := sleepOn(ctx, cfg.Clock, replaySettle); err != nil {
			shadow.Stop()
			return nil, err
		}
	}

	shadow.Post(PreparingDone{})
	if err := sleepOn(ctx, cfg.Clock, replaySettle); err != nil {
		shadow.Stop()
		return nil, err
	}

	state, rc := shadow.Snapshot()
	shadow.Stop()

	cfg.Logger.Debug("bootstrap complete", "state", state, "round", rc.RoundID)

	live := ResumeSupervisor(cfg, state, rc)
	live.Start(ctx)
	return live, nil
}

// waitForPendingAction polls the shadow until it is waiting for a player
// action. The wait is bounded; on timeout the event is delivered anyway
// and the machine's own drop rules decide its fate.
func waitForPendingAction(ctx context.Context, cfg SupervisorConfig, shadow *Supervisor) error {
	var waited time.Duration
	for {
		state, _ := shadow.Snapshot()
		if IsAwaitingAction(state) {
			return nil
		}
		if waited >= replayPollTimeout {
			cfg.Logger.Warn("replay never reached a pending action", "state", state)
			return nil
		}
		if err := sleepOn(ctx, cfg.Clock, replayPollInterval); err != nil {
			return err
		}
		waited += replayPollInterval
	}
}

func sleepOn(ctx context.Context, clock quartz.Clock, d time.Duration) error {
	timer := clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// noopGateway backs the bootstrap shadow: every operation succeeds and
// produces nothing.
type noopGateway struct{}

func (noopGateway) Events(ctx context.Context) <-chan Event {
	ch := make(chan Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}

func (noopGateway) PrepareRoom(context.Context, RoomContext) (Event, error) { return nil, nil }

func (noopGateway) RevealOwnHand(context.Context, RoomContext) (Event, error) { return nil, nil }

func (noopGateway) RevealCommunityCards(context.Context, RoomContext, Street) (Event, error) {
	return nil, nil
}

func (noopGateway) RevealHand(context.Context, RoomContext) (Event, error) { return nil, nil }

func (noopGateway) RefreshRoom(context.Context, RoomContext) (Event, error) { return nil, nil }

func (noopGateway) SendGameAction(context.Context, PlayerAction) error { return nil }

func (noopGateway) JoinRoom(context.Context, int, int64) error { return nil }

func (noopGateway) LeaveRoom(context.Context) error { return nil }

func (noopGateway) SendChatMessage(context.Context, string) error { return nil }

func (noopGateway) HasChat() bool { return false }

func (noopGateway) Terminate() error { return nil }
