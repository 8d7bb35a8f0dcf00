package room

import (
	"context"
	"fmt"
)

// autoPostBlind posts the local player's blind at the start of pre-flop.
// Blinds are forced bets, so nobody should have to click them: if it is
// our turn, we have not acted, and we hold a blind position, the posting
// is validated and submitted after a short grace period.
//
// Does nothing for spectators, for other players' turns, or while the
// bootstrap replay is still running.
func (s *Supervisor) autoPostBlind(ctx context.Context, rc RoomContext) (Event, error) {
	if rc.IsPreparing {
		return nil, nil
	}

	player, ok := ActivePlayer(rc)
	if !ok || rc.PlayerAddress == "" || player.Address != rc.PlayerAddress {
		return nil, nil
	}
	if player.RoundAction != NoAction {
		return nil, nil
	}

	var action Action
	var amount int64
	switch {
	case player.IsSmallBlind:
		action, amount = SmallBlind, rc.SmallBlind
	case player.IsBigBlind:
		action, amount = BigBlind, rc.BigBlindAmount()
	default:
		return nil, nil
	}

	posting := PlayerAction{
		PlayerAddress: player.Address,
		RoundID:       rc.RoundID,
		Street:        PreFlop,
		Action:        action,
		Amount:        amount,
	}
	posting, ok = ValidateAction(rc, posting)
	if !ok {
		s.logger.Warn("cannot auto-post blind", "action", action, "amount", amount)
		return nil, nil
	}

	timer := s.clock.NewTimer(s.autoActionDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	s.logger.Debug("auto-posting blind", "action", posting.Action, "amount", posting.Amount)
	if err := s.gateway.SendGameAction(ctx, posting); err != nil {
		return nil, fmt.Errorf("posting %s: %w", posting.Action, err)
	}
	return nil, nil
}
