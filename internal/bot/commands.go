package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/maxmindlin/chimp-bot/internal/betting"
	"github.com/maxmindlin/chimp-bot/internal/playback"
	"github.com/maxmindlin/chimp-bot/internal/wallet"
	"github.com/maxmindlin/chimp-bot/pkg/contracts/events"
)

var errUnknownCommand = errors.New("unknown command")

func (b *Bot) newWallet(ctx context.Context, msg Message) (string, error) {
	if err := b.ledger.OpenWallet(msg.AuthorID); err != nil {
		if errors.Is(err, wallet.ErrDuplicateWallet) {
			return msg.AuthorName + " already has a Chimp-wallet!", err
		}
		return "Unexpected error opening wallet", err
	}
	if err := b.persist(ctx); err != nil {
		return "Unexpected error saving wallets", err
	}
	return fmt.Sprintf("Welcome %s to Chimp-betting! Heres %d Chimp-coins to get you started",
		msg.AuthorName, wallet.StartingBalance), nil
}

func (b *Bot) balance(msg Message) (string, error) {
	bal, err := b.ledger.Balance(msg.AuthorID)
	if err != nil {
		return msg.AuthorName + " you dont have a Chimp-wallet yet! Type `" + b.prefix +
			"new-wallet` to get a wallet with some welcome Chimp-coins", err
	}
	return fmt.Sprintf("%s you have a balance of %d Chimp-coins", msg.AuthorName, bal), nil
}

// bet abre uma sala quando nenhuma está aberta no canal, senão aposta na
// sala aberta. Mesmo comando duplo do bot original.
func (b *Bot) bet(ctx context.Context, args string, msg Message) (string, error) {
	if _, _, err := b.engine.Status(msg.ChannelID); errors.Is(err, betting.ErrNoActiveRoom) {
		return b.openRoom(args, msg)
	}
	return b.placeBet(ctx, args, msg)
}

func (b *Bot) openRoom(args string, msg Message) (string, error) {
	// <msg> - <op> or <op>
	title, opts, ok := strings.Cut(args, " - ")
	if !ok {
		return "New bet command must be in form `<msg> - <op> or <op>`", errUsage("bet")
	}
	op1, op2, ok := strings.Cut(opts, " or ")
	if !ok {
		return "New bet command must be in form `<msg> - <op> or <op>`", errUsage("bet")
	}

	room, err := b.engine.OpenRoom(msg.ChannelID, msg.AuthorID, strings.TrimSpace(title),
		[2]string{strings.TrimSpace(op1), strings.TrimSpace(op2)})
	if err != nil {
		return "Unexpected error opening betting room", err
	}

	b.log.Info("betting room opened",
		zap.String("room", room.ID),
		zap.String("channel", msg.ChannelID),
		zap.String("creator", msg.AuthorID))
	return "A new betting room is open! Type `" + b.prefix + "bet <outcome> <amount>` to place a bet", nil
}

func (b *Bot) placeBet(ctx context.Context, args string, msg Message) (string, error) {
	// <bet> <amount>
	selector, amountStr, ok := strings.Cut(args, " ")
	if !ok {
		return "Bet command must be in form `<bet> <amount>`", errUsage("bet")
	}
	amount, err := strconv.ParseInt(strings.TrimSpace(amountStr), 10, 64)
	if err != nil {
		return "Bet amount required and must be integer", errUsage("bet")
	}

	bet, err := b.engine.PlaceBet(msg.ChannelID, msg.AuthorID, selector, amount)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrNoWallet):
			return "Cannot place bet: " + msg.AuthorName + " does not have a Chimp-wallet yet! Type `" +
				b.prefix + "new-wallet` to get a wallet with some welcome Chimp-coins", err
		case errors.Is(err, wallet.ErrInsufficientFunds):
			return "Cannot accept bet from " + msg.AuthorName +
				" - you do not have that much Chimp-coin. Type `" + b.prefix +
				"balance` to see how much you have", err
		case errors.Is(err, wallet.ErrInvalidAmount):
			return "Invalid bet: bet must be greater than 0", err
		case errors.Is(err, betting.ErrUnknownOutcome):
			return "Invalid bet: bet must be an outcome or an index of an outcome", err
		case errors.Is(err, betting.ErrDuplicateBettor):
			return "Invalid bet: " + msg.AuthorName + " has already placed a bet!", err
		default:
			return "Unexpected error taking bet", err
		}
	}

	if err := b.persist(ctx); err != nil {
		return "Unexpected error saving wallets", err
	}
	b.publishBetPlaced(ctx, msg, bet)

	return fmt.Sprintf("Bet placed by %s: %s for %d", msg.AuthorName, bet.Outcome, bet.Amount), nil
}

func (b *Bot) betRunning(msg Message) (string, error) {
	title, outcomes, err := b.engine.Status(msg.ChannelID)
	if err != nil {
		return "No betting room is currently running. Type `" + b.prefix +
			"bet <msg> - <op> or <op>` to start a new bet", err
	}
	return fmt.Sprintf("Current bet: %s | Bet options: %s or %s", title, outcomes[0], outcomes[1]), nil
}

func (b *Bot) betWinner(ctx context.Context, args string, msg Message) (string, error) {
	if args == "" {
		return "Winner command must be in form `" + b.prefix + "bet-winner <outcome>`", errUsage("bet-winner")
	}

	settlement, err := b.engine.Resolve(msg.ChannelID, msg.AuthorID, args)
	if err != nil {
		switch {
		case errors.Is(err, betting.ErrNoActiveRoom):
			return "A betting room must be open to declare a winner", err
		case errors.Is(err, betting.ErrNotRoomOwner):
			return "Only the room creator can declare a winner", err
		case errors.Is(err, betting.ErrUnknownOutcome):
			return "Winner must be an outcome or an index of an outcome", err
		default:
			return "Unexpected error resolving bet", err
		}
	}

	if err := b.persist(ctx); err != nil {
		return "Unexpected error saving wallets", err
	}
	b.publishBetSettled(ctx, settlement)

	if len(settlement.Winners) == 0 {
		return fmt.Sprintf("The bet is settled: %s! Nobody guessed right", settlement.Outcome), nil
	}
	parts := make([]string, 0, len(settlement.Winners))
	for _, w := range settlement.Winners {
		parts = append(parts, fmt.Sprintf("%s wins %d", w.Player, w.Amount))
	}
	return fmt.Sprintf("The bet is settled: %s! %s", settlement.Outcome, strings.Join(parts, ", ")), nil
}

func (b *Bot) play(args string, msg Message) (string, error) {
	if args == "" {
		return "Play command must be in form `" + b.prefix + "play <song>`", errUsage("play")
	}
	b.sched.Enqueue(playback.Request{
		ChannelID: msg.ChannelID,
		PlayerID:  msg.AuthorID,
		Query:     args,
	})
	return "Added to queue: " + args, nil
}

func (b *Bot) premiumPlay(ctx context.Context, args string, msg Message) (string, error) {
	if args == "" {
		return "Play command must be in form `" + b.prefix + "p-play <song>`", errUsage("p-play")
	}

	_, err := b.sched.EnqueuePremium(playback.Request{
		ChannelID: msg.ChannelID,
		PlayerID:  msg.AuthorID,
		Query:     args,
	})
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrNoWallet):
			return "Cannot buy a premium play: " + msg.AuthorName +
				" does not have a Chimp-wallet yet! Type `" + b.prefix +
				"new-wallet` to get a wallet with some welcome Chimp-coins", err
		case errors.Is(err, wallet.ErrInsufficientFunds):
			return fmt.Sprintf("You cannot afford a premium play! Premium plays cost %d Chimp-coins",
				playback.PremiumCost), err
		default:
			return "Unexpected error buying premium play", err
		}
	}

	if err := b.persist(ctx); err != nil {
		return "Unexpected error saving wallets", err
	}
	return fmt.Sprintf("A premium play has been purchased. Request: %s | %s skipped the queue",
		args, msg.AuthorName), nil
}

// skip sem argumento para a faixa ativa; com argumento marca a chave pra
// descarte preguiçoso quando o pedido pendente for alcançado.
func (b *Bot) skip(args string) (string, error) {
	if args == "" {
		if _, playing := b.sched.NowPlaying(); !playing {
			return "No song is playing to skip", nil
		}
		b.sched.CancelActive()
		return "\U0001F44C", nil
	}
	b.sched.Skip(args)
	return "Added to skips: " + args, nil
}

func (b *Bot) persist(ctx context.Context) error {
	if err := b.ledger.Persist(ctx); err != nil {
		b.log.Error("wallet persist failed", zap.Error(err))
		return err
	}
	if b.OnPersist != nil {
		b.OnPersist()
	}
	return nil
}

func (b *Bot) publishBetPlaced(ctx context.Context, msg Message, bet betting.Bet) {
	if b.publ == nil {
		return
	}
	err := b.publ.PublishBetPlaced(ctx, events.BetPlaced{
		RoomID:    bet.RoomID,
		ChannelID: msg.ChannelID,
		PlayerID:  bet.Player,
		Outcome:   bet.Outcome,
		Amount:    bet.Amount,
	})
	if err != nil {
		b.log.Warn("publish bet_placed failed", zap.Error(err))
	}
}

func (b *Bot) publishBetSettled(ctx context.Context, st betting.Settlement) {
	if b.publ == nil {
		return
	}
	ev := events.BetSettled{
		RoomID:    st.RoomID,
		ChannelID: st.Channel,
		Outcome:   st.Outcome,
	}
	for _, w := range st.Winners {
		ev.Winners = append(ev.Winners, events.BetPayout{PlayerID: w.Player, Amount: w.Amount})
	}
	if err := b.publ.PublishBetSettled(ctx, ev); err != nil {
		b.log.Warn("publish bet_settled failed", zap.Error(err))
	}
}

type usageError string

func (u usageError) Error() string { return "invalid usage of command " + string(u) }

func errUsage(cmd string) error { return usageError(cmd) }
