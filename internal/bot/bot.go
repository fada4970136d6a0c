package bot

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/maxmindlin/chimp-bot/internal/betting"
	"github.com/maxmindlin/chimp-bot/internal/playback"
	"github.com/maxmindlin/chimp-bot/internal/wallet"
	"github.com/maxmindlin/chimp-bot/pkg/contracts/events"
)

// Message é um evento de chat já desserializado pelo gateway.
type Message struct {
	ChannelID  string
	AuthorID   string
	AuthorName string
	Text       string
}

// Publisher publica eventos de domínio; pode ser nil (publicação desligada).
type Publisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

// Bot é a camada de comandos: interpreta o texto do chat, despacha pro
// núcleo (ledger, engine, scheduler) e traduz erros tipados em respostas.
// O núcleo nunca formata texto; isso acontece só aqui.
type Bot struct {
	log    *zap.Logger
	prefix string

	ledger *wallet.Ledger
	engine *betting.Engine
	sched  *playback.Scheduler
	publ   Publisher

	// Callbacks de métrica, ligados no main (counter++)
	OnCommand func(command, result string)
	OnPersist func()
}

func New(log *zap.Logger, prefix string, ledger *wallet.Ledger, engine *betting.Engine, sched *playback.Scheduler, publ Publisher) *Bot {
	return &Bot{
		log:    log,
		prefix: prefix,
		ledger: ledger,
		engine: engine,
		sched:  sched,
		publ:   publ,
	}
}

// HandleMessage processa uma mensagem de chat e devolve a resposta a
// renderizar (vazio = sem resposta). Nunca derruba o processo por um
// comando ruim.
func (b *Bot) HandleMessage(ctx context.Context, msg Message) string {
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, b.prefix) {
		return ""
	}
	text = strings.TrimPrefix(text, b.prefix)

	command, args, _ := strings.Cut(text, " ")
	command = strings.ToLower(command)
	args = strings.TrimSpace(args)

	reply, err := b.dispatch(ctx, command, args, msg)
	result := "ok"
	if err != nil {
		result = "error"
		b.log.Info("command rejected",
			zap.String("command", command),
			zap.String("author", msg.AuthorID),
			zap.Error(err))
	}
	if b.OnCommand != nil {
		b.OnCommand(command, result)
	}
	return reply
}

func (b *Bot) dispatch(ctx context.Context, command, args string, msg Message) (string, error) {
	switch command {
	case "hey":
		return "Hey " + msg.AuthorName, nil
	case "new-wallet":
		return b.newWallet(ctx, msg)
	case "balance":
		return b.balance(msg)
	case "bet":
		return b.bet(ctx, args, msg)
	case "bet-running":
		return b.betRunning(msg)
	case "bet-winner":
		return b.betWinner(ctx, args, msg)
	case "play":
		return b.play(args, msg)
	case "p-play":
		return b.premiumPlay(ctx, args, msg)
	case "skip":
		return b.skip(args)
	default:
		return "I do not know that command?!", errUnknownCommand
	}
}
