package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Coletores do bot. O main liga os callbacks dos componentes a estes
// contadores; os pacotes de domínio não importam prometheus.
var (
	CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chimpbot_commands_handled_total",
		Help: "Comandos de chat processados, por comando e resultado.",
	}, []string{"command", "result"})

	WalletPersists = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chimpbot_wallet_persists_total",
		Help: "Reescritas completas da tabela de saldos.",
	})

	BetsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chimpbot_bets_placed_total",
		Help: "Apostas aceitas em salas de aposta.",
	})

	BetsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chimpbot_bets_settled_total",
		Help: "Salas de aposta resolvidas.",
	})

	PayoutCoins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chimpbot_payout_coins_total",
		Help: "Total de moedas pagas a vencedores.",
	})

	TracksPlayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chimpbot_tracks_played_total",
		Help: "Reproduções iniciadas pelo consumidor de playback.",
	})

	TracksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chimpbot_tracks_skipped_total",
		Help: "Pedidos descartados por skip antes de tocar.",
	})

	PlaybackErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chimpbot_playback_errors_total",
		Help: "Falhas no loop de playback, por fase.",
	}, []string{"stage"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chimpbot_playback_queue_depth",
		Help: "Pedidos pendentes na fila de playback.",
	})
)
