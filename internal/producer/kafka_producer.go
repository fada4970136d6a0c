package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/maxmindlin/chimp-bot/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de domínio do bot em três tópicos.
// Publicação é melhor-esforço: o chamador loga a falha e segue.
type KafkaPublisher struct {
	BetPlacedWriter   *kafka.Writer
	BetSettledWriter  *kafka.Writer
	TrackPlayedWriter *kafka.Writer
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return writeJSON(ctx, p.BetPlacedWriter, e.RoomID, e)
}

func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return writeJSON(ctx, p.BetSettledWriter, e.RoomID, e)
}

func (p *KafkaPublisher) PublishTrackPlayed(ctx context.Context, e events.TrackPlayed) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return writeJSON(ctx, p.TrackPlayedWriter, e.RequestID, e)
}

func (p *KafkaPublisher) Close() {
	for _, w := range []*kafka.Writer{p.BetPlacedWriter, p.BetSettledWriter, p.TrackPlayedWriter} {
		if w != nil {
			_ = w.Close()
		}
	}
}

func writeJSON(ctx context.Context, w *kafka.Writer, key string, payload any) error {
	b, _ := json.Marshal(payload)
	return w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: b,
		Time:  time.Now(),
	})
}
