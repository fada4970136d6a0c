package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/maxmindlin/chimp-bot/internal/bot"
)

// ChatEvent é o formato de fio de uma mensagem vinda do gateway de chat.
type ChatEvent struct {
	ChannelID  string `json:"channel_id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Text       string `json:"text"`
}

// Reply é a resposta do bot escrita de volta no mesmo socket.
type Reply struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

// Client consome eventos de chat de um gateway por WebSocket e entrega
// cada um ao bot. Transporte e apresentação ficam todos aqui; o núcleo
// nunca vê o socket.
type Client struct {
	URL string
	Log *zap.Logger
	Bot *bot.Bot
}

// Start inicia o loop de conexão e escuta do WebSocket.
// Em caso de desconexão, tenta reconectar automaticamente com backoff.
func (c *Client) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.Log.Info("context canceled, stopping gateway client")
			return
		default:
			if err := c.connectAndListen(ctx); err != nil {
				c.Log.Warn("connection closed", zap.Error(err))
				time.Sleep(3 * time.Second) // aguarda antes de reconectar
			}
		}
	}
}

// connectAndListen estabelece a conexão e processa mensagens recebidas.
// Cada evento é desserializado, despachado ao bot e a resposta escrita
// de volta.
func (c *Client) connectAndListen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.Log.Info("connected to chat gateway", zap.String("url", c.URL))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, context.Canceled) {
				return nil
			}
			c.Log.Error("read message failed", zap.Error(err))
			return err
		}

		var ev ChatEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			c.Log.Warn("invalid message", zap.Error(err))
			continue
		}

		reply := c.Bot.HandleMessage(ctx, bot.Message{
			ChannelID:  ev.ChannelID,
			AuthorID:   ev.AuthorID,
			AuthorName: ev.AuthorName,
			Text:       ev.Text,
		})
		if reply == "" {
			continue
		}

		if err := conn.WriteJSON(Reply{ChannelID: ev.ChannelID, Text: reply}); err != nil {
			c.Log.Error("write reply failed", zap.Error(err))
			return err
		}
	}
}
