package playback

import (
	"context"
	"os/exec"

	"go.uber.org/zap"
)

// ExecPlayer entrega a query a um comando externo (ex.: mpv, ffplay) e
// bloqueia até o processo terminar. Cancelar o contexto mata o processo,
// que é o sinal de parada.
type ExecPlayer struct {
	Cmd string
	Log *zap.Logger
}

func (p *ExecPlayer) Play(ctx context.Context, req Request) error {
	cmd := exec.CommandContext(ctx, p.Cmd, req.Query)
	err := cmd.Run()
	if ctx.Err() != nil {
		// parada pedida; o erro do processo morto não interessa
		return ctx.Err()
	}
	return err
}
