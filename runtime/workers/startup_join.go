package workers

import (
	"context"
	"log/slog"
	"swarm-relay/contract"
)

type roomJoiner interface {
	JoinAtStartup(ctx context.Context, key string)
}

var _ contract.Worker = (*StartupJoinWorker)(nil)

// StartupJoinWorker joins the room given on the command line once, then finishes.
type StartupJoinWorker struct {
	log    *slog.Logger
	joiner roomJoiner
	key    string
}

func NewStartupJoinWorker(log *slog.Logger, joiner roomJoiner, key string) *StartupJoinWorker {
	return &StartupJoinWorker{log: log, joiner: joiner, key: key}
}

func (w *StartupJoinWorker) Run(ctx context.Context) error {
	if w.key == "" {
		w.log.Info("No hashcode provided, waiting for manual room creation or joining.")
		return nil
	}
	w.joiner.JoinAtStartup(ctx, w.key)
	return nil
}
