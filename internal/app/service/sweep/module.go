package sweep

import (
	"context"

	"github.com/propmarket/portal/pkg/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, kv ...interface{}) { l.log.Infow(msg, kv...) }

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Errorw(msg, append(kv, "error", err)...)
}

// runScheduler wires the sweep onto its cron schedule. SkipIfStillRunning
// guards against a slow pass overlapping the next trigger.
func runScheduler(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger, svc *Service) {
	cl := cronLogger{log: log.Named("sweep-cron")}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cl)))

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			_, err := c.AddFunc(cfg.Sweep.Schedule, func() {
				if err := svc.Run(context.Background()); err != nil {
					log.Errorw("subscription sweep failed", "error", err)
				}
			})
			if err != nil {
				return err
			}
			c.Start()
			log.Infow("subscription sweep scheduled", "schedule", cfg.Sweep.Schedule)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopped := c.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(NewService),
	fx.Invoke(runScheduler),
)
