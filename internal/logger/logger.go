package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	instance *zap.SugaredLogger
	once     sync.Once
)

type Config struct {
	Development bool
}

// New builds the process-wide logger. Production output is JSON with
// ISO8601 timestamps so log shippers can parse it without a custom layout;
// warn-level noise from the fire-and-forget paths (presence writes, kafka
// publishes, blob cleanup) carries no stacktraces. Development switches to
// the console encoder with stacktraces intact.
func New(cfg Config) (*zap.SugaredLogger, error) {
	var err error
	once.Do(func() {
		zcfg := zap.NewProductionConfig()
		zcfg.DisableStacktrace = true
		if cfg.Development {
			zcfg = zap.NewDevelopmentConfig()
		}
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		var l *zap.Logger
		l, err = zcfg.Build()
		if err != nil {
			return
		}
		instance = l.Sugar()
	})
	return instance, err
}

// Nop returns a no-op logger for tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
