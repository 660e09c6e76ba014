// Package logging builds the process logger and logs the events published on
// the eventbus.
package logging

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	eventbus "github.com/hanpama/usergraph/internal/eventbus"
	events "github.com/hanpama/usergraph/internal/events"
	reqid "github.com/hanpama/usergraph/internal/reqid"
)

// Config selects the logger output.
type Config struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string
	// Format is "json" or "console".
	Format string
	// File additionally writes logs to the named file when set.
	File string
}

// New builds a logger from c.
func New(c Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if c.Level != "" {
		if err := level.Set(c.Level); err != nil {
			return nil, errors.Wrapf(err, "log level %q", c.Level)
		}
	}

	cfg := zap.NewProductionConfig()
	switch c.Format {
	case "", "json":
	case "console":
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, errors.Errorf("unknown log format %q", c.Format)
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	cfg.Level.SetLevel(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if c.File != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, c.File)
		cfg.ErrorOutputPaths = append(cfg.ErrorOutputPaths, c.File)
	}

	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return logger, nil
}

func withRequest(ctx context.Context, fields ...zap.Field) []zap.Field {
	if rid, ok := reqid.FromContext(ctx); ok {
		fields = append(fields, zap.String("request_id", rid))
	}
	return fields
}

// Subscribe logs finished HTTP requests, GraphQL operations and store calls.
// Successful store calls are logged at debug level.
func Subscribe(logger *zap.Logger) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			logger.Info("http request", withRequest(ctx,
				zap.String("method", e.Request.Method),
				zap.String("path", e.Request.URL.Path),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration),
			)...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			fields := withRequest(ctx,
				zap.String("operation", e.OperationName),
				zap.String("type", e.OperationType),
				zap.Int("errors", len(e.Errors)),
				zap.Duration("duration", e.Duration),
			)
			if len(e.Errors) > 0 {
				fields = append(fields, zap.Errors("graphql_errors", e.Errors))
				logger.Warn("graphql operation failed", fields...)
				return
			}
			logger.Debug("graphql operation", fields...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.StoreCallFinish) {
			fields := withRequest(ctx,
				zap.String("backend", e.Backend),
				zap.String("op", e.Op),
				zap.String("collection", e.Collection),
				zap.String("id", e.ID),
				zap.Duration("duration", e.Duration),
			)
			if e.Err != nil {
				logger.Warn("store call failed", append(fields, zap.Error(e.Err))...)
				return
			}
			logger.Debug("store call", fields...)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
