package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ikkahin/hra/internal/api"
)

// UseCaseEvent describes one finished service call.
type UseCaseEvent struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

type UseCaseObserver interface {
	ObserveUseCase(ctx context.Context, event UseCaseEvent)
}

type NoopUseCaseObserver struct{}

func (NoopUseCaseObserver) ObserveUseCase(context.Context, UseCaseEvent) {}

type logUseCaseObserver struct {
	logger *slog.Logger
}

// NewLogUseCaseObserver logs each call. Requests the server turned down
// (4xx) are expected traffic and log at info; anything else that failed
// logs at warn.
func NewLogUseCaseObserver(logger *slog.Logger) UseCaseObserver {
	if logger == nil {
		return NoopUseCaseObserver{}
	}
	return &logUseCaseObserver{logger: logger.With("component", "service")}
}

func (o *logUseCaseObserver) ObserveUseCase(ctx context.Context, event UseCaseEvent) {
	fields := make([]any, 0, len(event.Fields)*2)
	for k, v := range event.Fields {
		fields = append(fields, k, v)
	}
	attrs := []any{
		slog.String("op", event.Name),
		slog.Duration("took", event.Duration),
	}
	if len(fields) > 0 {
		attrs = append(attrs, slog.Group("args", fields...))
	}

	switch outcome(event.Err) {
	case "ok":
		o.logger.InfoContext(ctx, "op done", attrs...)
	case "rejected":
		o.logger.InfoContext(ctx, "op rejected", append(attrs, slog.String("reason", api.UserMessage(event.Err)))...)
	default:
		o.logger.WarnContext(ctx, "op failed", append(attrs, slog.Any("error", event.Err))...)
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return "rejected"
	}
	return "failed"
}

func useCaseObserverOrNoop(observers []UseCaseObserver) UseCaseObserver {
	for _, obs := range observers {
		if obs != nil {
			return obs
		}
	}
	return NoopUseCaseObserver{}
}

// observe is deferred by each service method; errp is read when it fires.
func observe(ctx context.Context, o UseCaseObserver, name string, fields map[string]any, errp *error) func() {
	startedAt := time.Now()
	return func() {
		err := *errp
		o.ObserveUseCase(ctx, UseCaseEvent{
			Name:      name,
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}
}
