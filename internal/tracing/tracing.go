// Package tracing настраивает глобальный TracerProvider OpenTelemetry
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"taskManager/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type ShutdownFunc func(context.Context) error

type options struct {
	writer io.Writer
	syncer bool
}

type Option func(*options)

// WithWriter направляет спаны в w вместо stdout
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

// WithSyncExport отправляет каждый спан сразу, без батчинга
func WithSyncExport() Option {
	return func(o *options) { o.syncer = true }
}

// Init при enabled=false оставляет no-op провайдер и возвращает пустой shutdown
func Init(enabled bool, opts ...Option) (ShutdownFunc, error) {
	if !enabled {
		return func(context.Context) error { return nil }, nil
	}

	o := options{writer: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(o.writer))
	if err != nil {
		return nil, fmt.Errorf("создание экспортёра трейсов: %w", err)
	}

	var processor sdktrace.TracerProviderOption
	if o.syncer {
		processor = sdktrace.WithSyncer(exporter)
	} else {
		processor = sdktrace.WithBatcher(exporter)
	}

	tp := sdktrace.NewTracerProvider(processor)
	otel.SetTracerProvider(tp)

	logger.Info("Tracing: Экспорт трейсов включён")
	return tp.Shutdown, nil
}
