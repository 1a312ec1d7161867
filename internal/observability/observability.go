// Package observability configures the process-wide slog logger.
//
// Plain text and JSON go straight to stderr. The otel formats bridge slog into the
// OpenTelemetry log SDK and export through stdout or OTLP; OTLP endpoints, headers and
// TLS are configured with the standard OTEL_EXPORTER_OTLP_* environment variables.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ScopeName identifies log records emitted through the otel bridge.
const ScopeName = "github.com/florianilch/fleetflow-client"

// Supported log formats.
const (
	FormatText       = "text"
	FormatJSON       = "json"
	FormatOTelStdout = "otel-stdout"
	FormatOTLPHTTP   = "otlp-http"
	FormatOTLPGRPC   = "otlp-grpc"
)

// ShutdownFunc flushes and releases logging resources.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// Instrument installs the default slog logger for the given level and format.
// The returned ShutdownFunc must be called before exit to flush buffered records.
func Instrument(ctx context.Context, level slog.Level, format string) (ShutdownFunc, error) {
	return instrument(ctx, os.Stderr, level, format)
}

func instrument(ctx context.Context, w io.Writer, level slog.Level, format string) (ShutdownFunc, error) {
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch format {
	case FormatText, "":
		slog.SetDefault(slog.New(slog.NewTextHandler(w, handlerOpts)))
		return noopShutdown, nil
	case FormatJSON:
		slog.SetDefault(slog.New(slog.NewJSONHandler(w, handlerOpts)))
		return noopShutdown, nil
	}

	exporter, err := newExporter(ctx, w, format)
	if err != nil {
		return nil, err
	}

	var processor sdklog.Processor
	if format == FormatOTelStdout {
		processor = sdklog.NewSimpleProcessor(exporter)
	} else {
		processor = sdklog.NewBatchProcessor(exporter)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(minsev.NewLogProcessor(processor, severity(level))),
	)
	global.SetLoggerProvider(provider)

	// Exporter failures cannot go through slog, which now feeds the exporter.
	fallback := slog.New(slog.NewTextHandler(os.Stderr, nil))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		fallback.Error("log export failed", "error", err)
	}))

	slog.SetDefault(slog.New(otelslog.NewHandler(ScopeName, otelslog.WithLoggerProvider(provider))))

	return provider.Shutdown, nil
}

func newExporter(ctx context.Context, w io.Writer, format string) (sdklog.Exporter, error) {
	switch format {
	case FormatOTelStdout:
		exp, err := stdoutlog.New(stdoutlog.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("creating stdout log exporter: %w", err)
		}
		return exp, nil
	case FormatOTLPHTTP:
		exp, err := otlploghttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP/HTTP log exporter: %w", err)
		}
		return exp, nil
	case FormatOTLPGRPC:
		exp, err := otlploggrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP/gRPC log exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}

// severity maps a slog level onto the otel minimum severity.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
