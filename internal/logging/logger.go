package logging

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"reda-store/internal/config"
)

var (
	log         = logrus.New()
	serviceName = "reda-store"
)

func init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(jsonFormatter())
	log.SetLevel(logrus.InfoLevel)
}

func jsonFormatter() logrus.Formatter {
	return &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
	}
}

// Setup applies the configured level and format. Unknown levels keep info.
func Setup(cfg config.LoggerConfig, service string) {
	if lvl, err := logrus.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(lvl)
	}
	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(jsonFormatter())
	}
	if service != "" {
		serviceName = service
	}
}

// SetOutput redirects the logger, mostly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Writer exposes the logger as an io.Writer for libraries that want one.
func Writer() *io.PipeWriter {
	return log.Writer()
}

// WithContext returns a logger with trace context fields (trace_id, span_id) if available
func WithContext(ctx context.Context) *logrus.Entry {
	fields := logrus.Fields{
		"service.name": serviceName,
	}

	if ctx != nil {
		spanCtx := trace.SpanContextFromContext(ctx)
		if spanCtx.IsValid() {
			fields["trace_id"] = spanCtx.TraceID().String()
			fields["span_id"] = spanCtx.SpanID().String()
		}
	}

	return log.WithFields(fields)
}

// WithFields returns a logger entry with additional custom fields
func WithFields(ctx context.Context, fields map[string]interface{}) *logrus.Entry {
	return WithContext(ctx).WithFields(fields)
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	WithContext(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	WithContext(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	WithContext(ctx).Errorf(format, args...)
}

// Fatalf logs and exits. Only main should call it.
func Fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}
