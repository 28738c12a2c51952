package mirror

import (
	"context"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "dsarkit/workflow"

var (
	initOnce sync.Once
	initErr  error
)

// Init installs a global tracer provider backed by the stdout exporter.
// If outputFile is empty, spans are written to os.Stdout. Safe to call more
// than once; the first successful initialisation wins.
func Init(serviceName, serviceVersion, outputFile string) error {
	var w io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		w = f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return err
	}

	initOnce.Do(func() {
		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				attribute.String("service.name", serviceName),
				attribute.String("service.version", serviceVersion),
			),
		)
		if err != nil {
			initErr = err
			return
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
	})
	return initErr
}

// OTel emits one span per completed step through the global tracer
// provider. If no provider is installed the spans are no-ops, keeping the
// mirror zero-cost when tracing is disabled.
type OTel struct {
	tracer trace.Tracer
}

// NewOTel creates the otel-backed notifier.
func NewOTel() *OTel {
	return &OTel{tracer: otel.Tracer(tracerName)}
}

// StepCompleted implements Notifier.
func (o *OTel) StepCompleted(ctx context.Context, s Snapshot) {
	_, span := o.tracer.Start(ctx, s.Step, trace.WithAttributes(
		attribute.String("dsar.request_id", s.RequestID),
		attribute.String("dsar.state", string(s.State)),
		attribute.Bool("dsar.success", s.Success),
		attribute.Int("dsar.audit_len", s.AuditLen),
	))
	if !s.Success {
		span.SetStatus(codes.Error, s.Reason)
	}
	span.End()
}
