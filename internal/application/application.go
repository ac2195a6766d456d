package application

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const SpanPrefix = "UC."

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// Instruments carries the RED instruments and base logger shared by use cases of one service.
type Instruments struct {
	tracer       observability.Tracer
	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewInstruments(tel observability.Observability, service string) Instruments {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return Instruments{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

// Run tracks a single use case invocation from Begin to End.
type Run struct {
	in      Instruments
	useCase string
	start   time.Time

	Span   trace.Span
	Log    observability.Logger
	fields []observability.Field

	outcome string
	status  string
}

// Begin opens a span named SpanPrefix+spanName and binds a request-scoped logger onto the returned context.
func (in Instruments) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, SpanPrefix+spanName, attrs...)

	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase))
	logger = logctx.Enrich(ctx, logger)
	ctx = logctx.With(ctx, logger)

	return ctx, &Run{
		in:      in,
		useCase: useCase,
		start:   time.Now(),
		Span:    span,
		Log:     logger,
		outcome: "success",
		status:  "OK",
	}
}

// Fail marks the run as failed with an upper-case status code such as "INSUFFICIENT_STOCK".
func (r *Run) Fail(status string) {
	r.outcome, r.status = "error", status
}

// Status overrides the status text while keeping the outcome.
func (r *Run) Status(status string) {
	r.status = status
}

// Ignore marks the run as a no-op, e.g. an event of an unexpected type.
func (r *Run) Ignore() {
	r.outcome, r.status = "ignored", "IGNORED"
}

// With adds fields to the closing use_case_done line.
func (r *Run) With(fields ...observability.Field) {
	r.fields = append(r.fields, fields...)
}

// External records a call to an out-of-process peer.
func (r *Run) External(peer, endpoint string, started time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			outcome = "canceled"
		}
	}
	r.in.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	r.in.extHistogram.Observe(time.Since(started).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
}

// End closes the span, records RED metrics and writes the use_case_done line.
func (r *Run) End(err error) {
	lat := time.Since(r.start).Seconds()

	if r.Span != nil {
		if err != nil {
			r.Span.RecordError(err)
			r.Span.SetStatus(codes.Error, r.status)
		} else {
			r.Span.SetStatus(codes.Ok, r.status)
		}
		r.Span.End()
	}

	r.in.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.outcome),
	)
	r.in.durHistogram.Observe(lat,
		observability.L("use_case", r.useCase),
	)

	fields := append([]observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", lat),
	}, r.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	r.Log.Info("use_case_done", fields...)
}
