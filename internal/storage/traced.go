package storage

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "techoh/storage"

type tracedMedium struct {
	next   Medium
	tracer trace.Tracer
}

// Traced 为介质的每次读写创建 span；tp 为 nil 时使用全局 TracerProvider
func Traced(next Medium, tp trace.TracerProvider) Medium {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &tracedMedium{next: next, tracer: tp.Tracer(tracerName)}
}

func (t *tracedMedium) Get(ctx context.Context, key string) (Entry, error) {
	ctx, span := t.tracer.Start(ctx, "storage.Get", trace.WithAttributes(attribute.String("storage.key", key)))
	defer span.End()
	e, err := t.next.Get(ctx, key)
	record(span, err)
	span.SetAttributes(attribute.Int64("storage.version", e.Version))
	return e, err
}

func (t *tracedMedium) Keys(ctx context.Context, prefix string) ([]string, error) {
	ctx, span := t.tracer.Start(ctx, "storage.Keys", trace.WithAttributes(attribute.String("storage.prefix", prefix)))
	defer span.End()
	keys, err := t.next.Keys(ctx, prefix)
	record(span, err)
	return keys, err
}

func (t *tracedMedium) Commit(ctx context.Context, writes ...Write) error {
	ctx, span := t.tracer.Start(ctx, "storage.Commit", trace.WithAttributes(attribute.StringSlice("storage.keys", writeKeys(writes))))
	defer span.End()
	err := t.next.Commit(ctx, writes...)
	record(span, err)
	return err
}

func (t *tracedMedium) Close() error { return t.next.Close() }

func record(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
