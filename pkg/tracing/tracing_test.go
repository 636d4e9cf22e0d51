package tracing

import (
	"context"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
)

func TestStartSpanNoopTracer(t *testing.T) {
	opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	span, ctx := StartSpan(context.Background(), "noop")
	defer span.Finish()

	if id := TraceID(ctx); id != "" {
		t.Errorf("trace id = %q, want empty", id)
	}
}

func TestStartSpanJaegerPutsIDsInContext(t *testing.T) {
	tracer, closer := jaeger.NewTracer("test", jaeger.NewConstSampler(true), jaeger.NewNullReporter())
	defer closer.Close()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	parent, ctx := StartSpan(context.Background(), "parent")
	defer parent.Finish()
	child, childCtx := StartSpan(ctx, "child")
	defer child.Finish()

	if TraceID(ctx) == "" {
		t.Fatal("trace id not set")
	}
	if TraceID(ctx) != TraceID(childCtx) {
		t.Errorf("child trace %s != parent %s", TraceID(childCtx), TraceID(ctx))
	}
	if childCtx.Value(SpanIDKey) == ctx.Value(SpanIDKey) {
		t.Error("child must get its own span id")
	}
}
