package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-songcard-backend/internal/config"
)

// keepGlobals restores the otel globals when the test ends.
func keepGlobals(t *testing.T) {
	t.Helper()
	tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func enabled(name string, insecure bool) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    insecure,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

func TestSetupOTel_DisabledLeavesGlobals(t *testing.T) {
	keepGlobals(t)
	before := otel.GetTracerProvider()

	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Endpoint: "ignored:4317"}, "v0")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatalf("disabled tracing replaced the tracer provider")
	}
}

func TestSetupOTel_InstallsProvider(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		t.Run(map[bool]string{true: "insecure", false: "tls"}[insecure], func(t *testing.T) {
			keepGlobals(t)

			shutdown, err := SetupOTel(context.Background(), enabled("songcard", insecure), "v1.2.3")
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			defer func() { _ = shutdown(context.Background()) }()

			if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
				t.Fatalf("expected *sdktrace.TracerProvider, got %T", otel.GetTracerProvider())
			}

			// A workflow span propagates through the installed W3C propagator.
			ctx, span := otel.Tracer("services/Workflow").Start(context.Background(), "RequestLyrics",
				trace.WithAttributes(attribute.String("card_id", "V1StGXR8_Z5jdHi6B-myT")))
			carrier := propagation.MapCarrier{}
			otel.GetTextMapPropagator().Inject(ctx, carrier)
			span.End()
			if carrier.Get("traceparent") == "" {
				t.Fatalf("traceparent not injected: %v", carrier)
			}
		})
	}
}

func TestSetupOTel_Errors(t *testing.T) {
	cases := []struct {
		name  string
		cfg   config.OTELConfig
		patch func(t *testing.T)
	}{
		{
			name: "missing service name",
			cfg:  enabled("", true),
		},
		{
			name: "exporter",
			cfg:  enabled("songcard", true),
			patch: func(t *testing.T) {
				orig := newOTLPExporterFn
				t.Cleanup(func() { newOTLPExporterFn = orig })
				newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
					return nil, errors.New("exporter down")
				}
			},
		},
		{
			name: "resource",
			cfg:  enabled("songcard", true),
			patch: func(t *testing.T) {
				orig := newServiceResourceFn
				t.Cleanup(func() { newServiceResourceFn = orig })
				newServiceResourceFn = func(context.Context, string, string) (*resource.Resource, error) {
					return nil, errors.New("bad resource")
				}
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			keepGlobals(t)
			if tc.patch != nil {
				tc.patch(t)
			}
			tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()

			if _, err := SetupOTel(context.Background(), tc.cfg, "v0"); err == nil {
				t.Fatalf("expected error")
			}
			if otel.GetTracerProvider() != tp || otel.GetTextMapPropagator() != prop {
				t.Fatalf("globals changed on failure")
			}
		})
	}
}

func TestSetupOTel_CanceledContextAndShutdown(t *testing.T) {
	keepGlobals(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // the exporter connects lazily

	shutdown, err := SetupOTel(ctx, enabled("songcard", true), "v1")
	if err != nil {
		t.Fatalf("unexpected err with canceled ctx: %v", err)
	}

	sctx, scancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer scancel()
	if err := shutdown(sctx); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
}
