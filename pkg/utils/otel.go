// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	// OTelProtocolGRPC selects the OTLP/gRPC exporters
	OTelProtocolGRPC = "grpc"
	// OTelProtocolHTTP selects the OTLP/HTTP exporters
	OTelProtocolHTTP = "http"

	// OTelExporterOTLP enables an exporter
	OTelExporterOTLP = "otlp"
	// OTelExporterNone disables an exporter
	OTelExporterNone = "none"

	// OTelDefaultPropagators is used when OTEL_PROPAGATORS is unset
	OTelDefaultPropagators = "tracecontext,baggage,jaeger"

	defaultOTelServiceName = "lfx-v2-mailchimp-sync-service"
)

// OTelConfig holds the OpenTelemetry SDK settings
type OTelConfig struct {
	ServiceName       string
	ServiceVersion    string
	Protocol          string
	Endpoint          string
	Insecure          bool
	TracesExporter    string
	TracesSampleRatio float64
	MetricsExporter   string
	LogsExporter      string
	Propagators       string
}

// OTelConfigFromEnv reads the OTEL_* environment variables
func OTelConfigFromEnv() OTelConfig {
	cfg := OTelConfig{
		ServiceName:       envOr("OTEL_SERVICE_NAME", defaultOTelServiceName),
		ServiceVersion:    os.Getenv("OTEL_SERVICE_VERSION"),
		Protocol:          envOr("OTEL_EXPORTER_OTLP_PROTOCOL", OTelProtocolGRPC),
		Endpoint:          os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Insecure:          os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
		TracesExporter:    envOr("OTEL_TRACES_EXPORTER", OTelExporterNone),
		TracesSampleRatio: 1.0,
		MetricsExporter:   envOr("OTEL_METRICS_EXPORTER", OTelExporterNone),
		LogsExporter:      envOr("OTEL_LOGS_EXPORTER", OTelExporterNone),
		Propagators:       envOr("OTEL_PROPAGATORS", OTelDefaultPropagators),
	}

	if raw := os.Getenv("OTEL_TRACES_SAMPLE_RATIO"); raw != "" {
		ratio, err := strconv.ParseFloat(raw, 64)
		switch {
		case err != nil:
			slog.Warn("invalid OTEL_TRACES_SAMPLE_RATIO, using 1.0", "value", raw, "error", err)
		case ratio < 0 || ratio > 1:
			slog.Warn("OTEL_TRACES_SAMPLE_RATIO out of range, using 1.0", "value", raw)
		default:
			cfg.TracesSampleRatio = ratio
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// SetupOTelSDK bootstraps the OpenTelemetry pipeline from the environment.
// The returned shutdown function must be called before the process exits.
func SetupOTelSDK(ctx context.Context) (func(context.Context) error, error) {
	return SetupOTelSDKWithConfig(ctx, OTelConfigFromEnv())
}

// SetupOTelSDKWithConfig bootstraps the OpenTelemetry pipeline from cfg
func SetupOTelSDKWithConfig(ctx context.Context, cfg OTelConfig) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	shutdown = func(ctx context.Context) error {
		var errs error
		for _, fn := range shutdownFuncs {
			errs = errors.Join(errs, fn(ctx))
		}
		shutdownFuncs = nil
		return errs
	}

	handleErr := func(inErr error) {
		err = errors.Join(inErr, shutdown(ctx))
	}

	res, err := newResource(cfg)
	if err != nil {
		handleErr(err)
		return shutdown, err
	}

	prop, err := newPropagator(cfg)
	if err != nil {
		handleErr(err)
		return shutdown, err
	}
	otel.SetTextMapPropagator(prop)

	if isExporterEnabled(cfg.TracesExporter) {
		tp, errTP := newTracerProvider(ctx, cfg, res)
		if errTP != nil {
			handleErr(errTP)
			return shutdown, err
		}
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
		otel.SetTracerProvider(tp)
	}

	if isExporterEnabled(cfg.MetricsExporter) {
		mp, errMP := newMeterProvider(ctx, cfg, res)
		if errMP != nil {
			handleErr(errMP)
			return shutdown, err
		}
		shutdownFuncs = append(shutdownFuncs, mp.Shutdown)
		otel.SetMeterProvider(mp)
	}

	if isExporterEnabled(cfg.LogsExporter) {
		lp, errLP := newLoggerProvider(ctx, cfg, res)
		if errLP != nil {
			handleErr(errLP)
			return shutdown, err
		}
		shutdownFuncs = append(shutdownFuncs, lp.Shutdown)
		global.SetLoggerProvider(lp)
	}

	return shutdown, nil
}

func isExporterEnabled(exporter string) bool {
	return exporter != "" && exporter != OTelExporterNone
}

// endpointURL prepends a scheme to bare host[:port] endpoints
func endpointURL(raw string, insecure bool) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if insecure {
		return "http://" + raw
	}
	return "https://" + raw
}

func newResource(cfg OTelConfig) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		),
	)
}

func newPropagator(cfg OTelConfig) (propagation.TextMapPropagator, error) {
	var props []propagation.TextMapPropagator
	for _, name := range strings.Split(cfg.Propagators, ",") {
		switch strings.TrimSpace(name) {
		case "":
		case "tracecontext":
			props = append(props, propagation.TraceContext{})
		case "baggage":
			props = append(props, propagation.Baggage{})
		case "jaeger":
			props = append(props, jaeger.Jaeger{})
		default:
			return nil, fmt.Errorf("unsupported propagator %q", name)
		}
	}
	return propagation.NewCompositeTextMapPropagator(props...), nil
}

func newTracerProvider(ctx context.Context, cfg OTelConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	if cfg.Protocol == OTelProtocolHTTP {
		var opts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(endpointURL(cfg.Endpoint, cfg.Insecure)))
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	} else {
		var opts []otlptracegrpc.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpointURL(endpointURL(cfg.Endpoint, cfg.Insecure)))
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	}
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.TracesSampleRatio))),
		sdktrace.WithBatcher(exporter),
	), nil
}

func newMeterProvider(ctx context.Context, cfg OTelConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	var (
		exporter sdkmetric.Exporter
		err      error
	)
	if cfg.Protocol == OTelProtocolHTTP {
		var opts []otlpmetrichttp.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpointURL(endpointURL(cfg.Endpoint, cfg.Insecure)))
		}
		exporter, err = otlpmetrichttp.New(ctx, opts...)
	} else {
		var opts []otlpmetricgrpc.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpointURL(endpointURL(cfg.Endpoint, cfg.Insecure)))
		}
		exporter, err = otlpmetricgrpc.New(ctx, opts...)
	}
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	), nil
}

func newLoggerProvider(ctx context.Context, cfg OTelConfig, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	var (
		exporter sdklog.Exporter
		err      error
	)
	if cfg.Protocol == OTelProtocolHTTP {
		var opts []otlploghttp.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlploghttp.WithEndpointURL(endpointURL(cfg.Endpoint, cfg.Insecure)))
		}
		exporter, err = otlploghttp.New(ctx, opts...)
	} else {
		var opts []otlploggrpc.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlploggrpc.WithEndpointURL(endpointURL(cfg.Endpoint, cfg.Insecure)))
		}
		exporter, err = otlploggrpc.New(ctx, opts...)
	}
	if err != nil {
		return nil, err
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	), nil
}
