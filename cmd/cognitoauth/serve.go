package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/go-cognito/cognitoauth"
)

const tracerName = "github.com/go-cognito/cognitoauth/cmd/cognitoauth"

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an HTTP endpoint protected by the user pool",
		Long: `serve starts an HTTP server with these routes:

  /whoami   returns the principal of the bearer token (authorized)
  /healthz  liveness check
  /metrics  Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requirePool(); err != nil {
				return err
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	_ = a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func (a *app) serve(ctx context.Context) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(&logSpanProcessor{log: a.log}))
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			a.log.WithError(err).Warn("failed to shut down tracer provider")
		}
	}()

	handler, closeFn, err := a.newHandler(ctx, registry, tp)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	server := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", server.Addr).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.log.Info("server exited")
	return nil
}

// newHandler wires the authorizer into a chi router. The close function
// releases resources held by the authorizer.
func (a *app) newHandler(ctx context.Context, registry *prometheus.Registry, tp *sdktrace.TracerProvider) (http.Handler, func() error, error) {
	authorizer, closeFn, err := a.newAuthorizer(ctx, authorizerDeps{
		metrics: cognitoauth.NewPrometheusMetrics(registry),
		tracer:  tp.Tracer(tracerName),
	})
	if err != nil {
		return nil, nil, err
	}

	mw, err := cognitoauth.New(
		cognitoauth.WithUserPool(a.cfg.Region, a.cfg.UserPoolID),
		cognitoauth.WithAuthorizer(authorizer),
		cognitoauth.WithLogger(cognitoauth.NewLogrusLogger(a.log)),
		cognitoauth.WithValidateOnOptions(false),
	)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(a.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	r.With(mw.CheckToken).Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		principal, err := cognitoauth.GetPrincipal(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, cognitoauth.NewErrorResponse(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"principal": principal})
	})

	return r, closeFn, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start),
			}).Info("request served")
		})
	}
}

// logSpanProcessor writes finished spans to the log at debug level.
type logSpanProcessor struct {
	log logrus.FieldLogger
}

func (p *logSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	entry := p.log.WithFields(logrus.Fields{
		"span":     s.Name(),
		"trace_id": s.SpanContext().TraceID().String(),
		"duration": s.EndTime().Sub(s.StartTime()),
		"status":   s.Status().Code.String(),
	})
	if desc := s.Status().Description; desc != "" {
		entry = entry.WithField("status_description", desc)
	}
	entry.Debug("span finished")
}

func (p *logSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *logSpanProcessor) ForceFlush(context.Context) error { return nil }
