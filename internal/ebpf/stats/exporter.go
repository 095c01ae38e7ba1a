// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter drives the Prometheus and JSON diagnostic surfaces named in
// SPEC_FULL.md's DOMAIN STACK section. These are read-only: they
// expose the same counters the flat files carry, not a control
// channel, so they don't conflict with the spec's "no user-editable
// runtime control channel" non-goal.
type Exporter struct {
	collector *Collector
	interval  time.Duration
	logger    interface {
		Infof(format string, args ...any)
		Errorf(format string, args ...any)
	}

	promTotal   prometheus.Gauge
	promBlocked prometheus.Gauge
	promDomain  *prometheus.GaugeVec

	promServer *http.Server
	jsonServer *http.Server
}

// NewExporter builds an exporter around collector, ticking at interval.
func NewExporter(collector *Collector, interval time.Duration) *Exporter {
	e := &Exporter{
		collector: collector,
		interval:  interval,
		promTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ebaf_packets_total",
			Help: "Total packets seen by the classifier.",
		}),
		promBlocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ebaf_packets_blocked",
			Help: "Total packets dropped by the classifier.",
		}),
		promDomain: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ebaf_domain_drops",
			Help: "Per-domain aggregated drop count.",
		}, []string{"domain"}),
	}
	return e
}

// SetLogger attaches a logger for server/refresh errors. Accepts
// *charmbracelet/log.Logger or any type exposing Infof/Errorf.
func (e *Exporter) SetLogger(l interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}) {
	e.logger = l
}

// Start registers Prometheus collectors and launches the two HTTP
// servers plus the periodic refresh loop. addr values of "" disable
// the corresponding server.
func (e *Exporter) Start(ctx context.Context, promAddr, jsonAddr string) error {
	prometheus.MustRegister(e.promTotal, e.promBlocked, e.promDomain)

	if promAddr != "" {
		sm := http.NewServeMux()
		sm.Handle("/metrics", promhttp.Handler())
		e.promServer = &http.Server{Addr: promAddr, Handler: sm}
		go func() {
			if err := e.promServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				e.logf("prometheus server error: %v", err)
			}
		}()
	}

	if jsonAddr != "" {
		router := mux.NewRouter()
		router.HandleFunc("/stats", e.handleJSON).Methods(http.MethodGet)
		router.HandleFunc("/healthz", e.handleHealthz).Methods(http.MethodGet)
		e.jsonServer = &http.Server{Addr: jsonAddr, Handler: router}
		go func() {
			if err := e.jsonServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				e.logf("json endpoint error: %v", err)
			}
		}()
	}

	go e.periodicRefresh(ctx)
	return nil
}

func (e *Exporter) periodicRefresh(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.refresh()
		}
	}
}

func (e *Exporter) refresh() {
	snap, err := e.collector.Collect()
	if err != nil {
		e.logf("stats collect failed: %v", err)
		return
	}

	e.promTotal.Set(float64(snap.Total))
	e.promBlocked.Set(float64(snap.Blocked))
	e.promDomain.Reset()
	for _, d := range snap.Domains {
		e.promDomain.WithLabelValues(d.Name).Set(float64(d.Drops))
	}
}

func (e *Exporter) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := e.collector.Last()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (e *Exporter) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (e *Exporter) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Errorf(format, args...)
	}
}

// Stop shuts down both HTTP servers and unregisters Prometheus
// collectors; it is safe to call even if Start was never called.
func (e *Exporter) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if e.promServer != nil {
		_ = e.promServer.Shutdown(ctx)
	}
	if e.jsonServer != nil {
		_ = e.jsonServer.Shutdown(ctx)
	}

	prometheus.Unregister(e.promTotal)
	prometheus.Unregister(e.promBlocked)
	prometheus.Unregister(e.promDomain)
}
