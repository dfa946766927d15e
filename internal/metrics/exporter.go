// Package metrics exports Prometheus metrics derived from the activity log.
//
// The exporter does not share state with the sequencer: it rebuilds its view
// from scratch on every scan by matching the wire-contract substrings in the
// log file (see internal/botlog). That keeps the two sides independent as
// long as the line format holds.
package metrics

import (
	"bufio"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var netProfitRe = regexp.MustCompile(`Net profit: ([\d.]+) ETH`)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Exporter scrapes the activity log into Prometheus gauges.
type Exporter struct {
	logPath  string
	registry *prometheus.Registry

	opportunities prometheus.Gauge
	executed      prometheus.Gauge
	failed        prometheus.Gauge
	totalProfit   prometheus.Gauge
	lastProfit    prometheus.Gauge
	lastExecution prometheus.Gauge
}

// New creates an exporter over the given log file.
func New(logPath string) *Exporter {
	e := &Exporter{
		logPath:  logPath,
		registry: prometheus.NewRegistry(),

		opportunities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arbitrage_opportunities_total",
			Help: "Total number of arbitrage opportunities found",
		}),
		executed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arbitrage_executed_total",
			Help: "Total number of executed arbitrages",
		}),
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arbitrage_failed_total",
			Help: "Total number of failed arbitrages",
		}),
		totalProfit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arbitrage_total_profit_eth",
			Help: "Total profit in ETH",
		}),
		lastProfit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arbitrage_last_profit_eth",
			Help: "Last arbitrage profit in ETH",
		}),
		lastExecution: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arbitrage_last_execution_timestamp",
			Help: "Unix timestamp of last successful execution",
		}),
	}

	e.registry.MustRegister(
		e.opportunities,
		e.executed,
		e.failed,
		e.totalProfit,
		e.lastProfit,
		e.lastExecution,
	)
	return e
}

// scan re-reads the whole log and recomputes every metric. Counts are
// modelled as gauges because each scan starts from zero.
func (e *Exporter) scan() error {
	f, err := os.Open(e.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // not written yet
		}
		return err
	}
	defer f.Close()

	var (
		opportunities, executed, failed float64
		totalProfit, lastProfit         float64
		lastExecution                   float64
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.Contains(line, "Arbitrage opportunity found") {
			opportunities++
		}
		if strings.Contains(line, "Arbitrage executed successfully") {
			executed++
			if ts, ok := lineTimestamp(line); ok {
				lastExecution = float64(ts.Unix())
			}
		}
		if strings.Contains(line, "Error in monitoring loop") {
			failed++
		}

		if m := netProfitRe.FindStringSubmatch(line); m != nil {
			if profit, err := strconv.ParseFloat(m[1], 64); err == nil {
				lastProfit = profit
				totalProfit += profit
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	e.opportunities.Set(opportunities)
	e.executed.Set(executed)
	e.failed.Set(failed)
	e.totalProfit.Set(totalProfit)
	e.lastProfit.Set(lastProfit)
	e.lastExecution.Set(lastExecution)
	return nil
}

// lineTimestamp extracts the bracketed UTC timestamp prefix of a log line.
func lineTimestamp(line string) (time.Time, bool) {
	if !strings.HasPrefix(line, "[") {
		return time.Time{}, false
	}
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return time.Time{}, false
	}
	ts, err := time.Parse(timestampLayout, line[1:end])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Handler returns the /metrics handler, rescanning the log on each pull.
func (e *Exporter) Handler() http.Handler {
	promHandler := promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := e.scan(); err != nil {
			log.Error().Err(err).Msg("Failed to scan activity log")
		}
		promHandler.ServeHTTP(w, r)
	})
}

// Serve runs the metrics HTTP server on addr with /metrics and /health.
func (e *Exporter) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	log.Info().Str("addr", addr).Msg("Metrics server listening")
	return http.ListenAndServe(addr, mux)
}
