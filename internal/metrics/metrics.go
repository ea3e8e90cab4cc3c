// Package metrics keeps the counters of a pipeline run in a private registry.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "ans_ingestion"

type Pipeline struct {
	registry        *prometheus.Registry
	files           *prometheus.CounterVec
	rowsInserted    *prometheus.CounterVec
	rowsFiltered    *prometheus.CounterVec
	downloads       *prometheus.CounterVec
	downloadedBytes prometheus.Counter
}

func New() *Pipeline {
	p := &Pipeline{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Source files processed, by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		rowsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_inserted_total",
			Help:      "Rows committed to the database.",
		}, []string{"dataset"}),
		rowsFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_filtered_total",
			Help:      "Rows dropped because they reference an unknown operator.",
		}, []string{"dataset"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Download attempts, by outcome.",
		}, []string{"outcome"}),
		downloadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloaded_bytes_total",
			Help:      "Bytes written by successful downloads.",
		}),
	}

	p.registry.MustRegister(p.files, p.rowsInserted, p.rowsFiltered, p.downloads, p.downloadedBytes)
	return p
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// FileProcessed records one file of a dataset. Nil receivers are no-ops.
func (p *Pipeline) FileProcessed(dataset string, inserted, filtered int64, err error) {
	if p == nil {
		return
	}
	p.files.WithLabelValues(dataset, outcome(err)).Inc()
	p.rowsInserted.WithLabelValues(dataset).Add(float64(inserted))
	p.rowsFiltered.WithLabelValues(dataset).Add(float64(filtered))
}

func (p *Pipeline) Download(bytes int64, err error) {
	if p == nil {
		return
	}
	p.downloads.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		p.downloadedBytes.Add(float64(bytes))
	}
}

func (p *Pipeline) Registry() *prometheus.Registry {
	return p.registry
}

// Push sends the current values to a Pushgateway, grouped by run.
func (p *Pipeline) Push(ctx context.Context, gatewayURL, runID string) error {
	if p == nil || gatewayURL == "" {
		return nil
	}
	err := push.New(gatewayURL, namespace).
		Gatherer(p.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
