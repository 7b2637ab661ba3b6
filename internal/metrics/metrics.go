// Package metrics counts what a translation run did and exports the counts
// in the Prometheus text format.
//
// suitcase is a batch command, so nothing is served over HTTP. A run's
// counters are written once, on exit, to a node_exporter textfile collector
// file.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"suitcase/internal/service"
)

// Metrics holds the counters of one suitcase invocation
type Metrics struct {
	registry     *prometheus.Registry
	documents    *prometheus.CounterVec
	filesWritten *prometheus.CounterVec
	filesRead    prometheus.Counter
	bytesWritten prometheus.Counter
	bytesRead    prometheus.Counter
}

// New creates the counters on a private registry
func New() *Metrics {
	documents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "suitcase_documents_total",
		Help: "Documents emitted by ingest or consumed by export.",
	}, []string{"direction", "kind"})
	filesWritten := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "suitcase_files_written_total",
		Help: "Files written by export, by document kind.",
	}, []string{"kind"})
	filesRead := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "suitcase_files_read_total",
		Help: "Native image files decoded by ingest.",
	})
	bytesWritten := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "suitcase_bytes_written_total",
		Help: "Bytes written by export.",
	})
	bytesRead := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "suitcase_bytes_read_total",
		Help: "Bytes of native image files decoded by ingest.",
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(documents, filesWritten, filesRead, bytesWritten, bytesRead)

	return &Metrics{
		registry:     registry,
		documents:    documents,
		filesWritten: filesWritten,
		filesRead:    filesRead,
		bytesWritten: bytesWritten,
		bytesRead:    bytesRead,
	}
}

// Registry returns the registry holding the counters
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Subscribe counts every event published on bus
func (m *Metrics) Subscribe(bus *service.EventBus) {
	bus.Subscribe(m.Observe)
}

// Observe updates the counters for one event
func (m *Metrics) Observe(e service.Event) {
	switch e.Type {
	case service.EventDocument:
		p, ok := e.Payload.(service.DocumentPayload)
		if !ok {
			return
		}
		m.documents.WithLabelValues(string(p.Direction), string(p.Kind)).Inc()

	case service.EventFileWritten:
		p, ok := e.Payload.(service.FilePayload)
		if !ok {
			return
		}
		m.filesWritten.WithLabelValues(string(p.Kind)).Inc()
		m.bytesWritten.Add(float64(p.Bytes))

	case service.EventFileRead:
		p, ok := e.Payload.(service.FilePayload)
		if !ok {
			return
		}
		m.filesRead.Inc()
		m.bytesRead.Add(float64(p.Bytes))
	}
}

// WriteTextfile atomically writes the current counters to path in the
// Prometheus text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
