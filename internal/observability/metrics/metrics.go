package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "possaas"

// Metrics exposes application-level Prometheus instruments.
type Metrics struct {
	provisioning *prometheus.CounterVec
	importRows   *prometheus.CounterVec
	registrar    *prometheus.CounterVec
	jobs         *prometheus.CounterVec
}

// New registers the instruments on the given registerer. A nil registerer
// falls back to the default Prometheus registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		provisioning: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_provisioning_total",
			Help:      "Tenant provisioning attempts by outcome.",
		}, []string{"outcome"}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Spreadsheet rows processed by entity and status.",
		}, []string{"entity", "status"}),
		registrar: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subdomain_registrar_calls_total",
			Help:      "Control-panel calls by server type, operation and result.",
		}, []string{"server_type", "operation", "result"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_job_runs_total",
			Help:      "Background job runs by job and result.",
		}, []string{"job", "result"}),
	}

	for _, c := range []prometheus.Collector{m.provisioning, m.importRows, m.registrar, m.jobs} {
		if err := reg.Register(c); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch existing := already.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					m.swap(c, existing)
					continue
				}
			}
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) swap(fresh prometheus.Collector, existing *prometheus.CounterVec) {
	switch fresh {
	case m.provisioning:
		m.provisioning = existing
	case m.importRows:
		m.importRows = existing
	case m.registrar:
		m.registrar = existing
	case m.jobs:
		m.jobs = existing
	}
}

// RecordProvisioning counts a provisioning attempt. Outcome is one of
// "success", "degraded" or "failed".
func (m *Metrics) RecordProvisioning(outcome string) {
	if m == nil {
		return
	}
	m.provisioning.WithLabelValues(strings.TrimSpace(outcome)).Inc()
}

// RecordImportRows adds n rows for the entity with the given status.
func (m *Metrics) RecordImportRows(entity, status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRows.WithLabelValues(entity, status).Add(float64(n))
}

func (m *Metrics) RecordRegistrarCall(serverType, operation string, ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.registrar.WithLabelValues(serverType, operation, result).Inc()
}

// RecordJob counts a scheduler job run. Result is "success", "error" or
// "timeout".
func (m *Metrics) RecordJob(job, result string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(job, result).Inc()
}
