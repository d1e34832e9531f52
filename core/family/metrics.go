package family

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

const metricsNamespace = "equipment"

// Metrics counts the outcomes of imports.
type Metrics struct {
	Families    *prometheus.CounterVec
	Accounts    *prometheus.CounterVec
	Enrollments *prometheus.CounterVec
}

// NewMetrics creates the import counters and registers them with `reg` when given.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Families: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "import",
			Name:      "families_total",
			Help:      "Families processed by bulk imports, by notification status.",
		}, []string{"status"}),
		Accounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "import",
			Name:      "accounts_total",
			Help:      "Accounts resolved by bulk imports, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "import",
			Name:      "enrollment_batches_total",
			Help:      "Per-user enrollment batches run by bulk imports, by role and status.",
		}, []string{"role", "status"}),
	}
	if reg != nil {
		reg.MustRegister(m.Families, m.Accounts, m.Enrollments)
	}
	return m
}

func (m *Metrics) family(status core.Status) {
	if m == nil {
		return
	}
	m.Families.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) account(kind, outcome string) {
	if m == nil {
		return
	}
	m.Accounts.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) enrollment(role string, status core.Status) {
	if m == nil {
		return
	}
	m.Enrollments.WithLabelValues(role, string(status)).Inc()
}
