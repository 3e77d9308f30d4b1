package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"tracehub.io/tracehub/internal/pkg/worker"
)

// PoolSource reports worker pool occupancy at scrape time.
type PoolSource interface {
	Stats() []worker.Stats
}

var (
	poolRunningDesc = prometheus.NewDesc("tracehub_worker_pool_running",
		"Tasks currently running on the pool.", []string{"pool"}, nil)
	poolCapacityDesc = prometheus.NewDesc("tracehub_worker_pool_capacity",
		"Maximum concurrent tasks on the pool.", []string{"pool"}, nil)
)

type poolCollector struct{ src PoolSource }

func (c poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolRunningDesc
	ch <- poolCapacityDesc
}

func (c poolCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.src.Stats() {
		ch <- prometheus.MustNewConstMetric(poolRunningDesc, prometheus.GaugeValue, float64(s.Running), s.Name)
		ch <- prometheus.MustNewConstMetric(poolCapacityDesc, prometheus.GaugeValue, float64(s.Cap), s.Name)
	}
}

// RegisterPools exports src's occupancy on reg. Registering a second source
// on the same registry is a no-op.
func RegisterPools(reg prometheus.Registerer, src PoolSource) error {
	err := reg.Register(poolCollector{src: src})
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}
