// Package monitoring exposes the state of the policy routing tables
// as Prometheus metrics and diagnostic HTTP endpoints.
package monitoring

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/telekom/das-schiff-policy-router/pkg/vrf"
)

// Namespace defines the common namespace to be used by all metrics.
const namespace = "dspr"

var (
	scrapeDurationDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "scrape", "collector_duration_seconds"),
		"das_schiff_policy_router: Duration of a collector scrape.",
		[]string{"collector"},
		nil,
	)
	scrapeSuccessDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "scrape", "collector_success"),
		"das_schiff_policy_router: Whether a collector succeeded.",
		[]string{"collector"},
		nil,
	)
	collectorLogger = logrus.WithField("name", "collector")
)

var (
	factories              = make(map[string]func(*vrf.Manager) (Collector, error))
	initiatedCollectorsMtx = sync.Mutex{}
	initiatedCollectors    = make(map[string]Collector)
)

type typedFactoryDesc struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
}

func (d *typedFactoryDesc) mustNewConstMetric(value float64, labels ...string) prometheus.Metric {
	return prometheus.MustNewConstMetric(d.desc, d.valueType, value, labels...)
}

func registerCollector(collector string, factory func(*vrf.Manager) (Collector, error)) {
	factories[collector] = factory
}

// PolicyRouterCollector implements the prometheus.Collector interface
// over all registered collectors.
type PolicyRouterCollector struct {
	Collectors map[string]Collector
}

// NewPolicyRouterCollector creates a PolicyRouterCollector reading
// from the given VRF manager.
func NewPolicyRouterCollector(manager *vrf.Manager) (*PolicyRouterCollector, error) {
	collectors := make(map[string]Collector)
	initiatedCollectorsMtx.Lock()
	defer initiatedCollectorsMtx.Unlock()
	for key, factory := range factories {
		if collector, ok := initiatedCollectors[key]; ok {
			collectors[key] = collector
		} else {
			collector, err := factory(manager)
			if err != nil {
				return nil, err
			}
			collectors[key] = collector
			initiatedCollectors[key] = collector
		}
	}
	return &PolicyRouterCollector{Collectors: collectors}, nil
}

// Describe implements the prometheus.Collector interface.
func (PolicyRouterCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- scrapeDurationDesc
	ch <- scrapeSuccessDesc
}

// Collect implements the prometheus.Collector interface.
func (c PolicyRouterCollector) Collect(ch chan<- prometheus.Metric) {
	wg := sync.WaitGroup{}
	wg.Add(len(c.Collectors))
	for name, collector := range c.Collectors {
		go func(name string, collector Collector) {
			execute(name, collector, ch)
			wg.Done()
		}(name, collector)
	}
	wg.Wait()
}

func execute(name string, c Collector, ch chan<- prometheus.Metric) {
	begin := time.Now()
	err := c.Update(ch)
	duration := time.Since(begin)
	var success float64

	if err != nil {
		if IsNoDataError(err) {
			collectorLogger.WithError(err).WithFields(logrus.Fields{"name": name, "duration_seconds": duration.Seconds()}).Error("collector returned no data")
		} else {
			collectorLogger.WithError(err).WithFields(logrus.Fields{"name": name, "duration_seconds": duration.Seconds()}).Error("collector failed")
		}
		success = 0
	} else {
		success = 1
	}
	ch <- prometheus.MustNewConstMetric(scrapeDurationDesc, prometheus.GaugeValue, duration.Seconds(), name)
	ch <- prometheus.MustNewConstMetric(scrapeSuccessDesc, prometheus.GaugeValue, success, name)
}

// Collector is the interface a collector has to implement.
type Collector interface {
	// Get new metrics and expose them via prometheus registry.
	Update(ch chan<- prometheus.Metric) error
}

// ErrNoData indicates the collector found no data to collect, but had no other error.
var ErrNoData = errors.New("collector returned no data")

func IsNoDataError(err error) bool {
	return errors.Is(err, ErrNoData)
}
