package monitoring

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/telekom/das-schiff-policy-router/pkg/route"
	"github.com/telekom/das-schiff-policy-router/pkg/vrf"
)

const rtCollectorName = "routingtable"

type routingTableCollector struct {
	routesDesc    typedFactoryDesc
	vrfTablesDesc typedFactoryDesc
	manager       *vrf.Manager
	logger        *logrus.Entry
}

func init() {
	registerCollector(rtCollectorName, NewRoutingTableCollector)
}

// NewRoutingTableCollector returns a Collector exposing the per-VRF
// route counts of the policy routing tables.
func NewRoutingTableCollector(manager *vrf.Manager) (Collector, error) {
	collector := routingTableCollector{
		routesDesc: typedFactoryDesc{
			desc: prometheus.NewDesc(
				prometheus.BuildFQName(namespace, rtCollectorName, "routes"),
				"The number of route entries currently in the policy routing tables.",
				[]string{"vrf", "protocol"},
				nil,
			),
			valueType: prometheus.GaugeValue,
		},
		vrfTablesDesc: typedFactoryDesc{
			desc: prometheus.NewDesc(
				prometheus.BuildFQName(namespace, rtCollectorName, "vrf_tables"),
				"The number of VRF routing tables.",
				nil,
				nil,
			),
			valueType: prometheus.GaugeValue,
		},
		manager: manager,
		logger:  logrus.WithField("name", "routingtable.collector"),
	}

	return &collector, nil
}

func (c *routingTableCollector) Update(ch chan<- prometheus.Metric) error {
	routeSummaries := c.manager.ListRouteInformation()
	for _, routeSummary := range routeSummaries {
		ch <- c.routesDesc.mustNewConstMetric(
			float64(routeSummary.Quantity),
			fmt.Sprint(routeSummary.VrfID),
			route.GetProtocolName(routeSummary.Protocol),
		)
	}
	ch <- c.vrfTablesDesc.mustNewConstMetric(float64(len(c.manager.VrfIDs())))
	return nil
}
