package hmap

import "github.com/prometheus/client_golang/prometheus"

// Metrics is a Prometheus collector over a Map's diagnostic state: live
// entry count, current Space size exponent, load factor and whether a
// migration is in flight. It never touches the Map's hot path -- each
// gauge pulls its value straight off the Map at scrape time, so
// registering a Metrics costs nothing between scrapes.
type Metrics struct {
	count     prometheus.GaugeFunc
	log2size  prometheus.GaugeFunc
	load      prometheus.GaugeFunc
	migrating prometheus.GaugeFunc
}

// NewMetrics builds a Metrics for m, labeling every gauge with name
// (typically the call site's identifier for this particular Map
// instance, e.g. a cache name). It does not register anything; call
// Register to attach it to a prometheus.Registerer.
func NewMetrics(m *Map, name string) *Metrics {
	labels := prometheus.Labels{"map": name}

	return &Metrics{
		count: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "hmap",
			Name:        "entries",
			Help:        "Number of live entries in the map.",
			ConstLabels: labels,
		}, func() float64 { return float64(m.Count()) }),

		log2size: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "hmap",
			Name:        "current_log2_size",
			Help:        "Size exponent of the current Space (bucket count is 2^this).",
			ConstLabels: labels,
		}, func() float64 { return float64(m.CurrentLog2Size()) }),

		load: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "hmap",
			Name:        "load",
			Help:        "Live entries divided by the current Space's bucket count.",
			ConstLabels: labels,
		}, m.Load),

		migrating: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "hmap",
			Name:        "migrating",
			Help:        "1 while a grow or shrink is draining the previous Space, 0 otherwise.",
			ConstLabels: labels,
		}, func() float64 {
			if m.Migrating() {
				return 1
			}
			return 0
		}),
	}
}

// Register attaches every gauge to reg. It mirrors
// prometheus.Registerer.Register's own return value for the first gauge
// that fails to register, so callers can tell a duplicate-registration
// error from a transient one without inspecting each gauge individually.
func (mx *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{mx.count, mx.log2size, mx.load, mx.migrating} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Unregister detaches every gauge from reg, ignoring gauges that were
// never registered there.
func (mx *Metrics) Unregister(reg prometheus.Registerer) {
	reg.Unregister(mx.count)
	reg.Unregister(mx.log2size)
	reg.Unregister(mx.load)
	reg.Unregister(mx.migrating)
}
