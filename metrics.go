package huidu

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics, istemcinin Prometheus metrikleridir.
// nil *Metrics güvenle kullanılabilir; bu durumda hiçbir şey kaydedilmez.
type Metrics struct {
	// Tarama metrikleri
	Scans              *prometheus.CounterVec
	DevicesFound       prometheus.Gauge
	DatagramsDiscarded prometheus.Counter

	// Komut metrikleri
	Exchanges        *prometheus.CounterVec
	ExchangeDuration *prometheus.HistogramVec
	BytesSent        prometheus.Counter
	BytesReceived    prometheus.Counter
}

// NewMetrics, metrikleri oluşturur ve reg'e kaydeder.
// reg nil ise metrikler oluşturulur ama kaydedilmez.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Scans: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "huidu_scans_total",
			Help: "Total number of device scans by result",
		}, []string{"result"}),
		DevicesFound: factory.NewGauge(prometheus.GaugeOpts{
			Name: "huidu_devices_found",
			Help: "Number of devices found by the last scan",
		}),
		DatagramsDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "huidu_discovery_datagrams_discarded_total",
			Help: "Total number of discovery datagrams with wrong length or command",
		}),
		Exchanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "huidu_exchanges_total",
			Help: "Total number of SDK command exchanges by method and result",
		}, []string{"method", "result"}),
		ExchangeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "huidu_exchange_duration_seconds",
			Help:    "Duration of SDK command exchanges",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}, []string{"method"}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "huidu_payload_bytes_sent_total",
			Help: "Total XML payload bytes sent",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "huidu_payload_bytes_received_total",
			Help: "Total XML payload bytes received",
		}),
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *Metrics) observeScan(found int, err error) {
	if m == nil {
		return
	}
	m.Scans.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		m.DevicesFound.Set(float64(found))
	}
}

func (m *Metrics) observeDiscard() {
	if m == nil {
		return
	}
	m.DatagramsDiscarded.Inc()
}

func (m *Metrics) observeExchange(method string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Exchanges.WithLabelValues(method, resultLabel(err)).Inc()
	m.ExchangeDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func (m *Metrics) addSent(n int) {
	if m == nil {
		return
	}
	m.BytesSent.Add(float64(n))
}

func (m *Metrics) addReceived(n int) {
	if m == nil {
		return
	}
	m.BytesReceived.Add(float64(n))
}
