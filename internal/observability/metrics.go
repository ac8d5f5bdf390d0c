package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/mavctl/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mavctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mavctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	packetsAccepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mavctl",
			Subsystem: "link",
			Name:      "packets_accepted_total",
			Help:      "Packets that passed descriptor, checksum and signature checks.",
		},
		[]string{"node", "version", "signed"},
	)
	packetsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mavctl",
			Subsystem: "link",
			Name:      "packets_rejected_total",
			Help:      "Candidate packets dropped by the receiver.",
		},
		[]string{"node", "reason"},
	)
	publishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mavctl",
			Subsystem: "bridge",
			Name:      "publishes_total",
			Help:      "Packet publish attempts by outcome.",
		},
		[]string{"node", "success"},
	)
	publishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mavctl",
			Subsystem: "bridge",
			Name:      "publish_duration_seconds",
			Help:      "Packet publish duration in seconds, retries included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, packetsAccepted, packetsRejected, publishes, publishDuration)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordPublish(node string, duration time.Duration, success bool) {
	RegisterMetrics()
	successLabel := strconv.FormatBool(success)
	publishes.WithLabelValues(node, successLabel).Inc()
	publishDuration.WithLabelValues(node, successLabel).Observe(duration.Seconds())
}

// LinkMetrics records receiver outcomes for one node. It satisfies
// session.Observer.
type LinkMetrics struct {
	Node string
}

func (m LinkMetrics) PacketAccepted(p *protocol.Packet) {
	RegisterMetrics()
	packetsAccepted.WithLabelValues(m.Node, p.Version().String(), strconv.FormatBool(p.IsSigned())).Inc()
}

func (m LinkMetrics) PacketRejected(reason string) {
	RegisterMetrics()
	packetsRejected.WithLabelValues(m.Node, reason).Inc()
}
