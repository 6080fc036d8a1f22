package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	EnrollmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bioauth_enrollments_total",
			Help: "Total number of biometric enrollment attempts.",
		},
		[]string{"service", "result"},
	)

	PairTokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bioauth_pair_tokens_issued_total",
			Help: "Total number of pairing QR tokens issued.",
		},
		[]string{"service", "result"},
	)

	DeviceConfirmsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bioauth_device_confirms_total",
			Help: "Total number of device confirmation attempts.",
		},
		[]string{"service", "result"},
	)

	PairingCompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bioauth_pairing_completions_total",
			Help: "Total number of pairing completion attempts.",
		},
		[]string{"service", "result"},
	)

	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bioauth_logins_total",
			Help: "Total number of rotating-code login attempts.",
		},
		[]string{"service", "flow", "result"},
	)

	PendingPairings = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bioauth_pending_pairings",
			Help: "Number of pairing tokens currently awaiting confirmation.",
		},
		[]string{"service"},
	)
)

func MustRegister(serviceName string) {
	HTTPRequestsTotal = HTTPRequestsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	HTTPRequestDurationSeconds = HTTPRequestDurationSeconds.MustCurryWith(prometheus.Labels{"service": serviceName}).(*prometheus.HistogramVec)
	EnrollmentsTotal = EnrollmentsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	PairTokensIssuedTotal = PairTokensIssuedTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	DeviceConfirmsTotal = DeviceConfirmsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	PairingCompletionsTotal = PairingCompletionsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	LoginsTotal = LoginsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	PendingPairings = PendingPairings.MustCurryWith(prometheus.Labels{"service": serviceName})

	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		EnrollmentsTotal,
		PairTokensIssuedTotal,
		DeviceConfirmsTotal,
		PairingCompletionsTotal,
		LoginsTotal,
		PendingPairings,
	)
}
