package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the API's prometheus collectors. It satisfies the event
// recorder the listing and chat services accept.
type Collector struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	messagesSent    prometheus.Counter
	listingsCreated *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "donation_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "donation_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "donation_messages_sent_total",
			Help: "Direct messages stored.",
		}),
		listingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "donation_listings_created_total",
			Help: "Listings created by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.messagesSent,
		c.listingsCreated,
	)

	return c
}

func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) MessageSent() {
	c.messagesSent.Inc()
}

func (c *Collector) ListingCreated(kind string) {
	c.listingsCreated.WithLabelValues(kind).Inc()
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
