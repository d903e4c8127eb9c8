package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	prometheus.MustRegister(AuthFlowsStarted)
	prometheus.MustRegister(AuthFlowsCompleted)
	prometheus.MustRegister(AuthFlowsFailed)
	prometheus.MustRegister(Deployments)
	prometheus.MustRegister(WebhookUpdates)
}

var AuthFlowsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "botgate_auth_flows_started_total",
	Help: "Authorization flows initiated, by provider",
}, []string{"provider"})

var AuthFlowsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "botgate_auth_flows_completed_total",
	Help: "Authorization flows that stored a token, by provider",
}, []string{"provider"})

var AuthFlowsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "botgate_auth_flows_failed_total",
	Help: "Authorization flows rejected or failed, by reason",
}, []string{"reason"})

var Deployments = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "botgate_deployments_total",
	Help: "Bot deployment validations, by platform and outcome",
}, []string{"platform", "outcome"})

var WebhookUpdates = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "botgate_webhook_updates_total",
	Help: "Inbound Telegram webhook updates received",
})

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
