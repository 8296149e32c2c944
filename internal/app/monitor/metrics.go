package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pingCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slping_pings_total",
		Help: "The total number of status pings per target and result",
	}, []string{"target", "result"})
	pingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slping_ping_duration_seconds",
		Help:    "Duration of whole status pings including the dial",
		Buckets: prometheus.DefBuckets,
	}, []string{"target"})
	targetUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slping_target_up",
		Help: "Whether the last ping of a target succeeded",
	}, []string{"target"})
	playersOnline = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slping_players_online",
		Help: "The number of online players reported by a target",
	}, []string{"target"})
	playersMax = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slping_players_max",
		Help: "The player limit reported by a target",
	}, []string{"target"})
	latency = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slping_latency_seconds",
		Help: "The ping/pong round trip time of a target",
	}, []string{"target"})
)

func observePing(id TargetID, d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	pingCount.With(prometheus.Labels{"target": string(id), "result": result}).Inc()
	pingDuration.WithLabelValues(string(id)).Observe(d.Seconds())
}

func recordStatus(s Status) {
	id := string(s.TargetID)
	if !s.Online {
		targetUp.WithLabelValues(id).Set(0)
		return
	}

	targetUp.WithLabelValues(id).Set(1)
	playersOnline.WithLabelValues(id).Set(float64(s.Result.Status.Players.Online))
	playersMax.WithLabelValues(id).Set(float64(s.Result.Status.Players.Max))
	latency.WithLabelValues(id).Set(s.Result.Latency.Seconds())
}

func forgetTarget(id TargetID) {
	labels := prometheus.Labels{"target": string(id)}
	pingCount.DeletePartialMatch(labels)
	pingDuration.DeleteLabelValues(string(id))
	targetUp.DeleteLabelValues(string(id))
	playersOnline.DeleteLabelValues(string(id))
	playersMax.DeleteLabelValues(string(id))
	latency.DeleteLabelValues(string(id))
}
