package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"forum/pkg/voting"
)

var (
	// VotesTotal counts vote intents by direction and result.
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_votes_total",
			Help: "Vote intents by direction and result",
		},
		[]string{"direction", "result"},
	)

	// FeedRefetchTotal counts forced store fetches for Latest/Oldest.
	FeedRefetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_feed_refetch_total",
			Help: "Feed re-fetches bypassing the cache, by status",
		},
		[]string{"status"},
	)

	FeedViewsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forum_feed_views_active",
			Help: "Live feed views over websocket",
		},
	)

	// OtpVerificationsTotal counts code checks by outcome.
	OtpVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_otp_verifications_total",
			Help: "One-time code verifications by outcome",
		},
		[]string{"outcome"},
	)

	OtpIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forum_otp_issued_total",
			Help: "One-time codes generated",
		},
	)
)

// ObserveVote is meant for post.Coordinator.OnApply.
func ObserveVote(d voting.Direction, err error) {
	VotesTotal.WithLabelValues(d.String(), result(err)).Inc()
}

// ObserveRefetch records a Latest/Oldest fetch.
func ObserveRefetch(err error) {
	FeedRefetchTotal.WithLabelValues(result(err)).Inc()
}

// ObserveVerify records a code check: ok, rejected or error.
func ObserveVerify(ok bool, err error) {
	switch {
	case err != nil:
		OtpVerificationsTotal.WithLabelValues("error").Inc()
	case ok:
		OtpVerificationsTotal.WithLabelValues("ok").Inc()
	default:
		OtpVerificationsTotal.WithLabelValues("rejected").Inc()
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
