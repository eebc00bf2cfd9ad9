package handlers

import "github.com/prometheus/client_golang/prometheus"

type CampaignMetrics struct {
	CampaignOps  *prometheus.CounterVec
	SendAttempts *prometheus.CounterVec
	TrackingHits *prometheus.CounterVec
	SocialPosts  *prometheus.CounterVec
}

func (m *CampaignMetrics) IncOp(op, status string) {
	if m == nil || m.CampaignOps == nil {
		return
	}

	m.CampaignOps.WithLabelValues(op, status).Inc()
}

func (m *CampaignMetrics) IncSend(status string) {
	if m == nil || m.SendAttempts == nil {
		return
	}

	m.SendAttempts.WithLabelValues(status).Inc()
}

func (m *CampaignMetrics) IncTracking(kind string) {
	if m == nil || m.TrackingHits == nil {
		return
	}

	m.TrackingHits.WithLabelValues(kind).Inc()
}

func (m *CampaignMetrics) IncSocial(status string) {
	if m == nil || m.SocialPosts == nil {
		return
	}

	m.SocialPosts.WithLabelValues(status).Inc()
}
