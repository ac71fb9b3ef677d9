package service

import "github.com/prometheus/client_golang/prometheus"

var (
	purchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_purchases_total",
			Help: "Purchase attempts by terminal state",
		},
		[]string{"state"},
	)
	rewardsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "economy_rewards_granted_total",
			Help: "Reward grants that credited a balance",
		},
	)
	reconciledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "economy_reconciled_purchases_total",
			Help: "Stuck charged purchases refunded by the reconciler",
		},
	)
)

func init() {
	prometheus.MustRegister(purchasesTotal)
	prometheus.MustRegister(rewardsTotal)
	prometheus.MustRegister(reconciledTotal)
}
