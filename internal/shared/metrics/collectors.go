package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Coletores de domínio da plataforma
// Registrados no registry default; expostos pelo servidor de /metrics
var (
	RoundsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_rounds_resolved_total",
		Help: "Rodadas resolvidas, por resultado (win, loss, error).",
	}, []string{"result"})

	PayoutCents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_payout_cents_total",
		Help: "Total pago aos jogadores em centavos.",
	})

	StakeCents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_stake_cents_total",
		Help: "Total apostado em centavos.",
	})

	PayoutCapHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_payout_cap_hits_total",
		Help: "Rodadas em que o teto global de pagamento foi aplicado.",
	})

	AuditMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_audit_mismatches_total",
		Help: "Divergências encontradas pelo auditor de liquidação. Deve ser sempre zero.",
	})

	Purchases = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shop_purchases_total",
		Help: "Compras concluídas na loja.",
	})
)
