package dto

import (
	"time"

	"github.com/radieske/fruit-slice-platform/internal/game-service/engine"
)

// OpenSessionResponse publica o compromisso da seed do servidor
type OpenSessionResponse struct {
	SessionID      string    `json:"session_id"`
	ServerSeedHash string    `json:"server_seed_hash"`
	StakeCents     int64     `json:"stake_cents"`
	CreatedAt      time.Time `json:"created_at"`
}

// SessionSummary é uma sessão na listagem de recentes
type SessionSummary struct {
	ID         string     `json:"id"`
	StakeCents int64      `json:"stake_cents"`
	CreatedAt  time.Time  `json:"created_at"`
	EndedAt    *time.Time `json:"ended_at"`
	Status     string     `json:"status"` // "active" | "completed"
}

// SessionListResponse é a listagem de sessões recentes
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

// SessionDetailResponse é uma sessão individual
// Enquanto aberta, só o hash do compromisso é exposto
type SessionDetailResponse struct {
	SessionSummary
	ServerSeedHash string `json:"server_seed_hash"`
}

// RoundOutcome é o resultado exposto de uma rodada
type RoundOutcome struct {
	Prizes           []engine.Prize `json:"prizes"`
	TotalPayoutCents int64          `json:"total_payout_cents"`
	Events           []string       `json:"events"`
}

// ResolveRoundResponse revela a seed para verificação independente
type ResolveRoundResponse struct {
	RoundID           string       `json:"round_id"`
	Outcome           RoundOutcome `json:"outcome"`
	BalanceAfterCents int64        `json:"balance_after_cents"`
	ServerSeed        string       `json:"server_seed"`
	RTP               float64      `json:"rtp"`
}

// RoundDetailResponse é o registro de uma rodada já resolvida, com o
// material completo de verificação do compromisso
type RoundDetailResponse struct {
	RoundID        string       `json:"round_id"`
	SessionID      string       `json:"session_id"`
	ClientSeed     string       `json:"client_seed"`
	ServerSeed     string       `json:"server_seed"`
	ServerSeedHash string       `json:"server_seed_hash"`
	Outcome        RoundOutcome `json:"outcome"`
	StakeCents     int64        `json:"stake_cents"`
	PayoutCents    int64        `json:"payout_cents"`
	CreatedAt      time.Time    `json:"created_at"`
}

// WalletResponse é o saldo atual do usuário
type WalletResponse struct {
	BalanceCents int64  `json:"balance_cents"`
	Currency     string `json:"currency"`
}

// TransactionView é um lançamento do extrato na API
type TransactionView struct {
	ID                string         `json:"id"`
	Type              string         `json:"type"`
	AmountCents       int64          `json:"amount_cents"`
	BalanceAfterCents int64          `json:"balance_after_cents"`
	Reference         string         `json:"reference"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Pagination é o envelope de paginação do extrato
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// TransactionListResponse é o extrato paginado
type TransactionListResponse struct {
	Transactions []TransactionView `json:"transactions"`
	Pagination   Pagination        `json:"pagination"`
}

// ItemView é um item do catálogo na API
type ItemView struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"price_cents"`
	Description string `json:"description"`
}

// ItemListResponse é o catálogo ativo
type ItemListResponse struct {
	Items []ItemView `json:"items"`
}

// PurchaseResponse é a confirmação de uma compra
type PurchaseResponse struct {
	PurchaseID        string   `json:"purchase_id"`
	Item              ItemView `json:"item"`
	Quantity          int      `json:"quantity"`
	TotalCostCents    int64    `json:"total_cost_cents"`
	BalanceAfterCents int64    `json:"balance_after_cents"`
}
