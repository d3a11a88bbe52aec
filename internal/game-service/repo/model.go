package repo

import (
	"time"

	"github.com/radieske/fruit-slice-platform/internal/game-service/engine"
)

// SessionMetadata é o registro jsonb guardado junto da sessão.
// A server_seed fica secreta até a resolução; só o hash é publicado.
type SessionMetadata struct {
	ServerSeed     string `json:"server_seed"`
	ServerSeedHash string `json:"server_seed_hash"`
	CreatedAt      string `json:"created_at"`
}

// Session é uma aposta comprometida aguardando exatamente uma resolução
type Session struct {
	ID         string
	UserID     string
	StakeCents int64
	Metadata   SessionMetadata
	CreatedAt  time.Time
	EndedAt    *time.Time // nil enquanto aberta
}

// Round é o registro imutável de uma sessão resolvida
type Round struct {
	ID             string
	SessionID      string
	UserID         string
	ClientSeed     string
	ServerSeed     string
	ServerSeedHash string
	Outcome        engine.Outcome
	StakeCents     int64
	PayoutCents    int64
	CreatedAt      time.Time
}

// Wallet é a carteira única de cada usuário
type Wallet struct {
	ID           string
	UserID       string
	BalanceCents int64
	Currency     string
}

// LedgerEntry é um lançamento imutável do extrato.
// balance_after de um lançamento é o balance_before do seguinte.
type LedgerEntry struct {
	ID                string
	WalletID          string
	UserID            string
	Type              string // deposit | withdraw | bet | win | adjustment
	AmountCents       int64
	BalanceAfterCents int64
	Reference         string
	Metadata          map[string]any
	CreatedAt         time.Time
}

// ShopItem é um item ativo do catálogo da loja
type ShopItem struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	PriceCents  int64     `json:"price_cents"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoundResult é a resposta de uma resolução bem-sucedida
type RoundResult struct {
	RoundID           string
	Outcome           engine.Outcome
	BalanceAfterCents int64
	ServerSeed        string
}

// PurchaseResult é a resposta de uma compra concluída
type PurchaseResult struct {
	PurchaseID        string
	Item              ShopItem
	Quantity          int
	TotalCostCents    int64
	BalanceAfterCents int64
}
