package dto

// OpenSessionRequest abre uma sessão de aposta
type OpenSessionRequest struct {
	UserID     string `json:"user_id"`
	StakeCents int64  `json:"stake_cents"`
}

// ResolveRoundRequest resolve a única rodada de uma sessão aberta
type ResolveRoundRequest struct {
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	ClientSeed  string `json:"client_seed"`
	SlicesCount int    `json:"slices_count"`
	StakeCents  int64  `json:"stake_cents"`
}

// PurchaseRequest compra um item ativo do catálogo
type PurchaseRequest struct {
	UserID   string `json:"user_id"`
	ItemKey  string `json:"item_key"`
	Quantity int    `json:"quantity"`
}
