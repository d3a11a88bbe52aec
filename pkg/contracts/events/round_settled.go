package events

// RoundSettled é publicado após o commit de cada rodada resolvida.
// Carrega tudo que um verificador independente precisa para
// reproduzir o resultado (seed revelada, seed do cliente, parâmetro).
type RoundSettled struct {
	RoundID        string `json:"round_id"`
	SessionID      string `json:"session_id"`
	UserID         string `json:"user_id"`
	ClientSeed     string `json:"client_seed"`
	ServerSeed     string `json:"server_seed"`
	ServerSeedHash string `json:"server_seed_hash"` // compromisso publicado na abertura
	SliceCount     int    `json:"slice_count"`
	StakeCents     int64  `json:"stake_cents"`
	PayoutCents    int64  `json:"payout_cents"`
	ConfigVersion  string `json:"config_version"`
	TsUnixMs       int64  `json:"ts_unix_ms"`
}
