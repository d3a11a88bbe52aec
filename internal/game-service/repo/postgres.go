package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/radieske/fruit-slice-platform/internal/game-service/engine"
)

// Postgres implementa a persistência de sessões, rodadas, carteiras e
// extrato. É o único escritor de saldos e lançamentos do sistema.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrSessionResolved   = errors.New("session already resolved")
	ErrStakeMismatch     = errors.New("stake does not match session")

	// ErrSeedCommitment indica que a seed gravada não bate com o
	// compromisso publicado. Erro interno fatal; nunca deve ocorrer.
	ErrSeedCommitment = errors.New("server seed does not match commitment")
)

// Bônus creditado na criação preguiçosa da carteira
const welcomeBonusCents = 10000

// GetOrCreateWallet retorna a carteira do usuário, criando-a com o
// bônus de boas-vindas (e o lançamento correspondente) se não existir
func (p *Postgres) GetOrCreateWallet(ctx context.Context, userID string) (Wallet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Wallet{}, err
	}
	defer tx.Rollback()

	var w Wallet
	w.UserID = userID
	err = tx.QueryRowContext(ctx,
		`SELECT id, balance_cents, currency FROM wallets WHERE user_id=$1`,
		userID).Scan(&w.ID, &w.BalanceCents, &w.Currency)
	if err == sql.ErrNoRows {
		w.ID = uuid.NewString()
		w.BalanceCents = welcomeBonusCents
		w.Currency = "USD"
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO wallets(id, user_id, balance_cents, currency) VALUES($1,$2,$3,$4)`,
			w.ID, userID, w.BalanceCents, w.Currency); err != nil {
			return Wallet{}, err
		}
		if err = insertLedgerEntry(ctx, tx, &LedgerEntry{
			WalletID:          w.ID,
			UserID:            userID,
			Type:              "deposit",
			AmountCents:       welcomeBonusCents,
			BalanceAfterCents: welcomeBonusCents,
			Reference:         "welcome_bonus",
			Metadata:          map[string]any{"description": "Welcome bonus for new player"},
		}); err != nil {
			return Wallet{}, err
		}
	} else if err != nil {
		return Wallet{}, err
	}

	if err = tx.Commit(); err != nil {
		return Wallet{}, err
	}
	return w, nil
}

// OpenSession persiste a sessão com a seed secreta e o compromisso.
// O saldo é conferido na abertura como pré-checagem informativa;
// o débito real acontece só na resolução.
func (p *Postgres) OpenSession(ctx context.Context, userID string, stakeCents int64, meta SessionMetadata) (Session, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT balance_cents FROM wallets WHERE user_id=$1`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return Session{}, ErrInsufficientFunds
	} else if err != nil {
		return Session{}, err
	}
	if balance < stakeCents {
		return Session{}, ErrInsufficientFunds
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return Session{}, fmt.Errorf("marshal session metadata: %w", err)
	}

	s := Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		StakeCents: stakeCents,
		Metadata:   meta,
	}
	if err = tx.QueryRowContext(ctx, `
		INSERT INTO game_sessions (id, user_id, stake_cents, session_metadata)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		s.ID, userID, stakeCents, metaJSON).Scan(&s.CreatedAt); err != nil {
		return Session{}, err
	}

	if err = tx.Commit(); err != nil {
		return Session{}, err
	}
	return s, nil
}

// GetSession retorna uma sessão do usuário (sem expor a seed a quem chama;
// a redação fica no handler)
func (p *Postgres) GetSession(ctx context.Context, sessionID, userID string) (Session, error) {
	var (
		s        Session
		metaJSON []byte
		endedAt  sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, stake_cents, session_metadata, created_at, ended_at
		FROM game_sessions WHERE id=$1 AND user_id=$2`,
		sessionID, userID).Scan(&s.ID, &s.UserID, &s.StakeCents, &metaJSON, &s.CreatedAt, &endedAt)
	if err == sql.ErrNoRows {
		return Session{}, ErrNotFound
	} else if err != nil {
		return Session{}, err
	}
	if err := json.Unmarshal(metaJSON, &s.Metadata); err != nil {
		return Session{}, fmt.Errorf("unmarshal session metadata: %w", err)
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	return s, nil
}

// ListSessions retorna as sessões recentes do usuário, mais novas primeiro
func (p *Postgres) ListSessions(ctx context.Context, userID string, limit int) ([]Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, stake_cents, created_at, ended_at
		FROM game_sessions
		WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			s       Session
			endedAt sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.StakeCents, &s.CreatedAt, &endedAt); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			s.EndedAt = &endedAt.Time
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ResolveParams identifica a rodada sendo resolvida
type ResolveParams struct {
	SessionID  string
	UserID     string
	ClientSeed string
	SliceCount int
	StakeCents int64
}

// ComputeFn calcula o resultado a partir da seed secreta da sessão.
// Puro; chamado exatamente uma vez, dentro da transação.
type ComputeFn func(serverSeed string) engine.Outcome

// ResolveRound aplica o efeito financeiro de uma rodada como unidade
// atômica: valida a sessão, trava a carteira, debita a aposta, calcula
// o resultado, credita o ganho, grava a rodada imutável e encerra a
// sessão. Qualquer falha desfaz tudo; nenhum estado intermediário fica
// visível. A linha da carteira é travada com FOR UPDATE, serializando
// resoluções concorrentes do mesmo usuário.
func (p *Postgres) ResolveRound(ctx context.Context, params ResolveParams, compute ComputeFn) (*RoundResult, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Sessão travada: impede resolução dupla concorrente
	var (
		stake    int64
		metaJSON []byte
		endedAt  sql.NullTime
	)
	err = tx.QueryRowContext(ctx, `
		SELECT stake_cents, session_metadata, ended_at
		FROM game_sessions
		WHERE id=$1 AND user_id=$2
		FOR UPDATE`,
		params.SessionID, params.UserID).Scan(&stake, &metaJSON, &endedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		return nil, ErrSessionResolved
	}
	if stake != params.StakeCents {
		return nil, ErrStakeMismatch
	}

	var meta SessionMetadata
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal session metadata: %w", err)
	}

	// Carteira travada: serializa o read-modify-write do saldo
	var walletID string
	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE`,
		params.UserID).Scan(&walletID, &balance)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	if balance < stake {
		return nil, ErrInsufficientFunds
	}

	// Débito da aposta
	balance -= stake
	if err = insertLedgerEntry(ctx, tx, &LedgerEntry{
		WalletID:          walletID,
		UserID:            params.UserID,
		Type:              "bet",
		AmountCents:       -stake,
		BalanceAfterCents: balance,
		Reference:         params.SessionID,
		Metadata:          map[string]any{"game_round": true, "slices_count": params.SliceCount},
	}); err != nil {
		return nil, err
	}
	if err = updateBalance(ctx, tx, walletID, balance); err != nil {
		return nil, err
	}

	outcome := compute(meta.ServerSeed)

	// Crédito do ganho, se houver
	if outcome.TotalPayoutCents > 0 {
		balance += outcome.TotalPayoutCents
		if err = insertLedgerEntry(ctx, tx, &LedgerEntry{
			WalletID:          walletID,
			UserID:            params.UserID,
			Type:              "win",
			AmountCents:       outcome.TotalPayoutCents,
			BalanceAfterCents: balance,
			Reference:         params.SessionID,
			Metadata:          map[string]any{"game_round": true, "outcome": outcome},
		}); err != nil {
			return nil, err
		}
		if err = updateBalance(ctx, tx, walletID, balance); err != nil {
			return nil, err
		}
	}

	// O hash é recalculado da seed revelada e conferido contra o
	// compromisso publicado na abertura; divergência aborta tudo
	seedHash := engine.SeedHash(meta.ServerSeed)
	if seedHash != meta.ServerSeedHash {
		return nil, ErrSeedCommitment
	}

	outcomeJSON, err := json.Marshal(outcome)
	if err != nil {
		return nil, fmt.Errorf("marshal outcome: %w", err)
	}

	roundID := uuid.NewString()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO game_rounds
			(id, session_id, user_id, client_seed, server_seed_hash, server_seed,
			 outcome_json, bet_amount_cents, payout_cents)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		roundID, params.SessionID, params.UserID, params.ClientSeed, seedHash,
		meta.ServerSeed, outcomeJSON, stake, outcome.TotalPayoutCents); err != nil {
		return nil, err
	}

	// Encerra a sessão: transição única Open -> Resolved
	if _, err = tx.ExecContext(ctx,
		`UPDATE game_sessions SET ended_at=NOW() WHERE id=$1`, params.SessionID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &RoundResult{
		RoundID:           roundID,
		Outcome:           outcome,
		BalanceAfterCents: balance,
		ServerSeed:        meta.ServerSeed,
	}, nil
}

// GetRound retorna o registro imutável de uma rodada resolvida.
// Ambas as seeds são públicas aqui; é o material de verificação do
// compromisso por terceiros.
func (p *Postgres) GetRound(ctx context.Context, roundID, userID string) (Round, error) {
	var (
		r           Round
		outcomeJSON []byte
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT id, session_id, user_id, client_seed, server_seed_hash, server_seed,
		       outcome_json, bet_amount_cents, payout_cents, created_at
		FROM game_rounds WHERE id=$1 AND user_id=$2`,
		roundID, userID).Scan(&r.ID, &r.SessionID, &r.UserID, &r.ClientSeed,
		&r.ServerSeedHash, &r.ServerSeed, &outcomeJSON, &r.StakeCents,
		&r.PayoutCents, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return Round{}, ErrNotFound
	} else if err != nil {
		return Round{}, err
	}
	if err := json.Unmarshal(outcomeJSON, &r.Outcome); err != nil {
		return Round{}, fmt.Errorf("unmarshal outcome: %w", err)
	}
	return r, nil
}

// GetActiveItem retorna um item ativo do catálogo pela chave
func (p *Postgres) GetActiveItem(ctx context.Context, key string) (ShopItem, error) {
	var it ShopItem
	err := p.db.QueryRowContext(ctx, `
		SELECT id, key, name, price_cents, description, active, created_at
		FROM shop_items WHERE key=$1 AND active=true`,
		key).Scan(&it.ID, &it.Key, &it.Name, &it.PriceCents, &it.Description, &it.Active, &it.CreatedAt)
	if err == sql.ErrNoRows {
		return ShopItem{}, ErrNotFound
	} else if err != nil {
		return ShopItem{}, err
	}
	return it, nil
}

// ListActiveItems retorna o catálogo ativo, mais barato primeiro
func (p *Postgres) ListActiveItems(ctx context.Context) ([]ShopItem, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, key, name, price_cents, description, active, created_at
		FROM shop_items WHERE active=true ORDER BY price_cents ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShopItem
	for rows.Next() {
		var it ShopItem
		if err := rows.Scan(&it.ID, &it.Key, &it.Name, &it.PriceCents, &it.Description, &it.Active, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ApplyPurchase debita price × quantity da carteira como unidade
// atômica, com um único lançamento de ajuste. Mesmo formato da
// resolução de rodada, sem aleatoriedade.
func (p *Postgres) ApplyPurchase(ctx context.Context, userID, itemKey string, quantity int) (*PurchaseResult, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var it ShopItem
	err = tx.QueryRowContext(ctx, `
		SELECT id, key, name, price_cents, description, active, created_at
		FROM shop_items WHERE key=$1 AND active=true`,
		itemKey).Scan(&it.ID, &it.Key, &it.Name, &it.PriceCents, &it.Description, &it.Active, &it.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	totalCost := it.PriceCents * int64(quantity)

	var walletID string
	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE`,
		userID).Scan(&walletID, &balance)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	if balance < totalCost {
		return nil, ErrInsufficientFunds
	}

	balance -= totalCost
	entry := &LedgerEntry{
		WalletID:          walletID,
		UserID:            userID,
		Type:              "adjustment",
		AmountCents:       -totalCost,
		BalanceAfterCents: balance,
		Reference:         "shop_purchase",
		Metadata: map[string]any{
			"item_key":         it.Key,
			"item_name":        it.Name,
			"quantity":         quantity,
			"unit_price_cents": it.PriceCents,
			"purchase_type":    "shop_item",
		},
	}
	if err = insertLedgerEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err = updateBalance(ctx, tx, walletID, balance); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &PurchaseResult{
		PurchaseID:        entry.ID,
		Item:              it,
		Quantity:          quantity,
		TotalCostCents:    totalCost,
		BalanceAfterCents: balance,
	}, nil
}

// ListTransactions retorna o extrato paginado do usuário, mais novo
// primeiro, com filtro opcional por tipo de lançamento
func (p *Postgres) ListTransactions(ctx context.Context, userID string, page, limit int, entryType string) ([]LedgerEntry, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	where := `WHERE user_id=$1`
	args := []any{userID}
	if entryType != "" {
		where += ` AND type=$2`
		args = append(args, entryType)
	}

	var total int
	if err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, wallet_id, user_id, type, amount_cents, balance_after_cents,
		       reference, metadata, created_at
		FROM transactions %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		var (
			e        LedgerEntry
			metaJSON []byte
		)
		if err := rows.Scan(&e.ID, &e.WalletID, &e.UserID, &e.Type, &e.AmountCents,
			&e.BalanceAfterCents, &e.Reference, &metaJSON, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &e.Metadata)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// SeedShopItems insere o catálogo informado, ignorando chaves já
// existentes (idempotente; usado pelo gamectl)
func (p *Postgres) SeedShopItems(ctx context.Context, items []ShopItem) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, it := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shop_items (id, key, name, price_cents, description, active)
			VALUES ($1,$2,$3,$4,$5,true)
			ON CONFLICT (key) DO NOTHING`,
			uuid.NewString(), it.Key, it.Name, it.PriceCents, it.Description); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// insertLedgerEntry grava um lançamento imutável do extrato
// Preenche o ID gerado de volta na entry
func insertLedgerEntry(ctx context.Context, tx *sql.Tx, e *LedgerEntry) error {
	metaJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal ledger metadata: %w", err)
	}
	e.ID = uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions
			(id, wallet_id, user_id, type, amount_cents, balance_after_cents, reference, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.WalletID, e.UserID, e.Type, e.AmountCents, e.BalanceAfterCents, e.Reference, metaJSON)
	return err
}

// updateBalance grava o novo saldo da carteira já travada
func updateBalance(ctx context.Context, tx *sql.Tx, walletID string, balance int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents=$1, updated_at=NOW() WHERE id=$2`,
		balance, walletID)
	return err
}
