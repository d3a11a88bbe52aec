package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/fruit-slice-platform/internal/game-service/dto"
	"github.com/radieske/fruit-slice-platform/internal/game-service/engine"
	"github.com/radieske/fruit-slice-platform/internal/game-service/repo"
	"github.com/radieske/fruit-slice-platform/internal/shared/metrics"
	"github.com/radieske/fruit-slice-platform/pkg/contracts/events"
)

// Store define as operações de persistência usadas pelos handlers
type Store interface {
	GetOrCreateWallet(ctx context.Context, userID string) (repo.Wallet, error)
	OpenSession(ctx context.Context, userID string, stakeCents int64, meta repo.SessionMetadata) (repo.Session, error)
	GetSession(ctx context.Context, sessionID, userID string) (repo.Session, error)
	ListSessions(ctx context.Context, userID string, limit int) ([]repo.Session, error)
	ResolveRound(ctx context.Context, params repo.ResolveParams, compute repo.ComputeFn) (*repo.RoundResult, error)
	GetRound(ctx context.Context, roundID, userID string) (repo.Round, error)
	ApplyPurchase(ctx context.Context, userID, itemKey string, quantity int) (*repo.PurchaseResult, error)
	ListTransactions(ctx context.Context, userID string, page, limit int, entryType string) ([]repo.LedgerEntry, int, error)
}

// ItemLister serve o catálogo ativo (com cache na frente)
type ItemLister interface {
	ListActive(ctx context.Context) ([]repo.ShopItem, error)
}

// RateLimiter limita tentativas por usuário/ação em janela fixa
type RateLimiter interface {
	Allow(ctx context.Context, userID, action string, limit int, window time.Duration) (bool, error)
}

// Publisher emite o evento de liquidação para o auditor
type Publisher interface {
	PublishRoundSettled(ctx context.Context, e events.RoundSettled) error
}

// Limites de requisições por usuário por minuto
const (
	openLimitPerMin    = 60
	resolveLimitPerMin = 30
)

// Server expõe a API HTTP do game-service: sessões, rodadas, carteira e loja
type Server struct {
	log     *zap.Logger
	store   Store
	items   ItemLister
	limiter RateLimiter
	publ    Publisher
	outcome engine.OutcomeConfig

	stakeMinCents int64
	stakeMaxCents int64
}

func NewServer(
	log *zap.Logger,
	store Store,
	items ItemLister,
	limiter RateLimiter,
	publ Publisher,
	outcome engine.OutcomeConfig,
	stakeMinCents, stakeMaxCents int64,
) *Server {
	return &Server{
		log:           log,
		store:         store,
		items:         items,
		limiter:       limiter,
		publ:          publ,
		outcome:       outcome,
		stakeMinCents: stakeMinCents,
		stakeMaxCents: stakeMaxCents,
	}
}

// Router retorna o mux HTTP com as rotas da API
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/game/sessions", s.sessions)      // POST abre, GET lista
	mux.HandleFunc("/game/sessions/", s.getSession)   // GET /game/sessions/{id}
	mux.HandleFunc("/game/rounds", s.resolveRound)    // POST
	mux.HandleFunc("/game/rounds/", s.getRound)       // GET /game/rounds/{id}
	mux.HandleFunc("/wallet", s.getWallet)            // GET ?userId=...
	mux.HandleFunc("/wallet/transactions", s.listTxs) // GET
	mux.HandleFunc("/shop/items", s.listItems)        // GET
	mux.HandleFunc("/shop/purchase", s.purchase)      // POST
	return mux
}

// sessions despacha POST (abrir) e GET (listar recentes)
func (s *Server) sessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.openSession(w, r)
	case http.MethodGet:
		s.listSessions(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// openSession cria a sessão e publica o compromisso da seed
func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	if req.StakeCents < s.stakeMinCents || req.StakeCents > s.stakeMaxCents {
		http.Error(w, "invalid stake amount", http.StatusBadRequest)
		return
	}
	if !s.allow(w, r.Context(), req.UserID, "open", openLimitPerMin) {
		return
	}

	serverSeed, err := engine.NewServerSeed()
	if err != nil {
		s.log.Error("server seed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	hash := engine.SeedHash(serverSeed)

	session, err := s.store.OpenSession(r.Context(), req.UserID, req.StakeCents, repo.SessionMetadata{
		ServerSeed:     serverSeed,
		ServerSeedHash: hash,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.writeStoreError(w, err, "open session", req.UserID)
		return
	}

	writeJSON(w, dto.OpenSessionResponse{
		SessionID:      session.ID,
		ServerSeedHash: hash,
		StakeCents:     session.StakeCents,
		CreatedAt:      session.CreatedAt,
	})
}

// listSessions retorna as sessões recentes do usuário
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sessions, err := s.store.ListSessions(r.Context(), userID, limit)
	if err != nil {
		s.writeStoreError(w, err, "list sessions", userID)
		return
	}

	resp := dto.SessionListResponse{Sessions: []dto.SessionSummary{}}
	for _, sess := range sessions {
		resp.Sessions = append(resp.Sessions, summarize(sess))
	}
	writeJSON(w, resp)
}

// getSession retorna uma sessão; enquanto aberta só expõe o hash
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/game/sessions/")
	if id == "" {
		http.Error(w, "sessionId required", http.StatusBadRequest)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	sess, err := s.store.GetSession(r.Context(), id, userID)
	if err != nil {
		s.writeStoreError(w, err, "get session", userID)
		return
	}

	writeJSON(w, dto.SessionDetailResponse{
		SessionSummary: summarize(sess),
		ServerSeedHash: sess.Metadata.ServerSeedHash,
	})
}

// resolveRound aplica a rodada: valida, resolve atomicamente e revela a seed
func (s *Server) resolveRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.ResolveRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	if req.SessionID == "" || req.ClientSeed == "" || req.SlicesCount == 0 || req.StakeCents == 0 {
		http.Error(w, "missing required fields: session_id, client_seed, slices_count, stake_cents", http.StatusBadRequest)
		return
	}
	if req.SlicesCount < 1 || req.SlicesCount > 20 {
		http.Error(w, "slices count must be between 1 and 20", http.StatusBadRequest)
		return
	}
	if !s.allow(w, r.Context(), req.UserID, "resolve", resolveLimitPerMin) {
		return
	}

	result, err := s.store.ResolveRound(r.Context(), repo.ResolveParams{
		SessionID:  req.SessionID,
		UserID:     req.UserID,
		ClientSeed: req.ClientSeed,
		SliceCount: req.SlicesCount,
		StakeCents: req.StakeCents,
	}, func(serverSeed string) engine.Outcome {
		return engine.Resolve(s.outcome, serverSeed, req.ClientSeed, req.SlicesCount, req.StakeCents)
	})
	if err != nil {
		metrics.RoundsResolved.WithLabelValues("error").Inc()
		s.writeStoreError(w, err, "resolve round", req.UserID)
		return
	}

	s.observeRound(req.StakeCents, result.Outcome)

	// Evento pro auditor; falha aqui não desfaz a rodada já commitada
	if s.publ != nil {
		if err := s.publ.PublishRoundSettled(r.Context(), events.RoundSettled{
			RoundID:        result.RoundID,
			SessionID:      req.SessionID,
			UserID:         req.UserID,
			ClientSeed:     req.ClientSeed,
			ServerSeed:     result.ServerSeed,
			ServerSeedHash: engine.SeedHash(result.ServerSeed),
			SliceCount:     req.SlicesCount,
			StakeCents:     req.StakeCents,
			PayoutCents:    result.Outcome.TotalPayoutCents,
			ConfigVersion:  result.Outcome.ConfigVersion,
		}); err != nil {
			s.log.Warn("publish round_settled", zap.String("roundId", result.RoundID), zap.Error(err))
		}
	}

	writeJSON(w, dto.ResolveRoundResponse{
		RoundID: result.RoundID,
		Outcome: dto.RoundOutcome{
			Prizes:           result.Outcome.Prizes,
			TotalPayoutCents: result.Outcome.TotalPayoutCents,
			Events:           result.Outcome.Events,
		},
		BalanceAfterCents: result.BalanceAfterCents,
		ServerSeed:        result.ServerSeed,
		RTP:               result.Outcome.RTP,
	})
}

// getRound retorna uma rodada resolvida com as duas seeds expostas,
// permitindo ao jogador re-verificar o compromisso por conta própria
func (s *Server) getRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/game/rounds/")
	if id == "" {
		http.Error(w, "roundId required", http.StatusBadRequest)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	round, err := s.store.GetRound(r.Context(), id, userID)
	if err != nil {
		s.writeStoreError(w, err, "get round", userID)
		return
	}

	writeJSON(w, dto.RoundDetailResponse{
		RoundID:        round.ID,
		SessionID:      round.SessionID,
		ClientSeed:     round.ClientSeed,
		ServerSeed:     round.ServerSeed,
		ServerSeedHash: round.ServerSeedHash,
		Outcome: dto.RoundOutcome{
			Prizes:           round.Outcome.Prizes,
			TotalPayoutCents: round.Outcome.TotalPayoutCents,
			Events:           round.Outcome.Events,
		},
		StakeCents:  round.StakeCents,
		PayoutCents: round.PayoutCents,
		CreatedAt:   round.CreatedAt,
	})
}

// getWallet retorna (ou provisiona com bônus) a carteira do usuário
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	wallet, err := s.store.GetOrCreateWallet(r.Context(), userID)
	if err != nil {
		s.writeStoreError(w, err, "get wallet", userID)
		return
	}

	writeJSON(w, dto.WalletResponse{
		BalanceCents: wallet.BalanceCents,
		Currency:     wallet.Currency,
	})
}

// listTxs retorna o extrato paginado, com filtro opcional por tipo
func (s *Server) listTxs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	entryType := r.URL.Query().Get("type")

	entries, total, err := s.store.ListTransactions(r.Context(), userID, page, limit, entryType)
	if err != nil {
		s.writeStoreError(w, err, "list transactions", userID)
		return
	}

	resp := dto.TransactionListResponse{
		Transactions: []dto.TransactionView{},
		Pagination: dto.Pagination{
			Page:        page,
			Limit:       limit,
			Total:       total,
			TotalPages:  (total + limit - 1) / limit,
			HasNext:     page*limit < total,
			HasPrevious: page > 1,
		},
	}
	for _, e := range entries {
		resp.Transactions = append(resp.Transactions, dto.TransactionView{
			ID:                e.ID,
			Type:              e.Type,
			AmountCents:       e.AmountCents,
			BalanceAfterCents: e.BalanceAfterCents,
			Reference:         e.Reference,
			Metadata:          e.Metadata,
			CreatedAt:         e.CreatedAt,
		})
	}
	writeJSON(w, resp)
}

// listItems retorna o catálogo ativo da loja
func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	items, err := s.items.ListActive(r.Context())
	if err != nil {
		s.log.Error("list items", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := dto.ItemListResponse{Items: []dto.ItemView{}}
	for _, it := range items {
		resp.Items = append(resp.Items, itemView(it))
	}
	writeJSON(w, resp)
}

// purchase debita price × quantity como unidade atômica
func (s *Server) purchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	if req.ItemKey == "" {
		http.Error(w, "missing required field: item_key", http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 || req.Quantity > 10 {
		http.Error(w, "quantity must be between 1 and 10", http.StatusBadRequest)
		return
	}

	result, err := s.store.ApplyPurchase(r.Context(), req.UserID, req.ItemKey, req.Quantity)
	if err != nil {
		s.writeStoreError(w, err, "purchase", req.UserID)
		return
	}
	metrics.Purchases.Inc()

	writeJSON(w, dto.PurchaseResponse{
		PurchaseID:        result.PurchaseID,
		Item:              itemView(result.Item),
		Quantity:          result.Quantity,
		TotalCostCents:    result.TotalCostCents,
		BalanceAfterCents: result.BalanceAfterCents,
	})
}

// allow aplica o rate limit e responde 429 quando estourado
func (s *Server) allow(w http.ResponseWriter, ctx context.Context, userID, action string, limit int) bool {
	if s.limiter == nil {
		return true
	}
	ok, err := s.limiter.Allow(ctx, userID, action, limit, time.Minute)
	if err != nil {
		s.log.Warn("rate limit", zap.String("action", action), zap.Error(err))
		http.Error(w, "rate limit unavailable", http.StatusServiceUnavailable)
		return false
	}
	if !ok {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return false
	}
	return true
}

// observeRound atualiza os contadores de domínio da rodada
func (s *Server) observeRound(stakeCents int64, out engine.Outcome) {
	result := "loss"
	if out.TotalPayoutCents > 0 {
		result = "win"
	}
	metrics.RoundsResolved.WithLabelValues(result).Inc()
	metrics.StakeCents.Add(float64(stakeCents))
	metrics.PayoutCents.Add(float64(out.TotalPayoutCents))
	if out.Capped {
		metrics.PayoutCapHits.Inc()
	}
}

// writeStoreError mapeia erros do repositório em status HTTP
// Erros de consistência interna viram 500 genérico e log de erro
func (s *Server) writeStoreError(w http.ResponseWriter, err error, op, userID string) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, repo.ErrSessionResolved):
		http.Error(w, "session already resolved", http.StatusConflict)
	case errors.Is(err, repo.ErrStakeMismatch):
		http.Error(w, "stake amount does not match session", http.StatusConflict)
	case errors.Is(err, repo.ErrInsufficientFunds):
		http.Error(w, "insufficient balance", http.StatusBadRequest)
	case errors.Is(err, repo.ErrSeedCommitment):
		// nunca deve acontecer; alerta de operação
		s.log.Error(op, zap.String("userId", userID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		s.log.Error(op, zap.String("userId", userID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func summarize(s repo.Session) dto.SessionSummary {
	status := "active"
	if s.EndedAt != nil {
		status = "completed"
	}
	return dto.SessionSummary{
		ID:         s.ID,
		StakeCents: s.StakeCents,
		CreatedAt:  s.CreatedAt,
		EndedAt:    s.EndedAt,
		Status:     status,
	}
}

func itemView(it repo.ShopItem) dto.ItemView {
	return dto.ItemView{
		Key:         it.Key,
		Name:        it.Name,
		PriceCents:  it.PriceCents,
		Description: it.Description,
	}
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
