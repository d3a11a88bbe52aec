package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/fruit-slice-platform/internal/shared/config"
	skafka "github.com/radieske/fruit-slice-platform/internal/shared/kafka"
	"github.com/radieske/fruit-slice-platform/internal/shared/logger"
	"github.com/radieske/fruit-slice-platform/internal/shared/metrics"
	"github.com/radieske/fruit-slice-platform/pkg/contracts/events"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	// Métricas Prometheus para monitoramento de conexões e mensagens
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feed_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	wsMessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_ws_messages_sent_total",
		Help: "Total de mensagens WS enviadas",
	})
)

// FeedEntry é a visão pública de uma rodada liquidada. O usuário é
// anonimizado e a seed do servidor não trafega no feed.
type FeedEntry struct {
	RoundID     string  `json:"round_id"`
	Player      string  `json:"player"`
	SliceCount  int     `json:"slice_count"`
	StakeCents  int64   `json:"stake_cents"`
	PayoutCents int64   `json:"payout_cents"`
	Multiplier  float64 `json:"multiplier"`
	TsUnixMs    int64   `json:"ts_unix_ms"`
}

// Representa uma conexão de cliente WebSocket
type clientConn struct {
	id   string
	conn *websocket.Conn
}

// Estrutura responsável por gerenciar os clientes conectados via WebSocket
// e realizar broadcast de mensagens para todos eles.
type hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger
}

// Cria uma nova instância de hub para gerenciar conexões
func newHub(log *zap.Logger) *hub {
	return &hub{
		clients: make(map[string]*clientConn),
		log:     log,
	}
}

// Adiciona um novo cliente ao hub e incrementa a métrica de conexões
func (h *hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	wsConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

// Remove um cliente do hub e decrementa a métrica de conexões
func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		wsConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

// Envia uma mensagem para todos os clientes conectados
func (h *hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, _ := json.Marshal(v)
	for id, c := range h.clients {
		c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
		} else {
			wsMessagesSent.Inc()
		}
	}
}

// anonymize reduz o user_id a um prefixo curto para exibição pública
func anonymize(userID string) string {
	if len(userID) <= 4 {
		return userID + "***"
	}
	return userID[:4] + "***"
}

func toFeedEntry(e events.RoundSettled) FeedEntry {
	var mult float64
	if e.StakeCents > 0 {
		mult = float64(e.PayoutCents) / float64(e.StakeCents)
	}
	return FeedEntry{
		RoundID:     e.RoundID,
		Player:      anonymize(e.UserID),
		SliceCount:  e.SliceCount,
		StakeCents:  e.StakeCents,
		PayoutCents: e.PayoutCents,
		Multiplier:  mult,
		TsUnixMs:    e.TsUnixMs,
	}
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(wsConnections, wsMessagesSent)

	h := newHub(log)

	// Consome as rodadas liquidadas e retransmite a visão pública.
	// Cada instância tem seu próprio grupo; o feed não disputa
	// mensagens com o auditor.
	reader := skafka.NewReader(cfg.KafkaBrokers, cfg.TopicRoundSettled, "live-feed")
	defer reader.Close()

	go func() {
		ctx := context.Background()
		for {
			_, value, err := skafka.ReadNext(ctx, reader)
			if err != nil {
				log.Error("read round_settled", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			var settled events.RoundSettled
			if err := json.Unmarshal(value, &settled); err != nil {
				log.Warn("malformed round_settled", zap.Error(err))
				continue
			}
			h.broadcast(toFeedEntry(settled))
		}
	}()

	metrics.StartMetricsServer(cfg.MetricsPort)

	appMux := http.NewServeMux()
	appMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		id := fmt.Sprintf("%d", time.Now().UnixNano())
		c := &clientConn{id: id, conn: conn}
		h.add(c)

		// Goroutine para manter a conexão viva e remover cliente ao desconectar
		go func() {
			defer func() {
				h.remove(id)
				_ = conn.Close()
			}()
			_ = conn.SetReadDeadline(time.Time{})
			for {
				// Lê e descarta mensagens do cliente para manter o socket limpo
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("live feed running",
		zap.String("addr", publicAddr),
		zap.String("topic", cfg.TopicRoundSettled),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
