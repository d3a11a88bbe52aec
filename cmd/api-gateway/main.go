package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/fruit-slice-platform/internal/shared/config"
	"github.com/radieske/fruit-slice-platform/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// targets
	gameURL := os.Getenv("GAME_URL")
	if gameURL == "" {
		gameURL = "http://localhost:8084"
	}
	feedURL := os.Getenv("FEED_URL")
	if feedURL == "" {
		feedURL = "http://localhost:8085"
	}
	game := rp(gameURL)
	feed := rp(feedURL)

	mux := http.NewServeMux()

	// API do jogo (ex.: /api/game/sessions -> game-service /game/sessions)
	mux.Handle("/api/game/", http.StripPrefix("/api", game))

	// carteira e loja vivem no mesmo serviço
	mux.Handle("/api/wallet", http.StripPrefix("/api", game))
	mux.Handle("/api/wallet/", http.StripPrefix("/api", game))
	mux.Handle("/api/shop/", http.StripPrefix("/api", game))

	// feed ao vivo (ex.: /api/feed/ws -> live-feed-service /ws)
	mux.Handle("/api/feed/", http.StripPrefix("/api/feed", feed))

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
