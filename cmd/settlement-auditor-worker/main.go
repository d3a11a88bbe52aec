package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/fruit-slice-platform/internal/game-service/engine"
	"github.com/radieske/fruit-slice-platform/internal/shared/config"
	"github.com/radieske/fruit-slice-platform/internal/shared/db"
	"github.com/radieske/fruit-slice-platform/internal/shared/kafka"
	"github.com/radieske/fruit-slice-platform/internal/shared/logger"
	"github.com/radieske/fruit-slice-platform/internal/shared/metrics"
	ev "github.com/radieske/fruit-slice-platform/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("settlement-auditor-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Configurações versionadas conhecidas pelo auditor, indexadas por
	// versão; rodadas antigas são verificadas com a configuração delas
	outcomeCfgs := map[string]engine.OutcomeConfig{}
	base := engine.DefaultConfig()
	outcomeCfgs[base.Version] = base
	if cfg.OutcomeConfigPath != "" {
		loaded, err := engine.LoadConfig(cfg.OutcomeConfigPath)
		if err != nil {
			log.Fatal("outcome config", zap.Error(err))
		}
		outcomeCfgs[loaded.Version] = loaded
	}

	// Postgres para conferir a cadeia do extrato das carteiras
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer: eventos round_settled publicados pelo game-service
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicRoundSettled, "settlement-auditor")
	defer reader.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicRoundSettledDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundSettledDLQ)
		defer dlqWriter.Close()
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, pg.PingContext)
	log.Info("metrics/health", zap.String("addr", metricsSrv.Addr))

	log.Info("settlement-auditor-worker started", zap.String("consume", cfg.TopicRoundSettled))

	ctx := context.Background()

	// Loop principal: consome eventos e re-verifica cada rodada liquidada
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		var settled ev.RoundSettled
		if jerr := json.Unmarshal(msg.Value, &settled); jerr != nil {
			log.Error("unmarshal round_settled", zap.Error(jerr))
			continue
		}

		if err := auditOne(ctx, pg, outcomeCfgs, &settled); err != nil {
			// Divergência é o alerta de inconsistência interna da
			// plataforma: conta, loga e vai pra DLQ pra inspeção
			metrics.AuditMismatches.Inc()
			log.Error("audit mismatch", zap.String("roundId", settled.RoundID), zap.Error(err))
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, settled.RoundID, msg.Value)
			}
		}
	}
}

// auditOne re-verifica uma rodada liquidada:
// 1. Compromisso: sha256(seed revelada) deve bater com o hash publicado
// 2. Replay: o resultado recalculado deve pagar o mesmo total
// 3. Extrato: o saldo da carteira deve ser a soma dos lançamentos dela
func auditOne(
	ctx context.Context,
	pg *sql.DB,
	cfgs map[string]engine.OutcomeConfig,
	settled *ev.RoundSettled,
) error {
	if got := engine.SeedHash(settled.ServerSeed); got != settled.ServerSeedHash {
		return fmt.Errorf("seed commitment: hash %s != published %s", got, settled.ServerSeedHash)
	}

	cfg, ok := cfgs[settled.ConfigVersion]
	if !ok {
		return fmt.Errorf("unknown outcome config version %q", settled.ConfigVersion)
	}

	replayed := engine.Resolve(cfg, settled.ServerSeed, settled.ClientSeed, settled.SliceCount, settled.StakeCents)
	if replayed.TotalPayoutCents != settled.PayoutCents {
		return fmt.Errorf("replay payout %d != settled %d", replayed.TotalPayoutCents, settled.PayoutCents)
	}

	stored, err := storedRoundPayout(ctx, pg, settled.RoundID)
	if err != nil {
		return err
	}
	if stored != settled.PayoutCents {
		return fmt.Errorf("stored round payout %d != settled %d", stored, settled.PayoutCents)
	}

	return auditWalletChain(ctx, pg, settled.UserID)
}

// storedRoundPayout lê o pagamento persistido da rodada
func storedRoundPayout(ctx context.Context, pg *sql.DB, roundID string) (int64, error) {
	var payout int64
	err := pg.QueryRowContext(ctx,
		`SELECT payout_cents FROM game_rounds WHERE id=$1`, roundID).Scan(&payout)
	if err != nil {
		return 0, fmt.Errorf("load round %s: %w", roundID, err)
	}
	return payout, nil
}

// auditWalletChain confere a invariante do extrato: o saldo da carteira
// é exatamente a soma dos amounts de todos os lançamentos dela
func auditWalletChain(ctx context.Context, pg *sql.DB, userID string) error {
	var balance, ledgerSum int64
	err := pg.QueryRowContext(ctx, `
		SELECT w.balance_cents, COALESCE(SUM(t.amount_cents), 0)
		FROM wallets w
		LEFT JOIN transactions t ON t.wallet_id = w.id
		WHERE w.user_id = $1
		GROUP BY w.balance_cents`, userID).Scan(&balance, &ledgerSum)
	if err != nil {
		return fmt.Errorf("load wallet chain for user %s: %w", userID, err)
	}
	if balance != ledgerSum {
		return fmt.Errorf("wallet balance %d != ledger sum %d", balance, ledgerSum)
	}
	return nil
}
