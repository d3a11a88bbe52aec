package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/radieske/fruit-slice-platform/internal/game-service/engine"
	"github.com/radieske/fruit-slice-platform/internal/game-service/repo"
	"github.com/radieske/fruit-slice-platform/internal/shared/config"
	"github.com/radieske/fruit-slice-platform/internal/shared/db"
)

func main() {
	root := &cobra.Command{
		Use:   "gamectl",
		Short: "Ferramentas operacionais da plataforma de jogo",
	}

	root.AddCommand(verifyCmd())
	root.AddCommand(seedShopCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// verifyCmd reproduz uma rodada offline a partir das seeds reveladas.
// É a mesma verificação que qualquer terceiro pode fazer.
func verifyCmd() *cobra.Command {
	var (
		serverSeed string
		clientSeed string
		slices     int
		stakeCents int64
		cfgPath    string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Reproduz o resultado de uma rodada a partir das seeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			if slices < 1 || slices > 20 {
				return fmt.Errorf("slices must be between 1 and 20, got %d", slices)
			}

			cfg := engine.DefaultConfig()
			if cfgPath != "" {
				var err error
				if cfg, err = engine.LoadConfig(cfgPath); err != nil {
					return err
				}
			}

			out := engine.Resolve(cfg, serverSeed, clientSeed, slices, stakeCents)

			fmt.Printf("server_seed_hash: %s\n", engine.SeedHash(serverSeed))
			fmt.Printf("config_version:   %s\n", out.ConfigVersion)
			fmt.Printf("events:           %v\n", out.Events)
			for _, p := range out.Prizes {
				fmt.Printf("prize: %-12s payout=%d mult=%.1f\n", p.Fruit, p.PayoutCents, p.Multiplier)
			}
			fmt.Printf("total_payout_cents: %d\n", out.TotalPayoutCents)
			fmt.Printf("rtp: %.4f\n", out.RTP)
			if out.Capped {
				fmt.Println("payout cap applied")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serverSeed, "server-seed", "", "seed do servidor revelada na resolução")
	cmd.Flags().StringVar(&clientSeed, "client-seed", "", "seed enviada pelo cliente")
	cmd.Flags().IntVar(&slices, "slices", 1, "parâmetro da rodada (1-20)")
	cmd.Flags().Int64Var(&stakeCents, "stake-cents", 0, "valor apostado em centavos")
	cmd.Flags().StringVar(&cfgPath, "config", "", "arquivo YAML da configuração (default embutida)")
	_ = cmd.MarkFlagRequired("server-seed")
	_ = cmd.MarkFlagRequired("client-seed")
	_ = cmd.MarkFlagRequired("stake-cents")

	return cmd
}

// seedShopCmd insere o catálogo default da loja (idempotente)
func seedShopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-shop",
		Short: "Insere o catálogo default da loja",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			pg, err := db.ConnectPostgres(cfg.PostgresDSN)
			if err != nil {
				return err
			}
			defer pg.Close()

			store := repo.NewPostgres(pg)
			items := []repo.ShopItem{
				{Key: "golden_blade", Name: "Golden Blade", PriceCents: 500, Description: "A shiny blade skin"},
				{Key: "double_slice", Name: "Double Slice", PriceCents: 1500, Description: "Cosmetic double-slice trail"},
				{Key: "neon_trail", Name: "Neon Trail", PriceCents: 2500, Description: "Neon slice trail effect"},
				{Key: "vip_badge", Name: "VIP Badge", PriceCents: 10000, Description: "Profile VIP badge"},
			}

			ctx := context.Background()
			if err := store.SeedShopItems(ctx, items); err != nil {
				return err
			}

			active, err := store.ListActiveItems(ctx)
			if err != nil {
				return err
			}
			for _, it := range active {
				fmt.Printf("%-14s %6d  %s\n", it.Key, it.PriceCents, it.Name)
			}
			return nil
		},
	}
}
