package engine

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Pares de seed com resultado conhecido (verificados manualmente contra
// o fluxo de sorteios): client-25 dispara o evento maior, client-2 o
// menor e client-0 segue o caminho normal das unidades.
const (
	majorClientSeed = "client-25"
	minorClientSeed = "client-2"
	quietClientSeed = "client-0"
)

func TestResolveMajorEvent(t *testing.T) {
	out := Resolve(DefaultConfig(), testServerSeed, majorClientSeed, 5, 1000)

	assert.Equal(t, []string{"banana_boss"}, out.Events)
	require.Len(t, out.Prizes, 1)
	assert.Equal(t, "banana_boss", out.Prizes[0].Fruit)
	assert.Equal(t, int64(19000), out.TotalPayoutCents)
	assert.Equal(t, 19.0, out.Prizes[0].Multiplier)

	// multiplicador do evento maior fica na faixa configurada
	assert.GreaterOrEqual(t, out.TotalPayoutCents, int64(15*1000))
	assert.Less(t, out.TotalPayoutCents, int64(25*1000))
	assert.InDelta(t, 19.0, out.RTP, 1e-9)
}

func TestResolveMinorEvent(t *testing.T) {
	out := Resolve(DefaultConfig(), testServerSeed, minorClientSeed, 5, 1000)

	assert.Equal(t, []string{"banana_bomb"}, out.Events)
	require.Len(t, out.Prizes, 1)
	assert.Equal(t, int64(11000), out.TotalPayoutCents)
	assert.Equal(t, 11.0, out.Prizes[0].Multiplier)
}

func TestResolveRegularUnits(t *testing.T) {
	out := Resolve(DefaultConfig(), testServerSeed, quietClientSeed, 5, 1000)

	assert.Empty(t, out.Events)
	require.Len(t, out.Prizes, 2)
	for _, p := range out.Prizes {
		assert.Equal(t, "watermelon", p.Fruit)
		assert.Equal(t, int64(1378), p.PayoutCents)
	}
	assert.Equal(t, int64(2756), out.TotalPayoutCents)
	assert.False(t, out.Capped)
	assert.Equal(t, "v1", out.ConfigVersion)
}

func TestResolveDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	for i := 0; i < 50; i++ {
		client := fmt.Sprintf("replay-%d", i)
		a := Resolve(cfg, testServerSeed, client, 1+i%20, 2500)
		b := Resolve(cfg, testServerSeed, client, 1+i%20, 2500)

		ja, err := json.Marshal(a)
		require.NoError(t, err)
		jb, err := json.Marshal(b)
		require.NoError(t, err)
		assert.Equal(t, ja, jb, "client %s", client)
	}
}

func TestResolveEventsMutuallyExclusive(t *testing.T) {
	cfg := DefaultConfig()
	for i := 0; i < 500; i++ {
		out := Resolve(cfg, testServerSeed, fmt.Sprintf("sweep-%d", i), 10, 1000)
		assert.LessOrEqual(t, len(out.Events), 1)
		if len(out.Events) == 1 {
			assert.Len(t, out.Prizes, 1)
		}
	}
}

func TestResolveUnitBound(t *testing.T) {
	cfg := DefaultConfig()
	for i := 0; i < 200; i++ {
		out := Resolve(cfg, testServerSeed, fmt.Sprintf("units-%d", i), 20, 1000)
		if len(out.Events) == 0 {
			assert.LessOrEqual(t, len(out.Prizes), cfg.MaxUnits)
		}
	}
}

func TestResolvePrizeSumMatchesTotal(t *testing.T) {
	cfg := DefaultConfig()
	for i := 0; i < 500; i++ {
		out := Resolve(cfg, testServerSeed, fmt.Sprintf("sum-%d", i), 6, 730)

		var sum int64
		for _, p := range out.Prizes {
			sum += p.PayoutCents
		}
		assert.Equal(t, sum, out.TotalPayoutCents)
		assert.LessOrEqual(t, out.RTP, cfg.PayoutCap)
	}
}

func TestResolvePayoutCap(t *testing.T) {
	// Força o teto: evento maior sempre dispara (15x..25x) com cap 2x
	cfg := DefaultConfig()
	cfg.MajorEvent.Chance = 1.0
	cfg.PayoutCap = 2

	out := Resolve(cfg, testServerSeed, "capped", 5, 1000)

	assert.True(t, out.Capped)
	assert.LessOrEqual(t, out.TotalPayoutCents, int64(2000))
	assert.LessOrEqual(t, out.RTP, 2.0)

	var sum int64
	for _, p := range out.Prizes {
		sum += p.PayoutCents
	}
	assert.Equal(t, sum, out.TotalPayoutCents)
}

func TestResolveZeroPayoutPossible(t *testing.T) {
	// Com hit_chance zero e sem eventos, nenhuma unidade paga
	cfg := DefaultConfig()
	cfg.MajorEvent.Chance = 0
	cfg.MinorEvent.Chance = 0
	cfg.HitChance = 0

	out := Resolve(cfg, testServerSeed, "loss", 6, 1000)

	assert.Empty(t, out.Prizes)
	assert.Empty(t, out.Events)
	assert.Zero(t, out.TotalPayoutCents)
	assert.Zero(t, out.RTP)
}

func TestPickCategoryBands(t *testing.T) {
	cats := DefaultConfig().Categories

	assert.Equal(t, "banana", pickCategory(cats, 0.0).Name)
	assert.Equal(t, "banana", pickCategory(cats, 0.24).Name)
	assert.Equal(t, "apple", pickCategory(cats, 0.25).Name)
	assert.Equal(t, "orange", pickCategory(cats, 0.60).Name)
	assert.Equal(t, "pineapple", pickCategory(cats, 0.70).Name)
	assert.Equal(t, "watermelon", pickCategory(cats, 0.89).Name)
	assert.Equal(t, "cherry", pickCategory(cats, 0.99).Name)
	// o fluxo pode render exatamente 1.0; cai na última categoria
	assert.Equal(t, "cherry", pickCategory(cats, 1.0).Name)
}
