package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testServerSeed = "a3f1c2e4b5d60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90"
	testSeedHash   = "b7aacd931ab09a81c154e691c9b9ddd27c6ff6a885f157ee8794ea60e535b348"
)

func TestStreamDeterminism(t *testing.T) {
	a := NewStream(testServerSeed, "client-0", 5)
	b := NewStream(testServerSeed, "client-0", 5)

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Next(), b.Next(), "draw %d", i)
	}
}

func TestStreamKnownValues(t *testing.T) {
	// sha256(seed + "client-0" + "5") começa com ea03c007 1e831e1d
	s := NewStream(testServerSeed, "client-0", 5)
	assert.InDelta(t, 0.914119722301634, s.Next(), 1e-12)
	assert.InDelta(t, 0.11918819628637009, s.Next(), 1e-12)
}

func TestStreamRange(t *testing.T) {
	s := NewStream(testServerSeed, "range-check", 3)
	for i := 0; i < MaxDraws; i++ {
		v := s.Next()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestStreamWraparound(t *testing.T) {
	// O digest tem 64 hex; o cursor avança de 8 em 8 módulo 56,
	// então o oitavo sorteio relê a primeira janela
	s := NewStream(testServerSeed, "wrap", 7)

	var draws []float64
	for i := 0; i < 8; i++ {
		draws = append(draws, s.Next())
	}
	assert.Equal(t, draws[0], draws[7])
	assert.Equal(t, 8, s.Draws())
}

func TestStreamDrawBound(t *testing.T) {
	s := NewStream(testServerSeed, "bound", 1)
	for i := 0; i < MaxDraws; i++ {
		s.Next()
	}
	require.Equal(t, MaxDraws, s.Draws())
	assert.Panics(t, func() { s.Next() })
}

func TestSeedHash(t *testing.T) {
	assert.Equal(t, testSeedHash, SeedHash(testServerSeed))
}

func TestNewServerSeed(t *testing.T) {
	a, err := NewServerSeed()
	require.NoError(t, err)
	b, err := NewServerSeed()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
