package engine

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const serverSeedBytes = 32

// NewServerSeed gera a seed secreta do servidor (crypto/rand, 32 bytes hex)
func NewServerSeed() (string, error) {
	b := make([]byte, serverSeedBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate server seed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SeedHash calcula o compromisso público (sha256 hex) de uma seed
// Publicado na abertura da sessão; verificável após a revelação
func SeedHash(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}
