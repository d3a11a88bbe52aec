package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

const (
	// windowHex é o tamanho da janela lida por sorteio (8 hex = 4 bytes)
	windowHex = 8

	// MaxDraws limita quantos sorteios uma rodada pode consumir.
	// O pior caso do cálculo de resultado é 2 sorteios de evento +
	// 3 por unidade ativa; o limite dá folga sobre isso.
	MaxDraws = 64
)

// Stream é a fonte pseudo-aleatória finita de uma rodada, derivada do
// protocolo commit-reveal: sha256(serverSeed + clientSeed + sliceCount).
// O cursor avança em janelas de 8 hex e dá a volta (módulo) quando
// alcança o fim do digest; o fluxo é portanto cíclico e reproduzível
// por qualquer terceiro que conheça as seeds.
type Stream struct {
	digest string
	cursor int
	draws  int
}

// NewStream deriva o fluxo de sorteios de uma rodada
func NewStream(serverSeed, clientSeed string, sliceCount int) *Stream {
	sum := sha256.Sum256([]byte(serverSeed + clientSeed + strconv.Itoa(sliceCount)))
	return &Stream{digest: hex.EncodeToString(sum[:])}
}

// Next retorna o próximo valor em [0,1]
// Ultrapassar MaxDraws é erro de programação, não de entrada
func (s *Stream) Next() float64 {
	if s.draws >= MaxDraws {
		panic("engine: stream draw bound exceeded")
	}

	window := s.digest[s.cursor : s.cursor+windowHex]
	s.cursor = (s.cursor + windowHex) % (len(s.digest) - windowHex)
	s.draws++

	v, err := strconv.ParseUint(window, 16, 64)
	if err != nil {
		// digest é sempre hex válido
		panic("engine: invalid stream window: " + window)
	}
	return float64(v) / float64(0xFFFFFFFF)
}

// Draws informa quantos sorteios já foram consumidos
func (s *Stream) Draws() int { return s.draws }
