package engine

import "math"

// Prize é um prêmio individual de uma rodada
type Prize struct {
	Fruit       string  `json:"fruit"`
	PayoutCents int64   `json:"payout_cents"`
	Multiplier  float64 `json:"multiplier"`
}

// Outcome é o resultado completo de uma rodada
type Outcome struct {
	Prizes           []Prize  `json:"prizes"`
	Events           []string `json:"events"`
	TotalPayoutCents int64    `json:"total_payout_cents"`
	RTP              float64  `json:"rtp"`
	ConfigVersion    string   `json:"config_version"`
	Capped           bool     `json:"capped,omitempty"`
}

// Resolve calcula o resultado de uma rodada. Função pura: nenhum I/O,
// totalmente determinística sobre (serverSeed, clientSeed, sliceCount),
// replay-ável por terceiros depois que a serverSeed é revelada.
//
// Ordem fixa dos sorteios:
//  1. evento maior, 2. evento menor (sempre consumidos, nessa ordem)
//  3. se um evento disparou, um sorteio para o multiplicador dele
//  4. senão, por unidade: acerto, aleatório de pagamento e, no acerto,
//     a seleção de categoria pelas bandas cumulativas
func Resolve(cfg OutcomeConfig, serverSeed, clientSeed string, sliceCount int, stakeCents int64) Outcome {
	stream := NewStream(serverSeed, clientSeed, sliceCount)

	out := Outcome{
		Prizes:        []Prize{},
		Events:        []string{},
		ConfigVersion: cfg.Version,
	}

	// Eventos especiais têm prioridade sobre as unidades e são
	// mutuamente exclusivos (maior antes do menor)
	majorDraw := stream.Next()
	minorDraw := stream.Next()

	switch {
	case majorDraw < cfg.MajorEvent.Chance:
		out.Events = append(out.Events, cfg.MajorEvent.Name)
		out.Prizes = append(out.Prizes, eventPrize(cfg.MajorEvent, stream.Next(), stakeCents))

	case minorDraw < cfg.MinorEvent.Chance:
		out.Events = append(out.Events, cfg.MinorEvent.Name)
		out.Prizes = append(out.Prizes, eventPrize(cfg.MinorEvent, stream.Next(), stakeCents))

	default:
		units := sliceCount
		if units > cfg.MaxUnits {
			units = cfg.MaxUnits
		}

		for i := 0; i < units; i++ {
			hitDraw := stream.Next()
			payoutDraw := stream.Next() // consumido mesmo sem acerto

			if hitDraw >= cfg.HitChance {
				continue
			}

			cat := pickCategory(cfg.Categories, stream.Next())
			mult := cat.MinMult + payoutDraw*(cat.MaxMult-cat.MinMult)
			payout := int64(math.Floor(float64(stakeCents) / float64(units) * mult))

			out.Prizes = append(out.Prizes, Prize{
				Fruit:       cat.Name,
				PayoutCents: payout,
				// multiplicador exibido com uma casa; o pagamento usa a precisão cheia
				Multiplier: math.Round(mult*10) / 10,
			})
		}
	}

	for _, p := range out.Prizes {
		out.TotalPayoutCents += p.PayoutCents
	}

	// Teto global de pagamento. Os prêmios individuais são reduzidos
	// pela razão real de estouro e o total refeito da soma; prêmios e
	// total permanecem consistentes entre si.
	capCents := int64(math.Floor(float64(stakeCents) * cfg.PayoutCap))
	if out.TotalPayoutCents > capCents {
		ratio := float64(capCents) / float64(out.TotalPayoutCents)
		var sum int64
		for i := range out.Prizes {
			out.Prizes[i].PayoutCents = int64(math.Floor(float64(out.Prizes[i].PayoutCents) * ratio))
			sum += out.Prizes[i].PayoutCents
		}
		out.TotalPayoutCents = sum
		out.Capped = true
	}

	out.RTP = float64(out.TotalPayoutCents) / float64(stakeCents)
	return out
}

// eventPrize monta o prêmio de um evento especial
// O multiplicador é inteiro, uniforme em [min, max)
func eventPrize(ev EventConfig, draw float64, stakeCents int64) Prize {
	mult := ev.MinMult + int(math.Floor(draw*float64(ev.MaxMult-ev.MinMult)))
	return Prize{
		Fruit:       ev.Name,
		PayoutCents: stakeCents * int64(mult),
		Multiplier:  float64(mult),
	}
}

// pickCategory mapeia um sorteio pelas bandas cumulativas
func pickCategory(cats []Category, draw float64) Category {
	for _, c := range cats {
		if draw < c.Band {
			return c
		}
	}
	return cats[len(cats)-1]
}
