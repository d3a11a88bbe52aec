package topics

const (
	// Liquidação de rodadas
	RoundSettled = "round_settled"

	// DLQs
	RoundSettledDLQ = "round_settled_dlq"
)
