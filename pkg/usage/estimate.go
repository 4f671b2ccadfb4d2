package usage

// EstimateTokens approximates the token count of a payload at four bytes per token.
func EstimateTokens(payload []byte) int64 {
	n := int64(len(payload))
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
