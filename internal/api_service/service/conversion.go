package service

// Convert returns amount expressed in quote units. Plain float multiply, no
// rounding.
func Convert(rate, amount float64) float64 {
	if amount == 0 {
		return 0
	}

	return rate * amount
}
