// Package rules holds the data-quality rules shared by record construction
// and post-hoc contract validation. Both paths call into this package so the
// limits below exist exactly once.
package rules

import "regexp"

const (
	MaxSymbolLength  = 10
	MaxDecimalPlaces = 4
	MaxFutureMinutes = 5
	MinValidYear     = 2000
	// MaxExponent bounds the power of ten a price or quantity may carry.
	MaxExponent = 64

	SideBuy  = "BUY"
	SideSell = "SELL"
)

// SymbolPattern matches uppercase tickers such as AAPL or BRK.B.
var SymbolPattern = regexp.MustCompile(`^[A-Z0-9.]{1,10}$`)

// ValidSides lists the only accepted trade side tokens.
var ValidSides = []string{SideBuy, SideSell}
