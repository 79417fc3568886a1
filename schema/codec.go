package schema

import (
	"encoding/json"
	"fmt"
)

// DecodeMarketTick reads a stored tick. Only malformed JSON is an error; the
// content is not validated, so callers audit it afterwards.
func DecodeMarketTick(data []byte) (*MarketTick, error) {
	var f MarketTickFields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode market tick: %w", err)
	}
	return AssembleMarketTick(f), nil
}

// DecodeTrade reads a stored trade without validating it.
func DecodeTrade(data []byte) (*Trade, error) {
	var f TradeFields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode trade: %w", err)
	}
	return AssembleTrade(f), nil
}
