package model

// Event names emitted by the decoder.
const (
	EventInitialize      = "Initialize"
	EventModifyLiquidity = "ModifyLiquidity"
	EventSwap            = "Swap"
	EventFeeUpdated      = "FeeUpdated"
)

// InitializeEventData is the decoded PoolManager Initialize payload.
// Token0 and Token1 carry ERC20 metadata resolved at decode time.
type InitializeEventData struct {
	PoolID       string     `json:"pool_id"`
	Currency0    string     `json:"currency0"`
	Currency1    string     `json:"currency1"`
	Fee          uint32     `json:"fee"`
	TickSpacing  int32      `json:"tick_spacing"`
	Hooks        string     `json:"hooks"`
	SqrtPriceX96 string     `json:"sqrt_price_x96"`
	Tick         int32      `json:"tick"`
	Token0       *TokenMeta `json:"token0,omitempty"`
	Token1       *TokenMeta `json:"token1,omitempty"`
}

// ModifyLiquidityEventData is the decoded ModifyLiquidity payload.
// LiquidityDelta is signed: positive deposits, negative withdraws.
type ModifyLiquidityEventData struct {
	PoolID         string `json:"pool_id"`
	Sender         string `json:"sender"`
	TickLower      int32  `json:"tick_lower"`
	TickUpper      int32  `json:"tick_upper"`
	LiquidityDelta string `json:"liquidity_delta"`
	Salt           string `json:"salt"`
	// Origin is the transaction sender, the position's owner. Empty when the
	// log was fetched without it; Sender is used instead.
	Origin string `json:"origin,omitempty"`
}

// SwapEventData is the decoded Swap payload. Amount0 and Amount1 are the
// pool's balance deltas: positive flows into the pool, negative flows out.
type SwapEventData struct {
	PoolID       string `json:"pool_id"`
	Sender       string `json:"sender"`
	Amount0      string `json:"amount0"`
	Amount1      string `json:"amount1"`
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Liquidity    string `json:"liquidity"`
	Tick         int32  `json:"tick"`
	Fee          uint32 `json:"fee"`
}

// FeeUpdatedEventData is the decoded hook FeeUpdated payload.
type FeeUpdatedEventData struct {
	PoolID string `json:"pool_id"`
	Fee    uint32 `json:"fee"`
}
