package model

// Swap is a persisted swap with its USD valuation.
type Swap struct {
	ID           string  `json:"id"`
	ChainID      uint64  `json:"chain_id"`
	PoolID       string  `json:"pool_id"`
	Sender       string  `json:"sender"`
	BlockNumber  uint64  `json:"block_number"`
	Timestamp    uint64  `json:"timestamp"`
	Amount0      string  `json:"amount0"`
	Amount1      string  `json:"amount1"`
	Fee0         string  `json:"fee0"`
	Fee1         string  `json:"fee1"`
	SqrtPriceX96 string  `json:"sqrt_price_x96"`
	Tick         int32   `json:"tick"`
	FeeRate      uint32  `json:"fee_rate"`
	Price0USD    *string `json:"price0_usd"`
	Price1USD    *string `json:"price1_usd"`
	VolumeUSD    *string `json:"volume_usd"`
	FeesUSD      *string `json:"fees_usd"`
}

// FeeUpdate records a hook fee change.
type FeeUpdate struct {
	ID          string `json:"id"`
	ChainID     uint64 `json:"chain_id"`
	PoolID      string `json:"pool_id"`
	OldFee      uint32 `json:"old_fee"`
	NewFee      uint32 `json:"new_fee"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   uint64 `json:"timestamp"`
}
