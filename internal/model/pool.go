package model

// Pool is the persisted state of a PoolManager pool.
// Amounts are base-10 integer strings; USD figures are nil when unpriced.
type Pool struct {
	ChainID            uint64  `json:"chain_id"`
	ID                 string  `json:"id"`
	Token0             string  `json:"token0"`
	Token1             string  `json:"token1"`
	Fee                uint32  `json:"fee"`
	TickSpacing        int32   `json:"tick_spacing"`
	Hooks              string  `json:"hooks"`
	SqrtPriceX96       string  `json:"sqrt_price_x96"`
	Tick               int32   `json:"tick"`
	Liquidity          string  `json:"liquidity"`
	Reserve0           string  `json:"reserve0"`
	Reserve1           string  `json:"reserve1"`
	TVLUSD             *string `json:"tvl_usd"`
	TxCount            uint64  `json:"tx_count"`
	CreatedAtBlock     uint64  `json:"created_at_block"`
	CreatedAtTimestamp uint64  `json:"created_at_timestamp"`
	UpdatedAtBlock     uint64  `json:"updated_at_block"`
}
