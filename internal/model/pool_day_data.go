package model

import (
	"fmt"
	"strings"
	"time"
)

// SecondsPerDay is the width of a PoolDayData bucket.
const SecondsPerDay = 86400

// PoolDayData stores per-day aggregates for a pool.
type PoolDayData struct {
	ID            string    `json:"id"`
	ChainID       uint64    `json:"chain_id"`
	PoolID        string    `json:"pool_id"`
	DayID         int64     `json:"day_id"`
	Date          time.Time `json:"date"`
	SwapCount     uint64    `json:"swap_count"`
	UnpricedSwaps uint64    `json:"unpriced_swaps"`
	Volume0       string    `json:"volume0"`
	Volume1       string    `json:"volume1"`
	Fee0          string    `json:"fee0"`
	Fee1          string    `json:"fee1"`
	VolumeUSD     string    `json:"volume_usd"`
	FeesUSD       string    `json:"fees_usd"`
	TVLUSD        *string   `json:"tvl_usd"`
	FeeAPR        *string   `json:"fee_apr"`
	FeeRate       uint32    `json:"fee_rate"`
}

// DayID buckets a unix timestamp into a day number.
func DayID(timestamp uint64) int64 {
	return int64(timestamp / SecondsPerDay)
}

// PoolDayID formats the poolId-dayId key.
func PoolDayID(poolID string, dayID int64) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(poolID), dayID)
}
