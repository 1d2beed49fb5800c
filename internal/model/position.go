package model

import (
	"fmt"
	"strings"
)

// Position is an owner's liquidity in one tick range of a pool.
type Position struct {
	ID        string `json:"id"`
	PoolID    string `json:"pool_id"`
	Owner     string `json:"owner"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Salt      string `json:"salt"`
	Liquidity string `json:"liquidity"`
}

// PositionID formats the pool-owner-tickLower-tickUpper-salt key.
func PositionID(poolID, owner string, tickLower, tickUpper int32, salt string) string {
	return fmt.Sprintf("%s-%s-%d-%d-%s", strings.ToLower(poolID), strings.ToLower(owner), tickLower, tickUpper, strings.ToLower(salt))
}
