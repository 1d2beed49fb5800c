package pricing

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

const defaultMaxHops = 1

// Graph is the reference-pool configuration used to price tokens in USD.
type Graph struct {
	// Stables maps USD-stable tokens to their fixed anchor price.
	Stables map[common.Address]decimal.Decimal
	// ReferencePools maps a non-stable token to the pool that prices it.
	ReferencePools map[common.Address]common.Hash
	// Anchors maps a reference pool to the token on its USD side.
	Anchors map[common.Hash]common.Address
	// MaxHops bounds how many intermediate tokens a lookup may cross.
	MaxHops int
}

// IsStable reports whether token is a configured USD-stable token.
func (g Graph) IsStable(token common.Address) bool {
	_, ok := g.Stables[token]
	return ok
}

// StablePrice returns the anchor price of a USD-stable token.
func (g Graph) StablePrice(token common.Address) (decimal.Decimal, bool) {
	price, ok := g.Stables[token]
	return price, ok
}

// ParseGraph builds a Graph from configuration string maps.
// An empty stable price defaults to 1.
func ParseGraph(stables, referencePools, anchors map[string]string, maxHops int) (Graph, error) {
	g := Graph{
		Stables:        make(map[common.Address]decimal.Decimal, len(stables)),
		ReferencePools: make(map[common.Address]common.Hash, len(referencePools)),
		Anchors:        make(map[common.Hash]common.Address, len(anchors)),
		MaxHops:        maxHops,
	}
	if g.MaxHops <= 0 {
		g.MaxHops = defaultMaxHops
	}

	for token, priceText := range stables {
		addr, err := ParseAddress(token)
		if err != nil {
			return Graph{}, fmt.Errorf("stable token: %w", err)
		}
		price := decimal.NewFromInt(1)
		if strings.TrimSpace(priceText) != "" {
			price, err = decimal.NewFromString(strings.TrimSpace(priceText))
			if err != nil {
				return Graph{}, fmt.Errorf("stable price for %s: %w", token, err)
			}
		}
		if price.Sign() <= 0 {
			return Graph{}, fmt.Errorf("stable price for %s must be positive", token)
		}
		g.Stables[addr] = price
	}

	for token, pool := range referencePools {
		addr, err := ParseAddress(token)
		if err != nil {
			return Graph{}, fmt.Errorf("reference token: %w", err)
		}
		id, err := ParsePoolID(pool)
		if err != nil {
			return Graph{}, fmt.Errorf("reference pool for %s: %w", token, err)
		}
		if g.IsStable(addr) {
			return Graph{}, fmt.Errorf("stable token %s must not have a reference pool", token)
		}
		g.ReferencePools[addr] = id
	}

	for pool, token := range anchors {
		id, err := ParsePoolID(pool)
		if err != nil {
			return Graph{}, fmt.Errorf("anchor pool: %w", err)
		}
		addr, err := ParseAddress(token)
		if err != nil {
			return Graph{}, fmt.Errorf("anchor token for %s: %w", pool, err)
		}
		if !g.IsStable(addr) {
			return Graph{}, fmt.Errorf("anchor token %s for pool %s is not a stable token", token, pool)
		}
		g.Anchors[id] = addr
	}

	return g, nil
}

// ParseAddress validates and converts a hex address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %s", input)
	}
	return common.HexToAddress(input), nil
}

// ParsePoolID validates and converts a 32-byte pool id.
func ParsePoolID(input string) (common.Hash, error) {
	data, err := hexutil.Decode(strings.TrimSpace(input))
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid pool id %s: %w", input, err)
	}
	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid pool id length: %s", input)
	}
	return common.BytesToHash(data), nil
}
