package pricing

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DivisionPrecision is the number of decimal places kept by price divisions.
const DivisionPrecision = 30

var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// PoolQuote is the slice of pool state needed to derive prices.
type PoolQuote struct {
	ID           common.Hash
	Token0       common.Address
	Token1       common.Address
	Decimals0    uint8
	Decimals1    uint8
	SqrtPriceX96 *big.Int
}

// Companion returns the other token of the pool, or false if token is not in it.
func (q PoolQuote) Companion(token common.Address) (common.Address, bool) {
	switch token {
	case q.Token0:
		return q.Token1, true
	case q.Token1:
		return q.Token0, true
	default:
		return common.Address{}, false
	}
}

// PoolSource provides the latest known state of a pool.
type PoolSource interface {
	Quote(id common.Hash) (PoolQuote, bool)
}

// Resolver derives USD prices from stable anchors and reference pools.
type Resolver struct {
	graph  Graph
	source PoolSource
	logger *zap.Logger
}

func NewResolver(graph Graph, source PoolSource, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if graph.MaxHops <= 0 {
		graph.MaxHops = defaultMaxHops
	}
	return &Resolver{graph: graph, source: source, logger: logger}
}

// Graph returns the configured reference graph.
func (r *Resolver) Graph() Graph {
	return r.graph
}

// Resolve returns token's USD price. contextPool, when set, is tried first
// if it pairs token directly with a stable token.
func (r *Resolver) Resolve(token common.Address, contextPool *common.Hash) Price {
	if price, ok := r.graph.StablePrice(token); ok {
		return KnownPrice(price)
	}

	if contextPool != nil {
		if price, ok := r.fromContext(token, *contextPool); ok {
			return price
		}
	}

	price := r.fromGraph(token, 0)
	if !price.Known {
		r.logger.Debug("usd price undeterminable", zap.String("token", token.Hex()))
	}
	return price
}

func (r *Resolver) fromContext(token common.Address, poolID common.Hash) (Price, bool) {
	quote, ok := r.source.Quote(poolID)
	if !ok {
		return NoPrice, false
	}
	companion, ok := quote.Companion(token)
	if !ok {
		return NoPrice, false
	}
	stablePrice, ok := r.graph.StablePrice(companion)
	if !ok {
		return NoPrice, false
	}
	ratio, ok := DerivePrice(quote, token)
	if !ok {
		return NoPrice, false
	}
	return KnownPrice(ratio.Mul(stablePrice)), true
}

func (r *Resolver) fromGraph(token common.Address, hops int) Price {
	poolID, ok := r.graph.ReferencePools[token]
	if !ok {
		return NoPrice
	}
	quote, ok := r.source.Quote(poolID)
	if !ok {
		r.logger.Debug("reference pool not tracked", zap.String("pool", poolID.Hex()), zap.String("token", token.Hex()))
		return NoPrice
	}
	companion, ok := quote.Companion(token)
	if !ok {
		r.logger.Warn("reference pool does not contain token", zap.String("pool", poolID.Hex()), zap.String("token", token.Hex()))
		return NoPrice
	}
	if anchor, ok := r.graph.Anchors[poolID]; ok && anchor != companion {
		r.logger.Warn("reference pool anchor mismatch", zap.String("pool", poolID.Hex()), zap.String("anchor", anchor.Hex()))
		return NoPrice
	}

	var companionPrice Price
	if stable, ok := r.graph.StablePrice(companion); ok {
		companionPrice = KnownPrice(stable)
	} else if hops < r.graph.MaxHops {
		companionPrice = r.fromGraph(companion, hops+1)
	}
	if !companionPrice.Known {
		return NoPrice
	}

	ratio, ok := DerivePrice(quote, token)
	if !ok {
		return NoPrice
	}
	return KnownPrice(ratio.Mul(companionPrice.USD))
}

// DerivePrice returns target's price in units of the pool's other token.
// The pool ratio is sqrtPriceX96^2 / 2^192 scaled by 10^(decimals0 - decimals1);
// a token0 target gets its reciprocal, a token1 target gets the ratio itself.
// A zero price yields false.
func DerivePrice(quote PoolQuote, target common.Address) (decimal.Decimal, bool) {
	if quote.SqrtPriceX96 == nil || quote.SqrtPriceX96.Sign() <= 0 {
		return decimal.Zero, false
	}

	num := new(big.Int).Mul(quote.SqrtPriceX96, quote.SqrtPriceX96)
	num.Mul(num, pow10(quote.Decimals0))
	den := new(big.Int).Mul(q192, pow10(quote.Decimals1))

	switch target {
	case quote.Token0:
		num, den = den, num
	case quote.Token1:
	default:
		return decimal.Zero, false
	}
	if den.Sign() == 0 || num.Sign() == 0 {
		return decimal.Zero, false
	}

	price := decimal.NewFromBigInt(num, 0).DivRound(decimal.NewFromBigInt(den, 0), DivisionPrecision)
	if price.IsZero() {
		return decimal.Zero, false
	}
	return price, true
}

func pow10(exp uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}
