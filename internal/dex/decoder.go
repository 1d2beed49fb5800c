package dex

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"go.uber.org/zap"

	"poolLedger/internal/model"
)

// Decoder defines a log decoder.
type Decoder interface {
	CanDecode(topic0 string) bool
	Decode(log model.LogRecord, ctx DecodeContext) (*model.TypedEvent, error)
}

// ContractCaller performs read-only contract calls. *chain.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// DecodeContext provides shared dependencies for decoders.
// Chain may be nil, in which case token metadata is only served from the cache.
type DecodeContext struct {
	Context        context.Context
	Chain          ContractCaller
	TokenMetaCache *TokenMetaCache
	Logger         *zap.Logger
	CallTimeout    time.Duration
}

func (c DecodeContext) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c DecodeContext) callContext() (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	if c.CallTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.CallTimeout)
}
