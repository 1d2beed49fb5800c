package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// maxCachedTimestamps bounds the block timestamp cache.
const maxCachedTimestamps = 50_000

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	id, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	if !id.IsUint64() {
		return 0, fmt.Errorf("chain id does not fit in uint64: %s", id)
	}
	return id.Uint64(), nil
}

func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// BlockTimestamps returns timestamps for the given blocks. Cached blocks are
// served from memory; the rest are fetched in one batched header request.
func (c *Client) BlockTimestamps(ctx context.Context, numbers []uint64) (map[uint64]uint64, error) {
	out := make(map[uint64]uint64, len(numbers))
	missing := make([]uint64, 0, len(numbers))
	queued := make(map[uint64]struct{}, len(numbers))

	c.mu.RLock()
	for _, number := range numbers {
		if ts, ok := c.tsCache[number]; ok {
			out[number] = ts
			continue
		}
		if _, ok := queued[number]; !ok {
			queued[number] = struct{}{}
			missing = append(missing, number)
		}
	}
	c.mu.RUnlock()
	if len(missing) == 0 {
		return out, nil
	}

	headers := make([]*types.Header, len(missing))
	batch := make([]rpc.BatchElem, len(missing))
	for i, number := range missing {
		batch[i] = rpc.BatchElem{
			Method: "eth_getBlockByNumber",
			Args:   []interface{}{hexutil.EncodeBig(new(big.Int).SetUint64(number)), false},
			Result: &headers[i],
		}
	}
	if err := c.rpcClient.BatchCallContext(ctx, batch); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tsCache)+len(missing) > maxCachedTimestamps {
		c.tsCache = make(map[uint64]uint64)
	}
	for i, elem := range batch {
		if elem.Error != nil {
			return nil, fmt.Errorf("header %d: %w", missing[i], elem.Error)
		}
		if headers[i] == nil {
			return nil, fmt.Errorf("header %d: %w", missing[i], ethereum.NotFound)
		}
		out[missing[i]] = headers[i].Time
		c.tsCache[missing[i]] = headers[i].Time
	}
	return out, nil
}

type txSender struct {
	From common.Address `json:"from"`
}

// TransactionSenders returns the origin (from) address of each transaction,
// fetched in one batched eth_getTransactionByHash request.
func (c *Client) TransactionSenders(ctx context.Context, hashes []common.Hash) (map[common.Hash]common.Address, error) {
	out := make(map[common.Hash]common.Address, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	txs := make([]*txSender, len(hashes))
	batch := make([]rpc.BatchElem, len(hashes))
	for i, hash := range hashes {
		batch[i] = rpc.BatchElem{
			Method: "eth_getTransactionByHash",
			Args:   []interface{}{hash},
			Result: &txs[i],
		}
	}
	if err := c.rpcClient.BatchCallContext(ctx, batch); err != nil {
		return nil, err
	}

	for i, elem := range batch {
		if elem.Error != nil {
			return nil, fmt.Errorf("transaction %s: %w", hashes[i].Hex(), elem.Error)
		}
		if txs[i] == nil {
			return nil, fmt.Errorf("transaction %s: %w", hashes[i].Hex(), ethereum.NotFound)
		}
		out[hashes[i]] = txs[i].From
	}
	return out, nil
}

// FilterLogs returns logs emitted by addresses in the given range. Each
// non-empty topics entry restricts that topic position to the listed hashes.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	addresses []common.Address,
	topics ...[]common.Hash,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}
	last := -1
	for i, set := range topics {
		if len(set) > 0 {
			last = i
		}
	}
	if last >= 0 {
		query.Topics = make([][]common.Hash, last+1)
		for i := 0; i <= last; i++ {
			query.Topics[i] = topics[i]
		}
	}
	return c.ethClient.FilterLogs(ctx, query)
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}
