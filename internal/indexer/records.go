package indexer

import (
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"poolLedger/internal/model"
)

func buildLogRecord(chainID uint64, log types.Log, timestamp uint64, ingestedAt time.Time) model.LogRecord {
	topics := make([]string, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, topic.Hex())
	}

	return model.LogRecord{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		TxIndex:     uint64(log.TxIndex),
		LogIndex:    uint64(log.Index),
		Address:     log.Address.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(log.Data),
		Removed:     log.Removed,
		Timestamp:   timestamp,
		IngestedAt:  ingestedAt.UTC().Format(time.RFC3339Nano),
	}
}

// SortLogRecords orders records by (block, tx index, log index), the order
// the ledger folds them in.
func SortLogRecords(records []model.LogRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Position().Before(records[j].Position())
	})
}

// blockNumbers returns the distinct block numbers of logs in ascending order.
func blockNumbers(logs []types.Log) []uint64 {
	seen := make(map[uint64]struct{}, len(logs))
	numbers := make([]uint64, 0, len(logs))
	for _, log := range logs {
		if _, ok := seen[log.BlockNumber]; ok {
			continue
		}
		seen[log.BlockNumber] = struct{}{}
		numbers = append(numbers, log.BlockNumber)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers
}

// senderTxHashes returns the distinct transaction hashes of logs whose topic0
// is in topics, in first-seen order.
func senderTxHashes(logs []types.Log, topics []common.Hash) []common.Hash {
	if len(topics) == 0 {
		return nil
	}
	wanted := make(map[common.Hash]struct{}, len(topics))
	for _, topic := range topics {
		wanted[topic] = struct{}{}
	}
	seen := make(map[common.Hash]struct{})
	var hashes []common.Hash
	for _, log := range logs {
		if len(log.Topics) == 0 {
			continue
		}
		if _, ok := wanted[log.Topics[0]]; !ok {
			continue
		}
		if _, ok := seen[log.TxHash]; ok {
			continue
		}
		seen[log.TxHash] = struct{}{}
		hashes = append(hashes, log.TxHash)
	}
	return hashes
}
