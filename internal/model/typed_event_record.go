package model

import "encoding/json"

// TypedEventRecord is the JSON representation read back by the ledger.
type TypedEventRecord struct {
	ChainID     uint64          `json:"chain_id"`
	BlockNumber uint64          `json:"block_number"`
	BlockHash   string          `json:"block_hash"`
	TxHash      string          `json:"tx_hash"`
	TxIndex     uint64          `json:"tx_index"`
	LogIndex    uint64          `json:"log_index"`
	Address     string          `json:"address"`
	PoolID      string          `json:"pool_id"`
	EventName   string          `json:"event_name"`
	Timestamp   uint64          `json:"timestamp"`
	Decoded     json.RawMessage `json:"decoded"`
	Raw         *RawLogRef      `json:"raw,omitempty"`
}

// Position returns the record's canonical ordering key.
func (r TypedEventRecord) Position() EventPosition {
	return EventPosition{BlockNumber: r.BlockNumber, TxIndex: r.TxIndex, LogIndex: r.LogIndex}
}

// EventID is the txHash-logIndex identifier used for swap and fee update rows.
func (r TypedEventRecord) EventID() string {
	return EventID(r.TxHash, r.LogIndex)
}
