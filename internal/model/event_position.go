package model

// EventPosition is the canonical ordering key of a log.
type EventPosition struct {
	BlockNumber uint64 `json:"block_number"`
	TxIndex     uint64 `json:"tx_index"`
	LogIndex    uint64 `json:"log_index"`
}

// Compare returns -1, 0 or 1 ordering p against other by block, tx index, log index.
func (p EventPosition) Compare(other EventPosition) int {
	switch {
	case p.BlockNumber != other.BlockNumber:
		return cmpUint(p.BlockNumber, other.BlockNumber)
	case p.TxIndex != other.TxIndex:
		return cmpUint(p.TxIndex, other.TxIndex)
	default:
		return cmpUint(p.LogIndex, other.LogIndex)
	}
}

// Before reports whether p sorts strictly before other.
func (p EventPosition) Before(other EventPosition) bool {
	return p.Compare(other) < 0
}

// IsZero reports whether no event has been recorded.
func (p EventPosition) IsZero() bool {
	return p == EventPosition{}
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
