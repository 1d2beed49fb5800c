package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestLogRecordJSONRoundTrip(t *testing.T) {
	original := LogRecord{
		ChainID:     1,
		BlockNumber: 21688329,
		BlockHash:   "0xabc123",
		TxHash:      "0xdef456",
		TxIndex:     7,
		LogIndex:    12,
		Address:     "0x000000000004444c5dc75cb358380d2e3de08a90",
		Topics:      []string{"0xaaa", "0xbbb"},
		Data:        "0xdeadbeef",
		Removed:     false,
		Timestamp:   1737000000,
		IngestedAt:  "2025-01-16T00:00:00Z",
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded LogRecord
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
	if got := decoded.Position(); got != (EventPosition{BlockNumber: 21688329, TxIndex: 7, LogIndex: 12}) {
		t.Fatalf("unexpected position: %+v", got)
	}
}

func TestEventIDs(t *testing.T) {
	if got := EventID("0xABC", 4); got != "0xabc-4" {
		t.Fatalf("unexpected event id: %s", got)
	}
	if got := PositionID("0xPool", "0xOwner", -60, 120, "0x00"); got != "0xpool-0xowner--60-120-0x00" {
		t.Fatalf("unexpected position id: %s", got)
	}
	if got := PoolDayID("0xPool", DayID(1737000000)); got != "0xpool-20104" {
		t.Fatalf("unexpected day id: %s", got)
	}
}
