package dex

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"poolLedger/internal/model"
)

// DecoderConfig configures decoder behavior.
type DecoderConfig struct {
	Topic0Map map[string]string
}

// PoolManagerDecoder decodes singleton PoolManager events and the
// FeeUpdated event emitted by dynamic-fee hooks.
type PoolManagerDecoder struct {
	managerABI  abi.ABI
	hookABI     abi.ABI
	topicToName map[string]string
}

// NewPoolManagerDecoder builds a PoolManager decoder.
func NewPoolManagerDecoder(cfg DecoderConfig) (*PoolManagerDecoder, error) {
	managerABI, err := PoolManagerABI()
	if err != nil {
		return nil, err
	}
	hookABI, err := FeeHookABI()
	if err != nil {
		return nil, err
	}

	topicToName := map[string]string{
		strings.ToLower(managerABI.Events[model.EventInitialize].ID.Hex()):      model.EventInitialize,
		strings.ToLower(managerABI.Events[model.EventModifyLiquidity].ID.Hex()): model.EventModifyLiquidity,
		strings.ToLower(managerABI.Events[model.EventSwap].ID.Hex()):            model.EventSwap,
		strings.ToLower(hookABI.Events[model.EventFeeUpdated].ID.Hex()):         model.EventFeeUpdated,
	}

	for topic0, name := range cfg.Topic0Map {
		original := name
		name = normalizeEventName(name)
		if name == "" {
			return nil, fmt.Errorf("unsupported event name in topic0 map: %s", original)
		}
		if topic0 == "" {
			continue
		}
		topicToName[strings.ToLower(topic0)] = name
	}

	return &PoolManagerDecoder{
		managerABI:  managerABI,
		hookABI:     hookABI,
		topicToName: topicToName,
	}, nil
}

// Topic0s returns every topic0 the decoder understands.
func (d *PoolManagerDecoder) Topic0s() []common.Hash {
	out := make([]common.Hash, 0, len(d.topicToName))
	for topic := range d.topicToName {
		out = append(out, common.HexToHash(topic))
	}
	return out
}

// OriginTopic0s returns the topic0s whose logs need the transaction origin:
// ModifyLiquidity positions are owned by it.
func (d *PoolManagerDecoder) OriginTopic0s() []common.Hash {
	return []common.Hash{d.managerABI.Events[model.EventModifyLiquidity].ID}
}

// CanDecode checks if the topic0 is supported.
func (d *PoolManagerDecoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *PoolManagerDecoder) Decode(log model.LogRecord, ctx DecodeContext) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid emitter address: %s", log.Address)
	}

	switch name {
	case model.EventInitialize:
		decoded, err := d.decodeInitialize(log)
		if err != nil {
			return nil, err
		}
		decoded.Token0 = ResolveTokenMeta(ctx, common.HexToAddress(decoded.Currency0))
		decoded.Token1 = ResolveTokenMeta(ctx, common.HexToAddress(decoded.Currency1))
		return buildTypedEvent(log, name, decoded.PoolID, decoded), nil
	case model.EventModifyLiquidity:
		decoded, err := d.decodeModifyLiquidity(log)
		if err != nil {
			return nil, err
		}
		return buildTypedEvent(log, name, decoded.PoolID, decoded), nil
	case model.EventSwap:
		decoded, err := d.decodeSwap(log)
		if err != nil {
			return nil, err
		}
		return buildTypedEvent(log, name, decoded.PoolID, decoded), nil
	case model.EventFeeUpdated:
		decoded, err := d.decodeFeeUpdated(log)
		if err != nil {
			return nil, err
		}
		return buildTypedEvent(log, name, decoded.PoolID, decoded), nil
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
}

func normalizeEventName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "initialize":
		return model.EventInitialize
	case "modifyliquidity":
		return model.EventModifyLiquidity
	case "swap":
		return model.EventSwap
	case "feeupdated":
		return model.EventFeeUpdated
	default:
		return ""
	}
}

func buildTypedEvent(log model.LogRecord, name, poolID string, decoded interface{}) *model.TypedEvent {
	raw := &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data}
	return &model.TypedEvent{
		ChainID:     log.ChainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		TxIndex:     log.TxIndex,
		LogIndex:    log.LogIndex,
		Address:     log.Address,
		PoolID:      poolID,
		EventName:   name,
		Timestamp:   log.Timestamp,
		Decoded:     decoded,
		Raw:         raw,
	}
}

func (d *PoolManagerDecoder) decodeInitialize(log model.LogRecord) (model.InitializeEventData, error) {
	event := d.managerABI.Events[model.EventInitialize]
	topics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.InitializeEventData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.InitializeEventData{}, err
	}
	if len(values) != 5 {
		return model.InitializeEventData{}, fmt.Errorf("unexpected initialize values: %d", len(values))
	}

	fee, err := uint24FromValue(values[0])
	if err != nil {
		return model.InitializeEventData{}, fmt.Errorf("fee: %w", err)
	}
	tickSpacing, err := int24FromValue(values[1])
	if err != nil {
		return model.InitializeEventData{}, fmt.Errorf("tick spacing: %w", err)
	}
	hooks, err := asAddress(values[2])
	if err != nil {
		return model.InitializeEventData{}, err
	}
	sqrtPrice, err := asBigInt(values[3])
	if err != nil {
		return model.InitializeEventData{}, err
	}
	tick, err := int24FromValue(values[4])
	if err != nil {
		return model.InitializeEventData{}, fmt.Errorf("tick: %w", err)
	}

	return model.InitializeEventData{
		PoolID:       topics[0].Hex(),
		Currency0:    common.BytesToAddress(topics[1].Bytes()).Hex(),
		Currency1:    common.BytesToAddress(topics[2].Bytes()).Hex(),
		Fee:          fee,
		TickSpacing:  tickSpacing,
		Hooks:        hooks.Hex(),
		SqrtPriceX96: sqrtPrice.String(),
		Tick:         tick,
	}, nil
}

func (d *PoolManagerDecoder) decodeModifyLiquidity(log model.LogRecord) (model.ModifyLiquidityEventData, error) {
	event := d.managerABI.Events[model.EventModifyLiquidity]
	topics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.ModifyLiquidityEventData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.ModifyLiquidityEventData{}, err
	}
	if len(values) != 4 {
		return model.ModifyLiquidityEventData{}, fmt.Errorf("unexpected modify liquidity values: %d", len(values))
	}

	tickLower, err := int24FromValue(values[0])
	if err != nil {
		return model.ModifyLiquidityEventData{}, fmt.Errorf("tick lower: %w", err)
	}
	tickUpper, err := int24FromValue(values[1])
	if err != nil {
		return model.ModifyLiquidityEventData{}, fmt.Errorf("tick upper: %w", err)
	}
	delta, err := asBigInt(values[2])
	if err != nil {
		return model.ModifyLiquidityEventData{}, err
	}
	salt, err := asBytes32(values[3])
	if err != nil {
		return model.ModifyLiquidityEventData{}, err
	}

	origin := ""
	if log.TxFrom != "" {
		if !common.IsHexAddress(log.TxFrom) {
			return model.ModifyLiquidityEventData{}, fmt.Errorf("invalid tx origin %q", log.TxFrom)
		}
		origin = common.HexToAddress(log.TxFrom).Hex()
	}

	return model.ModifyLiquidityEventData{
		PoolID:         topics[0].Hex(),
		Sender:         common.BytesToAddress(topics[1].Bytes()).Hex(),
		TickLower:      tickLower,
		TickUpper:      tickUpper,
		LiquidityDelta: delta.String(),
		Salt:           salt.Hex(),
		Origin:         origin,
	}, nil
}

// decodeSwap reports amounts as pool balance deltas. The PoolManager emits
// the swapper's deltas, so both amounts are negated.
func (d *PoolManagerDecoder) decodeSwap(log model.LogRecord) (model.SwapEventData, error) {
	event := d.managerABI.Events[model.EventSwap]
	topics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.SwapEventData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.SwapEventData{}, err
	}
	if len(values) != 6 {
		return model.SwapEventData{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	amount0, err := asBigInt(values[0])
	if err != nil {
		return model.SwapEventData{}, err
	}
	amount1, err := asBigInt(values[1])
	if err != nil {
		return model.SwapEventData{}, err
	}
	sqrtPrice, err := asBigInt(values[2])
	if err != nil {
		return model.SwapEventData{}, err
	}
	liquidity, err := asBigInt(values[3])
	if err != nil {
		return model.SwapEventData{}, err
	}
	tick, err := int24FromValue(values[4])
	if err != nil {
		return model.SwapEventData{}, fmt.Errorf("tick: %w", err)
	}
	fee, err := uint24FromValue(values[5])
	if err != nil {
		return model.SwapEventData{}, fmt.Errorf("fee: %w", err)
	}

	return model.SwapEventData{
		PoolID:       topics[0].Hex(),
		Sender:       common.BytesToAddress(topics[1].Bytes()).Hex(),
		Amount0:      new(big.Int).Neg(amount0).String(),
		Amount1:      new(big.Int).Neg(amount1).String(),
		SqrtPriceX96: sqrtPrice.String(),
		Liquidity:    liquidity.String(),
		Tick:         tick,
		Fee:          fee,
	}, nil
}

func (d *PoolManagerDecoder) decodeFeeUpdated(log model.LogRecord) (model.FeeUpdatedEventData, error) {
	event := d.hookABI.Events[model.EventFeeUpdated]
	topics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.FeeUpdatedEventData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.FeeUpdatedEventData{}, err
	}
	if len(values) != 1 {
		return model.FeeUpdatedEventData{}, fmt.Errorf("unexpected fee updated values: %d", len(values))
	}
	fee, err := uint24FromValue(values[0])
	if err != nil {
		return model.FeeUpdatedEventData{}, fmt.Errorf("fee: %w", err)
	}

	return model.FeeUpdatedEventData{
		PoolID: topics[0].Hex(),
		Fee:    fee,
	}, nil
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return parseTopicHashes(topics[1:])
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
