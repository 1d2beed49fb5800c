package ledger

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolLedger/internal/model"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if want, ok := labels[pair.GetName()]; ok {
			if want != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

func TestMetricsCountOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t)
	f.ledger.metrics = NewMetrics(reg)

	f.initialize(stablePool, usdc, usdt, 6, trackedHook)
	f.initialize(exoticPool, foo, bar, 18, trackedHook)
	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(exoticPool, -600, 600, "1000")))
	require.NoError(t, f.apply(model.EventSwap, swap(exoticPool, "10", "-9")))
	assert.Error(t, f.apply(model.EventSwap, swap(foreignPool, "10", "-9")))

	assert.Equal(t, 2.0, counterValue(t, reg, "poolledger_events_total",
		map[string]string{"event": model.EventInitialize, "outcome": OutcomeApplied}))
	assert.Equal(t, 1.0, counterValue(t, reg, "poolledger_events_total",
		map[string]string{"event": model.EventSwap, "outcome": OutcomeApplied}))
	assert.Equal(t, 1.0, counterValue(t, reg, "poolledger_events_total",
		map[string]string{"event": model.EventSwap, "outcome": OutcomeSkipped}))
	assert.Equal(t, 1.0, counterValue(t, reg, "poolledger_unpriced_total",
		map[string]string{"kind": "swap"}))
	assert.Equal(t, 2.0, counterValue(t, reg, "poolledger_unpriced_total",
		map[string]string{"kind": "tvl"}))
}

func TestUnpricedTVLSkipsUntrackedPools(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t)
	f.ledger.metrics = NewMetrics(reg)

	f.initialize(foreignPool, foo, bar, 18, otherHook)
	require.NoError(t, f.apply(model.EventModifyLiquidity, modify(foreignPool, -600, 600, "1000")))
	require.NoError(t, f.apply(model.EventSwap, swap(foreignPool, "10", "-9")))

	assert.Zero(t, counterValue(t, reg, "poolledger_unpriced_total",
		map[string]string{"kind": "tvl"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "poolledger_events_total",
		map[string]string{"event": model.EventSwap, "outcome": OutcomeApplied}))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.observeEvent(model.EventSwap, OutcomeApplied, 0)
	m.observeUnpriced("swap")

	unregistered := NewMetrics(nil)
	unregistered.observeUnpriced("tvl")
}
