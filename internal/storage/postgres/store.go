package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolLedger/internal/model"
	"poolLedger/internal/storage"
)

// Store provides Postgres persistence for ledger rows and snapshots.
type Store struct {
	pool    *pgxpool.Pool
	chainID uint64
}

func NewStore(ctx context.Context, dsn string, chainID uint64) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, chainID: chainID}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the ledger tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Flush writes a changeset in one transaction.
func (s *Store) Flush(ctx context.Context, changes *model.Changeset) error {
	if changes.Empty() {
		return nil
	}
	batch := &pgx.Batch{}
	queueChangeset(batch, s.chainID, changes)

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("flush row %d: %w", i, err)
			}
		}
		return br.Close()
	})
}

// queueChangeset queues statements in the same order the JSONL sink writes rows.
func queueChangeset(batch *pgx.Batch, chainID uint64, changes *model.Changeset) {
	for _, raw := range storage.ChangeRows(changes) {
		row := raw.(storage.ChangeRow)
		switch v := row.Row.(type) {
		case model.Token:
			queueToken(batch, v)
		case model.Pool:
			queuePool(batch, v)
		case model.Position:
			queuePosition(batch, chainID, v)
		case model.Swap:
			queueSwap(batch, v)
		case model.FeeUpdate:
			queueFeeUpdate(batch, v)
		case model.PoolDayData:
			queueDayData(batch, v)
		case nil:
			if row.Op == storage.OpDelete {
				batch.Queue(`DELETE FROM hook_positions WHERE chain_id = $1 AND id = $2`, int64(chainID), row.ID)
			}
		}
	}
}

func queueToken(batch *pgx.Batch, token model.Token) {
	batch.Queue(`
		INSERT INTO tokens (chain_id, address, symbol, name, decimals, price_usd, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (chain_id, address)
		DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			decimals = EXCLUDED.decimals,
			price_usd = EXCLUDED.price_usd,
			updated_at = now()
	`,
		int64(token.ChainID),
		token.Address,
		token.Symbol,
		token.Name,
		int16(token.Decimals),
		token.PriceUSD,
	)
}

func queuePool(batch *pgx.Batch, pool model.Pool) {
	batch.Queue(`
		INSERT INTO tracked_pools (
			chain_id, id, token0, token1, fee, tick_spacing, hooks, sqrt_price_x96, tick, liquidity,
			reserve0, reserve1, tvl_usd, tx_count, created_at_block, created_at_ts, updated_at_block, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,now())
		ON CONFLICT (chain_id, id)
		DO UPDATE SET
			fee = EXCLUDED.fee,
			sqrt_price_x96 = EXCLUDED.sqrt_price_x96,
			tick = EXCLUDED.tick,
			liquidity = EXCLUDED.liquidity,
			reserve0 = EXCLUDED.reserve0,
			reserve1 = EXCLUDED.reserve1,
			tvl_usd = EXCLUDED.tvl_usd,
			tx_count = EXCLUDED.tx_count,
			updated_at_block = EXCLUDED.updated_at_block,
			updated_at = now()
	`,
		int64(pool.ChainID),
		pool.ID,
		pool.Token0,
		pool.Token1,
		int64(pool.Fee),
		pool.TickSpacing,
		pool.Hooks,
		pool.SqrtPriceX96,
		pool.Tick,
		pool.Liquidity,
		pool.Reserve0,
		pool.Reserve1,
		pool.TVLUSD,
		int64(pool.TxCount),
		int64(pool.CreatedAtBlock),
		int64(pool.CreatedAtTimestamp),
		int64(pool.UpdatedAtBlock),
	)
}

func queuePosition(batch *pgx.Batch, chainID uint64, position model.Position) {
	batch.Queue(`
		INSERT INTO hook_positions (chain_id, id, pool_id, owner, tick_lower, tick_upper, salt, liquidity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (chain_id, id)
		DO UPDATE SET liquidity = EXCLUDED.liquidity, updated_at = now()
	`,
		int64(chainID),
		position.ID,
		position.PoolID,
		position.Owner,
		position.TickLower,
		position.TickUpper,
		position.Salt,
		position.Liquidity,
	)
}

func queueSwap(batch *pgx.Batch, swap model.Swap) {
	batch.Queue(`
		INSERT INTO swaps (
			chain_id, id, pool_id, sender, block_number, ts, amount0, amount1, fee0, fee1,
			sqrt_price_x96, tick, fee_rate, price0_usd, price1_usd, volume_usd, fees_usd
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (chain_id, id) DO NOTHING
	`,
		int64(swap.ChainID),
		swap.ID,
		swap.PoolID,
		swap.Sender,
		int64(swap.BlockNumber),
		int64(swap.Timestamp),
		swap.Amount0,
		swap.Amount1,
		swap.Fee0,
		swap.Fee1,
		swap.SqrtPriceX96,
		swap.Tick,
		int64(swap.FeeRate),
		swap.Price0USD,
		swap.Price1USD,
		swap.VolumeUSD,
		swap.FeesUSD,
	)
}

func queueFeeUpdate(batch *pgx.Batch, update model.FeeUpdate) {
	batch.Queue(`
		INSERT INTO fee_updates (chain_id, id, pool_id, old_fee, new_fee, block_number, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (chain_id, id) DO NOTHING
	`,
		int64(update.ChainID),
		update.ID,
		update.PoolID,
		int64(update.OldFee),
		int64(update.NewFee),
		int64(update.BlockNumber),
		int64(update.Timestamp),
	)
}

func queueDayData(batch *pgx.Batch, day model.PoolDayData) {
	batch.Queue(`
		INSERT INTO pool_day_data (
			chain_id, id, pool_id, day_id, date, swap_count, unpriced_swaps, volume0, volume1,
			fee0, fee1, volume_usd, fees_usd, tvl_usd, fee_apr, fee_rate, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now())
		ON CONFLICT (chain_id, id)
		DO UPDATE SET
			swap_count = EXCLUDED.swap_count,
			unpriced_swaps = EXCLUDED.unpriced_swaps,
			volume0 = EXCLUDED.volume0,
			volume1 = EXCLUDED.volume1,
			fee0 = EXCLUDED.fee0,
			fee1 = EXCLUDED.fee1,
			volume_usd = EXCLUDED.volume_usd,
			fees_usd = EXCLUDED.fees_usd,
			tvl_usd = EXCLUDED.tvl_usd,
			fee_apr = EXCLUDED.fee_apr,
			fee_rate = EXCLUDED.fee_rate,
			updated_at = now()
	`,
		int64(day.ChainID),
		day.ID,
		day.PoolID,
		day.DayID,
		day.Date,
		int64(day.SwapCount),
		int64(day.UnpricedSwaps),
		day.Volume0,
		day.Volume1,
		day.Fee0,
		day.Fee1,
		day.VolumeUSD,
		day.FeesUSD,
		day.TVLUSD,
		day.FeeAPR,
		int64(day.FeeRate),
	)
}

// LoadSnapshot returns the serialized ledger snapshot stored under name.
func (s *Store) LoadSnapshot(ctx context.Context, name string) ([]byte, bool, error) {
	if name == "" {
		return nil, false, fmt.Errorf("state name required")
	}
	var data []byte
	row := s.pool.QueryRow(ctx, `SELECT snapshot FROM ledger_state WHERE name=$1`, name)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// SaveSnapshot upserts the serialized snapshot and its cursor for name.
func (s *Store) SaveSnapshot(ctx context.Context, name string, cursor model.EventPosition, data []byte) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_state (name, block_number, tx_index, log_index, snapshot, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (name) DO UPDATE
		SET block_number = EXCLUDED.block_number,
			tx_index = EXCLUDED.tx_index,
			log_index = EXCLUDED.log_index,
			snapshot = EXCLUDED.snapshot,
			updated_at = now()
	`, name, int64(cursor.BlockNumber), int64(cursor.TxIndex), int64(cursor.LogIndex), data)
	return err
}
