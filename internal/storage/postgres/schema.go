package postgres

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tokens (
		chain_id BIGINT NOT NULL,
		address TEXT NOT NULL,
		symbol TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		decimals SMALLINT NOT NULL,
		price_usd NUMERIC,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (chain_id, address)
	)`,
	`CREATE TABLE IF NOT EXISTS tracked_pools (
		chain_id BIGINT NOT NULL,
		id TEXT NOT NULL,
		token0 TEXT NOT NULL,
		token1 TEXT NOT NULL,
		fee BIGINT NOT NULL,
		tick_spacing INTEGER NOT NULL,
		hooks TEXT NOT NULL,
		sqrt_price_x96 NUMERIC NOT NULL,
		tick INTEGER NOT NULL,
		liquidity NUMERIC NOT NULL,
		reserve0 NUMERIC NOT NULL,
		reserve1 NUMERIC NOT NULL,
		tvl_usd NUMERIC,
		tx_count BIGINT NOT NULL,
		created_at_block BIGINT NOT NULL,
		created_at_ts BIGINT NOT NULL,
		updated_at_block BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (chain_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS hook_positions (
		chain_id BIGINT NOT NULL,
		id TEXT NOT NULL,
		pool_id TEXT NOT NULL,
		owner TEXT NOT NULL,
		tick_lower INTEGER NOT NULL,
		tick_upper INTEGER NOT NULL,
		salt TEXT NOT NULL,
		liquidity NUMERIC NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (chain_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS swaps (
		chain_id BIGINT NOT NULL,
		id TEXT NOT NULL,
		pool_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		block_number BIGINT NOT NULL,
		ts BIGINT NOT NULL,
		amount0 NUMERIC NOT NULL,
		amount1 NUMERIC NOT NULL,
		fee0 NUMERIC NOT NULL,
		fee1 NUMERIC NOT NULL,
		sqrt_price_x96 NUMERIC NOT NULL,
		tick INTEGER NOT NULL,
		fee_rate BIGINT NOT NULL,
		price0_usd NUMERIC,
		price1_usd NUMERIC,
		volume_usd NUMERIC,
		fees_usd NUMERIC,
		PRIMARY KEY (chain_id, id)
	)`,
	`CREATE INDEX IF NOT EXISTS swaps_pool_block_idx ON swaps (chain_id, pool_id, block_number)`,
	`CREATE TABLE IF NOT EXISTS fee_updates (
		chain_id BIGINT NOT NULL,
		id TEXT NOT NULL,
		pool_id TEXT NOT NULL,
		old_fee BIGINT NOT NULL,
		new_fee BIGINT NOT NULL,
		block_number BIGINT NOT NULL,
		ts BIGINT NOT NULL,
		PRIMARY KEY (chain_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS pool_day_data (
		chain_id BIGINT NOT NULL,
		id TEXT NOT NULL,
		pool_id TEXT NOT NULL,
		day_id BIGINT NOT NULL,
		date DATE NOT NULL,
		swap_count BIGINT NOT NULL,
		unpriced_swaps BIGINT NOT NULL,
		volume0 NUMERIC NOT NULL,
		volume1 NUMERIC NOT NULL,
		fee0 NUMERIC NOT NULL,
		fee1 NUMERIC NOT NULL,
		volume_usd NUMERIC NOT NULL,
		fees_usd NUMERIC NOT NULL,
		tvl_usd NUMERIC,
		fee_apr NUMERIC,
		fee_rate BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (chain_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_state (
		name TEXT PRIMARY KEY,
		block_number BIGINT NOT NULL,
		tx_index BIGINT NOT NULL,
		log_index BIGINT NOT NULL,
		snapshot JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}
