package model

// Changeset collects the rows produced by applying a run of events.
// Rows are full-state upserts keyed by id, so replaying a changeset is idempotent.
type Changeset struct {
	Pools            map[string]Pool        `json:"pools,omitempty"`
	Tokens           map[string]Token       `json:"tokens,omitempty"`
	Positions        map[string]Position    `json:"positions,omitempty"`
	DeletedPositions map[string]struct{}    `json:"deleted_positions,omitempty"`
	Swaps            []Swap                 `json:"swaps,omitempty"`
	FeeUpdates       []FeeUpdate            `json:"fee_updates,omitempty"`
	DayData          map[string]PoolDayData `json:"day_data,omitempty"`
}

func NewChangeset() *Changeset {
	return &Changeset{
		Pools:            make(map[string]Pool),
		Tokens:           make(map[string]Token),
		Positions:        make(map[string]Position),
		DeletedPositions: make(map[string]struct{}),
		DayData:          make(map[string]PoolDayData),
	}
}

func (c *Changeset) PutPool(pool Pool) {
	c.Pools[pool.ID] = pool
}

func (c *Changeset) PutToken(token Token) {
	c.Tokens[token.Address] = token
}

// PutPosition records an upsert and cancels any pending delete of the same id.
func (c *Changeset) PutPosition(position Position) {
	delete(c.DeletedPositions, position.ID)
	c.Positions[position.ID] = position
}

// DeletePosition records a delete and cancels any pending upsert of the same id.
func (c *Changeset) DeletePosition(id string) {
	delete(c.Positions, id)
	c.DeletedPositions[id] = struct{}{}
}

func (c *Changeset) AddSwap(swap Swap) {
	c.Swaps = append(c.Swaps, swap)
}

func (c *Changeset) AddFeeUpdate(update FeeUpdate) {
	c.FeeUpdates = append(c.FeeUpdates, update)
}

func (c *Changeset) PutDayData(day PoolDayData) {
	c.DayData[day.ID] = day
}

// Size returns the number of pending rows.
func (c *Changeset) Size() int {
	if c == nil {
		return 0
	}
	return len(c.Pools) + len(c.Tokens) + len(c.Positions) + len(c.DeletedPositions) +
		len(c.Swaps) + len(c.FeeUpdates) + len(c.DayData)
}

func (c *Changeset) Empty() bool {
	return c.Size() == 0
}
