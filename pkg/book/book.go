package book

import (
	"container/list"
	"sort"
	"sync/atomic"

	"github.com/nikolaydubina/fpdecimal"

	"github.com/orderflow/matchingo/pkg/core"
)

// handle is the index entry for O(1) cancel: which side and level the
// order rests in, and the list element to remove without a scan.
type handle struct {
	side  core.Side
	level *priceLevel
	elem  *list.Element
}

// OrderBook is the Book Store: per side, a heap of price levels (bids
// best-first by descending price, asks by ascending price) plus a
// price-keyed map of the same levels, and an index for O(1) cancel. It is
// owned exclusively by the Matching Engine's host for the duration of a
// step; nothing else may hold a mutable reference concurrently (§5).
type OrderBook struct {
	bidHeap *levelHeap
	askHeap *levelHeap

	bidLevels map[string]*priceLevel
	askLevels map[string]*priceLevel

	index map[string]*handle

	seq int64
}

// New constructs an empty OrderBook.
func New() *OrderBook {
	return &OrderBook{
		bidHeap:   newLevelHeap(func(a, b *priceLevel) bool { return a.price.GreaterThan(b.price) }),
		askHeap:   newLevelHeap(func(a, b *priceLevel) bool { return a.price.LessThan(b.price) }),
		bidLevels: make(map[string]*priceLevel),
		askLevels: make(map[string]*priceLevel),
		index:     make(map[string]*handle),
	}
}

func (b *OrderBook) levelsFor(side core.Side) (map[string]*priceLevel, *levelHeap) {
	if side == core.Buy {
		return b.bidLevels, b.bidHeap
	}
	return b.askLevels, b.askHeap
}

// InsertResting places order into its side's PriceLevel at the back,
// assigning arrival_seq and updating the index. The caller (Matching
// Engine) is responsible for having already confirmed the order does
// not cross.
func (b *OrderBook) InsertResting(o *core.Order) error {
	if o.ID == "" {
		return core.NewInvalidOrderError(o.ID, core.ErrEmptyID)
	}
	if o.Price.LessThanOrEqual(fpdecimal.Zero) || o.RemainingSize.LessThanOrEqual(fpdecimal.Zero) {
		return core.NewInvalidOrderError(o.ID, core.ErrNonPositive)
	}
	if _, exists := b.index[o.ID]; exists {
		return core.NewInvalidOrderError(o.ID, core.ErrDuplicateID)
	}

	levels, lh := b.levelsFor(o.Side)
	key := o.Price.String()
	lvl, ok := levels[key]
	if !ok {
		lvl = newPriceLevel(o.Price)
		levels[key] = lvl
		lh.push(lvl)
	}

	o.ArrivalSeq = atomic.AddInt64(&b.seq, 1)
	elem := lvl.pushBack(o)
	b.index[o.ID] = &handle{side: o.Side, level: lvl, elem: elem}
	return nil
}

// Cancel removes order_id from the book if present. It is idempotent: a
// second call for the same id returns false, not an error. The level is
// removed atomically with the last erase.
func (b *OrderBook) Cancel(orderID string) bool {
	h, ok := b.index[orderID]
	if !ok {
		return false
	}
	delete(b.index, orderID)
	h.level.remove(h.elem)
	b.dropLevelIfEmpty(h.side, h.level)
	return true
}

// Find returns the resident order for order_id, if any.
func (b *OrderBook) Find(orderID string) (*core.Order, bool) {
	h, ok := b.index[orderID]
	if !ok {
		return nil, false
	}
	return h.elem.Value.(*core.Order), true
}

// BestBid returns the highest bid price and its aggregate resting size.
func (b *OrderBook) BestBid() (fpdecimal.Decimal, fpdecimal.Decimal, bool) {
	lvl := b.bidHeap.best()
	if lvl == nil {
		return fpdecimal.Zero, fpdecimal.Zero, false
	}
	return lvl.price, lvl.aggregateSize(), true
}

// BestAsk returns the lowest ask price and its aggregate resting size.
func (b *OrderBook) BestAsk() (fpdecimal.Decimal, fpdecimal.Decimal, bool) {
	lvl := b.askHeap.best()
	if lvl == nil {
		return fpdecimal.Zero, fpdecimal.Zero, false
	}
	return lvl.price, lvl.aggregateSize(), true
}

// Depth returns up to n levels of side, best price first, without
// mutating book state.
func (b *OrderBook) Depth(side core.Side, n int) []core.PriceLevelSnapshot {
	_, lh := b.levelsFor(side)
	cp := append([]*priceLevel(nil), lh.levels...)
	sort.Slice(cp, func(i, j int) bool { return lh.less(cp[i], cp[j]) })
	if len(cp) > n {
		cp = cp[:n]
	}
	out := make([]core.PriceLevelSnapshot, len(cp))
	for i, lvl := range cp {
		out[i] = core.PriceLevelSnapshot{Price: lvl.price, AggregateSize: lvl.aggregateSize()}
	}
	return out
}

// FrontMaker returns the resting order at the front of the best level on
// side, without removing it. side here is the resting side being
// matched against, i.e. the opposite of the taker's side.
func (b *OrderBook) FrontMaker(side core.Side) (*core.Order, bool) {
	_, lh := b.levelsFor(side)
	lvl := lh.best()
	if lvl == nil {
		return nil, false
	}
	o := lvl.front()
	if o == nil {
		return nil, false
	}
	return o, true
}

// ReduceMaker decrements maker's RemainingSize by size. If the maker is
// fully consumed it is removed from its level and the index; an emptied
// level is removed from the heap in the same call (I2).
func (b *OrderBook) ReduceMaker(maker *core.Order, size fpdecimal.Decimal) {
	maker.RemainingSize = maker.RemainingSize.Sub(size)
	if maker.RemainingSize.GreaterThan(fpdecimal.Zero) {
		return
	}
	h, ok := b.index[maker.ID]
	if !ok {
		return
	}
	delete(b.index, maker.ID)
	h.level.remove(h.elem)
	b.dropLevelIfEmpty(h.side, h.level)
}

// InsertExchangeLiquidity appends a synthetic EXCHANGE-origin order of
// size at the back of side's level at price, assigning it arrival_seq
// as usual. Unlike InsertResting via the Matching Engine, no crossing
// check is performed: depth-delta reconciliation trusts the venue's
// reported levels are already non-crossing (§4.3).
func (b *OrderBook) InsertExchangeLiquidity(id string, side core.Side, price, size fpdecimal.Decimal, ts int64) error {
	o, err := core.NewOrder(id, side, price, size, core.Exchange, false, ts)
	if err != nil {
		return err
	}
	return b.InsertResting(o)
}

// ReduceExchangeAtLevel walks side's level at price front-to-back,
// reducing or removing only EXCHANGE-origin orders until amount is
// absorbed or the level is exhausted of exchange liquidity. MAKER
// orders at that level are never touched. It returns the amount
// actually absorbed, which may be less than requested.
func (b *OrderBook) ReduceExchangeAtLevel(side core.Side, price, amount fpdecimal.Decimal) fpdecimal.Decimal {
	levels, _ := b.levelsFor(side)
	lvl, ok := levels[price.String()]
	if !ok {
		return fpdecimal.Zero
	}

	absorbed := fpdecimal.Zero
	e := lvl.orders.Front()
	for e != nil && amount.GreaterThan(fpdecimal.Zero) {
		next := e.Next()
		o := e.Value.(*core.Order)
		if o.Origin != core.Exchange {
			e = next
			continue
		}

		take := o.RemainingSize
		if take.GreaterThan(amount) {
			take = amount
		}
		o.RemainingSize = o.RemainingSize.Sub(take)
		amount = amount.Sub(take)
		absorbed = absorbed.Add(take)

		if o.RemainingSize.LessThanOrEqual(fpdecimal.Zero) {
			delete(b.index, o.ID)
			lvl.remove(e)
		}
		e = next
	}

	b.dropLevelIfEmpty(side, lvl)
	return absorbed
}

func (b *OrderBook) dropLevelIfEmpty(side core.Side, lvl *priceLevel) {
	if !lvl.empty() {
		return
	}
	levels, lh := b.levelsFor(side)
	delete(levels, lvl.price.String())
	if lvl.heapIndex >= 0 && lvl.heapIndex < lh.Len() && lh.levels[lvl.heapIndex] == lvl {
		lh.removeAt(lvl.heapIndex)
	}
}
