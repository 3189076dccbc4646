package app

import (
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/flow-hydraulics/mint-gate/service/chain"
)

// RemainingUpdating is shown as the remaining count until the first read.
const RemainingUpdating = "Updating"

// CampaignState is a snapshot of the sale as last read from chain.
type CampaignState struct {
	ItemsAvailable uint64    `json:"itemsAvailable"`
	ItemsRedeemed  uint64    `json:"itemsRedeemed"`
	ItemsRemaining uint64    `json:"itemsRemaining"`
	SaleStartTime  time.Time `json:"saleStartTime"`
	IsSoldOut      bool      `json:"isSoldOut"`
	IsSaleActive   bool      `json:"isSaleActive"`
	Price          *big.Int  `json:"price,omitempty"`
	Loaded         bool      `json:"loaded"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (s CampaignState) RemainingDisplay() string {
	if !s.Loaded {
		return RemainingUpdating
	}
	return strconv.FormatUint(s.ItemsRemaining, 10)
}

// CanMint is the campaign half of the mint eligibility rule.
func (s CampaignState) CanMint() bool {
	return s.Loaded && s.IsSaleActive && !s.IsSoldOut
}

// Campaign guards the current snapshot. Readers always get copies.
type Campaign struct {
	mu    sync.RWMutex
	state CampaignState
}

func NewCampaign(start, now time.Time) *Campaign {
	return &Campaign{state: CampaignState{
		SaleStartTime: start,
		IsSaleActive:  IsSaleActive(now, start),
	}}
}

func (c *Campaign) Snapshot() CampaignState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.copy()
}

func (s CampaignState) copy() CampaignState {
	if s.Price != nil {
		s.Price = new(big.Int).Set(s.Price)
	}
	return s
}

// apply replaces the whole snapshot with what was read from chain. Counters
// must already be validated. The sale never goes from active back to
// inactive within a session.
func (c *Campaign) apply(acc chain.CampaignAccounts, now time.Time) CampaignState {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := CampaignState{
		ItemsAvailable: acc.ItemsAvailable,
		ItemsRedeemed:  acc.ItemsRedeemed,
		ItemsRemaining: acc.ItemsAvailable - acc.ItemsRedeemed,
		SaleStartTime:  c.state.SaleStartTime,
		Loaded:         true,
		UpdatedAt:      now,
	}
	next.IsSoldOut = next.ItemsRemaining == 0

	if acc.Price != nil {
		next.Price = new(big.Int).Set(acc.Price)
	}
	if !acc.GoLiveDate.IsZero() {
		next.SaleStartTime = acc.GoLiveDate
	}
	next.IsSaleActive = c.state.IsSaleActive || IsSaleActive(now, next.SaleStartTime)

	c.state = next
	return next.copy()
}

// MarkSoldOut forces the sold out flag until the next refresh.
func (c *Campaign) MarkSoldOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsSoldOut = true
}

// Tick re-evaluates the activation gate and reports whether the sale
// became active on this call.
func (c *Campaign) Tick(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.IsSaleActive || !IsSaleActive(now, c.state.SaleStartTime) {
		return false
	}
	c.state.IsSaleActive = true
	return true
}
