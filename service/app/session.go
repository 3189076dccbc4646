package app

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/flow-hydraulics/mint-gate/service/chain"
	log "github.com/sirupsen/logrus"
)

// Balance is the connected wallet's native balance in base units.
type Balance struct {
	Amount    *big.Int  `json:"amount"`
	Decimals  int       `json:"decimals"`
	Loaded    bool      `json:"loaded"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Display renders the balance in whole units, e.g. 2500000000 lamports
// as "2.5".
func (b Balance) Display() string {
	if !b.Loaded || b.Amount == nil {
		return ""
	}
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(b.Decimals)), nil)
	s := new(big.Rat).SetFrac(b.Amount, unit).FloatString(b.Decimals)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

// Session holds the connected wallet and its balance. A nil wallet means
// not connected.
type Session struct {
	chain   chain.Client
	reader  *StateReader
	metrics *Metrics
	now     func() time.Time

	mu      sync.RWMutex
	wallet  chain.Wallet
	balance Balance
}

func NewSession(chainClient chain.Client, reader *StateReader, metrics *Metrics) *Session {
	return &Session{
		chain:   chainClient,
		reader:  reader,
		metrics: metrics,
		now:     time.Now,
	}
}

func (s *Session) Wallet() chain.Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallet
}

func (s *Session) Connected() bool {
	return s.Wallet() != nil
}

func (s *Session) Balance() Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.balance
	if b.Amount != nil {
		b.Amount = new(big.Int).Set(b.Amount)
	}
	return b
}

// Connect starts a session for wallet: the balance and the campaign are
// loaded. The wallet stays connected even if either read fails.
func (s *Session) Connect(ctx context.Context, wallet chain.Wallet) error {
	if wallet == nil {
		return chain.ErrNotConnected
	}

	s.mu.Lock()
	s.wallet = wallet
	s.balance = Balance{Decimals: s.chain.Decimals()}
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"method": "Connect",
		"wallet": wallet.PublicKey(),
	}).Info("Wallet connected")

	balanceErr := s.RefreshBalance(ctx)
	_, campaignErr := s.reader.Refresh(ctx, wallet)

	if balanceErr != nil {
		return balanceErr
	}
	return campaignErr
}

func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wallet != nil {
		log.WithFields(log.Fields{
			"method": "Disconnect",
			"wallet": s.wallet.PublicKey(),
		}).Info("Wallet disconnected")
	}
	s.wallet = nil
	s.balance = Balance{}
}

// RefreshBalance is a no-op when no wallet is connected.
func (s *Session) RefreshBalance(ctx context.Context) error {
	wallet := s.Wallet()
	if wallet == nil {
		return nil
	}

	amount, err := s.chain.GetBalance(ctx, wallet.PublicKey())
	if err != nil {
		s.metrics.incRefreshFailure("balance")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Wallet may have changed while the read was in flight
	if s.wallet != wallet {
		return nil
	}
	s.balance = Balance{
		Amount:    amount,
		Decimals:  s.chain.Decimals(),
		Loaded:    true,
		UpdatedAt: s.now(),
	}
	return nil
}
