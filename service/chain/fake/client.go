// Package fake is an in-memory chain.Client. It backs the tests and the
// "fake" chain option for running the service without a network.
package fake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/flow-hydraulics/mint-gate/service/chain"
)

// Candy machine v1 codes, reused so the default classifier config applies.
const (
	CodeInsufficientFunds = 309
	CodeSoldOut           = 311
	CodeNotStarted        = 312
)

// Client keeps a single campaign and one balance per address.
//
// Without scripted statuses a submitted mint lands immediately: the
// counters and the payer balance are updated, and the status reports it as
// finalized, or carries the program error the mint would have raised.
type Client struct {
	mu sync.Mutex

	campaign chain.CampaignAccounts
	balances map[string]*big.Int
	now      func() time.Time

	// Scripted behaviour, consumed in order.
	submitErrs []error
	readErrs   []error
	statuses   []statusResult

	// Called inside SubmitMintTransaction before it returns.
	OnSubmit func()

	landed map[string]*chain.ProgramError

	submits      int
	statusCalls  int
	reads        int
	balanceCalls int
}

type statusResult struct {
	status chain.SignatureStatus
	err    error
}

var _ chain.Client = (*Client)(nil)

func NewClient(campaign chain.CampaignAccounts) *Client {
	if campaign.Price == nil {
		campaign.Price = big.NewInt(0)
	}
	campaign.ItemsRemaining = campaign.ItemsAvailable - campaign.ItemsRedeemed
	return &Client{
		campaign: campaign,
		balances: map[string]*big.Int{},
		now:      time.Now,
		landed:   map[string]*chain.ProgramError{},
	}
}

func (c *Client) Kind() chain.Kind { return chain.KindFake }

func (c *Client) Decimals() int { return 9 }

// SetNow replaces the clock used to decide whether the sale is live.
func (c *Client) SetNow(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Client) SetCampaign(campaign chain.CampaignAccounts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if campaign.Price == nil {
		campaign.Price = big.NewInt(0)
	}
	campaign.ItemsRemaining = campaign.ItemsAvailable - campaign.ItemsRedeemed
	c.campaign = campaign
}

func (c *Client) SetBalance(address string, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[address] = new(big.Int).Set(amount)
}

// FailSubmit makes the next submission return err.
func (c *Client) FailSubmit(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitErrs = append(c.submitErrs, err)
}

// FailRead makes the next campaign read return err.
func (c *Client) FailRead(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErrs = append(c.readErrs, err)
}

// QueueStatus makes the next status poll return status. Once the queue is
// drained the last queued status keeps being returned.
func (c *Client) QueueStatus(status chain.SignatureStatus) {
	c.QueueStatusResult(status, nil)
}

func (c *Client) QueueStatusResult(status chain.SignatureStatus, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses = append(c.statuses, statusResult{status, err})
}

func (c *Client) Submits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submits
}

func (c *Client) StatusCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusCalls
}

func (c *Client) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

func (c *Client) BalanceCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balanceCalls
}

func (c *Client) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balanceCalls++
	if b, ok := c.balances[address]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (c *Client) ReadCampaignAccounts(ctx context.Context, candyMachineID string) (chain.CampaignAccounts, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if len(c.readErrs) > 0 {
		err := c.readErrs[0]
		c.readErrs = c.readErrs[1:]
		return chain.CampaignAccounts{}, err
	}
	res := c.campaign
	res.Price = new(big.Int).Set(c.campaign.Price)
	return res, nil
}

func (c *Client) SubmitMintTransaction(ctx context.Context, req chain.MintRequest, wallet chain.Wallet) (string, error) {
	if wallet == nil {
		return "", chain.ErrNotConnected
	}

	c.mu.Lock()
	c.submits++
	n := c.submits
	var scripted error
	if len(c.submitErrs) > 0 {
		scripted = c.submitErrs[0]
		c.submitErrs = c.submitErrs[1:]
	}
	hook := c.OnSubmit
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
	if scripted != nil {
		return "", scripted
	}

	sig := Signature(wallet.PublicKey(), n)
	if _, err := wallet.Sign([]byte(sig)); err != nil {
		return "", fmt.Errorf("%w: %v", chain.ErrWalletRejected, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.landed[sig] = c.applyMint(wallet.PublicKey())
	return sig, nil
}

// applyMint runs the sale rules of the program against the in-memory state.
func (c *Client) applyMint(payer string) *chain.ProgramError {
	if !c.campaign.GoLiveDate.IsZero() && c.now().Before(c.campaign.GoLiveDate) {
		return &chain.ProgramError{Code: CodeNotStarted, Message: "candy machine not live yet"}
	}
	if c.campaign.ItemsRemaining == 0 {
		return &chain.ProgramError{Code: CodeSoldOut, Message: "candy machine is empty"}
	}
	balance, ok := c.balances[payer]
	if !ok {
		balance = big.NewInt(0)
	}
	if balance.Cmp(c.campaign.Price) < 0 {
		return &chain.ProgramError{Code: CodeInsufficientFunds, Message: "not enough SOL to pay for this minting"}
	}

	c.balances[payer] = new(big.Int).Sub(balance, c.campaign.Price)
	c.campaign.ItemsRedeemed++
	c.campaign.ItemsRemaining--
	return nil
}

func (c *Client) GetSignatureStatus(ctx context.Context, signature string) (chain.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusCalls++

	if len(c.statuses) > 0 {
		res := c.statuses[0]
		if len(c.statuses) > 1 {
			c.statuses = c.statuses[1:]
		}
		return res.status, res.err
	}

	perr, ok := c.landed[signature]
	if !ok {
		return chain.SignatureStatus{}, nil
	}
	return chain.SignatureStatus{Found: true, Commitment: chain.CommitmentFinalized, Err: perr}, nil
}

// Signature derives a deterministic transaction signature.
func Signature(payer string, n int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s/%d", payer, n)))
	return hex.EncodeToString(sum[:])
}
