package app

import (
	"context"
	"errors"
	"time"

	"github.com/flow-hydraulics/mint-gate/service/chain"
	"github.com/flow-hydraulics/mint-gate/service/config"
	log "github.com/sirupsen/logrus"
)

var ErrNoWallet = errors.New("no wallet configured")

type App struct {
	cfg    *config.Config
	chain  chain.Client
	wallet chain.Wallet

	Metrics    *Metrics
	Campaign   *Campaign
	Reader     *StateReader
	Session    *Session
	Controller *Controller

	now func() time.Time
}

// CampaignView is the campaign as presented to clients.
type CampaignView struct {
	CampaignState
	Remaining string    `json:"remaining"`
	Countdown Countdown `json:"countdown"`
	CanMint   bool      `json:"canMint"`
	Minting   bool      `json:"minting"`
}

// New wires the mint core for cfg. wallet is the wallet a session connects
// with and may be nil.
func New(cfg *config.Config, chainClient chain.Client, wallet chain.Wallet) *App {
	metrics := NewMetrics()

	campaign := NewCampaign(cfg.SaleStartTime(), time.Now())

	maxElapsed := cfg.RefreshMaxElapsed
	if maxElapsed <= 0 {
		maxElapsed = 10 * time.Second
	}
	reader := NewStateReader(chainClient, campaign, cfg.CandyMachineID, maxElapsed, metrics)

	session := NewSession(chainClient, reader, metrics)

	classifierCfg := DefaultClassifierConfig()
	classifierCfg.SoldOutCode = cfg.SoldOutCode
	classifierCfg.NotStartedCode = cfg.NotStartedCode
	classifierCfg.InsufficientFundsCode = cfg.InsufficientFundsCode

	controller := NewController(
		ControllerConfig{
			Request: chain.MintRequest{
				CandyMachine: cfg.CandyMachineID,
				Config:       cfg.ConfigAddress,
				Treasury:     cfg.TreasuryAddress,
			},
			TxTimeout:  cfg.TxTimeout,
			Commitment: cfg.CommitmentLevel(),
		},
		chainClient,
		session,
		campaign,
		reader,
		NewPoller(chainClient, cfg.PollInterval, metrics),
		NewClassifier(classifierCfg),
		metrics,
	)

	return &App{
		cfg:        cfg,
		chain:      chainClient,
		wallet:     wallet,
		Metrics:    metrics,
		Campaign:   campaign,
		Reader:     reader,
		Session:    session,
		Controller: controller,
		now:        time.Now,
	}
}

// Run re-evaluates the sale activation on every countdown tick until ctx
// is done.
func (app *App) Run(ctx context.Context) {
	tick := app.cfg.CountdownTick
	if tick <= 0 {
		tick = time.Second
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if app.Campaign.Tick(app.now()) {
				log.WithField("method", "Run").Info("Sale is now active")
			}
		}
	}
}

// Close waits for a running attempt to finish.
func (app *App) Close() {
	app.Controller.Wait()
}

func (app *App) Chain() chain.Kind {
	return app.chain.Kind()
}

func (app *App) CampaignView() CampaignView {
	now := app.now()
	app.Campaign.Tick(now)
	state := app.Campaign.Snapshot()
	inFlight := app.Controller.InFlight()

	return CampaignView{
		CampaignState: state,
		Remaining:     state.RemainingDisplay(),
		Countdown:     NewCountdown(now, state.SaleStartTime),
		CanMint:       app.Session.Connected() && state.CanMint() && !inFlight,
		Minting:       inFlight,
	}
}

// Connect starts a session with the configured wallet.
func (app *App) Connect(ctx context.Context) error {
	if app.wallet == nil {
		return ErrNoWallet
	}
	return app.Session.Connect(ctx, app.wallet)
}

func (app *App) Disconnect() {
	app.Session.Disconnect()
}

func (app *App) StartMint(ctx context.Context) (Attempt, error) {
	return app.Controller.Start(ctx)
}

func (app *App) LatestAttempt() (Attempt, bool) {
	return app.Controller.Latest()
}

func (app *App) DismissAttempt() error {
	return app.Controller.Dismiss()
}
