package http

import (
	"github.com/flow-hydraulics/mint-gate/service/app"
	"github.com/flow-hydraulics/mint-gate/service/common"
)

type ResError struct {
	Error string `json:"error"`
}

type ResSession struct {
	Connected    bool   `json:"connected"`
	Chain        string `json:"chain"`
	Wallet       string `json:"wallet,omitempty"`
	WalletShort  string `json:"walletShort,omitempty"`
	RefreshError string `json:"refreshError,omitempty"`
}

type ResBalance struct {
	Connected bool   `json:"connected"`
	Loaded    bool   `json:"loaded"`
	Amount    string `json:"amount,omitempty"`
	Decimals  int    `json:"decimals"`
	Display   string `json:"display,omitempty"`
}

type ResCampaign struct {
	app.CampaignView
	CandyMachine      string `json:"candyMachine"`
	CandyMachineShort string `json:"candyMachineShort"`
}

func ResSessionFromApp(a *app.App) ResSession {
	res := ResSession{Chain: string(a.Chain())}
	if w := a.Session.Wallet(); w != nil {
		res.Connected = true
		res.Wallet = w.PublicKey()
		res.WalletShort = common.ShortenAddress(w.PublicKey(), 4)
	}
	return res
}

func ResBalanceFromApp(a *app.App) ResBalance {
	b := a.Session.Balance()
	res := ResBalance{
		Connected: a.Session.Connected(),
		Loaded:    b.Loaded,
		Decimals:  b.Decimals,
		Display:   b.Display(),
	}
	if b.Amount != nil {
		res.Amount = b.Amount.String()
	}
	return res
}

func ResCampaignFromApp(a *app.App, candyMachine string) ResCampaign {
	return ResCampaign{
		CampaignView:      a.CampaignView(),
		CandyMachine:      candyMachine,
		CandyMachineShort: common.ShortenAddress(candyMachine, 4),
	}
}
