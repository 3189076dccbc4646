package main

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flow-hydraulics/mint-gate/service/app"
	"github.com/flow-hydraulics/mint-gate/service/chain"
	"github.com/flow-hydraulics/mint-gate/service/chain/fake"
	"github.com/flow-hydraulics/mint-gate/service/config"
	mint_http "github.com/flow-hydraulics/mint-gate/service/http"
	log "github.com/sirupsen/logrus"
)

const testWallet = "buyer"

func getTestCfg() *config.Config {
	return &config.Config{
		Chain:                 string(chain.KindFake),
		CandyMachineID:        "CandyMachine111111111111111111111111111111111",
		Commitment:            "confirmed",
		TxTimeout:             time.Second,
		PollInterval:          time.Millisecond,
		CountdownTick:         time.Millisecond,
		RefreshMaxElapsed:     100 * time.Millisecond,
		SoldOutCode:           fake.CodeSoldOut,
		NotStartedCode:        fake.CodeNotStarted,
		InsufficientFundsCode: fake.CodeInsufficientFunds,
		Host:                  "localhost",
		Port:                  3000,
		LogLevel:              "error",
	}
}

type testServer struct {
	Server *mint_http.Server
	App    *app.App
	Chain  *fake.Client
}

func getTestServer(cfg *config.Config, items uint64, balance int64) (*testServer, func()) {
	client := fake.NewClient(chain.CampaignAccounts{
		ItemsAvailable: items,
		GoLiveDate:     cfg.SaleStartTime(),
		Price:          big.NewInt(1_000_000_000),
	})
	client.SetBalance(testWallet, big.NewInt(balance))

	a := app.New(cfg, client, fake.NewWallet(testWallet))

	logger := log.New()
	logger.SetLevel(log.ErrorLevel)

	server, err := mint_http.NewServer(cfg, logger, a)
	if err != nil {
		panic(err)
	}

	return &testServer{server, a, client}, func() {
		a.Close()
	}
}

// do sends a JSON request through the server handler and decodes the
// response into res when res is not nil.
func (s *testServer) do(t *testing.T, method, path string, wantStatus int, res interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, path, bytes.NewBuffer(nil))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	s.Server.Server.Handler.ServeHTTP(rr, req)

	if status := rr.Code; status != wantStatus {
		t.Fatalf("%s %s returned wrong status code: got %v want %v, body: %s", method, path, status, wantStatus, rr.Body)
	}

	if res != nil {
		if err := json.NewDecoder(rr.Body).Decode(res); err != nil {
			t.Fatal(err)
		}
	}
}
