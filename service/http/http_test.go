package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flow-hydraulics/mint-gate/service/app"
	"github.com/flow-hydraulics/mint-gate/service/chain"
	"github.com/flow-hydraulics/mint-gate/service/chain/fake"
	"github.com/flow-hydraulics/mint-gate/service/config"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp(t *testing.T, wallet chain.Wallet) (*app.App, *fake.Client) {
	t.Helper()

	cfg := &config.Config{
		Chain:                 "fake",
		CandyMachineID:        "candy",
		Commitment:            "confirmed",
		TxTimeout:             time.Second,
		PollInterval:          time.Millisecond,
		CountdownTick:         time.Millisecond,
		RefreshMaxElapsed:     100 * time.Millisecond,
		SoldOutCode:           fake.CodeSoldOut,
		NotStartedCode:        fake.CodeNotStarted,
		InsufficientFundsCode: fake.CodeInsufficientFunds,
	}

	client := fake.NewClient(chain.CampaignAccounts{ItemsAvailable: 3, Price: big.NewInt(10)})
	client.SetBalance("buyer", big.NewInt(100))

	a := app.New(cfg, client, wallet)
	t.Cleanup(a.Close)
	return a, client
}

func serve(h http.Handler, method, path string, contentType bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if contentType {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{chain.ErrNotConnected, http.StatusPreconditionFailed},
		{app.ErrNoWallet, http.StatusPreconditionFailed},
		{app.ErrAttemptInFlight, http.StatusConflict},
		{app.ErrSoldOut, http.StatusConflict},
		{app.ErrSaleNotActive, http.StatusConflict},
		{app.ErrCampaignNotLoaded, http.StatusConflict},
		{app.ErrNoAttempt, http.StatusNotFound},
		{chain.NetworkError("get balance", errors.New("timeout")), http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", app.ErrSoldOut), http.StatusConflict},
		{errors.New("anything else"), http.StatusBadRequest},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, errorStatus(c.err), c.err.Error())
	}
}

func TestHandleErrorBody(t *testing.T) {
	rr := httptest.NewRecorder()
	handleError(rr, log.New(), app.ErrAttemptInFlight)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	res := ResError{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, app.ErrAttemptInFlight.Error(), res.Error)
}

func TestRouterRequiresJsonContentType(t *testing.T) {
	a, client := testApp(t, fake.NewWallet("buyer"))
	h := NewRouter(nil, a, "candy")

	rr := serve(h, http.MethodPost, "/v1/session/connect", false)
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	assert.False(t, a.Session.Connected())
	assert.Equal(t, 0, client.Reads())
}

func TestConnectWithoutWallet(t *testing.T) {
	a, _ := testApp(t, nil)
	h := NewRouter(nil, a, "candy")

	rr := serve(h, http.MethodPost, "/v1/session/connect", true)
	assert.Equal(t, http.StatusPreconditionFailed, rr.Code)
}

func TestConnectReportsRefreshError(t *testing.T) {
	a, client := testApp(t, fake.NewWallet("buyer"))
	h := NewRouter(nil, a, "candy")

	client.FailRead(errors.New("account missing"))

	rr := serve(h, http.MethodPost, "/v1/session/connect", true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	res := ResSession{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.True(t, res.Connected)
	assert.Equal(t, "fake", res.Chain)
	assert.NotEmpty(t, res.RefreshError)
}

func TestGetBalanceRefresh(t *testing.T) {
	a, client := testApp(t, fake.NewWallet("buyer"))
	h := NewRouter(nil, a, "candy")

	require.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/v1/session/connect", true).Code)
	calls := client.BalanceCalls()

	client.SetBalance("buyer", big.NewInt(250))

	rr := serve(h, http.MethodGet, "/v1/balance?refresh=true", false)
	require.Equal(t, http.StatusOK, rr.Code)

	res := ResBalance{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "250", res.Amount)
	assert.Equal(t, calls+1, client.BalanceCalls())
}

func TestUnknownRoute(t *testing.T) {
	a, _ := testApp(t, nil)
	h := NewRouter(nil, a, "candy")

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/v1/nothing", false).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodPut, "/v1/mint", true).Code)
}

func TestNewServerNilConfig(t *testing.T) {
	_, err := NewServer(nil, nil, nil)
	assert.Error(t, err)
}
