package http

import (
	"net/http"

	"github.com/flow-hydraulics/mint-gate/service/app"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

func NewRouter(logger *log.Logger, app *app.App, candyMachine string) http.Handler {
	if logger == nil {
		logger = log.New()
	}

	r := mux.NewRouter()

	r.Handle("/metrics", app.Metrics.Handler()).Methods(http.MethodGet)

	// Catch the api version
	rv := r.PathPrefix("/{apiVersion}").Subrouter()

	rv.HandleFunc("/health/ready", HandleHealthReady()).Methods(http.MethodGet)

	rv.HandleFunc("/campaign", HandleGetCampaign(logger, app, candyMachine)).Methods(http.MethodGet)
	rv.HandleFunc("/balance", HandleGetBalance(logger, app)).Methods(http.MethodGet)

	rv.HandleFunc("/session", HandleGetSession(logger, app)).Methods(http.MethodGet)
	rv.HandleFunc("/session/connect", HandleConnect(logger, app)).Methods(http.MethodPost)
	rv.HandleFunc("/session/disconnect", HandleDisconnect(logger, app)).Methods(http.MethodPost)

	rv.HandleFunc("/mint", HandleStartMint(logger, app)).Methods(http.MethodPost)
	rv.HandleFunc("/mint", HandleGetMint(logger, app)).Methods(http.MethodGet)
	rv.HandleFunc("/mint", HandleDismissMint(logger, app)).Methods(http.MethodDelete)

	// Use middleware
	h := UseCors(r)
	h = UseLogging(logger.Writer(), h)
	h = UseCompress(h)
	h = UseJson(h)

	return h
}
