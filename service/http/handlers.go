package http

import (
	"net/http"

	"github.com/flow-hydraulics/mint-gate/service/app"
	log "github.com/sirupsen/logrus"
)

// Campaign counters, countdown and whether minting is possible right now
func HandleGetCampaign(logger *log.Logger, app *app.App, candyMachine string) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		handleJsonResponse(rw, http.StatusOK, ResCampaignFromApp(app, candyMachine))
	}
}

// Balance of the connected wallet
func HandleGetBalance(logger *log.Logger, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.FormValue("refresh") == "true" {
			if err := app.Session.RefreshBalance(r.Context()); err != nil {
				handleError(rw, logger, err)
				return
			}
		}

		handleJsonResponse(rw, http.StatusOK, ResBalanceFromApp(app))
	}
}

func HandleGetSession(logger *log.Logger, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		handleJsonResponse(rw, http.StatusOK, ResSessionFromApp(app))
	}
}

// Connect the configured wallet and load balance and campaign
func HandleConnect(logger *log.Logger, a *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		err := a.Connect(r.Context())
		if err != nil && !a.Session.Connected() {
			handleError(rw, logger, err)
			return
		}

		res := ResSessionFromApp(a)
		if err != nil {
			// Connected, but the initial reads failed
			logger.WithError(err).Warn("Session started without fresh state")
			res.RefreshError = err.Error()
		}

		handleJsonResponse(rw, http.StatusOK, res)
	}
}

func HandleDisconnect(logger *log.Logger, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		app.Disconnect()
		handleJsonResponse(rw, http.StatusOK, ResSessionFromApp(app))
	}
}

// Start a mint attempt, the result is available from HandleGetMint
func HandleStartMint(logger *log.Logger, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		attempt, err := app.StartMint(r.Context())
		if err != nil {
			handleError(rw, logger, err)
			return
		}

		handleJsonResponse(rw, http.StatusAccepted, attempt)
	}
}

// Latest mint attempt
func HandleGetMint(logger *log.Logger, a *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		attempt, ok := a.LatestAttempt()
		if !ok {
			handleError(rw, logger, app.ErrNoAttempt)
			return
		}

		handleJsonResponse(rw, http.StatusOK, attempt)
	}
}

// Dismiss the notification of the latest finished attempt
func HandleDismissMint(logger *log.Logger, app *app.App) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if err := app.DismissAttempt(); err != nil {
			handleError(rw, logger, err)
			return
		}

		handleJsonResponse(rw, http.StatusOK, "Ok")
	}
}

func HandleHealthReady() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
	}
}
