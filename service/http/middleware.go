package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/flow-hydraulics/mint-gate/service/app"
	"github.com/flow-hydraulics/mint-gate/service/chain"
	gorilla "github.com/gorilla/handlers"
	log "github.com/sirupsen/logrus"
)

func UseCors(h http.Handler) http.Handler {
	return gorilla.CORS(gorilla.AllowedOrigins([]string{"*"}))(h)
}

func UseLogging(out io.Writer, h http.Handler) http.Handler {
	return gorilla.CombinedLoggingHandler(out, h)
}

func UseCompress(h http.Handler) http.Handler {
	return gorilla.CompressHandler(h)
}

func UseJson(h http.Handler) http.Handler {
	// Only PUT, POST, and PATCH requests are considered.
	return gorilla.ContentTypeHandler(h, "application/json")
}

// errorStatus maps core errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, chain.ErrNotConnected), errors.Is(err, app.ErrNoWallet):
		return http.StatusPreconditionFailed
	case errors.Is(err, app.ErrAttemptInFlight),
		errors.Is(err, app.ErrSoldOut),
		errors.Is(err, app.ErrSaleNotActive),
		errors.Is(err, app.ErrCampaignNotLoaded):
		return http.StatusConflict
	case errors.Is(err, app.ErrNoAttempt):
		return http.StatusNotFound
	case errors.Is(err, chain.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// handleError is a helper function for unified HTTP error handling.
func handleError(rw http.ResponseWriter, logger *log.Logger, err error) {
	status := errorStatus(err)

	if logger != nil {
		logger.WithFields(log.Fields{
			"status": status,
		}).WithError(err).Info("Request failed")
	}

	handleJsonResponse(rw, status, ResError{Error: err.Error()})
}

// handleJsonResponse is a helper function for unified JSON response handling.
func handleJsonResponse(rw http.ResponseWriter, status int, res interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(res)
}
