package http

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flow-hydraulics/mint-gate/service/app"
	"github.com/flow-hydraulics/mint-gate/service/config"
	"github.com/flow-hydraulics/mint-gate/service/errors"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	Server *http.Server
	cfg    *config.Config
	logger *log.Logger
}

func NewServer(cfg *config.Config, logger *log.Logger, app *app.App) (*Server, error) {
	if cfg == nil {
		return nil, &errors.NilConfigError{}
	}

	if logger == nil {
		logger = log.New()
	}

	r := NewRouter(logger, app, cfg.CandyMachineID)

	// Server boilerplate
	srv := &http.Server{
		Handler:      r,
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{srv, cfg, logger}, nil
}

// ListenAndServe blocks until the process receives SIGINT or SIGTERM and
// then shuts the server down gracefully.
func (s *Server) ListenAndServe() {
	// Run our server in a goroutine so that it doesn't block.
	go func() {
		s.logger.Printf("Server listening on %s:%d\n", s.cfg.Host, s.cfg.Port)
		if err := s.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("Server stopped")
		}
	}()

	// Trap interupt or sigterm and gracefully shutdown the server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Block until we receive our signal.
	sig := <-c

	s.logger.Printf("Got signal: %s. Shutting down..\n", sig)

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()

	if err := s.Server.Shutdown(ctx); err != nil {
		s.logger.Fatal("Error in server shutdown; ", err)
	}
}
