//-------------------------------------------------------------------------
//
// Fourth Coffee Commerce Lab
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package server exposes the customer directory as a JSON API.
//
// The lab runs as a single-user kiosk: every client shares one Directory,
// so a selection, reload or search made by one browser is what all others
// see on their next request.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fourthcoffee/fc-commerce/internal/config"
	"github.com/fourthcoffee/fc-commerce/internal/customers"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
)

// Server serves the customer API.
type Server struct {
	dir    *customers.Directory
	svc    customers.Service
	cfg    config.ServerConfig
	engine *gin.Engine
}

// New builds the router over dir. svc is used for source reporting.
func New(dir *customers.Directory, svc customers.Service, cfg config.ServerConfig) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{dir: dir, svc: svc, cfg: cfg}

	r := gin.New()
	r.Use(RequestID(), RequestLogger(), Recovery())

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.GET("/source", s.source)
		api.GET("/customers", s.listCustomers)
		api.POST("/customers/reload", s.reloadCustomers)
		api.GET("/customers/search", s.searchCustomers)
		api.GET("/customers/:id", s.getCustomer)
		api.GET("/customers/:id/recommendations", s.getRecommendations)
	}

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.cfg.Addr).Msg("Customer API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logging.Info().Msg("Shutting down customer API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
