// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package server implements the qrserver HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	qr "github.com/unixdj/qrgen"
	"github.com/unixdj/qrgen/internal/config"
	"github.com/unixdj/qrgen/skipqr"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	cfg     *config.Config
	log     *logrus.Entry
	enc     qr.Encoder
	encName string
	cache   *renderCache
	def     defaults
}

// New returns a Server for cfg logging to log.
func New(cfg *config.Config, log *logrus.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	def, err := parseDefaults(cfg.Defaults)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:     cfg,
		log:     log.WithField("component", "server"),
		encName: strings.ToLower(cfg.Encoder),
		cache:   newRenderCache(cfg.CacheSize),
		def:     def,
	}
	switch s.encName {
	case config.EncoderSkip2:
		s.enc = skipqr.Encoder{}
	default:
		s.enc = qr.Native
	}
	return s, nil
}

// Handler returns the chi router serving the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/qr", s.handleQR)
	r.Post("/api/qr", s.handleQR)
	r.Get("/api/qr/info", s.handleInfo)
	r.Post("/api/qr/info", s.handleInfo)

	return r
}

// ListenAndServe serves the API on the configured address until ctx
// is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout.Duration,
		WriteTimeout: s.cfg.WriteTimeout.Duration,
		IdleTimeout:  2 * time.Minute,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"encoder": s.encName,
		}).Info("listening")
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NewLogger returns a logrus logger writing to out at the given
// level, formatted as "text" or "json".
func NewLogger(level, format string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)
	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps an encoding error to an HTTP status.
func errorStatus(err error) int {
	var pe *paramError
	switch {
	case errors.As(err, &pe),
		errors.Is(err, qr.ErrEmptyContent),
		errors.Is(err, qr.ErrEncoding),
		errors.Is(err, qr.ErrNotEncodable):
		return http.StatusBadRequest
	case errors.Is(err, qr.ErrDataTooLong),
		errors.Is(err, qr.ErrUnsupportedVersion):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	entry := s.log.WithError(err).WithField("request_id", middleware.GetReqID(r.Context()))
	if status >= 500 {
		entry.Error("encoding failed")
		writeError(w, status, "internal error")
		return
	}
	entry.Debug("bad request")
	writeError(w, status, err.Error())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
