// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	qr "github.com/unixdj/qrgen"
	"github.com/unixdj/qrgen/render"
)

// codeInfo describes an encoded code.
type codeInfo struct {
	Version   int    `json:"version"`
	Level     string `json:"level"`
	Mask      int    `json:"mask"`
	Size      int    `json:"size"`    // image width in pixels
	Modules   int    `json:"modules"` // modules on a side, without quiet zone
	QuietZone int    `json:"quiet_zone"`
	Encoder   string `json:"encoder"`
}

func (s *Server) info(c *qr.Code, p *params) codeInfo {
	n := c.Size + 2*c.QuietZone
	size := p.width
	switch p.kind {
	case render.PBM, render.EPS:
		size = max(p.width/n, 1) * n
	case render.Text, render.ASCII:
		size = n // characters
	}
	return codeInfo{
		Version:   int(c.Version),
		Level:     c.Level.String(),
		Mask:      c.Mask,
		Size:      size,
		Modules:   c.Size,
		QuietZone: c.QuietZone,
		Encoder:   s.encName,
	}
}

// request parses r, answering it with an error if that fails.
func (s *Server) request(w http.ResponseWriter, r *http.Request) (*params, bool) {
	v, err := requestValues(w, r, int64(s.cfg.MaxContent)*4+1024)
	if err == nil {
		var p *params
		if p, err = s.parse(v); err == nil {
			return p, true
		}
	}
	s.fail(w, r, err)
	return nil, false
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	p, ok := s.request(w, r)
	if !ok {
		return
	}
	key := p.key(s.encName)
	out, hit := s.cache.get(key)
	if !hit {
		var err error
		if out, err = s.render(p); err != nil {
			s.fail(w, r, err)
			return
		}
		s.cache.add(key, out)
	}
	format := p.kind.String()
	if p.all {
		format = "all"
	}
	s.log.WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"format":     format,
		"version":    out.info.Version,
		"level":      out.info.Level,
		"cached":     hit,
	}).Info("rendered code")

	// Only codes that encode get an entity tag.
	tag := etag(key)
	h := w.Header()
	h.Set("ETag", tag)
	h.Set("Cache-Control", "public, max-age=86400")
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.Set("Content-Type", out.ctype)
	h.Set("Content-Length", strconv.Itoa(len(out.body)))
	h.Set("X-QR-Version", strconv.Itoa(out.info.Version))
	h.Set("X-QR-Level", out.info.Level)
	if p.download || p.all {
		h.Set("Content-Disposition", `attachment; filename="`+p.filename()+`"`)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(out.body)
}

// render encodes and renders p.
func (s *Server) render(p *params) (*rendered, error) {
	c, err := s.enc.Encode(p.content, p.opts)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	if p.all {
		err = render.Bundle(&b, c, p.style())
	} else {
		err = render.Render(&b, p.kind, c, p.style())
	}
	if err != nil {
		return nil, err
	}
	return &rendered{
		body:  b.Bytes(),
		ctype: p.contentType(),
		info:  s.info(c, p),
	}, nil
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	p, ok := s.request(w, r)
	if !ok {
		return
	}
	c, err := s.enc.Encode(p.content, p.opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.info(c, p))
}
