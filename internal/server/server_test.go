// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unixdj/qrgen/internal/config"
	"github.com/unixdj/qrgen/scan"
)

func newTestServer(t *testing.T, mod func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	if mod != nil {
		mod(cfg)
	}
	log, err := NewLogger("debug", "text", io.Discard)
	require.NoError(t, err)
	s, err := New(cfg, log)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, h http.Handler, target string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t, nil).Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestQRPNG(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	rec := get(t, h, "/api/qr?content=HELLO+WORLD")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "1", rec.Header().Get("X-QR-Version"))
	assert.Equal(t, "M", rec.Header().Get("X-QR-Level"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx()) // medium
	text, err := scan.Decode(img)
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", text)
}

func TestQRDownload(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	for format, name := range map[string]string{
		"png": "qrcode.png", "jpg": "qrcode.jpg", "svg": "qrcode.svg",
	} {
		rec := get(t, h, "/api/qr?content=hi&download=1&format="+format)
		require.Equal(t, http.StatusOK, rec.Code, format)
		assert.Equal(t, `attachment; filename="`+name+`"`,
			rec.Header().Get("Content-Disposition"), format)
	}
}

func TestQRETag(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()
	rec := get(t, h, "/api/qr?content=cache+me&size=small")
	require.Equal(t, http.StatusOK, rec.Code)
	tag := rec.Header().Get("ETag")
	require.NotEmpty(t, tag)
	assert.Equal(t, 1, s.cache.len())

	rec2 := get(t, h, "/api/qr?content=cache+me&size=small")
	assert.Equal(t, tag, rec2.Header().Get("ETag"))
	assert.Equal(t, rec.Body.Bytes(), rec2.Body.Bytes())
	assert.Equal(t, 1, s.cache.len())

	rec3 := get(t, h, "/api/qr?content=cache+me&size=small", "If-None-Match", tag)
	assert.Equal(t, http.StatusNotModified, rec3.Code)
	assert.Zero(t, rec3.Body.Len())

	rec4 := get(t, h, "/api/qr?content=cache+me&size=large")
	assert.NotEqual(t, tag, rec4.Header().Get("ETag"))
	assert.Equal(t, 2, s.cache.len())
}

func TestQRETagFailing(t *testing.T) {
	s := newTestServer(t, nil)
	v := url.Values{"content": {strings.Repeat("A", 3000)}, "level": {"H"}}
	p, err := s.parse(v)
	require.NoError(t, err)
	tag := etag(p.key(s.encName))

	rec := get(t, s.Handler(), "/api/qr?"+v.Encode(), "If-None-Match", tag)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, rec.Header().Get("ETag"))
	assert.Equal(t, 0, s.cache.len())
}

func TestQRAll(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	rec := get(t, h, "/api/qr?content=HELLO&format=all&size=small")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="qrcode.zip"`, rec.Header().Get("Content-Disposition"))

	body := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"qrcode.png", "qrcode.jpg", "qrcode.svg"}, names)

	f, err := zr.Open("qrcode.png")
	require.NoError(t, err)
	defer f.Close()
	text, err := scan.DecodeReader(f)
	require.NoError(t, err)
	assert.Equal(t, "HELLO", text)

	single := get(t, h, "/api/qr?content=HELLO&size=small")
	assert.NotEqual(t, rec.Header().Get("ETag"), single.Header().Get("ETag"))
}

func TestQRNoCache(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.CacheSize = 0 })
	rec := get(t, s.Handler(), "/api/qr?content=x")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, s.cache.len())
}

func TestQRErrors(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	long := strings.Repeat("A", 3000)
	tests := []struct {
		query  string
		status int
	}{
		{"", http.StatusBadRequest},
		{"content=+++", http.StatusBadRequest},
		{"content=x&level=Z", http.StatusBadRequest},
		{"content=x&format=gif", http.StatusBadRequest},
		{"content=x&format=pdf", http.StatusBadRequest},
		{"content=x&fg=nocolour", http.StatusBadRequest},
		{"content=x&size=huge", http.StatusBadRequest},
		{"content=x&version=abc", http.StatusBadRequest},
		{"content=x&charset=klingon", http.StatusBadRequest},
		{"content=x&type=fax", http.StatusBadRequest},
		{"content=x&eci=maybe", http.StatusBadRequest},
		{"content=%E2%82%AC&charset=latin1", http.StatusBadRequest},
		{"content=" + long + "&level=H", http.StatusUnprocessableEntity},
		{"content=" + long + "&level=H&version=10", http.StatusUnprocessableEntity},
		{"content=x&version=41", http.StatusUnprocessableEntity},
		{"content=" + strings.Repeat("x", 5000), http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := get(t, h, "/api/qr?"+tt.query)
		q := tt.query
		if len(q) > 40 {
			q = q[:40]
		}
		assert.Equal(t, tt.status, rec.Code, q)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), q)
		assert.NotEmpty(t, errorOf(t, rec), q)
	}
	rec := get(t, h, "/api/qr?content=")
	assert.Contains(t, errorOf(t, rec), "please enter content")
}

func TestQRPostJSON(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	body := `{"content":"HELLO","format":"svg","fg":"#112233","download":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/qr", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `fill="#112233"`)
	assert.Equal(t, `attachment; filename="qrcode.svg"`, rec.Header().Get("Content-Disposition"))

	req = httptest.NewRequest(http.MethodPost, "/api/qr", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQRPostForm(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	form := url.Values{"content": {"HELLO"}, "format": {"utf8"}}
	req := httptest.NewRequest(http.MethodPost, "/api/qr", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "█")
}

func TestInfo(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	rec := get(t, h, "/api/qr/info?content=HELLO+WORLD&level=q&size=small")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var info codeInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, 1, info.Version)
	assert.Equal(t, "Q", info.Level)
	assert.Equal(t, 21, info.Modules)
	assert.Equal(t, 4, info.QuietZone)
	assert.Equal(t, 200, info.Size)
	assert.Equal(t, "native", info.Encoder)
	assert.True(t, 0 <= info.Mask && info.Mask < 8)
}

func TestContentType(t *testing.T) {
	s := newTestServer(t, nil)
	for _, tt := range []struct{ typ, in, want string }{
		{"email", "user@example.com", "mailto:user@example.com"},
		{"email", "MAILTO:user@example.com", "MAILTO:user@example.com"},
		{"phone", "+1 555 0100", "tel:+15550100"},
		{"url", "https://example.com", "https://example.com"},
		{"text", "user@example.com", "user@example.com"},
		{"", " text ", " text "},
	} {
		p, err := s.parse(url.Values{"content": {tt.in}, "type": {tt.typ}})
		require.NoError(t, err)
		assert.Equal(t, tt.want, p.content)
	}
}

func TestSkip2Encoder(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Encoder = config.EncoderSkip2 })
	h := s.Handler()
	rec := get(t, h, "/api/qr?content=HELLO+WORLD")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	text, err := scan.DecodeReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", text)

	rec = get(t, h, "/api/qr?content=x&charset=latin1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Encoder = "bogus"
	log, err := NewLogger("info", "json", io.Discard)
	require.NoError(t, err)
	_, err = New(cfg, log)
	assert.Error(t, err)

	_, err = NewLogger("loud", "text", io.Discard)
	assert.Error(t, err)
}
