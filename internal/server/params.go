// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image/color"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"

	qr "github.com/unixdj/qrgen"
	"github.com/unixdj/qrgen/coding"
	"github.com/unixdj/qrgen/internal/config"
	"github.com/unixdj/qrgen/render"
)

// paramError reports a malformed request parameter.
type paramError struct {
	name string
	err  error
}

func (e *paramError) Error() string { return fmt.Sprintf("%s: %v", e.name, e.err) }
func (e *paramError) Unwrap() error { return e.err }

// params is a parsed QR request.
type params struct {
	content  string
	opts     qr.Options
	kind     render.Kind
	all      bool // zip of render.BundleKinds
	width    int
	fg, bg   color.RGBA
	download bool
}

// defaults are the configured values for omitted parameters.
type defaults struct {
	level   qr.Level
	width   int
	kind    render.Kind
	fg, bg  color.RGBA
	charset string
}

func parseDefaults(d config.Defaults) (defaults, error) {
	var def defaults
	var err error
	if def.level, err = coding.ParseLevel(d.Level); err != nil {
		return def, err
	}
	if def.width, err = render.SizePreset(d.Size); err != nil {
		return def, err
	}
	if def.kind, err = render.ParseKind(d.Format); err != nil {
		return def, err
	}
	if def.fg, err = render.ParseColor(d.Foreground); err != nil {
		return def, err
	}
	if def.bg, err = render.ParseColor(d.Background); err != nil {
		return def, err
	}
	def.charset = d.Charset
	return def, nil
}

// jsonRequest is the body of a POST with a JSON content type.
type jsonRequest struct {
	Content    string `json:"content"`
	Type       string `json:"type"`
	Level      string `json:"level"`
	Version    int    `json:"version"`
	Size       string `json:"size"`
	Foreground string `json:"fg"`
	Background string `json:"bg"`
	Format     string `json:"format"`
	Charset    string `json:"charset"`
	ECI        bool   `json:"eci"`
	NoKanji    bool   `json:"nokanji"`
	Download   bool   `json:"download"`
}

func (j *jsonRequest) values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("content", j.Content)
	set("type", j.Type)
	set("level", j.Level)
	if j.Version != 0 {
		v.Set("version", strconv.Itoa(j.Version))
	}
	set("size", j.Size)
	set("fg", j.Foreground)
	set("bg", j.Background)
	set("format", j.Format)
	set("charset", j.Charset)
	for k, b := range map[string]bool{"eci": j.ECI, "nokanji": j.NoKanji, "download": j.Download} {
		if b {
			v.Set(k, "1")
		}
	}
	return v
}

// requestValues returns the parameters of r: the query string for
// GET, and the JSON or form body for POST.
func requestValues(w http.ResponseWriter, r *http.Request, limit int64) (url.Values, error) {
	if r.Method != http.MethodPost {
		return r.URL.Query(), nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var j jsonRequest
		if err := json.NewDecoder(r.Body).Decode(&j); err != nil {
			return nil, &paramError{"body", err}
		}
		return j.values(), nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, &paramError{"body", err}
	}
	return r.Form, nil
}

// prefixes for content types other than url and text.
var contentPrefix = map[string]string{
	"email": "mailto:",
	"phone": "tel:",
}

func parseBool(v url.Values, name string) (bool, error) {
	s := v.Get(name)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, &paramError{name, err}
	}
	return b, nil
}

// parse parses request parameters, filling in defaults.
func (s *Server) parse(v url.Values) (*params, error) {
	p := &params{
		kind:  s.def.kind,
		width: s.def.width,
		fg:    s.def.fg,
		bg:    s.def.bg,
		opts: qr.Options{
			Level:    s.def.level,
			Encoding: s.def.charset,
		},
	}
	p.content = v.Get("content")
	if strings.TrimSpace(p.content) == "" {
		return nil, fmt.Errorf("%w: please enter content to generate QR code",
			qr.ErrEmptyContent)
	}
	if len(p.content) > s.cfg.MaxContent {
		return nil, &paramError{"content",
			fmt.Errorf("%d bytes, at most %d allowed", len(p.content), s.cfg.MaxContent)}
	}
	switch t := strings.ToLower(v.Get("type")); t {
	case "", "url", "text":
	case "email", "phone":
		pre := contentPrefix[t]
		c := strings.TrimSpace(p.content)
		if t == "phone" {
			c = strings.ReplaceAll(c, " ", "")
		}
		if !strings.HasPrefix(strings.ToLower(c), pre) {
			c = pre + c
		}
		p.content = c
	default:
		return nil, &paramError{"type", fmt.Errorf("unknown content type %q", t)}
	}

	var err error
	if l := v.Get("level"); l != "" {
		if p.opts.Level, err = coding.ParseLevel(l); err != nil {
			return nil, &paramError{"level", err}
		}
	}
	if ver := v.Get("version"); ver != "" {
		n, err := strconv.Atoi(ver)
		if err != nil {
			return nil, &paramError{"version", err}
		}
		p.opts.Version = coding.Version(n)
	}
	if sz := v.Get("size"); sz != "" {
		if p.width, err = render.SizePreset(sz); err != nil {
			return nil, &paramError{"size", err}
		}
	}
	if f := v.Get("format"); strings.EqualFold(f, "all") {
		p.all = true
	} else if f != "" {
		if p.kind, err = render.ParseKind(f); err != nil {
			return nil, &paramError{"format", err}
		}
	}
	if c := v.Get("fg"); c != "" {
		if p.fg, err = render.ParseColor(c); err != nil {
			return nil, &paramError{"fg", err}
		}
	}
	if c := v.Get("bg"); c != "" {
		if p.bg, err = render.ParseColor(c); err != nil {
			return nil, &paramError{"bg", err}
		}
	}
	if cs := v.Get("charset"); cs != "" {
		p.opts.Encoding = cs
	}
	if p.opts.ECI, err = parseBool(v, "eci"); err != nil {
		return nil, err
	}
	if p.opts.NoKanji, err = parseBool(v, "nokanji"); err != nil {
		return nil, err
	}
	if p.download, err = parseBool(v, "download"); err != nil {
		return nil, err
	}
	return p, nil
}

// contentType and filename describe the response body.
func (p *params) contentType() string {
	if p.all {
		return render.BundleContentType
	}
	return p.kind.ContentType()
}

func (p *params) filename() string {
	if p.all {
		return render.BundleFilename
	}
	return render.Filename(p.kind)
}

// style returns the render style for p.
func (p *params) style() render.Style {
	return render.Style{
		Width:      p.width,
		Foreground: p.fg,
		Background: p.bg,
		QuietZone:  -1,
	}
}

// key returns a string identifying the rendered output of p with
// encoder enc.
func (p *params) key(enc string) string {
	kind := p.kind.String()
	if p.all {
		kind = "all"
	}
	return fmt.Sprintf("%s\x00%q\x00%v\x00%d\x00%s\x00%d\x00%s\x00%s\x00%s\x00%t\x00%t",
		enc, p.content, p.opts.Level, p.opts.Version, kind, p.width,
		render.Hex(p.fg), render.Hex(p.bg), strings.ToLower(p.opts.Encoding),
		p.opts.ECI, p.opts.NoKanji)
}

// etag returns a strong entity tag for key.
func etag(key string) string {
	sum := blake3.Sum256([]byte(key))
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
