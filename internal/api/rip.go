package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/samber/do/v2"

	"github.com/willie68/go_tilerip/internal/codec"
	"github.com/willie68/go_tilerip/internal/config"
	"github.com/willie68/go_tilerip/internal/logging"
	"github.com/willie68/go_tilerip/internal/page"
	"github.com/willie68/go_tilerip/internal/ripper"
	"github.com/willie68/go_tilerip/internal/transport"
	"github.com/willie68/go_tilerip/internal/utils/measurement"
	"github.com/willie68/go_tilerip/pkg/fileutils"
)

// ErrBadRequest invalid query parameters
var ErrBadRequest = errors.New("api: bad request")

type resolver interface {
	Resolve(ctx context.Context, ref string) (page.Item, error)
}

type imageRipper interface {
	Run(ctx context.Context, base string, zoom int, obs ripper.Observer) (*ripper.Result, error)
	Grid(ctx context.Context, base string, zoom int) (ripper.Grid, error)
}

// RipHandler rips images on request
type RipHandler struct {
	log      *logging.Logger
	resolver resolver
	ripper   imageRipper
	metrics  *measurement.Service
	format   string
}

// Info the response of the info route
type Info struct {
	page.Item
	Zoom    int `json:"zoom"`
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
}

// ErrorResponse the json body of a failed request
type ErrorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// NewRipHandler creates the handler from the injected services
func NewRipHandler(inj do.Injector) (*RipHandler, error) {
	res, err := do.Invoke[*page.Resolver](inj)
	if err != nil {
		return nil, err
	}
	rp, err := do.Invoke[*ripper.Ripper](inj)
	if err != nil {
		return nil, err
	}
	format := codec.PNG
	if cfg, err := do.Invoke[*config.Config](inj); err == nil && cfg.Format != "" {
		format = cfg.Format
	}
	return &RipHandler{
		log:      logging.New().WithName("api"),
		resolver: res,
		ripper:   rp,
		metrics:  do.MustInvoke[*measurement.Service](inj),
		format:   format,
	}, nil
}

// Rip GET /rip?ref=<ref>&zoom=<zoom>&format=<format>, answers with the encoded image
func (h *RipHandler) Rip(w http.ResponseWriter, r *http.Request) {
	ref, zoom, err := h.params(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	format, err := codec.ParseFormat(h.queryDefault(r, "format", h.format))
	if err != nil {
		h.renderError(w, r, errors.Wrap(ErrBadRequest, err.Error()))
		return
	}
	it, err := h.resolver.Resolve(r.Context(), ref)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.log.Infof("rip of %s (%s) requested", ref, it.Base)
	res, err := h.ripper.Run(r.Context(), it.Base, zoom, nil)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	em := h.metrics.Start("encode")
	var buf bytes.Buffer
	err = codec.Encode(&buf, res.Image, format)
	em.Stop()
	if err != nil {
		em.SetError()
		h.renderError(w, r, err)
		return
	}
	name := fileutils.OutputName(it.Title, "tilerip", codec.Extension(format))
	w.Header().Set("Content-Type", codec.ContentType(format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	w.Header().Set("X-Rip-Id", res.RunID)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Info GET /info?ref=<ref>&zoom=<zoom>, answers with the resolved item and its grid
func (h *RipHandler) Info(w http.ResponseWriter, r *http.Request) {
	ref, zoom, err := h.params(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	it, err := h.resolver.Resolve(r.Context(), ref)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	g, err := h.ripper.Grid(r.Context(), it.Base, zoom)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, Info{
		Item:    it,
		Zoom:    g.Zoom,
		Columns: g.Dimensions.Columns,
		Rows:    g.Dimensions.Rows,
	})
}

func (h *RipHandler) params(r *http.Request) (string, int, error) {
	ref := strings.TrimSpace(r.URL.Query().Get("ref"))
	if ref == "" {
		return "", 0, errors.Wrap(ErrBadRequest, "missing ref")
	}
	zoom := ripper.AutoZoom
	if zs := r.URL.Query().Get("zoom"); zs != "" {
		z, err := strconv.Atoi(zs)
		if err != nil || z < 0 {
			return "", 0, errors.Wrapf(ErrBadRequest, "invalid zoom %q", zs)
		}
		zoom = z
	}
	return ref, zoom, nil
}

func (h *RipHandler) queryDefault(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}

func (h *RipHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorf("request %s failed: %v", r.URL.String(), err)
	} else {
		h.log.Debugf("request %s rejected: %v", r.URL.String(), err)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Status: status, Error: err.Error()})
}

// StatusOf maps an error to the http status of the response
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, codec.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, page.ErrBaseNotFound), errors.Is(err, page.ErrTitleNotFound),
		errors.Is(err, transport.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, transport.ErrServer), errors.Is(err, transport.ErrTransport),
		errors.Is(err, codec.ErrFormatInference), errors.Is(err, codec.ErrDecode):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
