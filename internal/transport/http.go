package transport

import (
	"context"
	"io"
	"net/http"

	"github.com/willie68/go_tilerip/internal/logging"
)

const defaultUserAgent = "go_tilerip/0.1"

// HTTPService a tile source speaking plain http, safe for concurrent use
type HTTPService struct {
	log    *logging.Logger
	config Config
	cl     *http.Client
}

// NewHTTP creates the http transport. The connection limit per host is the only bound for the
// tile fan-out.
func NewHTTP(cfg Config) *HTTPService {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.MaxConnsPerHost > 0 {
		tr.MaxConnsPerHost = cfg.MaxConnsPerHost
		tr.MaxIdleConnsPerHost = cfg.MaxConnsPerHost
	}
	return &HTTPService{
		log:    logging.New().WithName("http"),
		config: cfg,
		cl: &http.Client{
			Transport: tr,
			Timeout:   cfg.Timeout,
		},
	}
}

// Exists sends a HEAD request, 4xx is a boundary
func (s *HTTPService) Exists(ctx context.Context, addr string) error {
	resp, err := s.do(ctx, http.MethodHead, addr)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return classify(http.MethodHead, addr, resp.StatusCode, ErrBoundary)
}

// Fetch sends a GET request and reads the complete body, 4xx is ErrNotFound
func (s *HTTPService) Fetch(ctx context.Context, addr string) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet, addr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := classify(http.MethodGet, addr, resp.StatusCode, ErrNotFound); err != nil {
		// drain, so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: ErrTransport, Op: "read", Addr: addr, Err: err}
	}
	return data, nil
}

func (s *HTTPService) do(ctx context.Context, method, addr string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, addr, nil)
	if err != nil {
		return nil, &Error{Kind: ErrTransport, Op: method, Addr: addr, Err: err}
	}
	s.setHeaders(req)
	s.log.Debugf("%s %s", method, addr)
	resp, err := s.cl.Do(req)
	if err != nil {
		return nil, &Error{Kind: ErrTransport, Op: method, Addr: addr, Err: err}
	}
	return resp, nil
}

func (s *HTTPService) setHeaders(req *http.Request) {
	ua := s.config.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "*/*")
	for key, value := range s.config.Headers {
		req.Header.Set(key, value)
	}
}

// classify maps the status code, a client error is reported as the absent kind
func classify(op, addr string, code int, absent error) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 400 && code < 500:
		return &Error{Kind: absent, Op: op, Addr: addr, Status: code}
	default:
		return &Error{Kind: ErrServer, Op: op, Addr: addr, Status: code}
	}
}
