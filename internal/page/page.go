// Package page turns a user supplied reference (tile base, archive page or item id) into the
// tile base of the image and its title.
package page

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/samber/do/v2"

	"github.com/willie68/go_tilerip/internal/logging"
	"github.com/willie68/go_tilerip/internal/transport"
)

var (
	// ErrBaseNotFound the page contains no image viewer with a tile base
	ErrBaseNotFound = errors.New("page: image base not found")
	// ErrTitleNotFound the page contains no usable title
	ErrTitleNotFound = errors.New("page: title not found")
	// ErrItemURL the configured item url has no %s placeholder for the id
	ErrItemURL = errors.New("page: item url has no id placeholder")
)

// Kind of a reference
type Kind int

const (
	KindItem Kind = iota
	KindBase
	KindPage
)

func (k Kind) String() string {
	switch k {
	case KindBase:
		return "base"
	case KindPage:
		return "page"
	}
	return "item"
}

// Config of the reference resolution
type Config struct {
	// ItemURL page url for item ids, %s is replaced by the id
	ItemURL string `yaml:"itemurl"`
	// BaseHosts references containing one of these are tile bases
	BaseHosts []string `yaml:"basehosts"`
	// PageHosts references containing one of these are archive pages
	PageHosts []string `yaml:"pagehosts"`
}

// Item the resolved image
type Item struct {
	Ref   string `json:"ref"`
	Kind  string `json:"kind"`
	Page  string `json:"page,omitempty"`
	Title string `json:"title,omitempty"`
	Base  string `json:"base"`
}

// Fetcher the part of a transport needed to load a page
type Fetcher interface {
	Fetch(ctx context.Context, addr string) ([]byte, error)
}

// Resolver resolves references
type Resolver struct {
	log *logging.Logger
	cfg Config
	src Fetcher
}

// Init registers the resolver, pages are loaded with the shared http transport
func Init(inj do.Injector) {
	cfg := do.MustInvoke[*Config](inj)
	fac := do.MustInvoke[*transport.Factory](inj)
	do.ProvideValue(inj, NewResolver(*cfg, fac.HTTP()))
}

// NewResolver creates a resolver
func NewResolver(cfg Config, src Fetcher) *Resolver {
	return &Resolver{
		log: logging.New().WithName("page"),
		cfg: cfg,
		src: src,
	}
}

// Classify returns the kind of the reference
func (r *Resolver) Classify(ref string) Kind {
	if strings.HasPrefix(ref, transport.MBTilesScheme) {
		return KindBase
	}
	for _, h := range r.cfg.BaseHosts {
		if h != "" && strings.Contains(ref, h) {
			return KindBase
		}
	}
	for _, h := range r.cfg.PageHosts {
		if h != "" && strings.Contains(ref, h) {
			return KindPage
		}
	}
	return KindItem
}

// PageURL the archive page of an item id
func (r *Resolver) PageURL(id string) (string, error) {
	if !strings.Contains(r.cfg.ItemURL, "%s") {
		return "", errors.Wrapf(ErrItemURL, "itemurl %q", r.cfg.ItemURL)
	}
	return strings.Replace(r.cfg.ItemURL, "%s", strings.TrimSpace(id), 1), nil
}

// Resolve resolves the reference. Tile bases are returned as is, pages and item ids are loaded
// and the base and title are extracted.
func (r *Resolver) Resolve(ctx context.Context, ref string) (Item, error) {
	ref = strings.TrimSpace(ref)
	k := r.Classify(ref)
	it := Item{Ref: ref, Kind: k.String()}
	switch k {
	case KindBase:
		it.Base = ref
		return it, nil
	case KindPage:
		it.Page = ref
	default:
		u, err := r.PageURL(ref)
		if err != nil {
			return Item{}, err
		}
		it.Page = u
	}
	r.log.Debugf("loading page %s", it.Page)
	data, err := r.src.Fetch(ctx, it.Page)
	if err != nil {
		return Item{}, errors.WithMessagef(err, "loading page of %q", ref)
	}
	base, title, err := Extract(data)
	if err != nil {
		return Item{}, errors.WithMessagef(err, "page %s", it.Page)
	}
	it.Base = base
	it.Title = title
	return it, nil
}

// Extract finds the tile base in the url attribute of the image viewer and the item title, the
// part of the page title following the first dash
func Extract(html []byte) (base, title string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", "", errors.Wrap(ErrBaseNotFound, err.Error())
	}
	doc.Find("image-viewer").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		u, ok := s.Attr("url")
		u = strings.TrimSpace(u)
		if ok && strings.HasPrefix(u, "http") {
			base = u
			return false
		}
		return true
	})
	if base == "" {
		return "", "", ErrBaseNotFound
	}
	title, ok := itemTitle(doc.Find("title").First().Text())
	if !ok {
		return "", "", ErrTitleNotFound
	}
	return base, title, nil
}

func itemTitle(s string) (string, bool) {
	site, item, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok || strings.TrimSpace(site) == "" {
		return "", false
	}
	item = strings.TrimSpace(item)
	return item, item != ""
}
