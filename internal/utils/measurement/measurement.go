// Package measurement collects timings of the rip phases (probe, fetch, decode, encode).
package measurement

import (
	"slices"
	"strings"
	"sync"

	"github.com/samber/do/v2"
)

// Config of the measurement service
type Config struct {
	Active bool `yaml:"active"`
}

// Service holds the named measure points
type Service struct {
	active bool
	plock  sync.Mutex
	points map[string]*Point
}

// Data a snapshot of one measure point, durations in milliseconds
type Data struct {
	Name      string `json:"name"`
	Min       int64  `json:"min"`
	Max       int64  `json:"max"`
	Average   int64  `json:"average"`
	Total     int64  `json:"total"`
	Count     int    `json:"count"`
	Errors    int    `json:"errors"`
	MaxActive int    `json:"maxActive"`
}

// Init registers the service
func Init(inj do.Injector) {
	cfg := do.MustInvoke[*Config](inj)
	do.ProvideValue(inj, New(cfg.Active))
}

// New creates a service, an inactive service only hands out null monitors
func New(active bool) *Service {
	return &Service{
		active: active,
		points: make(map[string]*Point),
	}
}

// Active true if monitors measure
func (s *Service) Active() bool {
	return s != nil && s.active
}

// Start starts a new monitor on the named point. A nil service returns a null monitor.
func (s *Service) Start(name string) Monitor {
	if s == nil {
		return &nullMonitor{}
	}
	m := s.Point(name).Monitor()
	m.Start()
	return m
}

// Point the named measure point, created on first use
func (s *Service) Point(name string) *Point {
	s.plock.Lock()
	defer s.plock.Unlock()
	p, ok := s.points[name]
	if !ok {
		p = NewPoint(name, s.active)
		s.points[name] = p
	}
	return p
}

// Datas snapshots of all points sorted by name
func (s *Service) Datas() []Data {
	s.plock.Lock()
	datas := make([]Data, 0, len(s.points))
	for _, v := range s.points {
		datas = append(datas, v.Data())
	}
	s.plock.Unlock()
	slices.SortFunc(datas, func(d1, d2 Data) int {
		return strings.Compare(d1.Name, d2.Name)
	})
	return datas
}

// Reset resets all points
func (s *Service) Reset() {
	s.plock.Lock()
	defer s.plock.Unlock()
	for _, v := range s.points {
		v.Reset()
	}
}
