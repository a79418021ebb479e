package measurement

import (
	"sync"
	"time"
)

// Point aggregates the monitors of one named phase
type Point struct {
	name                     string
	sactive                  bool
	min, max, average, total time.Duration
	errorCount, count        int
	active, maxActive        int
	calcLock                 sync.Mutex
}

// NewPoint creates a measure point
func NewPoint(name string, active bool) *Point {
	return &Point{
		name:    name,
		sactive: active,
	}
}

// Name the name of this measure point
func (p *Point) Name() string {
	return p.name
}

// Reset clears all values
func (p *Point) Reset() {
	p.calcLock.Lock()
	defer p.calcLock.Unlock()
	p.min = 0
	p.max = 0
	p.average = 0
	p.total = 0
	p.errorCount = 0
	p.count = 0
	p.active = 0
	p.maxActive = 0
}

// Monitor get a new monitor
func (p *Point) Monitor() Monitor {
	if p.sactive {
		return newMonitor(p)
	}
	return &nullMonitor{}
}

func (p *Point) finish(accrued time.Duration) {
	p.calcLock.Lock()
	defer p.calcLock.Unlock()

	if p.active > 0 {
		p.active--
	}
	p.count++
	p.total += accrued
	p.average = p.total / time.Duration(p.count)
	if accrued > p.max {
		p.max = accrued
	}
	if (accrued < p.min) || (p.min == 0) {
		p.min = accrued
	}
}

func (p *Point) activate() {
	p.calcLock.Lock()
	defer p.calcLock.Unlock()
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
}

// IncError counts failed measurements
func (p *Point) IncError(n int) {
	p.calcLock.Lock()
	defer p.calcLock.Unlock()
	p.errorCount += n
}

// Active the number of running monitors
func (p *Point) Active() int {
	p.calcLock.Lock()
	defer p.calcLock.Unlock()
	return p.active
}

// Data snapshot of this point
func (p *Point) Data() Data {
	p.calcLock.Lock()
	defer p.calcLock.Unlock()
	return Data{
		Name:      p.name,
		Min:       p.min.Milliseconds(),
		Max:       p.max.Milliseconds(),
		Average:   p.average.Milliseconds(),
		Total:     p.total.Milliseconds(),
		Count:     p.count,
		Errors:    p.errorCount,
		MaxActive: p.maxActive,
	}
}
