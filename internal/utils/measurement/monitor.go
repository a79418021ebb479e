package measurement

import "time"

// Monitor measures one execution of a phase
type Monitor interface {
	Start()
	Stop() bool
	IsRunning() bool
	Accrued() time.Duration
	SetError()
}

var (
	_ Monitor = (*defaultMonitor)(nil)
	_ Monitor = (*nullMonitor)(nil)
)

type defaultMonitor struct {
	start   time.Time
	accrued time.Duration
	running bool
	point   *Point
}

type nullMonitor struct {
	started bool
}

func (m *nullMonitor) Start() {
	m.started = true
}

func (m *nullMonitor) Stop() bool {
	m.started = false
	return true
}

func (m *nullMonitor) IsRunning() bool {
	return m.started
}

func (m *nullMonitor) Accrued() time.Duration {
	return 0
}

func (m *nullMonitor) SetError() {
	// no op
}

func newMonitor(p *Point) *defaultMonitor {
	return &defaultMonitor{
		point: p,
	}
}

// Start the time measurement
func (m *defaultMonitor) Start() {
	m.start = time.Now()
	m.running = true
	if m.point != nil {
		m.point.activate()
	}
}

// IsRunning true if the monitor is measuring
func (m *defaultMonitor) IsRunning() bool {
	return m.running
}

// Stop the time measurement of this monitor
func (m *defaultMonitor) Stop() bool {
	if !m.running {
		return false
	}
	m.accrued += time.Since(m.start)
	m.running = false
	if m.point != nil {
		m.point.finish(m.accrued)
	}
	return true
}

// Accrued getting the accrued duration
func (m *defaultMonitor) Accrued() time.Duration {
	return m.accrued
}

// SetError marks this execution as failed
func (m *defaultMonitor) SetError() {
	if m.point != nil {
		m.point.IncError(1)
	}
}
