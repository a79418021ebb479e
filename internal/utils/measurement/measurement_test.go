package measurement

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	PointName = "fetchTile"
)

func TestInactive(t *testing.T) {
	ast := assert.New(t)
	s := New(false)

	ast.NotNil(s)
	ast.False(s.Active())

	m := s.Start(PointName)
	ast.NotNil(m)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
	ast.Equal(time.Duration(0), m.Accrued())

	dat := s.Point(PointName).Data()
	ast.Equal(0, dat.Count)
	ast.Equal(PointName, dat.Name)
	ast.Equal(int64(0), dat.Average)

	dats := s.Datas()
	ast.Len(dats, 1)
	ast.Equal(PointName, dats[0].Name)
}

func TestNilService(t *testing.T) {
	ast := assert.New(t)
	var s *Service
	ast.False(s.Active())
	m := s.Start(PointName)
	ast.True(m.IsRunning())
	ast.True(m.Stop())
}

func TestSimple(t *testing.T) {
	ast := assert.New(t)
	s := New(true)

	for range 2 {
		m := s.Start(PointName)
		ast.True(m.IsRunning())
		time.Sleep(20 * time.Millisecond)
		ast.True(m.Stop())
		ast.False(m.Stop())
		ast.GreaterOrEqual(m.Accrued(), 20*time.Millisecond)
	}

	dat := s.Point(PointName).Data()
	ast.Equal(2, dat.Count)
	ast.GreaterOrEqual(dat.Min, int64(20))
	ast.GreaterOrEqual(dat.Max, dat.Min)
	ast.GreaterOrEqual(dat.Total, int64(40))
	ast.Equal(1, dat.MaxActive)
}

func TestConcurrentMonitors(t *testing.T) {
	ast := assert.New(t)
	s := New(true)
	var start, wg sync.WaitGroup
	start.Add(1)
	for range 8 {
		wg.Go(func() {
			m := s.Start(PointName)
			start.Wait()
			m.SetError()
			m.Stop()
		})
	}
	for s.Point(PointName).Active() < 8 {
		time.Sleep(time.Millisecond)
	}
	start.Done()
	wg.Wait()

	dat := s.Point(PointName).Data()
	ast.Equal(8, dat.Count)
	ast.Equal(8, dat.Errors)
	ast.Equal(8, dat.MaxActive)
	ast.Equal(0, s.Point(PointName).Active())
}

func TestReset(t *testing.T) {
	ast := assert.New(t)
	s := New(true)

	m := s.Start(PointName)
	time.Sleep(2 * time.Millisecond)
	m.Stop()

	s.Reset()

	dat := s.Point(PointName).Data()
	ast.Equal(0, dat.Count)
	ast.Equal(int64(0), dat.Average)
	ast.Equal(int64(0), dat.Min)
	ast.Equal(int64(0), dat.Max)
}

func TestRoutes(t *testing.T) {
	ast := assert.New(t)
	s := New(true)
	s.Start("probe").Stop()
	s.Start(PointName).Stop()

	srv := httptest.NewServer(Routes(s))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	var datas []Data
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&datas))
	resp.Body.Close()
	require.Len(t, datas, 2)
	ast.Equal(PointName, datas[0].Name)
	ast.Equal("probe", datas[1].Name)

	resp, err = http.Post(srv.URL+"/reset/probe", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	ast.Equal(http.StatusNoContent, resp.StatusCode)
	ast.Equal(0, s.Point("probe").Data().Count)
	ast.Equal(1, s.Point(PointName).Data().Count)
}
