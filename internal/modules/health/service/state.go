package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	lastSignalUnix atomic.Int64 // unix seconds
	lastOutcome    atomic.Value // string
	signals        atomic.Int64
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	s.lastOutcome.Store("")
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

// TouchSignal — отметка об обработанном сигнале и его исходе.
func (s *State) TouchSignal(t time.Time, outcome string) {
	s.lastSignalUnix.Store(t.Unix())
	s.lastOutcome.Store(outcome)
	s.signals.Add(1)
}

func (s *State) LastSignal() time.Time {
	u := s.lastSignalUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) LastOutcome() string { return s.lastOutcome.Load().(string) }
func (s *State) Signals() int64      { return s.signals.Load() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
