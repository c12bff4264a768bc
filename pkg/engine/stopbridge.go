package engine

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// StopInfo is the immutable record of how a search session ended.
type StopInfo struct {
	SessionID   uuid.UUID
	Reason      string
	ElapsedMs   int64
	Nodes       int64
	Depth       int
	HardTimeout bool
}

// session holds the non-owning handles the stop bridge needs: a stop flag,
// the scheduler, and progress counters. It is published at search start and
// cleared unconditionally at session end, so a late external stop is a no-op
// instead of touching dead state.
type session struct {
	id    uuid.UUID
	start time.Time
	tm    *timeManager
	nodes func() int64
	sched *scheduler
	depth atomic.Int32
	stop  atomic.Bool
	info  atomic.Pointer[StopInfo]
}

func newSession(e *Engine) *session {
	return &session{
		id:    uuid.New(),
		start: e.start,
		tm:    e.timeManager,
		nodes: e.nodes,
	}
}

func (s *session) stopRequested() bool {
	return s.stop.Load()
}

func (s *session) requestStop(reason string) {
	if !s.stop.CompareAndSwap(false, true) {
		return
	}
	s.tm.ForceStop()
	if s.sched != nil {
		s.sched.drainAll()
	}
	s.record(reason)
}

func (s *session) record(reason string) {
	var info = &StopInfo{
		SessionID:   s.id,
		Reason:      reason,
		ElapsedMs:   time.Since(s.start).Milliseconds(),
		Nodes:       s.nodes(),
		Depth:       int(s.depth.Load()),
		HardTimeout: s.tm.HardTimeout(),
	}
	s.info.CompareAndSwap(nil, info)
}

// finalize records completion for sessions that ended on their own.
func (s *session) finalize(e *Engine) {
	var reason = "completed"
	if s.tm.HardTimeout() {
		reason = "hard timeout"
	}
	s.record(reason)
	if s.sched != nil && s.sched.discarded.Load() > 0 {
		e.logger.Debug().
			Int64("batches", s.sched.discarded.Load()).
			Msg("discarded root batches")
	}
}

var currentSession atomic.Pointer[session]

func publishSession(s *session) {
	currentSession.Store(s)
}

func clearSession(s *session) {
	currentSession.CompareAndSwap(s, nil)
}

// RequestStopImmediate stops the running search, if any, from anywhere in
// the process. Returns the StopInfo snapshot, or nil when no session is
// live.
func RequestStopImmediate() *StopInfo {
	var s = currentSession.Load()
	if s == nil {
		return nil
	}
	s.requestStop("external stop")
	return s.info.Load()
}

// LastStopInfo reports the live session's stop record, if one was made.
func LastStopInfo() *StopInfo {
	var s = currentSession.Load()
	if s == nil {
		return nil
	}
	return s.info.Load()
}

// PonderHit rebases the running session's clock; a no-op without a session.
func PonderHit() {
	var s = currentSession.Load()
	if s != nil {
		s.tm.PonderHit()
	}
}
