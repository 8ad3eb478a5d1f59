package consensus

import "sync"

// Strand is a serial-execution token.  Functions posted to a strand run one
// at a time in FIFO order, so everything a single validator does happens in
// a total order without any locking of its own state.  Distinct strands may
// run concurrently.
type Strand struct {
	mtx     sync.Mutex
	pending []func()
	running bool
}

// NewStrand returns a ready to use strand.
func NewStrand() *Strand {
	return &Strand{}
}

// Post enqueues f for execution on the strand.  It never blocks; f runs
// after every previously posted function has returned.
func (s *Strand) Post(f func()) {
	s.mtx.Lock()
	s.pending = append(s.pending, f)
	if s.running {
		s.mtx.Unlock()
		return
	}
	s.running = true
	s.mtx.Unlock()

	go s.drain()
}

// Wrap returns a function that posts f onto the strand when called.  The
// validators in this package call Post directly from their chain callbacks.
func (s *Strand) Wrap(f func()) func() {
	return func() { s.Post(f) }
}

// drain runs queued functions until the queue empties.  Only one drain
// goroutine exists at a time.
func (s *Strand) drain() {
	for {
		s.mtx.Lock()
		if len(s.pending) == 0 {
			s.running = false
			s.mtx.Unlock()
			return
		}
		f := s.pending[0]
		s.pending = s.pending[1:]
		s.mtx.Unlock()

		f()
	}
}
