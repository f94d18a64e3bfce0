package delivery

import (
	"context"
	"sync"
	"time"

	"ai-learning-coach-be/pkg/coach"
)

const (
	DefaultFirstDelay = 600 * time.Millisecond
	DefaultStepDelay  = 1500 * time.Millisecond
)

type Config struct {
	// FirstDelay is waited before the first message of a reply.
	FirstDelay time.Duration
	// StepDelay is waited between consecutive messages.
	StepDelay time.Duration
}

func DefaultConfig() Config {
	return Config{FirstDelay: DefaultFirstDelay, StepDelay: DefaultStepDelay}
}

// Message is one step of a reply, ready to be shown.
type Message struct {
	SessionID string
	Epoch     uint64
	Index     int
	Total     int
	Outcome   string
	Step      coach.Step
}

// Last reports whether this is the final step of its reply.
func (m Message) Last() bool { return m.Index == m.Total-1 }

// Sink receives delivered messages in order.
type Sink interface {
	Deliver(ctx context.Context, msg Message)
}

type SinkFunc func(ctx context.Context, msg Message)

func (f SinkFunc) Deliver(ctx context.Context, msg Message) { f(ctx, msg) }

// Scheduler plays replies out over time. Every reply runs as its own
// sequence in its own goroutine with its own copy of the steps; sequences
// never share buffers, so several replies may be in flight at once.
type Scheduler struct {
	cfg  Config
	sink Sink

	mu      sync.Mutex
	nextID  uint64
	running map[string]map[uint64]*Sequence
	closed  bool
	wg      sync.WaitGroup
}

func NewScheduler(cfg Config, sink Sink) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		sink:    sink,
		running: make(map[string]map[uint64]*Sequence),
	}
}

// Sequence is a reply in flight.
type Sequence struct {
	id        uint64
	sessionID string
	cancel    context.CancelFunc
	done      chan struct{}
	delivered int
	mu        sync.Mutex
}

// Done is closed when the sequence finished or was cancelled.
func (q *Sequence) Done() <-chan struct{} { return q.done }

func (q *Sequence) Cancel() { q.cancel() }

// Delivered is the number of steps handed to the sink so far.
func (q *Sequence) Delivered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.delivered
}

// Schedule starts delivering reply for the session. The returned sequence
// is already finished when the scheduler is closed or the reply is empty.
func (s *Scheduler) Schedule(sessionID string, epoch uint64, reply coach.Reply) *Sequence {
	steps := append([]coach.Step(nil), reply.Steps...)

	ctx, cancel := context.WithCancel(context.Background())
	seq := &Sequence{sessionID: sessionID, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	if s.closed || len(steps) == 0 {
		s.mu.Unlock()
		cancel()
		close(seq.done)
		return seq
	}
	s.nextID++
	seq.id = s.nextID
	if s.running[sessionID] == nil {
		s.running[sessionID] = make(map[uint64]*Sequence)
	}
	s.running[sessionID][seq.id] = seq
	s.wg.Add(1)
	s.mu.Unlock()

	go s.play(ctx, seq, epoch, reply.Outcome, steps)
	return seq
}

func (s *Scheduler) play(ctx context.Context, seq *Sequence, epoch uint64, outcome string, steps []coach.Step) {
	defer s.wg.Done()
	defer close(seq.done)
	defer s.forget(seq)
	defer seq.cancel()

	for i, step := range steps {
		delay := s.cfg.StepDelay
		if i == 0 {
			delay = s.cfg.FirstDelay
		}
		if !wait(ctx, delay) {
			return
		}

		s.sink.Deliver(ctx, Message{
			SessionID: seq.sessionID,
			Epoch:     epoch,
			Index:     i,
			Total:     len(steps),
			Outcome:   outcome,
			Step:      step,
		})

		seq.mu.Lock()
		seq.delivered++
		seq.mu.Unlock()
	}
}

func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Scheduler) forget(seq *Sequence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.running[seq.sessionID]; ok {
		delete(set, seq.id)
		if len(set) == 0 {
			delete(s.running, seq.sessionID)
		}
	}
}

// CancelSession stops every sequence of the session and returns how many
// were in flight.
func (s *Scheduler) CancelSession(sessionID string) int {
	s.mu.Lock()
	set := s.running[sessionID]
	seqs := make([]*Sequence, 0, len(set))
	for _, seq := range set {
		seqs = append(seqs, seq)
	}
	s.mu.Unlock()

	for _, seq := range seqs {
		seq.Cancel()
	}
	return len(seqs)
}

// Pending is the number of sequences in flight for the session.
func (s *Scheduler) Pending(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.running[sessionID])
}

// Wait blocks until every sequence in flight has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close cancels everything in flight, waits for it and rejects new work.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	var seqs []*Sequence
	for _, set := range s.running {
		for _, seq := range set {
			seqs = append(seqs, seq)
		}
	}
	s.mu.Unlock()

	for _, seq := range seqs {
		seq.Cancel()
	}
	s.wg.Wait()
}
