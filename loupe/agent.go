package loupe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	defaultQueueSize     = 10000
	defaultBatchSize     = 100
	defaultFlushInterval = time.Second
	defaultSendTimeout   = 5 * time.Second
)

// Sink receives batches of messages from the agent's flush loop. Send is
// called from a single goroutine and must not retain batch.
type Sink interface {
	Send(ctx context.Context, session SessionInfo, batch []Message) error
	Close() error
}

// AgentConfig configures a session. Zero values get defaults.
type AgentConfig struct {
	Product     string
	Application string
	Version     string

	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	SendTimeout   time.Duration

	Sinks []Sink

	// Diagnostics receives the agent's own log output. Defaults to a no-op logger.
	Diagnostics *zap.Logger
}

// SessionInfo identifies the running session
type SessionInfo struct {
	ID          string
	Product     string
	Application string
	Version     string
	Started     time.Time
}

// AgentStats is a point-in-time view of the agent counters
type AgentStats struct {
	Written uint64
	Dropped uint64
	Failed  uint64
	Pending int
}

type queued struct {
	msg       Message
	committed chan struct{}
}

// Agent owns the logging session and forwards messages to its sinks from
// a background loop. The zero value is not usable; call NewAgent.
type Agent struct {
	startOnce sync.Once
	endOnce   sync.Once

	started atomic.Bool
	ended   atomic.Bool
	// enqueueMu orders enqueues before EndSession marks the session ended
	enqueueMu sync.RWMutex

	cfg     AgentConfig
	session SessionInfo
	log     *zap.Logger

	queue   chan queued
	done    chan struct{}
	stopped chan struct{}
	wg      sync.WaitGroup

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64

	endErr error
}

// NewAgent creates an agent with no session. The session starts on the
// first StartSession or Write call.
func NewAgent() *Agent {
	return &Agent{
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func applyAgentDefaults(cfg AgentConfig) AgentConfig {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.Diagnostics == nil {
		cfg.Diagnostics = zap.NewNop()
	}
	return cfg
}

// StartSession starts the session with cfg. Only the first call has any
// effect; it is safe to call concurrently.
func (a *Agent) StartSession(cfg AgentConfig) {
	a.startOnce.Do(func() {
		a.cfg = applyAgentDefaults(cfg)
		a.log = a.cfg.Diagnostics.Named("loupe")
		a.session = SessionInfo{
			ID:          uuid.NewString(),
			Product:     a.cfg.Product,
			Application: a.cfg.Application,
			Version:     a.cfg.Version,
			Started:     time.Now(),
		}
		a.queue = make(chan queued, a.cfg.QueueSize)

		a.wg.Add(1)
		go a.runLoop()
		a.started.Store(true)

		a.log.Info("session started",
			zap.String("session", a.session.ID),
			zap.String("product", a.session.Product),
			zap.String("application", a.session.Application),
			zap.Int("sinks", len(a.cfg.Sinks)),
		)
	})
}

// Session returns the session info. It is the zero value before the
// session starts.
func (a *Agent) Session() SessionInfo {
	if !a.started.Load() {
		return SessionInfo{}
	}
	return a.session
}

// Write queues msg for the sinks, starting a default session if none is
// running. Queued writes drop the message when the queue is full.
func (a *Agent) Write(msg Message) {
	a.StartSession(AgentConfig{})

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.Caption = DeriveCaption(msg)

	item := queued{msg: msg}
	if msg.Mode == WaitForCommit {
		item.committed = make(chan struct{})
	}
	if !a.enqueue(item) {
		a.dropped.Add(1)
		return
	}
	if item.committed != nil {
		select {
		case <-item.committed:
		case <-a.stopped:
		}
	}
}

// enqueue adds item to the queue unless the session has ended. Queued
// items are not waited for when the queue is full.
func (a *Agent) enqueue(item queued) bool {
	a.enqueueMu.RLock()
	defer a.enqueueMu.RUnlock()
	if a.ended.Load() {
		return false
	}
	if item.committed == nil {
		select {
		case a.queue <- item:
			return true
		default:
			return false
		}
	}
	select {
	case a.queue <- item:
		return true
	case <-a.stopped:
		return false
	}
}

// Stats returns the agent counters
func (a *Agent) Stats() AgentStats {
	s := AgentStats{
		Written: a.written.Load(),
		Dropped: a.dropped.Load(),
		Failed:  a.failed.Load(),
	}
	if a.started.Load() {
		s.Pending = len(a.queue)
	}
	return s
}

// EndSession flushes queued messages, closes every sink and ends the
// session. Later calls return the result of the first one.
func (a *Agent) EndSession(reason string) error {
	a.endOnce.Do(func() {
		a.enqueueMu.Lock()
		a.ended.Store(true)
		a.enqueueMu.Unlock()
		// Consume the start so a late Write cannot open a new session.
		a.startOnce.Do(func() {})
		if !a.started.Load() {
			close(a.stopped)
			return
		}
		close(a.done)
		a.wg.Wait()

		var err error
		for _, s := range a.cfg.Sinks {
			err = multierr.Append(err, s.Close())
		}
		a.endErr = err

		a.log.Info("session ended",
			zap.String("session", a.session.ID),
			zap.String("reason", reason),
			zap.Uint64("written", a.written.Load()),
			zap.Uint64("dropped", a.dropped.Load()),
			zap.Uint64("failed", a.failed.Load()),
			zap.Error(err),
		)
	})
	return a.endErr
}

func (a *Agent) runLoop() {
	defer a.wg.Done()
	defer close(a.stopped)

	ticker := time.NewTicker(a.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]Message, 0, a.cfg.BatchSize)
	var commits []chan struct{}

	send := func() {
		if len(batch) > 0 {
			a.send(batch)
		}
		for _, c := range commits {
			close(c)
		}
		batch = batch[:0]
		commits = commits[:0]
	}
	add := func(item queued) {
		batch = append(batch, item.msg)
		if item.committed != nil {
			commits = append(commits, item.committed)
		}
	}

	for {
		select {
		case item := <-a.queue:
			add(item)
			if len(batch) >= a.cfg.BatchSize || len(commits) > 0 {
				send()
			}
		case <-ticker.C:
			send()
		case <-a.done:
			for {
				select {
				case item := <-a.queue:
					add(item)
					if len(batch) >= a.cfg.BatchSize {
						send()
					}
				default:
					send()
					return
				}
			}
		}
	}
}

func (a *Agent) send(batch []Message) {
	for _, s := range a.cfg.Sinks {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.SendTimeout)
		err := s.Send(ctx, a.session, batch)
		cancel()
		if err != nil {
			a.failed.Add(uint64(len(batch)))
			a.log.Warn("sink send failed",
				zap.String("session", a.session.ID),
				zap.Int("batch", len(batch)),
				zap.Error(err),
			)
		}
	}
	a.written.Add(uint64(len(batch)))
}
