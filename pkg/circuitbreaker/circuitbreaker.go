package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State is the current position of the breaker.
type State int

const (
	// Closed lets calls through.
	Closed State = iota
	// Open fails every call immediately with ErrCircuitOpen.
	Open
	// HalfOpen lets probe calls through to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned without invoking the call while the circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker guards calls against a failing upstream. After FailureThreshold
// consecutive failures it opens and shorts every call until RecoveryTimeout
// passes, then probes in half-open until SuccessThreshold successes close it.
type Breaker interface {
	Call(fn func() error) error
	State() State
}

type Config struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int

	// OnStateChange runs after every transition, outside the breaker's lock.
	OnStateChange func(from, to State)
}

func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		SuccessThreshold: 3,
	}
}

type breaker struct {
	config *Config

	mu          sync.RWMutex
	state       State
	failures    int
	successes   int
	nextAttempt time.Time
}

// New applies defaults when config is nil.
func New(config *Config) Breaker {
	if config == nil {
		config = DefaultConfig()
	}

	return &breaker{
		config: config,
		state:  Closed,
	}
}

func (b *breaker) Call(fn func() error) error {
	b.mu.Lock()
	allowed, from, to := b.allow()
	b.mu.Unlock()
	b.notify(from, to)

	if !allowed {
		return ErrCircuitOpen
	}

	// Never run user code while holding the lock.
	err := fn()

	b.mu.Lock()
	if err != nil {
		from, to = b.recordFailure()
	} else {
		from, to = b.recordSuccess()
	}
	b.mu.Unlock()
	b.notify(from, to)

	return err
}

func (b *breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *breaker) notify(from, to State) {
	if from != to && b.config.OnStateChange != nil {
		b.config.OnStateChange(from, to)
	}
}

// allow reports whether a call may proceed, moving Open to HalfOpen once the
// recovery timeout has elapsed. Callers hold the lock.
func (b *breaker) allow() (bool, State, State) {
	from := b.state
	if b.state == Open && time.Now().After(b.nextAttempt) {
		b.state = HalfOpen
		b.successes = 0
	}
	return b.state != Open, from, b.state
}

func (b *breaker) recordFailure() (State, State) {
	from := b.state
	b.failures++

	switch b.state {
	case Closed:
		if b.failures >= b.config.FailureThreshold {
			b.trip()
		}
	case HalfOpen:
		b.trip()
	}
	return from, b.state
}

func (b *breaker) trip() {
	b.state = Open
	b.nextAttempt = time.Now().Add(b.config.RecoveryTimeout)
}

func (b *breaker) recordSuccess() (State, State) {
	from := b.state
	b.failures = 0

	if b.state == HalfOpen {
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.state = Closed
			b.successes = 0
		}
	}
	return from, b.state
}
