// Package retry models retry-with-backoff as an explicit state machine so
// attempt counting, wait times and termination can be tested without
// real waiting.
package retry

import (
	"errors"
	"fmt"
	"time"
)

// State of a retry machine
type State int

const (
	Idle State = iota
	Attempting
	Waiting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Attempting:
		return "attempting"
	case Waiting:
		return "waiting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FailureKind tells why a machine ended in Failed
type FailureKind int

const (
	NoFailure FailureKind = iota
	// Exhausted means every attempt failed with a retryable error
	Exhausted
	// Permanent means an attempt failed with a non-retryable error
	Permanent
	// Canceled means the context ended while waiting
	Canceled
)

func (k FailureKind) String() string {
	switch k {
	case NoFailure:
		return "none"
	case Exhausted:
		return "exhausted"
	case Permanent:
		return "permanent"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrInvalidTransition is returned when an event does not apply to the current state
var ErrInvalidTransition = errors.New("retry: invalid state transition")

// Policy bounds the number of attempts and the wait between them
type Policy struct {
	// MaxAttempts is the total number of calls allowed, including the first
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy waits 2s, 4s, 8s between four attempts
var DefaultPolicy = Policy{
	MaxAttempts: 4,
	BaseDelay:   2 * time.Second,
	MaxDelay:    30 * time.Second,
}

// Validate checks the policy values
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry: max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 || p.MaxDelay < 0 {
		return fmt.Errorf("retry: delays must not be negative")
	}
	if p.MaxDelay > 0 && p.BaseDelay > p.MaxDelay {
		return fmt.Errorf("retry: base delay %s exceeds max delay %s", p.BaseDelay, p.MaxDelay)
	}
	return nil
}

// Delay returns the wait after the n-th failed attempt (n starts at 1):
// BaseDelay * 2^(n-1), capped at MaxDelay when MaxDelay is set.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := p.BaseDelay
	for i := 1; i < n; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
		// overflow guard
		if d <= 0 {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Machine records the progress of one retried operation.
// It is not safe for concurrent use.
type Machine struct {
	policy   Policy
	state    State
	kind     FailureKind
	attempts int
	waits    []time.Duration
	lastErr  error
}

// NewMachine creates a machine in the Idle state
func NewMachine(p Policy) *Machine {
	return &Machine{policy: p, state: Idle}
}

func (m *Machine) State() State      { return m.state }
func (m *Machine) Kind() FailureKind { return m.kind }
func (m *Machine) Attempts() int     { return m.attempts }
func (m *Machine) Err() error        { return m.lastErr }
func (m *Machine) Policy() Policy    { return m.policy }

// Waits returns the delays scheduled so far, in order
func (m *Machine) Waits() []time.Duration {
	out := make([]time.Duration, len(m.waits))
	copy(out, m.waits)
	return out
}

// Done reports whether the machine reached a terminal state
func (m *Machine) Done() bool {
	return m.state == Succeeded || m.state == Failed
}

// Begin moves Idle or Waiting to Attempting and counts the attempt
func (m *Machine) Begin() error {
	if m.state != Idle && m.state != Waiting {
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, m.state)
	}
	m.state = Attempting
	m.attempts++
	return nil
}

// Succeed moves Attempting to Succeeded
func (m *Machine) Succeed() error {
	if m.state != Attempting {
		return fmt.Errorf("%w: succeed from %s", ErrInvalidTransition, m.state)
	}
	m.state = Succeeded
	m.lastErr = nil
	return nil
}

// Fail records a failed attempt. A retryable failure with attempts left
// moves to Waiting and returns the delay to wait before the next Begin;
// otherwise the machine moves to Failed.
func (m *Machine) Fail(err error, retryable bool) (time.Duration, error) {
	if m.state != Attempting {
		return 0, fmt.Errorf("%w: fail from %s", ErrInvalidTransition, m.state)
	}
	m.lastErr = err
	if !retryable {
		m.state = Failed
		m.kind = Permanent
		return 0, nil
	}
	if m.attempts >= m.policy.MaxAttempts {
		m.state = Failed
		m.kind = Exhausted
		return 0, nil
	}
	d := m.policy.Delay(m.attempts)
	m.waits = append(m.waits, d)
	m.state = Waiting
	return d, nil
}

// Cancel moves Waiting to Failed(Canceled)
func (m *Machine) Cancel(err error) error {
	if m.state != Waiting {
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, m.state)
	}
	m.state = Failed
	m.kind = Canceled
	m.lastErr = err
	return nil
}
