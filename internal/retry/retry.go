// Package retry runs an operation until its output passes validation, sleeping
// with exponential backoff plus jitter between failed attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = time.Second
	DefaultMaxJitter   = time.Second
)

// ErrExhausted matches any terminal error produced after the attempt cap is reached.
var ErrExhausted = errors.New("retry attempts exhausted")

// FailureKind distinguishes why an attempt failed.
type FailureKind string

const (
	FailureUpstream FailureKind = "upstream"
	FailureInvalid  FailureKind = "invalid"
)

// Failure describes one failed attempt.
type Failure struct {
	Attempt     int
	MaxAttempts int
	Kind        FailureKind
	Err         error
	// Delay is the backoff that follows this failure; zero on the final attempt.
	Delay time.Duration
}

// Policy configures attempts and backoff.
//
// The delay after the n-th failure is BaseDelay*2^n plus a uniform jitter in
// [0, MaxJitter).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration

	// Rand returns a value in [0, 1). Defaults to a time-seeded source.
	Rand func() float64
	// Sleep blocks for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnFailure observes each failed attempt.
	OnFailure func(Failure)
}

// DefaultPolicy returns five attempts with 2^n second backoff and one second of jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxJitter:   DefaultMaxJitter,
	}
}

// Delay returns the backoff to apply after the given failed attempt count.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.normalized()
	backoff := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
	jitter := time.Duration(p.random() * float64(p.MaxJitter))
	return backoff + jitter
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxJitter < 0 {
		p.MaxJitter = 0
	}
	return p
}

func (p Policy) random() float64 {
	if p.Rand != nil {
		v := p.Rand()
		if v < 0 || v >= 1 {
			return 0
		}
		return v
	}
	return defaultRand()
}

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 -- jitter only
)

func defaultRand() float64 {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Float64()
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result is the outcome of validating one raw output.
type Result[T any] struct {
	Value T
	Err   error
}

// Valid wraps a value that passed validation.
func Valid[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Invalid wraps a validation failure.
func Invalid[T any](err error) Result[T] {
	if err == nil {
		err = errors.New("invalid output")
	}
	return Result[T]{Err: err}
}

// OK reports whether the result passed validation.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Operation produces one raw output. attempt is 1-based.
type Operation[R any] func(ctx context.Context, attempt int) (R, error)

// Validator converts a raw output into a typed value or a failure.
type Validator[R, T any] func(raw R) Result[T]

// ExhaustedError is returned once every attempt has failed.
type ExhaustedError struct {
	Attempts int
	// Elapsed is the accumulated backoff delay across the call.
	Elapsed time.Duration
	Last    error
}

func (e *ExhaustedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("failed after %d attempts", e.Attempts)
	}
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrExhausted}
	}
	return []error{ErrExhausted, e.Last}
}

// Do calls op until validate accepts its output or the policy's attempt cap is reached.
//
// Upstream errors and validation failures are treated alike. Cancellation of
// ctx stops the loop at the next backoff and is returned unwrapped.
func Do[R, T any](ctx context.Context, policy Policy, op Operation[R], validate Validator[R, T]) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	if op == nil || validate == nil {
		return zero, errors.New("retry: operation and validator are required")
	}

	policy = policy.normalized()
	attempt := 0
	var elapsed time.Duration

	for {
		raw, err := op(ctx, attempt+1)

		var failure Failure
		if err != nil {
			failure = Failure{Kind: FailureUpstream, Err: err}
		} else {
			result := validate(raw)
			if result.OK() {
				return result.Value, nil
			}
			failure = Failure{Kind: FailureInvalid, Err: result.Err}
		}

		attempt++
		failure.Attempt = attempt
		failure.MaxAttempts = policy.MaxAttempts

		if attempt >= policy.MaxAttempts {
			if policy.OnFailure != nil {
				policy.OnFailure(failure)
			}
			return zero, &ExhaustedError{Attempts: attempt, Elapsed: elapsed, Last: failure.Err}
		}

		failure.Delay = policy.Delay(attempt)
		if policy.OnFailure != nil {
			policy.OnFailure(failure)
		}

		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if err := policy.sleep(ctx, failure.Delay); err != nil {
			return zero, err
		}
		elapsed += failure.Delay
	}
}
