package retry

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func instantPolicy(delays *[]time.Duration) Policy {
	p := DefaultPolicy()
	p.Sleep = func(_ context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return nil
	}
	return p
}

func parseInt(raw string) Result[int] {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return Invalid[int](err)
	}
	return Valid(v)
}

func TestDoReturnsFirstValidResult(t *testing.T) {
	calls := 0
	value, err := Do(context.Background(), instantPolicy(nil), func(context.Context, int) (string, error) {
		calls++
		return "42", nil
	}, parseInt)

	require.NoError(t, err)
	require.Equal(t, 42, value)
	require.Equal(t, 1, calls)
}

func TestDoStopsAtFirstSuccessAfterFailures(t *testing.T) {
	for n := 1; n <= DefaultMaxAttempts; n++ {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			var delays []time.Duration
			calls := 0
			value, err := Do(context.Background(), instantPolicy(&delays), func(_ context.Context, attempt int) (string, error) {
				calls++
				require.Equal(t, calls, attempt)
				if calls < n {
					return "nope", nil
				}
				return "7", nil
			}, parseInt)

			require.NoError(t, err)
			require.Equal(t, 7, value)
			require.Equal(t, n, calls)
			require.Len(t, delays, n-1)
		})
	}
}

func TestDoExhaustsAfterMaxAttempts(t *testing.T) {
	var delays []time.Duration
	var failures []Failure
	policy := instantPolicy(&delays)
	policy.OnFailure = func(f Failure) { failures = append(failures, f) }

	calls := 0
	_, err := Do(context.Background(), policy, func(context.Context, int) (string, error) {
		calls++
		return "not json at all", nil
	}, parseInt)

	require.Error(t, err)
	require.ErrorIs(t, err, ErrExhausted)
	require.Equal(t, 5, calls)
	require.Len(t, delays, 4)
	require.Len(t, failures, 5)

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	require.Equal(t, 5, exhausted.Attempts)

	var total time.Duration
	for i, d := range delays {
		total += d
		require.Equal(t, i+1, failures[i].Attempt)
		require.Equal(t, FailureInvalid, failures[i].Kind)
	}
	require.Equal(t, total, exhausted.Elapsed)
	require.Zero(t, failures[4].Delay)
}

func TestDoCountsUpstreamErrorsAsAttempts(t *testing.T) {
	upstream := errors.New("connection reset")
	var kinds []FailureKind
	policy := instantPolicy(nil)
	policy.OnFailure = func(f Failure) { kinds = append(kinds, f.Kind) }

	calls := 0
	value, err := Do(context.Background(), policy, func(context.Context, int) (string, error) {
		calls++
		if calls == 1 {
			return "", upstream
		}
		return "3", nil
	}, parseInt)

	require.NoError(t, err)
	require.Equal(t, 3, value)
	require.Equal(t, []FailureKind{FailureUpstream}, kinds)
}

func TestDoLastUpstreamErrorIsWrapped(t *testing.T) {
	upstream := errors.New("service unavailable")
	_, err := Do(context.Background(), instantPolicy(nil), func(context.Context, int) (string, error) {
		return "", upstream
	}, parseInt)

	require.ErrorIs(t, err, ErrExhausted)
	require.ErrorIs(t, err, upstream)
}

func TestDelayBounds(t *testing.T) {
	for _, r := range []float64{0, 0.25, 0.999999} {
		p := DefaultPolicy()
		p.Rand = func() float64 { return r }
		for k := 1; k < DefaultMaxAttempts; k++ {
			d := p.Delay(k)
			lower := time.Duration(1<<k) * time.Second
			require.GreaterOrEqual(t, d, lower)
			require.Less(t, d, lower+time.Second)
		}
	}
}

func TestDelayDefaultRandomStaysInBounds(t *testing.T) {
	p := DefaultPolicy()
	for i := 0; i < 200; i++ {
		d := p.Delay(3)
		require.GreaterOrEqual(t, d, 8*time.Second)
		require.Less(t, d, 9*time.Second)
	}
}

func TestDoStopsWhenContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := DefaultPolicy()
	policy.Sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}

	calls := 0
	_, err := Do(ctx, policy, func(context.Context, int) (string, error) {
		calls++
		return "bad", nil
	}, parseInt)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestInvalidWithNilError(t *testing.T) {
	r := Invalid[int](nil)
	require.False(t, r.OK())
}
