package utils

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Circuit Breaker Tests

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(threshold uint32, cooldown time.Duration) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("test", threshold, cooldown)
	cb.now = clock.Now
	return cb, clock
}

func TestCircuitBreaker_NewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("pubnub", 0, time.Minute)

	assert.Equal(t, "pubnub", cb.Name())
	assert.Equal(t, uint32(1), cb.threshold)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ExecuteSuccess(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	calls := 0
	err := cb.Execute(func() error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ReturnsCallError(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	expected := errors.New("publish failed")
	err := cb.Execute(func() error { return expected })

	assert.Equal(t, expected, err)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.failures)
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errors.New("failure") })
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(func() error {
		t.Fatal("should not execute when circuit is open")
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailureRun(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	_ = cb.Execute(func() error { return errors.New("failure") })
	_ = cb.Execute(func() error { return errors.New("failure") })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errors.New("failure") })

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.failures)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb, clock := newTestBreaker(1, time.Minute)

	_ = cb.Execute(func() error { return errors.New("failure") })
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(time.Minute)
	assert.Equal(t, StateHalfOpen, cb.State())

	// a successful probe closes the circuit
	err := cb.Execute(func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(5, time.Minute)

	for i := 0; i < 5; i++ {
		_ = cb.Execute(func() error { return errors.New("failure") })
	}
	clock.Advance(2 * time.Minute)
	require.Equal(t, StateHalfOpen, cb.State())

	_ = cb.Execute(func() error { return errors.New("still failing") })
	assert.Equal(t, StateOpen, cb.State())

	clock.Advance(30 * time.Second)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_PanicCountsAsFailure(t *testing.T) {
	cb, _ := newTestBreaker(1, time.Minute)

	assert.Panics(t, func() {
		_ = cb.Execute(func() error { panic("boom") })
	})
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb, _ := newTestBreaker(1000, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = cb.Execute(func() error {
				if i%2 == 0 {
					return errors.New("failure")
				}
				return nil
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, StateClosed, cb.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
}

// Date Tests

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"date only", "2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339", "2024-06-15T10:30:00Z", time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC), false},
		{"offset converted to utc", "2024-06-15T10:30:00+02:00", time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC), false},
		{"empty", "", time.Time{}, true},
		{"garbage", "next tuesday", time.Time{}, true},
		{"impossible month", "2024-13-01", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %v, got %v", tt.expected, got)
		})
	}
}

func TestParseRangeEnd_DateOnlyCoversWholeDay(t *testing.T) {
	end, err := ParseRangeEnd("2024-12-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC), end)

	exact, err := ParseRangeEnd("2024-12-31T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC), exact)
}

func TestValidateDate(t *testing.T) {
	valid := "2024-05-01"
	invalid := "05/01/2024 noon"

	assert.NoError(t, ValidateDate(""))
	assert.NoError(t, ValidateDate(valid))
	assert.NoError(t, ValidateDate(&valid))
	assert.NoError(t, ValidateDate((*string)(nil)))
	assert.Error(t, ValidateDate(invalid))
	assert.Error(t, ValidateDate(&invalid))
}

// Redis Client Tests

func TestRedisHealthCheck_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectPing().SetVal("PONG")

	err := RedisHealthCheck(db)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHealthCheck_Failure(t *testing.T) {
	db, mock := redismock.NewClientMock()

	expectedError := errors.New("connection failed")
	mock.ExpectPing().SetErr(expectedError)

	err := RedisHealthCheck(db)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis health check failed")
	assert.Contains(t, err.Error(), "connection failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func BenchmarkCircuitBreaker_Execute_Success(b *testing.B) {
	cb := NewCircuitBreaker("benchmark", 5, time.Minute)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(func() error { return nil })
	}
}
