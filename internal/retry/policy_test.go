package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/lorasensor/internal/config"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, config.RetryBackoffFixed, p.Mode)
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 5*time.Second, p.Budget())
}

func TestNewPolicyOverlay(t *testing.T) {
	p := NewPolicy(config.RetryBackoffLinear, 5*time.Second, 2*time.Second, 3)
	assert.Equal(t, config.RetryBackoffLinear, p.Mode)
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 5*time.Second, p.Max, "max widened to initial")

	zero := NewPolicy(config.RetryBackoffFixed, 0, 0, 0)
	assert.Equal(t, time.Duration(0), zero.Delay(1))
	assert.Equal(t, time.Duration(0), zero.Budget())
	assert.Equal(t, 5, zero.MaxAttempts)

	unknown := NewPolicy(config.NormalizeRetryBackoff("weird"), 250*time.Millisecond, 0, 1)
	assert.Equal(t, config.RetryBackoffFixed, unknown.Mode)
	assert.Equal(t, config.RetryBackoffLinear, config.NormalizeRetryBackoff(" Linear "))
}

func TestDelay(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{"fixed", NewPolicy(config.RetryBackoffFixed, 100*ms, 500*ms, 3), 3, 100 * ms},
		{"before first", NewPolicy(config.RetryBackoffFixed, 100*ms, 500*ms, 3), 0, 0},
		{"linear", NewPolicy(config.RetryBackoffLinear, 100*ms, 250*ms, 5), 2, 200 * ms},
		{"linear capped", NewPolicy(config.RetryBackoffLinear, 100*ms, 250*ms, 5), 3, 250 * ms},
		{"exponential", NewPolicy(config.RetryBackoffExponential, 50*ms, 160*ms, 5), 2, 100 * ms},
		{"exponential capped", NewPolicy(config.RetryBackoffExponential, 50*ms, 160*ms, 5), 3, 160 * ms},
		{"exponential overflow", NewPolicy(config.RetryBackoffExponential, 50*ms, 160*ms, 5), 64, 160 * ms},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Delay(tt.attempt))
		})
	}
}
