package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvString(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	assert.Equal(t, "value", LoadEnvString("TEST_STRING", "default"))

	t.Setenv("TEST_STRING", "")
	assert.Equal(t, "default", LoadEnvString("TEST_STRING", "default"))
}

func TestLoadEnvWithFallback(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		validator    func(string) error
		want         string
		wantFallback bool
	}{
		{name: "unset", value: "", validator: ValidateCronSchedule, want: "0 9 * * *"},
		{name: "valid cron", value: "30 5 * * 1-5", validator: ValidateCronSchedule, want: "30 5 * * 1-5"},
		{name: "invalid cron", value: "every day", validator: ValidateCronSchedule, want: "0 9 * * *", wantFallback: true},
		{name: "no validator", value: "anything", want: "anything"},
		{name: "invalid timezone", value: "Mars/Olympus", validator: ValidateTimezone, want: "0 9 * * *", wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_FALLBACK", tt.value)
			r := LoadEnvWithFallback("TEST_FALLBACK", "0 9 * * *", tt.validator)

			assert.Equal(t, tt.want, r.Value.(string))
			assert.Equal(t, tt.wantFallback, r.FallbackApplied)
			if tt.wantFallback {
				require.Len(t, r.Warnings, 1)
				assert.Contains(t, r.Warnings[0], "TEST_FALLBACK")
				assert.Contains(t, r.Warnings[0], "falling back to default '0 9 * * *'")
			} else {
				assert.Empty(t, r.Warnings)
			}
		})
	}
}

func TestLoadEnvDuration(t *testing.T) {
	tests := []struct {
		value        string
		want         time.Duration
		wantFallback bool
	}{
		{value: "", want: 30 * time.Second},
		{value: "1h30m", want: 90 * time.Minute},
		{value: "soon", want: 30 * time.Second, wantFallback: true},
		{value: "-5s", want: 30 * time.Second, wantFallback: true},
		{value: "0s", want: 30 * time.Second, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			r := LoadEnvDuration("TEST_DURATION", 30*time.Second, ValidatePositiveDuration)
			assert.Equal(t, tt.want, r.Value.(time.Duration))
			assert.Equal(t, tt.wantFallback, r.FallbackApplied)
		})
	}
}

func TestLoadEnvInt(t *testing.T) {
	inRange := func(v int) error { return ValidateIntRange(v, 1, 100) }
	tests := []struct {
		value        string
		want         int
		wantFallback bool
	}{
		{value: "", want: 60},
		{value: "42", want: 42},
		{value: "0", want: 60, wantFallback: true},
		{value: "101", want: 60, wantFallback: true},
		{value: "1.5", want: 60, wantFallback: true},
		{value: " 42 ", want: 60, wantFallback: true},
		{value: "abc", want: 60, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.value)
			r := LoadEnvInt("TEST_INT", 60, inRange)
			assert.Equal(t, tt.want, r.Value.(int))
			assert.Equal(t, tt.wantFallback, r.FallbackApplied)
		})
	}
}

func TestLoadEnvFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.7")
	r := LoadEnvFloat("TEST_FLOAT", 0.5, func(v float64) error { return ValidateFloatRange(v, 0, 2) })
	assert.InDelta(t, 0.7, r.Value.(float64), 1e-9)

	t.Setenv("TEST_FLOAT", "3")
	r = LoadEnvFloat("TEST_FLOAT", 0.5, func(v float64) error { return ValidateFloatRange(v, 0, 2) })
	assert.True(t, r.FallbackApplied)
	assert.InDelta(t, 0.5, r.Value.(float64), 1e-9)
}

func TestLoadEnvBool(t *testing.T) {
	for _, v := range []string{"1", "t", "true", "TRUE", "True"} {
		t.Setenv("TEST_BOOL", v)
		assert.True(t, LoadEnvBool("TEST_BOOL", false).Value.(bool), v)
	}
	for _, v := range []string{"0", "f", "false", "FALSE"} {
		t.Setenv("TEST_BOOL", v)
		assert.False(t, LoadEnvBool("TEST_BOOL", true).Value.(bool), v)
	}

	t.Setenv("TEST_BOOL", "yes")
	r := LoadEnvBool("TEST_BOOL", true)
	assert.True(t, r.Value.(bool))
	assert.True(t, r.FallbackApplied)
}

func TestLoadEnvList(t *testing.T) {
	def := []string{"AI"}

	t.Setenv("TEST_LIST", "")
	assert.Equal(t, def, LoadEnvList("TEST_LIST", def))

	t.Setenv("TEST_LIST", " Go , Rust,, ")
	assert.Equal(t, []string{"Go", "Rust"}, LoadEnvList("TEST_LIST", def))

	t.Setenv("TEST_LIST", " , ,")
	assert.Equal(t, def, LoadEnvList("TEST_LIST", def))
}

func TestCollector(t *testing.T) {
	m := NewConfigMetrics("test_collector")
	c := NewCollector(nil, m)

	t.Setenv("TEST_C_INT", "nope")
	t.Setenv("TEST_C_DUR", "2m")

	n := c.Int("calls", LoadEnvInt("TEST_C_INT", 60, nil))
	d := c.Duration("timeout", LoadEnvDuration("TEST_C_DUR", time.Minute, nil))
	s := c.String("mode", LoadEnvWithFallback("TEST_C_UNSET", "interval", nil))
	c.Finish()

	assert.Equal(t, 60, n)
	assert.Equal(t, 2*time.Minute, d)
	assert.Equal(t, "interval", s)
	assert.Equal(t, []string{"calls"}, c.Fallbacks())
}

func TestCollector_NilMetrics(t *testing.T) {
	c := NewCollector(nil, nil)
	assert.False(t, c.Bool("flag", LoadEnvBool("TEST_C_UNSET_BOOL", false)))
	assert.NotPanics(t, c.Finish)
}

func TestOneOf_Loader(t *testing.T) {
	v := OneOf("memory", "redis")
	assert.NoError(t, v("memory"))
	assert.NoError(t, v(" Redis "))
	assert.Error(t, v("memcached"))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateDuration(time.Minute, time.Second, time.Hour))
	assert.Error(t, ValidateDuration(time.Millisecond, time.Second, time.Hour))
	assert.Error(t, ValidateDuration(2*time.Hour, time.Second, time.Hour))
	assert.Error(t, ValidateDuration(time.Minute, time.Hour, time.Second))

	assert.NoError(t, ValidateNonNegativeDuration(0))
	assert.Error(t, ValidateNonNegativeDuration(-time.Second))

	assert.NoError(t, ValidateIntRange(5, 1, 10))
	assert.Error(t, ValidateIntRange(5, 10, 1))

	assert.NoError(t, ValidateTimezone("UTC"))
	assert.Error(t, ValidateTimezone(""))
	assert.NoError(t, ValidateCronSchedule("0 9 * * *"))
	assert.True(t, errors.Unwrap(ValidateCronSchedule("* * *")) != nil)
}
