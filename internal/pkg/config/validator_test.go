package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateCronSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		wantErr  bool
	}{
		{"0 9 * * *", false},
		{"*/15 * * * *", false},
		{"0 9 * * 1-5", false},
		{"", true},
		{"0 9 * *", true},
		{"0 0 9 * * *", true},
		{"61 * * * *", true},
		{"daily", true},
	}
	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			err := ValidateCronSchedule(tt.schedule)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTimezone(t *testing.T) {
	assert.NoError(t, ValidateTimezone("UTC"))
	assert.NoError(t, ValidateTimezone("Asia/Tokyo"))
	assert.Error(t, ValidateTimezone(""))
	assert.Error(t, ValidateTimezone("Mars/Olympus"))
}

func TestValidateRanges(t *testing.T) {
	assert.NoError(t, ValidateIntRange(2, 1, 10))
	assert.NoError(t, ValidateIntRange(10, 1, 10))
	assert.Error(t, ValidateIntRange(0, 1, 10))
	assert.Error(t, ValidateIntRange(11, 1, 10))
	assert.Error(t, ValidateIntRange(5, 10, 1))

	assert.NoError(t, ValidateFloatRange(0.5, 0, 1))
	assert.Error(t, ValidateFloatRange(1.5, 0, 1))

	assert.NoError(t, ValidateDuration(30*time.Minute, time.Minute, 4*time.Hour))
	assert.Error(t, ValidateDuration(time.Second, time.Minute, 4*time.Hour))
	assert.Error(t, ValidateDuration(5*time.Hour, time.Minute, 4*time.Hour))
	assert.Error(t, ValidateDuration(time.Minute, time.Hour, time.Minute))
}

func TestValidateDurations(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Second))
	assert.Error(t, ValidatePositiveDuration(0))
	assert.NoError(t, ValidateNonNegativeDuration(0))
	assert.Error(t, ValidateNonNegativeDuration(-time.Second))
}

func TestOneOf(t *testing.T) {
	v := OneOf("memory", "sqlite", "redis")

	assert.NoError(t, v("sqlite"))
	assert.NoError(t, v(" Redis "))
	err := v("postgres")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "memory, sqlite, redis")
	}
}
