package operations

import "time"

// Config holds per-step timeouts and the retry policy of a run
type Config struct {
	StageTimeouts map[string]time.Duration `json:"stage_timeouts"`
	RetryConfig   RetryConfig              `json:"retry_config"`
}

// Option adjusts a Config
type Option func(*Config)

// WithStageTimeout bounds a single step
func WithStageTimeout(stageID string, timeout time.Duration) Option {
	return func(c *Config) {
		c.StageTimeouts[stageID] = timeout
	}
}

// WithRetry replaces the retry policy
func WithRetry(retry RetryConfig) Option {
	return func(c *Config) {
		c.RetryConfig = retry
	}
}

// NewConfig returns the default timeouts and retry policy with opts applied
func NewConfig(opts ...Option) *Config {
	c := &Config{
		StageTimeouts: map[string]time.Duration{
			StageIDExtract:   DefaultExtractTimeout,
			StageIDNormalize: DefaultNormalizeTimeout,
			StageIDJoin:      DefaultJoinTimeout,
			StageIDAggregate: DefaultAggregateTimeout,
			StageIDWrite:     DefaultWriteTimeout,
		},
		RetryConfig: NewRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetStageTimeout returns the step's timeout, DefaultStageTimeout when unset
func (c *Config) GetStageTimeout(stageID string) time.Duration {
	if timeout := c.StageTimeouts[stageID]; timeout > 0 {
		return timeout
	}
	return DefaultStageTimeout
}
