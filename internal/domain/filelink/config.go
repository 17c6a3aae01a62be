package filelink

import "time"

// Link duration defaults, in hours.
const (
	DefaultLinkHours = 72
	MaxSTSLinkHours  = 36
)

// Config holds filelink domain configuration.
type Config struct {
	// Bucket is the target bucket. Operations fail with a configuration error while empty.
	Bucket string
	// Region is used for role assumption when a request names none.
	Region string
	// Environment is the first segment of date-partitioned keys.
	Environment string
	// DefaultLinkDuration applies when a request asks for no duration.
	DefaultLinkDuration time.Duration
	// MaxSTSLinkDuration caps links signed with assumed-role credentials.
	// Role sessions cannot outlive the token service session limit.
	MaxSTSLinkDuration time.Duration
	// Wait bounds the post-upload visibility check.
	Wait WaitPolicy
}

// WaitPolicy bounds the wait for an uploaded object to become readable.
type WaitPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Timeout      time.Duration
}

// DefaultWaitPolicy returns the default visibility wait policy.
func DefaultWaitPolicy() WaitPolicy {
	return WaitPolicy{
		MaxAttempts:  20,
		InitialDelay: time.Second,
		MaxDelay:     5 * time.Second,
		Timeout:      2 * time.Minute,
	}
}

// DefaultConfig returns default domain configuration.
func DefaultConfig() *Config {
	return &Config{
		Region:              "us-east-1",
		Environment:         "dev",
		DefaultLinkDuration: DefaultLinkHours * time.Hour,
		MaxSTSLinkDuration:  MaxSTSLinkHours * time.Hour,
		Wait:                DefaultWaitPolicy(),
	}
}
