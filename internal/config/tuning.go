// Package config loads reconciliation tuning parameters from JSON. Fields
// omitted from the file retain their defaults, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TuningConfig represents the tuning parameters for the trigger/frame
// reconciliation pipeline. All fields are optional; the Get* accessors supply
// the defaults.
type TuningConfig struct {
	// Matching params
	MaxPending    *int     `json:"max_pending,omitempty"`
	ToleranceMs   *float64 `json:"tolerance_ms,omitempty"`
	FuturePenalty *float64 `json:"future_penalty,omitempty"`

	// Bus params
	HistorySize      *int `json:"history_size,omitempty"`
	SubscriberBuffer *int `json:"subscriber_buffer,omitempty"`
	MaxSubscribers   *int `json:"max_subscribers,omitempty"`

	// Loop params
	IdlePoll      *string `json:"idle_poll,omitempty"`      // duration string like "10ms"
	StatsInterval *string `json:"stats_interval,omitempty"` // duration string like "30s"
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must have
// a .json extension and stay under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.MaxPending != nil && *c.MaxPending <= 0 {
		return fmt.Errorf("max_pending must be positive, got %d", *c.MaxPending)
	}

	if c.ToleranceMs != nil && *c.ToleranceMs <= 0 {
		return fmt.Errorf("tolerance_ms must be positive, got %f", *c.ToleranceMs)
	}

	// A penalty below 1 would prefer future triggers over past ones.
	if c.FuturePenalty != nil && *c.FuturePenalty < 1 {
		return fmt.Errorf("future_penalty must be >= 1, got %f", *c.FuturePenalty)
	}

	if c.HistorySize != nil && *c.HistorySize < 0 {
		return fmt.Errorf("history_size must be non-negative, got %d", *c.HistorySize)
	}

	if c.SubscriberBuffer != nil && *c.SubscriberBuffer <= 0 {
		return fmt.Errorf("subscriber_buffer must be positive, got %d", *c.SubscriberBuffer)
	}

	if c.IdlePoll != nil && *c.IdlePoll != "" {
		if _, err := time.ParseDuration(*c.IdlePoll); err != nil {
			return fmt.Errorf("invalid idle_poll '%s': %w", *c.IdlePoll, err)
		}
	}

	if c.StatsInterval != nil && *c.StatsInterval != "" {
		if _, err := time.ParseDuration(*c.StatsInterval); err != nil {
			return fmt.Errorf("invalid stats_interval '%s': %w", *c.StatsInterval, err)
		}
	}

	return nil
}

// GetMaxPending returns the pending-trigger queue bound or the default.
func (c *TuningConfig) GetMaxPending() int {
	if c.MaxPending == nil {
		return 100
	}
	return *c.MaxPending
}

// GetToleranceMs returns the matching tolerance in milliseconds or the default.
func (c *TuningConfig) GetToleranceMs() float64 {
	if c.ToleranceMs == nil {
		return 500.0
	}
	return *c.ToleranceMs
}

// GetFuturePenalty returns the score multiplier for future triggers or the default.
func (c *TuningConfig) GetFuturePenalty() float64 {
	if c.FuturePenalty == nil {
		return 2.0
	}
	return *c.FuturePenalty
}

// GetHistorySize returns the bus retained-history depth or the default.
func (c *TuningConfig) GetHistorySize() int {
	if c.HistorySize == nil {
		return 10
	}
	return *c.HistorySize
}

// GetSubscriberBuffer returns the per-subscriber buffer capacity or the default.
func (c *TuningConfig) GetSubscriberBuffer() int {
	if c.SubscriberBuffer == nil {
		return 20
	}
	return *c.SubscriberBuffer
}

// GetMaxSubscribers returns the subscriber cap or the default.
func (c *TuningConfig) GetMaxSubscribers() int {
	if c.MaxSubscribers == nil {
		return 3
	}
	return *c.MaxSubscribers
}

// GetIdlePoll parses and returns the idle poll delay as a time.Duration.
func (c *TuningConfig) GetIdlePoll() time.Duration {
	if c.IdlePoll == nil || *c.IdlePoll == "" {
		return 10 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.IdlePoll)
	if err != nil {
		return 10 * time.Millisecond // default on parse error
	}
	return d
}

// GetStatsInterval parses and returns the stats reporting interval.
func (c *TuningConfig) GetStatsInterval() time.Duration {
	if c.StatsInterval == nil || *c.StatsInterval == "" {
		return 30 * time.Second // default
	}
	d, err := time.ParseDuration(*c.StatsInterval)
	if err != nil {
		return 30 * time.Second // default on parse error
	}
	return d
}
