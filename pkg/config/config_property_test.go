// Package config provides property-based tests for configuration fallback functionality.
// These tests verify that invalid or missing values always resolve to usable defaults.
package config

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_InvalidLockDurationsFallBackToDefault tests that non-positive lock
// durations fall back to the defaults.
func TestProperty_InvalidLockDurationsFallBackToDefault(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxSize = 50

	properties := gopter.NewProperties(parameters)
	defaults := Default()

	properties.Property("non-positive lock ttl falls back to default", prop.ForAll(
		func(seconds int) bool {
			cfg := &Config{Lock: LockConfig{TTL: time.Duration(seconds) * time.Second}}
			applyDefaults(cfg)
			return cfg.Lock.TTL == defaults.Lock.TTL
		},
		gen.IntRange(-1000, 0),
	))

	properties.Property("non-positive acquire timeout falls back to default", prop.ForAll(
		func(seconds int) bool {
			cfg := &Config{Lock: LockConfig{AcquireTimeout: time.Duration(seconds) * time.Second}}
			applyDefaults(cfg)
			return cfg.Lock.AcquireTimeout == defaults.Lock.AcquireTimeout
		},
		gen.IntRange(-1000, 0),
	))

	properties.Property("positive lock ttl is preserved", prop.ForAll(
		func(seconds int) bool {
			cfg := &Config{Lock: LockConfig{TTL: time.Duration(seconds) * time.Second}}
			applyDefaults(cfg)
			return cfg.Lock.TTL == time.Duration(seconds)*time.Second
		},
		gen.IntRange(1, 3600),
	))

	properties.TestingRun(t)
}

// TestProperty_UnknownOvernightPolicyFallsBackToReject tests that any policy other than
// "reject" or "wrap" resolves to "reject".
func TestProperty_UnknownOvernightPolicyFallsBackToReject(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("unknown policy becomes reject", prop.ForAll(
		func(policy string) bool {
			cfg := &Config{Intervals: IntervalsConfig{OvernightPolicy: policy}}
			applyDefaults(cfg)
			if policy == "wrap" {
				return cfg.Intervals.OvernightPolicy == "wrap"
			}
			return cfg.Intervals.OvernightPolicy == "reject"
		},
		gen.AlphaString(),
	))

	properties.Property("queue retry settings are positive", prop.ForAll(
		func(retry, delay int) bool {
			cfg := &Config{Queue: QueueConfig{MaxRetry: retry, BaseRetryDelay: delay}}
			applyDefaults(cfg)
			return cfg.Queue.MaxRetry > 0 && cfg.Queue.BaseRetryDelay > 0
		},
		gen.IntRange(-10, 10),
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t)
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  port: 9090
  timezone: Europe/Moscow
database:
  driver: sqlite
lock:
  ttl: 10s
intervals:
  overnight_policy: wrap
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.Mode != "release" {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.Timezone != "Europe/Moscow" {
		t.Fatalf("timezone not preserved: %s", cfg.Server.Timezone)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.SQLitePath == "" {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Lock.TTL != 10*time.Second || cfg.Lock.AcquireTimeout != 5*time.Second {
		t.Fatalf("unexpected lock config: %+v", cfg.Lock)
	}
	if cfg.Intervals.OvernightPolicy != "wrap" || cfg.Intervals.HistoryPageSize != 10 {
		t.Fatalf("unexpected intervals config: %+v", cfg.Intervals)
	}
	if cfg.Queue.MaxRetry != 3 || cfg.Queue.BaseRetryDelay != 60 {
		t.Fatalf("unexpected queue config: %+v", cfg.Queue)
	}
}
