package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// gopkg.in/yaml.v3 has no built-in conversion from a YAML string scalar
// ("30s", "10m") into a time.Duration field — it only special-cases types
// implementing yaml.Unmarshaler. The nested config structs below implement
// it themselves, decoding their duration fields as strings and parsing them
// with time.ParseDuration, so the exported fields stay plain time.Duration.

func parseDurationField(name, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", name, raw, err)
	}
	return d, nil
}

func (d *DatabaseConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		DSN             string `yaml:"dsn"`
		MaxOpenConns    int    `yaml:"max_open_conns"`
		MaxIdleConns    int    `yaml:"max_idle_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	lifetime, err := parseDurationField("database.conn_max_lifetime", raw.ConnMaxLifetime)
	if err != nil {
		return err
	}

	d.DSN = raw.DSN
	d.MaxOpenConns = raw.MaxOpenConns
	d.MaxIdleConns = raw.MaxIdleConns
	d.ConnMaxLifetime = lifetime
	return nil
}

func (l *LLMConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Provider    string  `yaml:"provider"`
		Endpoint    string  `yaml:"endpoint"`
		Model       string  `yaml:"model"`
		Timeout     string  `yaml:"timeout"`
		RetryCount  int     `yaml:"retry_count"`
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
		CacheSize   int     `yaml:"cache_size"`
		CacheTTL    string  `yaml:"cache_ttl"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	timeout, err := parseDurationField("llm.timeout", raw.Timeout)
	if err != nil {
		return err
	}
	cacheTTL, err := parseDurationField("llm.cache_ttl", raw.CacheTTL)
	if err != nil {
		return err
	}

	l.Provider = raw.Provider
	l.Endpoint = raw.Endpoint
	l.Model = raw.Model
	l.Timeout = timeout
	l.RetryCount = raw.RetryCount
	l.Temperature = raw.Temperature
	l.MaxTokens = raw.MaxTokens
	l.CacheSize = raw.CacheSize
	l.CacheTTL = cacheTTL
	return nil
}

func (p *PipelineConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Workers            int             `yaml:"workers"`
		PollInterval       string          `yaml:"poll_interval"`
		MaxRetries         int             `yaml:"max_retries"`
		StuckTaskThreshold string          `yaml:"stuck_task_threshold"`
		CompletedRetention string          `yaml:"completed_retention"`
		RealTimeBatchSize  int             `yaml:"realtime_batch_size"`
		ScheduledInterval  string          `yaml:"scheduled_interval"`
		RealTime           RealTimeConfig  `yaml:"real_time"`
		Scheduled          ScheduledConfig `yaml:"scheduled"`
		Threshold          ThresholdConfig `yaml:"thresholds"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	poll, err := parseDurationField("pipeline.poll_interval", raw.PollInterval)
	if err != nil {
		return err
	}
	stuck, err := parseDurationField("pipeline.stuck_task_threshold", raw.StuckTaskThreshold)
	if err != nil {
		return err
	}
	retention, err := parseDurationField("pipeline.completed_retention", raw.CompletedRetention)
	if err != nil {
		return err
	}
	scheduled, err := parseDurationField("pipeline.scheduled_interval", raw.ScheduledInterval)
	if err != nil {
		return err
	}

	p.Workers = raw.Workers
	p.PollInterval = poll
	p.MaxRetries = raw.MaxRetries
	p.StuckTaskThreshold = stuck
	p.CompletedRetention = retention
	p.RealTimeBatchSize = raw.RealTimeBatchSize
	p.ScheduledInterval = scheduled
	p.RealTime = raw.RealTime
	p.Scheduled = raw.Scheduled
	p.Threshold = raw.Threshold
	return nil
}

func (s *ScheduledConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Enabled   bool              `yaml:"enabled"`
		Intervals map[string]string `yaml:"intervals"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	intervals := make(map[string]time.Duration, len(raw.Intervals))
	for k, v := range raw.Intervals {
		d, err := parseDurationField("pipeline.scheduled.intervals."+k, v)
		if err != nil {
			return err
		}
		intervals[k] = d
	}

	s.Enabled = raw.Enabled
	s.Intervals = intervals
	return nil
}
