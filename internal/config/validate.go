package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTextGen(); err != nil {
		return err
	}
	if err := c.validateGateway(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateTextGen() error {
	// An empty API key is allowed: every run degrades to fallback text
	// instead of failing, so the daemon stays useful without credentials.
	if strings.TrimSpace(c.TextGen.BaseURL) == "" {
		return errors.New("textgen.base_url must be set")
	}
	if c.TextGen.TimeoutSeconds <= 0 {
		return errors.New("textgen.timeout_seconds must be positive")
	}
	if c.TextGen.MaxOutputTokens <= 0 {
		return errors.New("textgen.max_output_tokens must be positive")
	}
	return nil
}

func (c *Config) validateGateway() error {
	return ensurePositiveMap(map[string]int{
		"gateway.failure_threshold": c.Gateway.FailureThreshold,
		"gateway.cooldown_seconds":  c.Gateway.CooldownSeconds,
	})
}

func (c *Config) validatePublish() error {
	if err := ensurePositiveMap(map[string]int{
		"publish.batch_size":            c.Publish.BatchSize,
		"publish.run_interval_minutes":  c.Publish.RunIntervalMinutes,
		"publish.time_budget_seconds":   c.Publish.TimeBudgetSeconds,
		"publish.retain_artifacts":      c.Publish.RetainArtifacts,
		"publish.description_max_words": c.Publish.DescriptionMaxWords,
	}); err != nil {
		return err
	}
	if strings.ContainsAny(c.Publish.ArtifactName, "/\\") {
		return errors.New("publish.artifact_name must be a bare file name, not a path")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
