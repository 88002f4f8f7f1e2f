package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTextGen()
	c.normalizeGateway()
	c.normalizePublish()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTextGen() {
	c.TextGen.APIKey = strings.TrimSpace(c.TextGen.APIKey)
	if c.TextGen.APIKey == "" {
		if value, ok := os.LookupEnv("LINER_TEXTGEN_API_KEY"); ok {
			c.TextGen.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.TextGen.APIKey = strings.TrimSpace(value)
		}
	}
	c.TextGen.BaseURL = strings.TrimSpace(c.TextGen.BaseURL)
	if c.TextGen.BaseURL == "" {
		c.TextGen.BaseURL = defaultTextGenBaseURL
	}
	c.TextGen.Model = strings.TrimSpace(c.TextGen.Model)
	if c.TextGen.Model == "" {
		c.TextGen.Model = defaultTextGenModel
	}
	if c.TextGen.TimeoutSeconds <= 0 {
		c.TextGen.TimeoutSeconds = defaultTextGenTimeout
	}
	if c.TextGen.MaxOutputTokens <= 0 {
		c.TextGen.MaxOutputTokens = defaultTextGenMaxTokens
	}
}

func (c *Config) normalizeGateway() {
	if c.Gateway.FailureThreshold <= 0 {
		c.Gateway.FailureThreshold = defaultFailureThreshold
	}
	if c.Gateway.CooldownSeconds <= 0 {
		c.Gateway.CooldownSeconds = defaultCooldownSeconds
	}
	if c.Gateway.RetryBackoffMS < 0 {
		c.Gateway.RetryBackoffMS = defaultRetryBackoffMS
	}
}

func (c *Config) normalizePublish() {
	c.Publish.DocumentTitle = strings.TrimSpace(c.Publish.DocumentTitle)
	if c.Publish.DocumentTitle == "" {
		c.Publish.DocumentTitle = defaultDocumentTitle
	}
	c.Publish.ArtifactName = strings.TrimSpace(c.Publish.ArtifactName)
	if c.Publish.ArtifactName == "" {
		c.Publish.ArtifactName = defaultArtifactName
	}
	if c.Publish.BatchSize <= 0 {
		c.Publish.BatchSize = defaultBatchSize
	}
	if c.Publish.RunIntervalMinutes <= 0 {
		c.Publish.RunIntervalMinutes = defaultRunIntervalMinutes
	}
	if c.Publish.TimeBudgetSeconds <= 0 {
		c.Publish.TimeBudgetSeconds = defaultTimeBudgetSeconds
	}
	if c.Publish.RetainArtifacts <= 0 {
		c.Publish.RetainArtifacts = defaultRetainArtifacts
	}
	if c.Publish.DescriptionMaxWords <= 0 {
		c.Publish.DescriptionMaxWords = defaultDescriptionMaxWords
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
