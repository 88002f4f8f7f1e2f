package config

const (
	defaultOutputDir           = "~/.local/share/liner/published"
	defaultStateDir            = "~/.local/share/liner/state"
	defaultLogDir              = "~/.local/share/liner/logs"
	defaultTextGenBaseURL      = "https://openrouter.ai/api/v1/chat/completions"
	defaultTextGenModel        = "google/gemini-3-flash-preview"
	defaultTextGenTimeout      = 30
	defaultTextGenMaxTokens    = 256
	defaultFailureThreshold    = 5
	defaultCooldownSeconds     = 300
	defaultRetryBackoffMS      = 500
	defaultDocumentTitle       = "Album Digest"
	defaultArtifactName        = "album-digest"
	defaultBatchSize           = 10
	defaultRunIntervalMinutes  = 1440
	defaultTimeBudgetSeconds   = 600
	defaultRetainArtifacts     = 14
	defaultDescriptionMaxWords = 35
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		TextGen: TextGen{
			BaseURL:         defaultTextGenBaseURL,
			Model:           defaultTextGenModel,
			TimeoutSeconds:  defaultTextGenTimeout,
			MaxOutputTokens: defaultTextGenMaxTokens,
		},
		Gateway: Gateway{
			FailureThreshold: defaultFailureThreshold,
			CooldownSeconds:  defaultCooldownSeconds,
			RetryBackoffMS:   defaultRetryBackoffMS,
		},
		Publish: Publish{
			DocumentTitle:       defaultDocumentTitle,
			ArtifactName:        defaultArtifactName,
			BatchSize:           defaultBatchSize,
			RunIntervalMinutes:  defaultRunIntervalMinutes,
			TimeBudgetSeconds:   defaultTimeBudgetSeconds,
			RetainArtifacts:     defaultRetainArtifacts,
			DescriptionMaxWords: defaultDescriptionMaxWords,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Publish:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
