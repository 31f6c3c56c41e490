/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose   bool            `mapstructure:"verbose"`
	Config    string          `mapstructure:"config"`
	Project   ProjectConfig   `mapstructure:"project" validate:"required"`
	Verify    VerifyConfig    `mapstructure:"verify" validate:"required"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch" validate:"required"`
	Fixes     FixConfig       `mapstructure:"fixes" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm" validate:"omitempty"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ProjectConfig holds project-related settings
type ProjectConfig struct {
	RootDir      string `mapstructure:"rootDir" validate:"required"`
	ReportPath   string `mapstructure:"reportPath" validate:"required"`
	StagingDir   string `mapstructure:"stagingDir" validate:"required"`
	BackupsDir   string `mapstructure:"backupsDir" validate:"required"`
	HistoryFile  string `mapstructure:"historyFile" validate:"required"`
	BackendsFile string `mapstructure:"backendsFile" validate:"omitempty"`
}

// VerifyConfig holds the defaults for a verification run.
type VerifyConfig struct {
	Strategy string `mapstructure:"strategy" validate:"required,oneof=tiered uniform critical-only"`
	Budget   string `mapstructure:"budget" validate:"required,oneof=premium balanced free-only"`
	Scope    string `mapstructure:"scope" validate:"required,oneof=current-file changed-files all-files"`
	// HighRiskCategories lists categories that escalate ASSUME tags to
	// CRITICAL for routing purposes.
	HighRiskCategories []string `mapstructure:"highRiskCategories"`
	// FilePatterns restricts which files are scanned (glob suffixes).
	FilePatterns []string `mapstructure:"filePatterns"`
}

// DispatchConfig holds the dispatcher's timing and concurrency knobs.
type DispatchConfig struct {
	GlobalConcurrency int `mapstructure:"globalConcurrency" validate:"required,min=1,max=64"`
	// RequestTimeoutSeconds is the per-request deadline.
	RequestTimeoutSeconds int `mapstructure:"requestTimeoutSeconds" validate:"required,min=1,max=600"`
	// RunTimeoutSeconds is the global run deadline; 0 means no deadline.
	RunTimeoutSeconds int `mapstructure:"runTimeoutSeconds" validate:"min=0,max=7200"`
	// RetryBaseDelayMs is the initial backoff before the single retry.
	RetryBaseDelayMs int `mapstructure:"retryBaseDelayMs" validate:"required,min=1"`
	// RetryMaxDelayMs caps the doubled backoff delay.
	RetryMaxDelayMs int `mapstructure:"retryMaxDelayMs" validate:"required,min=1"`
}

// FixConfig controls the fix applier.
type FixConfig struct {
	Mode string `mapstructure:"mode" validate:"required,oneof=auto review none"`
	// AutoApplyThreshold is the minimum confidence for auto mode.
	AutoApplyThreshold float64 `mapstructure:"autoApplyThreshold" validate:"min=0,max=1"`
}

// LLMConfig holds shared provider settings; per-backend detail lives in
// the backend registry file.
type LLMConfig struct {
	OllamaURL string            `mapstructure:"ollamaURL" validate:"omitempty,url"`
	APIKeys   map[string]string `mapstructure:"apiKeys"`
	// Debug enables extra request/response logging within backend calls
	// (generally tied to --verbose).
	Debug bool `mapstructure:"debug"`
}

// TelemetryConfig controls opt-in anonymous usage events.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	AnonymousID string `mapstructure:"anonymousId"`
}
