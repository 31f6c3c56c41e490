// Package config provides centralized configuration defaults and loaders
// for VeriWing. All default values should be defined here to ensure a
// single source of truth.
package config

// Verification run defaults.
const (
	DefaultStrategy = "tiered"
	DefaultBudget   = "balanced"
	DefaultScope    = "changed-files"
	DefaultFixMode  = "none"
)

// Dispatcher defaults.
const (
	DefaultGlobalConcurrency     = 8
	DefaultRequestTimeoutSeconds = 60
	DefaultRunTimeoutSeconds     = 0 // no global deadline
	DefaultRetryBaseDelayMs      = 2000
	DefaultRetryMaxDelayMs       = 8000
)

// DefaultAutoApplyThreshold is the minimum confidence for auto-applied
// fixes.
const DefaultAutoApplyThreshold = 0.8

// DefaultFilePatterns limits scanning to source-like files.
var DefaultFilePatterns = []string{
	"*.go", "*.py", "*.js", "*.ts", "*.tsx", "*.jsx",
	"*.java", "*.rb", "*.rs", "*.c", "*.h", "*.cpp",
	"*.cs", "*.php", "*.swift", "*.kt", "*.sql",
}
