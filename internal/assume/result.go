package assume

import "time"

// Outcome is the terminal state of one verification call.
type Outcome string

const (
	OutcomeOK         Outcome = "OK"
	OutcomeIssueFound Outcome = "ISSUE_FOUND"
	OutcomeError      Outcome = "ERROR"
	OutcomeTimeout    Outcome = "TIMEOUT"
)

// PromptContext is the material a backend receives for one assumption.
// It deliberately carries no authoring metadata so the reviewing backend
// never shares the author's context.
type PromptContext struct {
	Location  Location `json:"location"`
	Statement string   `json:"statement"`
	Category  string   `json:"category"`
	Hint      string   `json:"hint,omitempty"`
	Snippet   string   `json:"snippet,omitempty"`
}

// Request is one dispatch unit binding an assumption to a selected backend.
type Request struct {
	AssumptionID string
	BackendID    string
	Tier         Tier
	Context      PromptContext
	Deadline     time.Duration

	// Decision carries the routing trace for --explain runs.
	Decision string
}

// Result is the terminal outcome of a request. Every dispatched request
// produces exactly one Result; errors and timeouts are results too.
type Result struct {
	AssumptionID  string        `json:"assumption_id"`
	BackendID     string        `json:"backend_id"`
	Tier          Tier          `json:"tier"`
	Outcome       Outcome       `json:"outcome"`
	Finding       string        `json:"finding,omitempty"`
	FixSuggestion string        `json:"fix_suggestion,omitempty"`
	Confidence    float64       `json:"confidence"`
	Latency       time.Duration `json:"latency"`
	CostUnits     float64       `json:"cost_units"`
	FreeBackend   bool          `json:"free_backend"`
	Err           string        `json:"error,omitempty"`
}

// StatusForOutcome maps a terminal outcome back onto the assumption status.
func StatusForOutcome(o Outcome) Status {
	switch o {
	case OutcomeOK:
		return StatusVerifiedOK
	case OutcomeIssueFound:
		return StatusVerifiedIssue
	default:
		return StatusFailed
	}
}
