// Package result defines the uniform success/error contract every generation
// call returns, regardless of which transport path served it.
package result

// Reason codes carried by failed results. The UI keys its guidance text off
// these, so they are part of the API contract.
const (
	ReasonLocalStandby   = "Local Link Standby"
	ReasonLocalAudio     = "Local Audio Offline"
	ReasonBlankSynthesis = "Blank Synthesis"
	ReasonSilentSignal   = "Silent Signal"
	ReasonEngineFailure  = "Engine Failure"
	ReasonVocalParalysis = "Vocal Chord Paralysis"
)

// Error describes a failed generation in user-actionable terms. Details holds
// the raw diagnostic and is display-isolated: consumers must not render it in
// the primary error text.
type Error struct {
	Reason          string   `json:"reason"`
	Suggestion      string   `json:"suggestion"`
	Details         string   `json:"details,omitempty"`
	TriggeringTerms []string `json:"triggeringTerms,omitempty"`
}

// Result is a discriminated union: exactly one of Data or Error is set.
type Result struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// OK returns a successful result carrying the given payload.
func OK(data string) Result {
	return Result{Success: true, Data: data}
}

// Fail returns a failed result with a reason code and user-facing suggestion.
func Fail(reason, suggestion string) Result {
	return Result{Success: false, Error: &Error{Reason: reason, Suggestion: suggestion}}
}

// FailDetailed is Fail with a display-isolated diagnostic string attached.
func FailDetailed(reason, suggestion, details string) Result {
	return Result{Success: false, Error: &Error{Reason: reason, Suggestion: suggestion, Details: details}}
}

// FailBlocked returns a content-policy failure listing the categories the
// upstream flagged, for user-facing display.
func FailBlocked(reason, suggestion string, terms []string) Result {
	return Result{Success: false, Error: &Error{Reason: reason, Suggestion: suggestion, TriggeringTerms: terms}}
}

// WellFormed reports whether the result satisfies the union invariant:
// exactly one of Data and Error is present.
func (r Result) WellFormed() bool {
	if r.Success {
		return r.Data != "" && r.Error == nil
	}
	return r.Data == "" && r.Error != nil
}
