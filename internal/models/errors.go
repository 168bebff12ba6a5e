package models

import "fmt"

// UnsupportedInputError reports input that is not a decodable PDF or a
// JSON payload missing a required field
type UnsupportedInputError struct {
	Reason string
	Err    error
}

func (e *UnsupportedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unsupported input: %s: %v", e.Reason, e.Err)
	}
	return "unsupported input: " + e.Reason
}

func (e *UnsupportedInputError) Unwrap() error { return e.Err }

// SemanticOracleError reports a failed oracle call or an unusable response
type SemanticOracleError struct {
	Reason string
	Err    error
}

func (e *SemanticOracleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("semantic oracle: %s: %v", e.Reason, e.Err)
	}
	return "semantic oracle: " + e.Reason
}

func (e *SemanticOracleError) Unwrap() error { return e.Err }

// RenderError reports a drawing failure together with the element that
// caused it. ElementID is empty when the failure is not tied to one element,
// and Page is negative when it is not tied to one page.
type RenderError struct {
	Page      int
	ElementID string
	Text      string
	Err       error
}

func (e *RenderError) Error() string {
	if e.Page < 0 {
		return fmt.Sprintf("render failed: %v", e.Err)
	}
	if e.ElementID == "" {
		return fmt.Sprintf("render failed on page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("render failed on page %d, element %s (%q): %v", e.Page, e.ElementID, e.Text, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
