package main

import (
	"regexp"
	"strings"
)

const emptyDescriptionPlaceholder = "No description provided."

var (
	provenanceFields = []string{"submitted_via", "source", "submit_method", "origin", "submitted_from"}

	submittedViaPattern = regexp.MustCompile(`(?i)report submitted via[^\r\n]*`)
)

// sanitizeReport returns the publishable copy of a pending report. It strips
// submission provenance, redacts the "Report submitted via ..." boilerplate
// from the description and drops internal "submitter:" email tags. The input
// is left untouched.
func sanitizeReport(report Report) Report {
	out := report.Clone()
	if out == nil {
		out = Report{}
	}

	for _, key := range provenanceFields {
		delete(out, key)
	}

	if description := out.String(fieldDescription); description != "" {
		out[fieldDescription] = redactSubmittedVia(description)
	}

	if email, ok := out[fieldEmail].(string); ok {
		if strings.HasPrefix(strings.ToLower(email), "submitter:") {
			delete(out, fieldEmail)
		}
	}

	return out
}

// redactSubmittedVia removes the first boilerplate line only.
func redactSubmittedVia(description string) string {
	cleaned := description
	if loc := submittedViaPattern.FindStringIndex(description); loc != nil {
		cleaned = description[:loc[0]] + description[loc[1]:]
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return emptyDescriptionPlaceholder
	}
	return cleaned
}
