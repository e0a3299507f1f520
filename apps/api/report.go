package main

import (
	"strings"
)

const (
	fieldID            = "id"
	fieldLocation      = "location"
	fieldState         = "state"
	fieldStateFull     = "state_full"
	fieldDescription   = "description"
	fieldEmail         = "email"
	fieldEmployerEmail = "employer_email"
	fieldImageURLs     = "image_urls"
	fieldSubmittedAt   = "submitted_at"
	fieldApprovedAt    = "approved_at"
)

// Report is a submitted record. Values are strings or string lists; anything
// else a client sends is kept but ignored by the moderation logic.
type Report map[string]any

func (r Report) ID() string {
	return r.String(fieldID)
}

// String returns the field as text, or "" when missing or not a string.
func (r Report) String(key string) string {
	value, _ := r[key].(string)
	return value
}

// Strings returns the field as a string list; a single string is wrapped.
func (r Report) Strings(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

func (r Report) hasText(key string) bool {
	return strings.TrimSpace(r.String(key)) != ""
}

// Clone copies the map and any string lists so callers cannot reach store state.
func (r Report) Clone() Report {
	if r == nil {
		return nil
	}
	out := make(Report, len(r))
	for key, value := range r {
		switch v := value.(type) {
		case []string:
			out[key] = append([]string(nil), v...)
		case []any:
			out[key] = append([]any(nil), v...)
		default:
			out[key] = value
		}
	}
	return out
}

func cloneReports(reports []Report) []Report {
	out := make([]Report, 0, len(reports))
	for _, r := range reports {
		out = append(out, r.Clone())
	}
	return out
}
