package main

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// USState is one entry of the fixed state table.
type USState struct {
	Abbr string `json:"abbr"`
	Name string `json:"name"`
}

// usStates lists the 50 US states ordered alphabetically by abbreviation.
// Every inference stage that falls back to table order uses this order.
var usStates = []USState{
	{"AK", "Alaska"}, {"AL", "Alabama"}, {"AR", "Arkansas"}, {"AZ", "Arizona"},
	{"CA", "California"}, {"CO", "Colorado"}, {"CT", "Connecticut"}, {"DE", "Delaware"},
	{"FL", "Florida"}, {"GA", "Georgia"}, {"HI", "Hawaii"}, {"IA", "Iowa"},
	{"ID", "Idaho"}, {"IL", "Illinois"}, {"IN", "Indiana"}, {"KS", "Kansas"},
	{"KY", "Kentucky"}, {"LA", "Louisiana"}, {"MA", "Massachusetts"}, {"MD", "Maryland"},
	{"ME", "Maine"}, {"MI", "Michigan"}, {"MN", "Minnesota"}, {"MO", "Missouri"},
	{"MS", "Mississippi"}, {"MT", "Montana"}, {"NC", "North Carolina"}, {"ND", "North Dakota"},
	{"NE", "Nebraska"}, {"NH", "New Hampshire"}, {"NJ", "New Jersey"}, {"NM", "New Mexico"},
	{"NV", "Nevada"}, {"NY", "New York"}, {"OH", "Ohio"}, {"OK", "Oklahoma"},
	{"OR", "Oregon"}, {"PA", "Pennsylvania"}, {"RI", "Rhode Island"}, {"SC", "South Carolina"},
	{"SD", "South Dakota"}, {"TN", "Tennessee"}, {"TX", "Texas"}, {"UT", "Utah"},
	{"VA", "Virginia"}, {"VT", "Vermont"}, {"WA", "Washington"}, {"WI", "Wisconsin"},
	{"WV", "West Virginia"}, {"WY", "Wyoming"},
}

var (
	stateNamesByAbbr = func() map[string]string {
		out := make(map[string]string, len(usStates))
		for _, s := range usStates {
			out[s.Abbr] = s.Name
		}
		return out
	}()

	parentheticalStatePattern = regexp.MustCompile(`\(\s*([A-Za-z]{2})\s*\)`)
	whitespaceRunPattern      = regexp.MustCompile(`\s+`)
	locationTokenSeparators   = regexp.MustCompile(`[,\s]+`)

	// whole-word matchers, same order as usStates
	stateAbbrWordPatterns = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(usStates))
		for i, s := range usStates {
			out[i] = regexp.MustCompile(`(?i)\b` + s.Abbr + `\b`)
		}
		return out
	}()
)

// inferState guesses a US state from free-text location. Stages run in a
// fixed priority order and the first stage that matches wins:
//
//  1. a full state name appears anywhere in the text; the first table entry
//     found wins, so "West Virginia" resolves to VA
//  2. a parenthesized two-letter code such as "(TX)"
//  3. the last comma/space separated token that is a valid code
//  4. any whole-word occurrence of a code, in table order
//
// It returns two empty strings when nothing matches. False positives are
// expected; this is not a geocoder.
func inferState(location string) (string, string) {
	text := strings.TrimSpace(whitespaceRunPattern.ReplaceAllString(location, " "))
	if text == "" {
		return "", ""
	}
	lower := strings.ToLower(text)

	for _, s := range usStates {
		if strings.Contains(lower, strings.ToLower(s.Name)) {
			return s.Abbr, s.Name
		}
	}

	for _, match := range parentheticalStatePattern.FindAllStringSubmatch(text, -1) {
		if abbr := strings.ToUpper(match[1]); isValidStateAbbreviation(abbr) {
			return abbr, stateNamesByAbbr[abbr]
		}
	}

	tokens := locationTokenSeparators.Split(text, -1)
	for i := len(tokens) - 1; i >= 0; i-- {
		token := tokens[i]
		if len(token) != 2 || !isASCIILetters(token) {
			continue
		}
		if abbr := strings.ToUpper(token); isValidStateAbbreviation(abbr) {
			return abbr, stateNamesByAbbr[abbr]
		}
	}

	for i, pattern := range stateAbbrWordPatterns {
		if pattern.MatchString(text) {
			return usStates[i].Abbr, usStates[i].Name
		}
	}

	return "", ""
}

func isASCIILetters(value string) bool {
	for _, r := range value {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// isValidStateAbbreviation reports whether abbr is one of the 50 state codes.
// Matching is exact; callers upper-case user input first.
func isValidStateAbbreviation(abbr string) bool {
	_, ok := stateNamesByAbbr[abbr]
	return ok
}

func stateFullName(abbr string) string {
	return stateNamesByAbbr[strings.ToUpper(strings.TrimSpace(abbr))]
}

// lookupState resolves an abbreviation or a full state name, any casing.
func lookupState(value string) (USState, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return USState{}, false
	}
	if name, ok := stateNamesByAbbr[strings.ToUpper(trimmed)]; ok {
		return USState{Abbr: strings.ToUpper(trimmed), Name: name}, true
	}
	for _, s := range usStates {
		if strings.EqualFold(s.Name, trimmed) {
			return s, true
		}
	}
	return USState{}, false
}

// stateOptions returns a copy of the state table for dropdowns.
func stateOptions() []USState {
	out := make([]USState, len(usStates))
	copy(out, usStates)
	return out
}

func (a *App) statesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, stateOptions())
}
