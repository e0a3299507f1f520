package main

import "testing"

func TestParsePage(t *testing.T) {
	for raw, want := range map[string]int{"": 1, "0": 1, "-3": 1, "abc": 1, "2": 2, " 7 ": 7} {
		if got := parsePage(raw); got != want {
			t.Fatalf("parsePage(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestPaginateReports(t *testing.T) {
	reports := make([]Report, 45)
	for i := range reports {
		reports[i] = Report{fieldID: string(rune('a' + i%26))}
	}

	if got := len(paginateReports(reports, 1, 20)); got != 20 {
		t.Fatalf("page 1: expected 20, got %d", got)
	}
	if got := len(paginateReports(reports, 3, 20)); got != 5 {
		t.Fatalf("page 3: expected 5, got %d", got)
	}
	if got := len(paginateReports(reports, 4, 20)); got != 0 {
		t.Fatalf("page 4: expected 0, got %d", got)
	}
}

func TestBuildPaginationView(t *testing.T) {
	view := buildPaginationView(45, 2, 20, "/reports?state=TX")
	if view.TotalPages != 3 || !view.HasNext || !view.HasPrev {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.PageSeparator != "&" {
		t.Fatalf("expected & separator, got %q", view.PageSeparator)
	}

	empty := buildPaginationView(0, 1, 20, "/reports")
	if empty.TotalPages != 0 || empty.HasNext || empty.HasPrev || empty.PageSeparator != "?" {
		t.Fatalf("unexpected empty view: %+v", empty)
	}
}
