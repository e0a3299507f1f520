package main

import (
	"strconv"
	"strings"
)

const (
	defaultPage    = 1
	defaultPerPage = 20
)

func parsePage(rawPage string) int {
	page, err := strconv.Atoi(strings.TrimSpace(rawPage))
	if err != nil || page < defaultPage {
		return defaultPage
	}
	return page
}

func buildPaginationView(totalCount, currentPage, pageSize int, pageURL string) paginationViewData {
	if pageSize < 1 {
		pageSize = defaultPerPage
	}
	if currentPage < defaultPage {
		currentPage = defaultPage
	}

	totalPages := 0
	if totalCount > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}

	pageSeparator := "?"
	if strings.Contains(pageURL, "?") {
		pageSeparator = "&"
	}

	return paginationViewData{
		CurrentPage:   currentPage,
		TotalPages:    totalPages,
		TotalCount:    totalCount,
		NextPage:      currentPage + 1,
		PrevPage:      currentPage - 1,
		HasNext:       currentPage < totalPages,
		HasPrev:       currentPage > defaultPage,
		PageURL:       pageURL,
		PageSeparator: pageSeparator,
	}
}

// paginateReports returns the slice for one page; out-of-range pages are empty.
func paginateReports(reports []Report, page, pageSize int) []Report {
	if pageSize < 1 {
		pageSize = defaultPerPage
	}
	if page < defaultPage {
		page = defaultPage
	}
	start := (page - 1) * pageSize
	if start >= len(reports) {
		return []Report{}
	}
	end := start + pageSize
	if end > len(reports) {
		end = len(reports)
	}
	return reports[start:end]
}
