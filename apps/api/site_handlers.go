package main

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// searchableFields feed the free-text filter on the public list.
var searchableFields = []string{"full_name", "employer", fieldLocation, fieldDescription, "platform", "occupation", "category"}

func (a *App) siteBaseData(c *gin.Context, title, activeNav string) siteBaseViewData {
	return siteBaseViewData{
		Title:         title,
		ActiveNav:     activeNav,
		ErrorMessage:  strings.TrimSpace(c.Query("error")),
		NoticeMessage: strings.TrimSpace(c.Query("notice")),
	}
}

func (a *App) homePageHandler(c *gin.Context) {
	a.renderTemplate(c, http.StatusOK, siteLayoutPath, siteTemplateHomePath, a.siteBaseData(c, "Home", "home"))
}

func (a *App) memoriesPageHandler(c *gin.Context) {
	a.renderTemplate(c, http.StatusOK, siteLayoutPath, siteTemplateMemoriesPath, a.siteBaseData(c, "Memories", "memories"))
}

func (a *App) reportFormPageHandler(c *gin.Context) {
	data := siteReportFormViewData{
		siteBaseViewData: a.siteBaseData(c, "Submit a report", "report"),
		States:           stateOptions(),
	}
	a.renderTemplate(c, http.StatusOK, siteLayoutPath, siteTemplateFormPath, data)
}

func (a *App) reportsPageHandler(c *gin.Context) {
	stateFilter := strings.TrimSpace(c.Query("state"))
	query := strings.TrimSpace(c.Query("q"))
	page := parsePage(c.Query("page"))

	filtered := filterApprovedReports(a.moderation.ListApproved(), stateFilter, query)

	data := siteReportsViewData{
		siteBaseViewData: a.siteBaseData(c, "Reports", "reports"),
		Reports:          paginateReports(filtered, page, defaultPerPage),
		States:           stateOptions(),
		StateFilter:      stateFilter,
		Query:            query,
		TotalCount:       len(filtered),
		Pagination:       buildPaginationView(len(filtered), page, defaultPerPage, reportsPageURL(stateFilter, query)),
	}
	a.renderTemplate(c, http.StatusOK, siteLayoutPath, siteTemplateReportsPath, data)
}

func (a *App) reportDetailPageHandler(c *gin.Context) {
	report, err := a.moderation.FindApproved(strings.TrimSpace(c.Param("id")))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errReportNotFound) {
			status = http.StatusNotFound
		}
		base := a.siteBaseData(c, "Report not found", "reports")
		base.ErrorMessage = "Report not found"
		a.renderTemplate(c, status, siteLayoutPath, siteTemplateNotFoundPath, base)
		return
	}

	data := siteReportDetailViewData{
		siteBaseViewData: a.siteBaseData(c, "Report", "reports"),
		Report:           report,
	}
	a.renderTemplate(c, http.StatusOK, siteLayoutPath, siteTemplateDetailPath, data)
}

func reportsPageURL(stateFilter, query string) string {
	values := url.Values{}
	if stateFilter != "" {
		values.Set("state", stateFilter)
	}
	if query != "" {
		values.Set("q", query)
	}
	if encoded := values.Encode(); encoded != "" {
		return "/reports?" + encoded
	}
	return "/reports"
}

// filterApprovedReports keeps reports matching the selected state and the
// free-text query. stateFilter accepts a code or a full name; "ALL" and ""
// disable it. A report matches a state by code, by full name, or by the full
// name appearing in its location text.
func filterApprovedReports(reports []Report, stateFilter, query string) []Report {
	stateFilter = strings.TrimSpace(stateFilter)
	if strings.EqualFold(stateFilter, "all") {
		stateFilter = ""
	}

	var desiredAbbr, desiredName string
	if stateFilter != "" {
		if s, ok := lookupState(stateFilter); ok {
			desiredAbbr = s.Abbr
			desiredName = strings.ToLower(s.Name)
		} else {
			desiredName = strings.ToLower(stateFilter)
		}
	}
	needle := strings.ToLower(strings.TrimSpace(query))

	out := make([]Report, 0, len(reports))
	for _, report := range reports {
		if stateFilter != "" && !reportMatchesState(report, desiredAbbr, desiredName) {
			continue
		}
		if needle != "" && !reportMatchesQuery(report, needle) {
			continue
		}
		out = append(out, report)
	}
	return out
}

func reportMatchesState(report Report, abbr, lowerName string) bool {
	if abbr != "" && strings.EqualFold(strings.TrimSpace(report.String(fieldState)), abbr) {
		return true
	}
	if lowerName == "" {
		return false
	}
	if strings.ToLower(strings.TrimSpace(report.String(fieldStateFull))) == lowerName {
		return true
	}
	return strings.Contains(strings.ToLower(report.String(fieldLocation)), lowerName)
}

func reportMatchesQuery(report Report, lowerNeedle string) bool {
	parts := make([]string, 0, len(searchableFields))
	for _, key := range searchableFields {
		parts = append(parts, report.String(key))
	}
	return strings.Contains(strings.ToLower(strings.Join(parts, " ")), lowerNeedle)
}
