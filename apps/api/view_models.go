package main

const (
	siteTemplateHomePath     = "templates/site/index.tmpl"
	siteTemplateFormPath     = "templates/site/report_form.tmpl"
	siteTemplateReportsPath  = "templates/site/reports.tmpl"
	siteTemplateDetailPath   = "templates/site/report_detail.tmpl"
	siteTemplateMemoriesPath = "templates/site/memories.tmpl"
	siteTemplateNotFoundPath = "templates/site/not_found.tmpl"
	adminTemplateLoginPath   = "templates/admin/login.tmpl"
	adminTemplatePendingPath = "templates/admin/pending.tmpl"
)

type siteBaseViewData struct {
	Title         string
	ActiveNav     string
	ErrorMessage  string
	NoticeMessage string
}

type siteReportsViewData struct {
	siteBaseViewData
	Reports     []Report
	States      []USState
	StateFilter string
	Query       string
	TotalCount  int
	Pagination  paginationViewData
}

type siteReportDetailViewData struct {
	siteBaseViewData
	Report Report
}

type siteReportFormViewData struct {
	siteBaseViewData
	States []USState
}

type adminBaseViewData struct {
	Title         string
	CurrentPath   string
	ErrorMessage  string
	NoticeMessage string
	Authenticated bool
}

type adminLoginViewData struct {
	adminBaseViewData
	Next string
}

type adminPendingRowView struct {
	Report      Report
	ID          string
	Name        string
	Location    string
	State       string
	Description string
	SubmittedAt string
}

type adminPendingViewData struct {
	adminBaseViewData
	Rows          []adminPendingRowView
	States        []USState
	ApprovedCount int
}

type paginationViewData struct {
	CurrentPage   int
	TotalPages    int
	TotalCount    int
	NextPage      int
	PrevPage      int
	HasNext       bool
	HasPrev       bool
	PageURL       string
	PageSeparator string
}
