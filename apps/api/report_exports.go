package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
)

const unknownStateLabel = "Unknown"

// exportColumns is the CSV header order. Lists are joined with "|".
var exportColumns = []string{
	fieldID,
	fieldSubmittedAt,
	fieldApprovedAt,
	fieldState,
	fieldStateFull,
	fieldLocation,
	"full_name",
	"employer",
	"occupation",
	"platform",
	"category",
	fieldDescription,
	fieldImageURLs,
}

func (a *App) adminApprovedExportHandler(c *gin.Context) {
	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	if format != "pdf" {
		format = "csv"
	}

	reports := a.moderation.ListApproved()
	now := time.Now().UTC()

	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case "pdf":
		body, err = buildApprovedPDF(reports, now)
		contentType = "application/pdf"
	default:
		var text string
		text, err = buildApprovedCSV(reports)
		body = []byte(text)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		a.log.Error("approved export failed", "format", format, "err", err)
		writeAPIError(c, &apiError{Status: http.StatusInternalServerError, Code: "export_failed", Message: "Export could not be generated"})
		return
	}

	fileName := fmt.Sprintf("reportwatch-approved-%s.%s", now.Format("20060102-150405"), format)
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", fileName))
	_, _ = c.Writer.Write(body)
}

func buildApprovedCSV(reports []Report) (string, error) {
	buffer := bytes.NewBuffer(nil)
	writer := csv.NewWriter(buffer)
	if err := writer.Write(exportColumns); err != nil {
		return "", err
	}
	for _, report := range reports {
		row := make([]string, 0, len(exportColumns))
		for _, column := range exportColumns {
			if column == fieldImageURLs {
				row = append(row, strings.Join(report.Strings(column), "|"))
				continue
			}
			row = append(row, report.String(column))
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

type labelCount struct {
	Label string
	Count int
}

// countBy tallies reports by a label, most frequent first, ties by label.
func countBy(reports []Report, label func(Report) string) []labelCount {
	counts := map[string]int{}
	for _, report := range reports {
		counts[label(report)]++
	}
	out := make([]labelCount, 0, len(counts))
	for key, count := range counts {
		out = append(out, labelCount{Label: key, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func stateLabel(report Report) string {
	if name := report.String(fieldStateFull); name != "" {
		return name
	}
	if abbr := report.String(fieldState); abbr != "" {
		return abbr
	}
	return unknownStateLabel
}

func categoryLabel(report Report) string {
	if category := strings.TrimSpace(report.String("category")); category != "" {
		return category
	}
	return "Uncategorized"
}

func buildApprovedPDF(reports []Report, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 16)
	pdf.Cell(0, 10, "Approved reports")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", generatedAt.UTC().Format("2006-01-02 15:04 UTC")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Total reports: %d", len(reports)))
	pdf.Ln(10)

	writeDistribution := func(title string, counts []labelCount) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, entry := range counts {
			pdf.Cell(0, 6, tr(fmt.Sprintf("- %s: %d", entry.Label, entry.Count)))
			pdf.Ln(6)
		}
		pdf.Ln(4)
	}
	writeDistribution("By state", countBy(reports, stateLabel))
	writeDistribution("By category", countBy(reports, categoryLabel))

	if len(reports) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 8, "Reports")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 9)
		for _, report := range reports {
			line := fmt.Sprintf("%s  %s  %s", formatTimestamp(report.String(fieldApprovedAt)), stateLabel(report), report.String(fieldLocation))
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
	}

	buffer := bytes.NewBuffer(nil)
	if err := pdf.Output(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
