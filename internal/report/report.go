// Package report renders the vehicle health report PDF.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/lithammer/shortuuid/v3"

	"predictive_maintenance/internal/models"
)

const (
	filenamePrefix = "vehicle-health-report"
	pageWidth      = 190.0
	lineHeight     = 6.0
)

// Generator renders PredictionResults to PDF. The zero value is not usable;
// call NewGenerator.
type Generator struct {
	token func() string
}

func NewGenerator() *Generator {
	return &Generator{token: shortuuid.New}
}

// Filename builds the report name for a result timestamp.
func (g *Generator) Filename(at time.Time) string {
	return fmt.Sprintf("%s-%s-%s.pdf", filenamePrefix, at.UTC().Format("2006-01-02"), g.token())
}

// Render produces the report for a result and its insight cards. The PDF
// bytes depend only on the inputs; the filename carries a random token.
func (g *Generator) Render(result models.PredictionResult, cards []models.InsightCard) (models.ReportArtifact, error) {
	stamp := result.CreatedAt.UTC()
	if stamp.IsZero() {
		return models.ReportArtifact{}, fmt.Errorf("render report: result has no timestamp")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(true)
	pdf.SetTitle("Vehicle Health Report", false)
	pdf.SetCreator("predictive_maintenance", false)
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	writeHeader(pdf, tr, result, stamp)
	writeKPIs(pdf, tr, result.KPIs)
	writeDecision(pdf, tr, result.Decision)
	writeComponents(pdf, tr, result.ComponentHealth)
	writeContributors(pdf, tr, result.Contributors)
	writeInsights(pdf, tr, cards)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return models.ReportArtifact{}, fmt.Errorf("render report: %w", err)
	}

	return models.ReportArtifact{
		Filename:    g.Filename(stamp),
		Content:     buf.Bytes(),
		GeneratedAt: stamp,
	}, nil
}

type translator func(string) string

func section(pdf *fpdf.Fpdf, tr translator, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(30, 30, 30)
	pdf.CellFormat(pageWidth, 8, tr(title), "B", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 10)
}

func writeHeader(pdf *fpdf.Fpdf, tr translator, result models.PredictionResult, stamp time.Time) {
	pdf.SetFillColor(33, 64, 112)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(pageWidth, 14, tr("Vehicle Health Report"), "", 1, "C", true, 0, "")

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Ln(2)
	pdf.CellFormat(pageWidth/2, 5, tr("Report ID: "+result.ID), "", 0, "L", false, 0, "")
	pdf.CellFormat(pageWidth/2, 5, tr("Generated: "+stamp.Format("2006-01-02 15:04 MST")), "", 1, "R", false, 0, "")
}

func writeKPIs(pdf *fpdf.Fpdf, tr translator, k models.KPIs) {
	section(pdf, tr, "Key Indicators")
	rows := [][2]string{
		{"Failure probability", fmt.Sprintf("%.1f %%", k.FailureProbability)},
		{"Alert severity", strings.ToUpper(string(models.ClassifyAlertSeverity(k.FailureProbability)))},
		{"Remaining useful life", fmt.Sprintf("%.0f cycles", k.RemainingUsefulLife)},
		{"Anomaly score", fmt.Sprintf("%.3f", k.AnomalyScore)},
		{"Overall health", fmt.Sprintf("%.1f %%", k.OverallHealth)},
	}
	for i, row := range rows {
		fill := i%2 == 0
		pdf.SetFillColor(240, 243, 248)
		pdf.CellFormat(80, lineHeight+1, tr(row[0]), "", 0, "L", fill, 0, "")
		pdf.CellFormat(pageWidth-80, lineHeight+1, tr(row[1]), "", 1, "L", fill, 0, "")
	}
}

func writeDecision(pdf *fpdf.Fpdf, tr translator, d models.MaintenanceDecision) {
	section(pdf, tr, "Maintenance Recommendation")
	r, g, b := levelColor(d.Level)
	pdf.SetTextColor(r, g, b)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(pageWidth, lineHeight+1, tr(strings.ToUpper(string(d.Level))), "", 1, "L", false, 0, "")
	pdf.SetTextColor(30, 30, 30)
	pdf.SetFont("Helvetica", "", 10)
	if d.Message != "" {
		pdf.MultiCell(pageWidth, lineHeight, tr(d.Message), "", "L", false)
	}
	if d.Description != "" {
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(pageWidth, lineHeight, tr(d.Description), "", "L", false)
		pdf.SetTextColor(30, 30, 30)
	}
}

func writeComponents(pdf *fpdf.Fpdf, tr translator, health map[string]float64) {
	if len(health) == 0 {
		return
	}
	section(pdf, tr, "Component Health")

	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	sort.Strings(names)

	const barWidth = 100.0
	for _, name := range names {
		score := health[name]
		pdf.CellFormat(60, lineHeight+1, tr(name), "", 0, "L", false, 0, "")
		x, y := pdf.GetX(), pdf.GetY()
		pdf.SetDrawColor(200, 200, 200)
		pdf.Rect(x, y+1.5, barWidth, 4, "D")
		r, g, b := scoreColor(score)
		pdf.SetFillColor(r, g, b)
		pdf.Rect(x, y+1.5, barWidth*score/100, 4, "F")
		pdf.SetX(x + barWidth + 4)
		pdf.CellFormat(pageWidth-60-barWidth-4, lineHeight+1, fmt.Sprintf("%.0f %%", score), "", 1, "R", false, 0, "")
	}
}

func writeContributors(pdf *fpdf.Fpdf, tr translator, contributors []models.Contributor) {
	if len(contributors) == 0 {
		return
	}
	section(pdf, tr, "Degradation Contributors")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(225, 230, 240)
	pdf.CellFormat(90, lineHeight+1, tr("Feature"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, lineHeight+1, tr("Value"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(50, lineHeight+1, tr("Importance"), "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, c := range contributors {
		pdf.CellFormat(90, lineHeight+1, tr(c.Feature), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, lineHeight+1, fmt.Sprintf("%.2f", c.Value), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, lineHeight+1, fmt.Sprintf("%.1f %%", c.Importance*100), "1", 1, "R", false, 0, "")
	}
}

func writeInsights(pdf *fpdf.Fpdf, tr translator, cards []models.InsightCard) {
	if len(cards) == 0 {
		return
	}
	section(pdf, tr, "AI Insights")
	for _, card := range cards {
		r, g, b := insightColor(card.Type)
		pdf.SetTextColor(r, g, b)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(pageWidth, lineHeight, tr(fmt.Sprintf("[%s] %s", strings.ToUpper(string(card.Type)), card.Title)), "", "L", false)
		pdf.SetTextColor(30, 30, 30)
		pdf.SetFont("Helvetica", "", 10)
		if card.Description != "" {
			pdf.MultiCell(pageWidth, lineHeight, tr(card.Description), "", "L", false)
		}
		pdf.Ln(2)
	}
}

func levelColor(l models.MaintenanceLevel) (int, int, int) {
	switch l {
	case models.MaintenanceCritical:
		return 192, 28, 40
	case models.MaintenanceWarning:
		return 214, 120, 0
	case models.MaintenanceSoon:
		return 180, 150, 0
	default:
		return 34, 139, 34
	}
}

func scoreColor(score float64) (int, int, int) {
	switch {
	case score < 40:
		return 192, 28, 40
	case score < 70:
		return 230, 160, 20
	default:
		return 46, 160, 67
	}
}

func insightColor(t models.InsightType) (int, int, int) {
	switch t {
	case models.InsightCritical:
		return 192, 28, 40
	case models.InsightWarning:
		return 214, 120, 0
	case models.InsightTip:
		return 46, 120, 160
	default:
		return 50, 50, 50
	}
}
