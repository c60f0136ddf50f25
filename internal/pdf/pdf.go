// Package pdf renders the printable rosters: the participant list
// grouped by course and the current draw result.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/aemoz-unilab/sorteio/internal/models"
)

// Layout constants, in millimeters on A4 portrait.
const (
	marginLeft  = 15.0
	marginTop   = 15.0
	marginRight = 15.0
	lineHeight  = 6.0
)

// Renderer produces roster PDFs.
type Renderer struct {
	title string
}

// NewRenderer creates a renderer. The title heads every report.
func NewRenderer(title string) *Renderer {
	if title == "" {
		title = "Sorteio"
	}
	return &Renderer{title: title}
}

func (r *Renderer) newDoc(subtitle string, generatedAt time.Time) *fpdf.Fpdf {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(marginLeft, marginTop, marginRight)
	doc.SetAutoPageBreak(true, 20)

	doc.SetFooterFunc(func() {
		doc.SetY(-12)
		doc.SetFont("Helvetica", "I", 8)
		doc.SetTextColor(128, 128, 128)
		doc.CellFormat(0, 5, fmt.Sprintf("Page %d", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.SetTextColor(33, 33, 33)
	doc.CellFormat(0, 10, r.title, "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "", 12)
	doc.SetTextColor(66, 66, 66)
	doc.CellFormat(0, 7, subtitle, "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "I", 9)
	doc.SetTextColor(128, 128, 128)
	doc.CellFormat(0, 5, "Generated on "+generatedAt.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	doc.Ln(4)

	return doc
}

func statsLine(doc *fpdf.Fpdf, text string) {
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(66, 66, 66)
	doc.CellFormat(0, lineHeight, text, "", 1, "L", false, 0, "")
}

func sectionHeader(doc *fpdf.Fpdf, text string) {
	doc.SetFont("Helvetica", "B", 12)
	doc.SetTextColor(33, 33, 33)
	doc.SetFillColor(235, 235, 235)
	doc.CellFormat(0, 8, text, "", 1, "L", true, 0, "")
	doc.Ln(1)
}

func entryLine(doc *fpdf.Fpdf, index int, text string) {
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(33, 33, 33)
	doc.CellFormat(10, lineHeight, fmt.Sprintf("%d.", index), "", 0, "R", false, 0, "")
	doc.CellFormat(0, lineHeight, text, "", 1, "L", false, 0, "")
}

// Participants renders the full registry grouped by course, one
// section per course, members numbered.
func (r *Renderer) Participants(courses []*models.CourseGroup, generatedAt time.Time) ([]byte, error) {
	total := 0
	for _, c := range courses {
		total += c.Count
	}

	doc := r.newDoc("Registered Participants", generatedAt)

	statsLine(doc, fmt.Sprintf("Total participants: %d", total))
	statsLine(doc, fmt.Sprintf("Courses: %d", len(courses)))
	doc.Ln(3)

	for _, c := range courses {
		sectionHeader(doc, fmt.Sprintf("%s (%d)", c.Course, c.Count))
		for i, p := range c.Participants {
			entryLine(doc, i+1, fmt.Sprintf("%s - semester %d", p.Name, p.Semester))
		}
		doc.Ln(3)
	}

	if len(courses) == 0 {
		statsLine(doc, "No participants registered.")
	}

	return output(doc)
}

// Groups renders the current draw result, one section per group.
func (r *Renderer) Groups(result *models.DrawResult, generatedAt time.Time) ([]byte, error) {
	doc := r.newDoc("Draw Result", generatedAt)

	statsLine(doc, fmt.Sprintf("Total participants: %d", result.Stats.TotalParticipants))
	statsLine(doc, fmt.Sprintf("Groups: %d", result.Stats.TotalGroups))
	statsLine(doc, fmt.Sprintf("Assigned to groups: %d", result.Stats.ParticipantsInGroups))
	if result.Stats.RemainingParticipants > 0 {
		statsLine(doc, fmt.Sprintf("Awaiting next draw: %d", result.Stats.RemainingParticipants))
	}
	doc.Ln(3)

	for _, g := range result.Groups {
		sectionHeader(doc, g.Name)
		for i, m := range g.Members {
			entryLine(doc, i+1, fmt.Sprintf("%s - %s, semester %d", m.Name, m.Course, m.Semester))
		}
		if len(g.Members) == 0 {
			statsLine(doc, "All members of this group were removed.")
		}
		doc.Ln(3)
	}

	return output(doc)
}

func output(doc *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
