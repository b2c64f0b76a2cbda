package document

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"matchreport/internal/aggregate"
	"matchreport/internal/chart"
	apperrors "matchreport/internal/errors"
)

const (
	DefaultTitle    = "ODI Matches Report"
	DefaultFilename = "odi_matches_report.pdf"

	fontFamily = "Helvetica"

	// Image placement on a chart page, in millimetres.
	imageX     = 15.0
	imageY     = 30.0
	imageWidth = 180.0

	pageBottom = 280.0
	lineHeight = 6.0
)

// Input is everything that goes into one report document.
type Input struct {
	Title             string
	Header            string
	FilterDescription string
	GeneratedAt       time.Time
	Summary           aggregate.Summary
	Narrative         string
	Images            []chart.Image
	Filename          string
}

// Document is a finished PDF.
type Document struct {
	Bytes     []byte
	Filename  string
	PageCount int
}

// Assemble lays out a title page, a summary page and one page per image, in
// that order, so n images always give n+2 pages. Narrative text that does
// not fit the summary page is cut at the last whole line. Any encoding
// fault, including unreadable image data, fails the whole document with a
// RenderError.
func Assemble(in Input) (*Document, error) {
	title := in.Title
	if title == "" {
		title = DefaultTitle
	}
	header := in.Header
	if header == "" {
		header = title
	}
	generated := in.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("matchreport", true)
	pdf.SetCreationDate(generated)
	pdf.SetModificationDate(generated)
	pdf.SetAutoPageBreak(false, 0)

	pdf.SetHeaderFunc(func() {
		pdf.SetFont(fontFamily, "B", 12)
		pdf.CellFormat(0, 10, pdfText(header), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	titlePage(pdf, title, generated, in.FilterDescription)
	summaryPage(pdf, in.Summary, in.Narrative)

	for i, img := range in.Images {
		if err := imagePage(pdf, i, img); err != nil {
			return nil, err
		}
	}

	pages := pdf.PageCount()
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperrors.NewRenderError("document", err)
	}

	name := in.Filename
	if name == "" {
		name = DefaultFilename
	}
	return &Document{Bytes: buf.Bytes(), Filename: name, PageCount: pages}, nil
}

func titlePage(pdf *fpdf.Fpdf, title string, generated time.Time, filters string) {
	if filters == "" {
		filters = "None"
	}
	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 10, pdfText(title), "", 1, "L", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont(fontFamily, "", 11)
	pdf.CellFormat(0, 8, "Report Date: "+generated.Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	pdf.MultiCell(0, 8, pdfText("Filters applied: "+filters), "", "L", false)
}

func summaryPage(pdf *fpdf.Fpdf, summary aggregate.Summary, narrative string) {
	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 14)
	pdf.CellFormat(0, 10, "Summary", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(fontFamily, "", 11)
	for _, m := range summary {
		pdf.CellFormat(0, 8, pdfText(fmt.Sprintf("%s: %s", m.Name, m.String())), "", 1, "L", false, 0, "")
	}

	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		return
	}

	pdf.Ln(6)
	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(0, 8, "Narrative", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)

	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()
	width := pageWidth - left - right

	for _, para := range strings.Split(pdfText(narrative), "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for _, line := range wrap(pdf, para, width-2) {
			if pdf.GetY()+lineHeight > pageBottom {
				return
			}
			pdf.CellFormat(width, lineHeight, line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}
}

// wrap breaks cp1252 text into lines no wider than width in the current
// font. A single word wider than width gets a line of its own.
func wrap(pdf *fpdf.Fpdf, text string, width float64) []string {
	var lines []string
	var line string
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if line != "" && pdf.GetStringWidth(candidate) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

func imagePage(pdf *fpdf.Fpdf, index int, img chart.Image) error {
	name := fmt.Sprintf("chart-%d", index)
	opt := fpdf.ImageOptions{ImageType: "PNG"}

	pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(img.Data))
	if err := pdf.Error(); err != nil {
		return apperrors.NewRenderError(fmt.Sprintf("document image %d", index+1), err)
	}

	w, h := img.Width, img.Height
	if w <= 0 || h <= 0 {
		w, h = chart.Width, chart.Height
	}

	pdf.AddPage()
	pdf.ImageOptions(name, imageX, imageY, imageWidth, imageWidth*float64(h)/float64(w), false, opt, 0, "")
	if err := pdf.Error(); err != nil {
		return apperrors.NewRenderError(fmt.Sprintf("document image %d", index+1), err)
	}
	return nil
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

// Filename derives a report filename from prefix, e.g. "ODI 2011" gives
// "odi_2011.pdf". An empty prefix gives DefaultFilename.
func Filename(prefix string) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(prefix), "_"), "_")
	if base == "" {
		return DefaultFilename
	}
	return base + ".pdf"
}
