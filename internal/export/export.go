// Package export renders summaries and quizzes as PDF files.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Epistemic-Technology/studysage/internal/logger"
	"github.com/Epistemic-Technology/studysage/models"
)

const (
	Brand      = "StudySage"
	fontFamily = "Helvetica"
	unicodeTTF = "StudySageUnicode"
)

// Kind names an exportable part of a session.
type Kind string

const (
	KindSummary Kind = "summary"
	KindQuiz    Kind = "quiz"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindSummary:
		return KindSummary, nil
	case KindQuiz:
		return KindQuiz, nil
	}
	return "", fmt.Errorf("unknown export kind %q (want summary or quiz)", s)
}

type rgb struct{ r, g, b int }

var (
	titleColor  = rgb{30, 136, 229}
	headerColor = rgb{66, 66, 66}
	answerColor = rgb{46, 125, 50}
	bodyColor   = rgb{0, 0, 0}
)

// Exporter writes PDFs into an output directory.
type Exporter struct {
	dir      string
	fontPath string
	now      func() time.Time
	log      logger.Logger
}

type Option func(*Exporter)

// WithUnicodeFont embeds a TrueType font so text outside Latin-1 renders.
func WithUnicodeFont(path string) Option {
	return func(e *Exporter) { e.fontPath = path }
}

// WithClock replaces time.Now for file names and the generated-on line.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

func New(dir string, log logger.Logger, opts ...Option) *Exporter {
	e := &Exporter{dir: dir, now: time.Now, log: log}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExportSummary writes summary_<timestamp>.pdf and returns its path.
func (e *Exporter) ExportSummary(summary string) (string, error) {
	return e.exportFile(KindSummary, func(w io.Writer) error { return e.WriteSummary(w, summary) })
}

// ExportQuiz writes quiz_<timestamp>.pdf and returns its path.
func (e *Exporter) ExportQuiz(questions []models.Question) (string, error) {
	return e.exportFile(KindQuiz, func(w io.Writer) error { return e.WriteQuiz(w, questions) })
}

// Export writes the requested part of a stored session.
func (e *Exporter) Export(kind Kind, session *models.StudySession) (string, error) {
	if kind == KindQuiz {
		return e.ExportQuiz(session.Questions)
	}
	return e.ExportSummary(session.Summary)
}

// Write renders the requested part of a session to w.
func (e *Exporter) Write(w io.Writer, kind Kind, session *models.StudySession) error {
	if kind == KindQuiz {
		return e.WriteQuiz(w, session.Questions)
	}
	return e.WriteSummary(w, session.Summary)
}

func (e *Exporter) exportFile(kind Kind, render func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := fmt.Sprintf("%s_%s.pdf", kind, e.now().Format("20060102_150405"))
	path := filepath.Join(e.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	pages, err := Verify(path)
	if err != nil {
		os.Remove(path)
		return "", err
	}
	e.log.Info("PDF exported to %s (%d page(s))", path, pages)
	return path, nil
}

// Verify validates a written PDF and returns its page count.
func Verify(path string) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return 0, fmt.Errorf("exported PDF failed validation: %w", err)
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// WriteSummary renders the summary document. Blank lines separate paragraphs.
func (e *Exporter) WriteSummary(w io.Writer, summary string) error {
	doc := e.newDocument("Summary")
	doc.heading("Summary:")
	for _, para := range strings.Split(summary, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			doc.paragraph(para, 12, 0, bodyColor)
		}
	}
	return doc.output(w)
}

// WriteQuiz renders one block per question: number, prompt, numbered
// options and the correct answer.
func (e *Exporter) WriteQuiz(w io.Writer, questions []models.Question) error {
	doc := e.newDocument("Quiz")
	if len(questions) == 0 {
		doc.paragraph("No questions could be generated from this summary.", 12, 0, bodyColor)
	}
	for i, q := range questions {
		doc.heading(fmt.Sprintf("Q%d.", i+1))
		doc.paragraph(q.Question, 14, 0, bodyColor)
		for j, opt := range q.Options {
			doc.paragraph(fmt.Sprintf("%d. %s", j+1, opt), 12, 8, headerColor)
		}
		doc.paragraph("Answer: "+q.Answer, 12, 8, answerColor)
		doc.pdf.Ln(4)
	}
	return doc.output(w)
}

type document struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
}

func (e *Exporter) newDocument(section string) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreator(Brand, true)
	pdf.SetTitle(Brand+" "+section, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	d := &document{pdf: pdf, family: fontFamily, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if e.fontPath != "" {
		pdf.AddUTF8Font(unicodeTTF, "", e.fontPath)
		pdf.AddUTF8Font(unicodeTTF, "B", e.fontPath)
		d.family = unicodeTTF
		d.tr = func(s string) string { return s }
	}

	pdf.AddPage()
	d.setColor(titleColor)
	pdf.SetFont(d.family, "B", 24)
	pdf.CellFormat(0, 12, d.tr(Brand+" "+section), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	d.setColor(headerColor)
	pdf.SetFont(d.family, "", 11)
	pdf.CellFormat(0, 6, d.tr("Generated on: "+e.now().Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	pdf.Ln(6)
	return d
}

func (d *document) setColor(c rgb) {
	d.pdf.SetTextColor(c.r, c.g, c.b)
}

func (d *document) heading(text string) {
	d.setColor(headerColor)
	d.pdf.SetFont(d.family, "B", 16)
	d.pdf.MultiCell(0, 8, d.tr(text), "", "L", false)
	d.pdf.Ln(2)
}

func (d *document) paragraph(text string, size float64, indent float64, c rgb) {
	left, _, _, _ := d.pdf.GetMargins()
	d.setColor(c)
	d.pdf.SetFont(d.family, "", size)
	d.pdf.SetX(left + indent)
	d.pdf.MultiCell(0, size*0.5, d.tr(text), "", "L", false)
	d.pdf.Ln(2)
}

func (d *document) output(w io.Writer) error {
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}
