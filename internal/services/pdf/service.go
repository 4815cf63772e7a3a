package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/auspex/internal/interfaces"
)

// Service implements interfaces.PDFService
type Service struct {
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.PDFService = (*Service)(nil)

// NewService creates a new PDF service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// ConvertMarkdownToPDF renders a markdown report summary into an A4 PDF.
// The title goes into the document metadata; the visible heading comes
// from the markdown itself.
func (s *Service) ConvertMarkdownToPDF(markdown, title string) ([]byte, error) {
	s.logger.Debug().
		Int("markdown_len", len(markdown)).
		Str("title", title).
		Msg("Converting markdown to PDF")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 10)

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	renderer := &pdfRenderer{
		pdf:    pdf,
		source: source,
		font:   "Arial",
		size:   10,
	}
	if err := ast.Walk(doc, renderer.walk); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render PDF")
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF output: %w", err)
	}

	s.logger.Debug().Int("pdf_size", buf.Len()).Msg("PDF generated")
	return buf.Bytes(), nil
}

// pdfRenderer walks the markdown AST and emits fpdf drawing calls.
type pdfRenderer struct {
	pdf    *fpdf.Fpdf
	source []byte
	font   string
	size   float64

	bold      bool
	italic    bool
	quoted    bool
	listDepth int
}

func (r *pdfRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic || r.quoted {
		style += "I"
	}
	r.pdf.SetFont(r.font, style, r.size)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		r.handleHeading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		if !entering {
			r.pdf.Ln(7)
		}
	case ast.KindText:
		if entering {
			r.pdf.Write(5, string(n.Text(r.source)))
		}
	case ast.KindEmphasis:
		if n.(*ast.Emphasis).Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.updateFont()
	case ast.KindBlockquote:
		r.handleBlockquote(entering)
	case ast.KindList:
		if entering {
			r.listDepth++
		} else {
			r.listDepth--
			if r.listDepth == 0 {
				r.pdf.Ln(2)
			}
		}
	case ast.KindListItem:
		if entering {
			r.pdf.Ln(5)
			r.pdf.SetX(12 + float64(r.listDepth)*5)
			r.pdf.Write(5, "- ")
		}
	case ast.KindCodeSpan:
		return r.handleCodeSpan(n, entering)
	case ast.KindFencedCodeBlock:
		if entering {
			r.renderCodeBlock(n.(*ast.FencedCodeBlock).Lines())
			return ast.WalkSkipChildren, nil
		}
	case ast.KindThematicBreak:
		if entering {
			r.pdf.Ln(3)
			r.pdf.Line(12, r.pdf.GetY(), 198, r.pdf.GetY())
			r.pdf.Ln(3)
		}
	case extast.KindTable:
		if entering {
			r.renderTable(collectTableRows(n, r.source))
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleHeading(n *ast.Heading, entering bool) {
	if entering {
		r.pdf.Ln(6)
		size := 10.0
		switch n.Level {
		case 1:
			size = 15
		case 2:
			size = 13
		case 3:
			size = 11
		}
		r.pdf.SetFont(r.font, "B", size)
		return
	}
	r.pdf.Ln(7)
	r.updateFont()
}

// handleBlockquote indents the quote and renders it in gray italics.
func (r *pdfRenderer) handleBlockquote(entering bool) {
	r.quoted = entering
	if entering {
		r.pdf.SetLeftMargin(18)
		r.pdf.SetX(18)
		r.pdf.SetTextColor(95, 101, 112)
	} else {
		r.pdf.SetLeftMargin(12)
		r.pdf.SetTextColor(0, 0, 0)
	}
	r.updateFont()
}

func (r *pdfRenderer) handleCodeSpan(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.SetFont("Courier", "", r.size)
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if textNode, ok := c.(*ast.Text); ok {
				r.pdf.Write(5, string(textNode.Segment.Value(r.source)))
			}
		}
	} else {
		r.updateFont()
	}
	return ast.WalkSkipChildren, nil
}

func (r *pdfRenderer) renderCodeBlock(lines *text.Segments) {
	r.pdf.Ln(2)
	r.pdf.SetFont("Courier", "", 9)
	r.pdf.SetFillColor(245, 245, 245)

	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(r.source)), "\n")
		r.pdf.MultiCell(0, 5, line, "", "L", true)
	}

	r.pdf.SetFillColor(255, 255, 255)
	r.updateFont()
	r.pdf.Ln(2)
}

// renderTable draws rows with equal column widths. Report tables are
// narrow summaries, so even splits read fine and overly long cells are
// truncated with an ellipsis.
func (r *pdfRenderer) renderTable(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	numCols := len(rows[0])
	colWidth := 186.0 / float64(numCols)
	lineHeight := 6.0

	r.pdf.Ln(2)
	for i, row := range rows {
		if i == 0 {
			r.pdf.SetFont(r.font, "B", 9)
			r.pdf.SetFillColor(232, 232, 232)
		} else {
			r.pdf.SetFont(r.font, "", 9)
			r.pdf.SetFillColor(255, 255, 255)
		}

		for j := 0; j < numCols; j++ {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			r.pdf.CellFormat(colWidth, lineHeight, r.fitCell(cell, colWidth-2), "1", 0, "L", i == 0, 0, "")
		}
		r.pdf.Ln(lineHeight)
	}
	r.pdf.Ln(3)
	r.updateFont()
}

// fitCell truncates text to the cell width, appending an ellipsis.
func (r *pdfRenderer) fitCell(text string, width float64) string {
	if r.pdf.GetStringWidth(text) <= width {
		return text
	}
	for len(text) > 1 && r.pdf.GetStringWidth(text+"...") > width {
		text = text[:len(text)-1]
	}
	return text + "..."
}

// collectTableRows flattens a table node into cell text, header first.
// The header node wraps a single row, body rows follow as siblings.
func collectTableRows(table ast.Node, source []byte) [][]string {
	var rows [][]string

	var collect func(node ast.Node)
	collect = func(node ast.Node) {
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			switch c := child.(type) {
			case *extast.TableRow:
				rows = append(rows, extractRowCells(c, source))
			case *extast.TableHeader:
				collect(c)
			}
		}
	}
	collect(table)

	return rows
}

func extractRowCells(row ast.Node, source []byte) []string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*extast.TableCell); ok {
			cells = append(cells, string(cell.Text(source)))
		}
	}
	return cells
}
