package render

import (
	"io"
	"strconv"
	"strings"

	"github.com/roach88/auditview/internal/view"
)

// Glyph and toggle defaults for the text printer.
const (
	DefaultOKGlyph   = "❇️"
	DefaultWarnGlyph = "⚠️"
	DefaultIndent    = 4

	expandedMarker  = "▾"
	collapsedMarker = "▸"
)

// Printer writes a view tree as indented text: one line per node of the form
// "<toggle> <glyph> <header>", with bodies and children one level deeper.
type Printer struct {
	OKGlyph   string
	WarnGlyph string
	Indent    int
}

// NewPrinter returns a Printer with the default glyphs and indent.
func NewPrinter() Printer {
	return Printer{OKGlyph: DefaultOKGlyph, WarnGlyph: DefaultWarnGlyph, Indent: DefaultIndent}
}

// FormatDocument renders doc as text.
func (p Printer) FormatDocument(doc *view.Document) string {
	var b strings.Builder
	switch {
	case len(doc.Error) > 0:
		b.Write(doc.Error)
		b.WriteByte('\n')
		return b.String()
	case doc.Message != "":
		b.WriteString(doc.Message)
		b.WriteByte('\n')
		return b.String()
	}

	if doc.Header != "" {
		b.WriteString(doc.Header + "\n")
	}
	glyph := p.WarnGlyph
	if doc.OK {
		glyph = p.OKGlyph
	}
	b.WriteString("Status: " + glyph + " " + doc.Status + "\n")
	if doc.Progress != nil {
		b.WriteString("Progress: " + formatRank(doc.Progress.Rank))
		if doc.Progress.SuccessRank != 0 {
			b.WriteString(" / " + formatRank(doc.Progress.SuccessRank))
		}
		b.WriteByte('\n')
	}
	if doc.Root != nil {
		b.WriteByte('\n')
		p.node(&b, doc.Root, 0)
	}
	return b.String()
}

// FormatNode renders one node and its subtree as text.
func (p Printer) FormatNode(n *view.Node) string {
	var b strings.Builder
	p.node(&b, n, 0)
	return b.String()
}

// Fprint writes doc to w.
func (p Printer) Fprint(w io.Writer, doc *view.Document) error {
	_, err := io.WriteString(w, p.FormatDocument(doc))
	return err
}

func formatRank(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (p Printer) line(b *strings.Builder, depth int, text string) {
	b.WriteString(strings.Repeat(" ", depth*p.Indent))
	b.WriteString(text)
	b.WriteByte('\n')
}

func (p Printer) node(b *strings.Builder, n *view.Node, depth int) {
	if n == nil {
		return
	}
	parts := []string{collapsedMarker}
	if n.Open {
		parts[0] = expandedMarker
	}
	switch n.Glyph {
	case view.GlyphOK:
		parts = append(parts, p.OKGlyph)
	case view.GlyphWarn:
		parts = append(parts, p.WarnGlyph)
	}
	parts = append(parts, n.Header)
	if n.Skipped {
		parts = append(parts, "[skipped]")
	}
	p.line(b, depth, strings.Join(parts, " "))

	for _, blk := range n.Body {
		p.block(b, blk, depth+1)
	}
	for _, c := range n.Children {
		p.node(b, c, depth+1)
	}
}

func (p Printer) block(b *strings.Builder, blk view.Block, depth int) {
	switch blk := blk.(type) {
	case view.Paragraph:
		p.line(b, depth, blk.Text)
	case view.Details:
		p.line(b, depth, blk.Summary)
		for _, c := range blk.Body {
			p.block(b, c, depth+1)
		}
	case view.ClauseGroup:
		p.line(b, depth, blk.Label)
		for _, c := range blk.Children {
			p.block(b, c, depth+1)
		}
	case view.ClauseLine:
		p.line(b, depth, blk.Text())
	case view.CourseList:
		for _, c := range blk.Courses {
			p.line(b, depth, "- "+c.Label)
		}
	case view.ErrorBlock:
		p.line(b, depth, "error["+string(blk.Code)+"]: "+blk.Message)
	}
}
