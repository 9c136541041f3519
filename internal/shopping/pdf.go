package shopping

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

// ErrRenderResource is returned when the font cannot be loaded or has no
// glyph for a character in the list.
var ErrRenderResource = errors.New("render resource unavailable")

const fontFamily = "shopping"

//go:embed fonts/DejaVuSansCondensed.ttf
var defaultFont []byte

// Document is a rendered shopping list.
type Document struct {
	Reader *bytes.Reader
	Pages  int
	Lines  int
}

// Renderer draws shopping lists as PDF documents.
type Renderer struct {
	layout Layout
	font   []byte
	glyphs map[uint16]uint16
}

// NewRenderer validates layout and loads its font, falling back to the
// embedded DejaVu Sans Condensed when no font path is set.
func NewRenderer(layout Layout) (*Renderer, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	font, name := defaultFont, "embedded font"

	if layout.FontPath != "" {
		data, err := os.ReadFile(layout.FontPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRenderResource, err)
		}

		font, name = data, layout.FontPath
	}

	glyphs, err := parseFont(font)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRenderResource, name, err)
	}

	return &Renderer{layout: layout, font: font, glyphs: glyphs}, nil
}

// parseFont registers font on a scratch document and reads its unicode cmap.
// fpdf only reports parse failures when the font is first selected, and
// panics on truncated files.
func parseFont(font []byte) (glyphs map[uint16]uint16, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parse font: %v", rec)
		}
	}()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(fontFamily, "", font)
	pdf.SetFont(fontFamily, "", 12)

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	// TtfParse only reads from disk.
	dir, err := os.MkdirTemp("", "shopping-font")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "font.ttf")
	if err := os.WriteFile(path, font, 0o600); err != nil {
		return nil, err
	}

	ttf, err := fpdf.TtfParse(path)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	return ttf.Chars, nil
}

// covers reports the first rune in s the font has no glyph for.
func (r *Renderer) covers(s string) (rune, bool) {
	for _, c := range s {
		if c > 0xFFFF {
			return c, false
		}

		if _, ok := r.glyphs[uint16(c)]; !ok {
			return c, false
		}
	}

	return 0, true
}

// Render writes a centered header followed by one numbered line per entry,
// continuing onto new pages when the current one is full. Text the font
// cannot draw fails with ErrRenderResource instead of being dropped.
func (r *Renderer) Render(lines iter.Seq[Line], header string) (*Document, error) {
	l := r.layout

	if c, ok := r.covers(header); !ok {
		return nil, fmt.Errorf("%w: no glyph for %q in header", ErrRenderResource, c)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: l.PageWidth, Ht: l.PageHeight},
	})
	pdf.SetCompression(l.Compress)
	pdf.SetTitle(header, true)
	pdf.SetMargins(l.MarginLeft, l.MarginTop, l.MarginRight)
	pdf.SetAutoPageBreak(false, l.MarginBottom)
	pdf.AddUTF8FontFromBytes(fontFamily, "", r.font)

	pdf.AddPage()
	pdf.SetFont(fontFamily, "", l.HeaderFontSize)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderResource, err)
	}

	pdf.CellFormat(0, l.headerHeight(), header, "", 1, "C", false, 0, "")
	pdf.Ln(l.headerGap())
	pdf.SetFont(fontFamily, "", l.LineFontSize)

	bottom := l.PageHeight - l.MarginBottom
	count := 0

	for line := range lines {
		count++

		text := fmt.Sprintf("%d. %s - %d", count, line.Label, line.Total)
		if c, ok := r.covers(text); !ok {
			return nil, fmt.Errorf("%w: no glyph for %q in line %d", ErrRenderResource, c, count)
		}

		if pdf.GetY()+l.LineHeight > bottom {
			pdf.AddPage()
		}

		pdf.CellFormat(0, l.LineHeight, text, "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render shopping list: %w", err)
	}

	return &Document{
		Reader: bytes.NewReader(buf.Bytes()),
		Pages:  pdf.PageCount(),
		Lines:  count,
	}, nil
}
