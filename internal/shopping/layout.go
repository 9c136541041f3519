package shopping

import (
	"errors"
	"fmt"
)

var ErrInvalidLayout = errors.New("invalid page layout")

// Layout is the page geometry of a rendered shopping list. Lengths are in
// millimetres, font sizes in points.
type Layout struct {
	PageWidth      float64 `mapstructure:"page_width"`
	PageHeight     float64 `mapstructure:"page_height"`
	MarginLeft     float64 `mapstructure:"margin_left"`
	MarginRight    float64 `mapstructure:"margin_right"`
	MarginTop      float64 `mapstructure:"margin_top"`
	MarginBottom   float64 `mapstructure:"margin_bottom"`
	LineHeight     float64 `mapstructure:"line_height"`
	HeaderFontSize float64 `mapstructure:"header_font_size"`
	LineFontSize   float64 `mapstructure:"line_font_size"`
	// FontPath points to a TrueType font. Empty selects the embedded DejaVu
	// Sans Condensed.
	FontPath string `mapstructure:"font_path"`
	Compress bool   `mapstructure:"compress"`
}

// DefaultLayout is an A4 portrait page.
func DefaultLayout() Layout {
	return Layout{
		PageWidth:      210,
		PageHeight:     297,
		MarginLeft:     20,
		MarginRight:    20,
		MarginTop:      20,
		MarginBottom:   20,
		LineHeight:     8,
		HeaderFontSize: 18,
		LineFontSize:   12,
		Compress:       true,
	}
}

func (l Layout) headerHeight() float64 {
	return l.LineHeight * 1.5
}

func (l Layout) headerGap() float64 {
	return l.LineHeight / 2
}

// Validate checks that a page can hold the header and at least one line.
func (l Layout) Validate() error {
	switch {
	case l.PageWidth <= l.MarginLeft+l.MarginRight:
		return fmt.Errorf("%w: margins leave no horizontal space", ErrInvalidLayout)
	case l.LineHeight <= 0 || l.HeaderFontSize <= 0 || l.LineFontSize <= 0:
		return fmt.Errorf("%w: line height and font sizes must be positive", ErrInvalidLayout)
	case l.PageHeight-l.MarginTop-l.MarginBottom < l.headerHeight()+l.headerGap()+l.LineHeight:
		return fmt.Errorf("%w: page too short for header and one line", ErrInvalidLayout)
	}

	return nil
}
