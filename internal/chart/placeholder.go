package chart

import (
	"bytes"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	apperrors "matchreport/internal/errors"
)

// placeholder draws a blank Width x Height image with the request's empty
// message centred on it, and the title above when one is set.
func (r *Renderer) placeholder(req Request) (Image, error) {
	msg := req.EmptyMessage
	if msg == "" {
		msg = DefaultEmptyMessage
	}

	font := r.font
	if font == nil {
		f, err := gochart.GetDefaultFont()
		if err != nil {
			return Image{}, apperrors.NewRenderError("placeholder", err)
		}
		font = f
	}

	rr, err := gochart.PNG(Width, Height)
	if err != nil {
		return Image{}, apperrors.NewRenderError("placeholder", err)
	}
	rr.SetDPI(DPI)

	rr.SetFillColor(drawing.ColorWhite)
	rr.MoveTo(0, 0)
	rr.LineTo(Width, 0)
	rr.LineTo(Width, Height)
	rr.LineTo(0, Height)
	rr.Close()
	rr.Fill()

	rr.SetFont(font)
	rr.SetFontColor(textColor)

	if req.Title != "" {
		rr.SetFontSize(12)
		box := rr.MeasureText(req.Title)
		rr.Text(req.Title, (Width-box.Width())/2, 60)
	}

	rr.SetFontSize(14)
	box := rr.MeasureText(msg)
	rr.Text(msg, (Width-box.Width())/2, (Height+box.Height())/2)

	var buf bytes.Buffer
	if err := rr.Save(&buf); err != nil {
		return Image{}, apperrors.NewRenderError("placeholder", err)
	}
	return Image{Title: req.Title, Data: buf.Bytes(), Width: Width, Height: Height, Placeholder: true}, nil
}
