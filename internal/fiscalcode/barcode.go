package fiscalcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"

	svg "github.com/ajstarks/svgo"
	"github.com/boombuler/barcode/twooffive"

	"github.com/rezonia/afip-invoicer/internal/model"
)

const (
	moduleWidth = 2
	barHeight   = 60
	quietZone   = 10
	textHeight  = 18

	dataURIPrefix = "data:image/svg+xml;base64,"
)

// BarcodePayload is a rendered Interleaved 2 of 5 barcode.
type BarcodePayload struct {
	Code    string `json:"code"`
	SVG     []byte `json:"-"`
	DataURI string `json:"data_uri"`
}

// Barcode renders the code of r as an Interleaved 2 of 5 SVG.
func Barcode(r *model.Receipt) (BarcodePayload, error) {
	code, err := Code(r)
	if err != nil {
		return BarcodePayload{}, err
	}

	image, err := RenderSVG(code)
	if err != nil {
		return BarcodePayload{}, err
	}

	return BarcodePayload{
		Code:    code,
		SVG:     image,
		DataURI: dataURIPrefix + base64.StdEncoding.EncodeToString(image),
	}, nil
}

// RenderSVG draws an even-length digit string as Interleaved 2 of 5 with the
// digits printed underneath.
func RenderSVG(code string) ([]byte, error) {
	bc, err := twooffive.Encode(code, true)
	if err != nil {
		return nil, fmt.Errorf("fiscalcode: encode %q: %w", code, err)
	}

	bounds := bc.Bounds()
	modules := bounds.Dx()
	width := (modules + 2*quietZone) * moduleWidth
	height := barHeight + textHeight

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:white")

	for x := 0; x < modules; {
		if !isBar(bc.At(bounds.Min.X+x, bounds.Min.Y)) {
			x++
			continue
		}
		start := x
		for x < modules && isBar(bc.At(bounds.Min.X+x, bounds.Min.Y)) {
			x++
		}
		canvas.Rect((quietZone+start)*moduleWidth, 0, (x-start)*moduleWidth, barHeight, "fill:black")
	}

	canvas.Text(width/2, height-4, code, "text-anchor:middle;font-family:monospace;font-size:12px")
	canvas.End()

	return buf.Bytes(), nil
}

func isBar(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0 && g == 0 && b == 0
}
