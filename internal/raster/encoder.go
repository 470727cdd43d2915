package raster

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"

	"github.com/printbridge/labelctl/internal/protocol"
)

// Thresholds for classifying a source pixel as ink: it must be mostly
// opaque and darker than mid grey.
const (
	alphaThreshold     = 128
	luminanceThreshold = 128
)

// rowHeaderLen is the fixed prefix of every row packet payload: a 2-byte
// row index, 3 reserved zero bytes, and a flag byte set to 1.
const rowHeaderLen = 6

// EncodeRows converts a tightly packed RGBA8 buffer (width*height*4 bytes)
// into one encoded row packet per image row. Packets must be transmitted in
// the returned order; the printer cannot reorder rows.
func EncodeRows(pix []byte, width, height int) ([][]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: raster dimensions %dx%d", protocol.ErrInvalidArgument, width, height)
	}
	if height > 0xFFFF {
		return nil, fmt.Errorf("%w: raster height %d exceeds row index range", protocol.ErrInvalidArgument, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("%w: raster buffer %d bytes, want %d", protocol.ErrInvalidArgument, len(pix), width*height*4)
	}
	rowBytes := (width + 7) / 8
	if rowHeaderLen+rowBytes > protocol.MaxPayloadLen {
		return nil, fmt.Errorf("%w: raster width %d overflows frame payload", protocol.ErrInvalidArgument, width)
	}

	packets := make([][]byte, 0, height)
	for y := 0; y < height; y++ {
		payload := make([]byte, rowHeaderLen+rowBytes)
		// Row index is big-endian, matching every other multi-byte
		// integer in the protocol.
		binary.BigEndian.PutUint16(payload[0:2], uint16(y))
		payload[5] = 1

		row := pix[y*width*4 : (y+1)*width*4]
		for x := 0; x < width; x++ {
			if ink(row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]) {
				payload[rowHeaderLen+x/8] |= 1 << (7 - x%8)
			}
		}

		packet, err := protocol.Encode(protocol.TypeImageRow, payload)
		if err != nil {
			return nil, err
		}
		packets = append(packets, packet)
	}
	return packets, nil
}

// ink classifies one pixel: opaque enough and dark enough to print.
func ink(r, g, b, a byte) bool {
	if a < alphaThreshold {
		return false
	}
	return luminance(r, g, b) < luminanceThreshold
}

// luminance is the rounded ITU-R BT.601 weighting 0.299R + 0.587G + 0.114B.
func luminance(r, g, b byte) int {
	return int(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b) + 0.5)
}

// FromImage flattens any image into the tightly packed RGBA8 buffer
// EncodeRows expects.
func FromImage(img image.Image) ([]byte, int, int) {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || bounds.Min != (image.Point{}) {
		normalized := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(normalized, normalized.Bounds(), img, bounds.Min, draw.Src)
		rgba = normalized
	}
	return rgba.Pix, bounds.Dx(), bounds.Dy()
}
