// Package qrcode renders the request form URL as a scannable PNG.
package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const (
	DefaultSize = 256
	MinSize     = 64
	MaxSize     = 2048
)

var ErrEmptyContent = errors.New("qrcode: content is empty")

// WritePNG encodes content as a size x size PNG QR code into w.
func WritePNG(w io.Writer, content string, size int) error {
	img, err := Encode(content, size)
	if err != nil {
		return err
	}
	return encodePNG(w, img)
}

// PNG is WritePNG into a byte slice.
func PNG(content string, size int) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, content, size); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode returns the scaled QR symbol. size is clamped to [MinSize, MaxSize];
// zero selects DefaultSize.
func Encode(content string, size int) (barcode.Barcode, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode: %w", err)
	}
	scaled, err := barcode.Scale(code, clamp(size), clamp(size))
	if err != nil {
		return nil, fmt.Errorf("qrcode: scale: %w", err)
	}
	return scaled, nil
}

func clamp(size int) int {
	switch {
	case size == 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	}
	return size
}
