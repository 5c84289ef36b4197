// Package qrcode renders short links as PNG QR codes embedded in data URIs.
package qrcode

import (
	"encoding/base64"
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

const DefaultSize = 256

type Encoder struct {
	size  int
	level qr.RecoveryLevel
}

func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &Encoder{size: size, level: qr.Medium}
}

// PNG returns the QR code for content as PNG bytes.
func (e *Encoder) PNG(content string) ([]byte, error) {
	png, err := qr.Encode(content, e.level, e.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

// DataURI returns the QR code for content as a data:image/png;base64 URI.
func (e *Encoder) DataURI(content string) (string, error) {
	png, err := e.PNG(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
