package scan

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder extracts a QR payload from a sampled frame. The payload is opaque:
// the client forwards it to the server without interpreting it.
type Decoder interface {
	Decode(img image.Image) (payload string, ok bool)
}

// QRDecoder decodes QR codes with the zxing port. Frames without a readable
// code simply report ok=false; decode noise is expected while the user aims
// the camera.
type QRDecoder struct {
	reader gozxing.Reader
}

// NewQRDecoder creates a QR-only decoder.
func NewQRDecoder() *QRDecoder {
	return &QRDecoder{reader: qrcode.NewQRCodeReader()}
}

func (d *QRDecoder) Decode(img image.Image) (string, bool) {
	if img == nil {
		return "", false
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	res, err := d.reader.Decode(bmp, nil)
	if err != nil || res == nil {
		return "", false
	}
	return res.GetText(), true
}
