package sessioninfra

import (
	"encoding/base64"

	"github.com/erpconnect/wagateway/sessions"
	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// NewQRRenderer produce imágenes QR como data URL PNG listas para
// incrustar en un <img> del lado cliente.
func NewQRRenderer() sessions.QRRenderer {
	return sessions.QRRendererFunc(func(code string) (string, error) {
		png, err := qrcode.Encode(code, qrcode.Medium, qrImageSize)
		if err != nil {
			return "", err
		}
		return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
	})
}
