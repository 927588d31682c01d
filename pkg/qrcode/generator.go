package qrcode

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent    = errors.New("content cannot be empty")
	ErrInvalidBaseURL  = errors.New("menu base url must be absolute")
	ErrBusinessMissing = errors.New("business id is required")
	ErrFailedToEncode  = errors.New("failed to generate QR code")
)

// DefaultSize is the PNG edge length in pixels used when size <= 0.
const DefaultSize = 256

// Generate encodes content as a PNG QR code.
func Generate(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrFailedToEncode, err)
	}
	return png, nil
}

// GenerateDataURI returns the QR code as a data:image/png URI for <img src>.
func GenerateDataURI(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// MenuURL builds the public menu link customers scan at the table:
// <base>/menu/<businessID>.
func MenuURL(base, businessID string) (string, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return "", ErrBusinessMissing
	}
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", ErrInvalidBaseURL
	}
	return u.JoinPath("menu", businessID).String(), nil
}

// MenuQR renders the menu link of businessID as a PNG.
func MenuQR(base, businessID string, size int) ([]byte, error) {
	link, err := MenuURL(base, businessID)
	if err != nil {
		return nil, err
	}
	return Generate(link, size)
}
