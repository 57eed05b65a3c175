// Package imagedata turns the base64 image field of an inbound request into
// raw bytes and a sniffed MIME type.
package imagedata

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrEmpty    = errors.New("image data is empty")
	ErrEncoding = errors.New("image data is not valid base64")
	ErrNotImage = errors.New("data is not an image")
	ErrTooLarge = errors.New("image exceeds size limit")
)

// MaxBytes bounds a decoded image.
const MaxBytes = 20 << 20

type Image struct {
	Data     []byte
	MIMEType string
}

// Decode accepts either a bare base64 string or a data URI. The MIME type is
// taken from the bytes themselves; a data URI's declared type is ignored.
func Decode(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ","); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+1:]
	}
	if s == "" {
		return Image{}, ErrEmpty
	}
	if base64.StdEncoding.DecodedLen(len(s)) > MaxBytes+3 {
		return Image{}, ErrTooLarge
	}

	data, err := decodeBase64(s)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	mime, err := Sniff(data)
	if err != nil {
		return Image{}, err
	}
	return Image{Data: data, MIMEType: mime}, nil
}

// Sniff reports the image MIME type of data, or ErrNotImage.
func Sniff(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if len(data) > MaxBytes {
		return "", ErrTooLarge
	}
	mime := http.DetectContentType(data)
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mime)
	}
	return mime, nil
}

// decodeBase64 tolerates missing padding and embedded whitespace.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
