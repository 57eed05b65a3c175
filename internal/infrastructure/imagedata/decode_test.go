package imagedata

import (
	"encoding/base64"
	"testing"

	"snapsearch/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDecode(t *testing.T) {
	jpeg := base64.StdEncoding.EncodeToString(testutil.JPEGBytes)
	png := base64.StdEncoding.EncodeToString(pngHeader)

	tests := []struct {
		name string
		in   string
		mime string
	}{
		{"bare jpeg", jpeg, "image/jpeg"},
		{"data uri", "data:image/jpeg;base64," + jpeg, "image/jpeg"},
		{"data uri with wrong declared type", "data:image/gif;base64," + png, "image/png"},
		{"unpadded", base64.RawStdEncoding.EncodeToString(testutil.JPEGBytes), "image/jpeg"},
		{"wrapped lines", jpeg[:10] + "\n" + jpeg[10:], "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.mime, img.MIMEType)
			assert.NotEmpty(t, img.Data)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrEmpty},
		{"empty data uri", "data:image/png;base64,", ErrEmpty},
		{"not base64", "@@@not-base64@@@", ErrEncoding},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("hello, plain text")), ErrNotImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSniff(t *testing.T) {
	mime, err := Sniff(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, err = Sniff(nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Sniff([]byte("%PDF-1.4"))
	assert.ErrorIs(t, err, ErrNotImage)
}
