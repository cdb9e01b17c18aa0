package dispatch

import (
	"encoding/base64"
	"errors"
	"mime"
	"net/http"
	"strings"
)

var ErrInvalidObjectURL = errors.New("invalid object url")

// Blob is an image payload as returned by the generation endpoint.
type Blob struct {
	Data        []byte
	ContentType string
}

// ObjectURL returns a self-contained data URL for b that an img element can
// reference. An empty content type is sniffed from the data.
func ObjectURL(b Blob) string {
	ct := b.ContentType
	if ct == "" {
		ct = http.DetectContentType(b.Data)
	}
	if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mediaType
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}

// ResolveObjectURL is the inverse of ObjectURL.
func ResolveObjectURL(src string) (Blob, error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return Blob{}, ErrInvalidObjectURL
	}
	ct, encoded, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return Blob{}, ErrInvalidObjectURL
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Blob{}, errors.Join(ErrInvalidObjectURL, err)
	}
	return Blob{Data: data, ContentType: ct}, nil
}
