package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultMIMEType = "image/jpeg"

var (
	ErrEmptyImage     = errors.New("no image provided")
	ErrEmptyTargetURL = errors.New("target url is required")
	ErrBadDeadline    = errors.New("deadline must be positive")
)

// UploadParams is the raw input to NewUploadRequest.
type UploadParams struct {
	ID        string
	TargetURL string
	Image     []byte
	MIMEType  string
	Deadline  time.Duration
}

// UploadRequest is immutable once constructed; filename and extension are
// derived on demand.
type UploadRequest struct {
	id          string
	targetURL   string
	image       []byte
	mimeType    string
	deadline    time.Duration
	requestedAt time.Time
}

func NewUploadRequest(p UploadParams) (UploadRequest, error) {
	if len(p.Image) == 0 {
		return UploadRequest{}, ErrEmptyImage
	}
	if strings.TrimSpace(p.TargetURL) == "" {
		return UploadRequest{}, ErrEmptyTargetURL
	}
	if p.Deadline <= 0 {
		return UploadRequest{}, fmt.Errorf("%w: %s", ErrBadDeadline, p.Deadline)
	}

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	mime := strings.ToLower(strings.TrimSpace(p.MIMEType))
	if mime == "" {
		mime = DefaultMIMEType
	}

	image := make([]byte, len(p.Image))
	copy(image, p.Image)

	return UploadRequest{
		id:          id,
		targetURL:   p.TargetURL,
		image:       image,
		mimeType:    mime,
		deadline:    p.Deadline,
		requestedAt: time.Now(),
	}, nil
}

func (r UploadRequest) ID() string              { return r.id }
func (r UploadRequest) TargetURL() string       { return r.targetURL }
func (r UploadRequest) MIMEType() string        { return r.mimeType }
func (r UploadRequest) Deadline() time.Duration { return r.deadline }
func (r UploadRequest) Size() int               { return len(r.image) }

// Image returns the raw bytes. Callers must not modify the slice.
func (r UploadRequest) Image() []byte { return r.image }

func (r UploadRequest) Extension() string {
	return ExtensionForMIME(r.mimeType)
}

func (r UploadRequest) Filename() string {
	return fmt.Sprintf("image-%d%s", r.requestedAt.UnixMilli(), r.Extension())
}

// File is what the upload control receives.
func (r UploadRequest) File() UploadFile {
	return UploadFile{
		Name:     r.Filename(),
		MIMEType: r.mimeType,
		Data:     r.image,
	}
}

type UploadFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

func ExtensionForMIME(mime string) string {
	switch mime {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
