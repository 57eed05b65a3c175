package output

import (
	"context"
	"errors"

	"snapsearch/internal/domain/entity"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrNotFileInput    = errors.New("element is not a file input")
)

// RemoteBrowser attaches to an already running browser over its control
// channel.
type RemoteBrowser interface {
	Acquire(ctx context.Context, endpoint string) (BrowserSession, error)
}

// BrowserSession is one logical attachment. Close is idempotent.
type BrowserSession interface {
	OpenPage(ctx context.Context) (BrowserPage, error)
	Close(ctx context.Context) error
}

type BrowserPage interface {
	Navigate(ctx context.Context, url string) error

	// Exchanges subscribes to completed network exchanges. The subscription
	// is live when Exchanges returns and ends, closing the channel, when ctx
	// is done.
	Exchanges(ctx context.Context) (<-chan entity.Exchange, error)

	WaitElement(ctx context.Context, selector string) error
	WaitVisible(ctx context.Context, selector string) error

	// InjectFile hands the bytes to a file input without touching any
	// filesystem. It either sets the file and fires input/change, or fails
	// leaving the control untouched.
	InjectFile(ctx context.Context, selector string, file entity.UploadFile) error
	SetFiles(ctx context.Context, selector string, paths []string) error

	Screenshot(ctx context.Context) (*entity.Screenshot, error)
	HTML(ctx context.Context) (string, error)
}

// ControlInspector is implemented by pages that can list their interactive
// controls. It is optional; diagnostics skip the inventory without it.
type ControlInspector interface {
	Controls(ctx context.Context, limit int) ([]entity.Control, error)
}
