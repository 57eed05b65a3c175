package rod

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/url"
	"strings"

	"snapsearch/internal/application/port/output"
	"snapsearch/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
	"go.uber.org/multierr"
)

var _ output.BrowserPage = (*Page)(nil)

const notFileInputMarker = "snapsearch:not-file-input"

// injectFileJS builds a File from base64 data inside the page and assigns it
// to the input through a DataTransfer. Nothing is assigned unless every step
// succeeds.
const injectFileJS = `function (b64, name, type) {
	if (!(this instanceof HTMLInputElement) || this.type !== "file") {
		throw new Error("` + notFileInputMarker + `");
	}
	const raw = atob(b64);
	const bytes = new Uint8Array(raw.length);
	for (let i = 0; i < raw.length; i++) {
		bytes[i] = raw.charCodeAt(i);
	}
	const file = new File([bytes], name, { type: type });
	const dt = new DataTransfer();
	dt.items.add(file);
	this.files = dt.files;
	this.dispatchEvent(new Event("input", { bubbles: true }));
	this.dispatchEvent(new Event("change", { bubbles: true }));
	return this.files.length;
}`

type Page struct {
	page   *rod.Page
	router *rod.HijackRouter
	logger output.LoggerPort
}

func (p *Page) Navigate(ctx context.Context, rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}

	page := p.page.Context(ctx)
	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(rawURL); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("waiting for DOMContentLoaded: %w", err)
	}
	return nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	return nil
}

// Exchanges reports each response once its body has fully arrived. Bodies
// are fetched on demand through Network.getResponseBody.
func (p *Page) Exchanges(ctx context.Context) (<-chan entity.Exchange, error) {
	page := p.page.Context(ctx)
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return nil, fmt.Errorf("enable network events: %w", err)
	}

	out := make(chan entity.Exchange, 16)
	pending := make(map[proto.NetworkRequestID]*proto.NetworkResponseReceived)

	wait := page.EachEvent(
		func(e *proto.NetworkResponseReceived) {
			pending[e.RequestID] = e
		},
		func(e *proto.NetworkLoadingFinished) {
			resp, ok := pending[e.RequestID]
			if !ok {
				return
			}
			delete(pending, e.RequestID)
			select {
			case out <- p.exchange(resp):
			case <-ctx.Done():
			}
		},
		func(e *proto.NetworkLoadingFailed) {
			delete(pending, e.RequestID)
		},
	)

	go func() {
		defer close(out)
		wait()
	}()
	return out, nil
}

func (p *Page) exchange(e *proto.NetworkResponseReceived) entity.Exchange {
	ex := entity.Exchange{
		RequestID:    string(e.RequestID),
		ResourceType: string(e.Type),
	}
	if e.Response != nil {
		ex.URL = e.Response.URL
		ex.Status = e.Response.Status
		ex.MIMEType = e.Response.MIMEType
	}

	id := e.RequestID
	ex.Body = func(ctx context.Context) ([]byte, error) {
		res, err := proto.NetworkGetResponseBody{RequestID: id}.Call(p.page.Context(ctx))
		if err != nil {
			return nil, err
		}
		if res.Base64Encoded {
			return base64.StdEncoding.DecodeString(res.Body)
		}
		return []byte(res.Body), nil
	}
	return ex
}

func (p *Page) WaitElement(ctx context.Context, selector string) error {
	if _, err := p.page.Context(ctx).Element(selector); err != nil {
		return fmt.Errorf("element %s: %w", selector, err)
	}
	return nil
}

func (p *Page) WaitVisible(ctx context.Context, selector string) error {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("element %s: %w", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("element %s not visible: %w", selector, err)
	}
	return nil
}

func (p *Page) InjectFile(ctx context.Context, selector string, file entity.UploadFile) error {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return fmt.Errorf("query %s: %w", selector, err)
	}
	if els.Empty() {
		return fmt.Errorf("%w: %s", output.ErrElementNotFound, selector)
	}

	res, err := els.First().Eval(injectFileJS, base64.StdEncoding.EncodeToString(file.Data), file.Name, file.MIMEType)
	if err != nil {
		if strings.Contains(err.Error(), notFileInputMarker) {
			return fmt.Errorf("%w: %s", output.ErrNotFileInput, selector)
		}
		return fmt.Errorf("inject file: %w", err)
	}
	if n := res.Value.Int(); n != 1 {
		return fmt.Errorf("inject file: control holds %d files", n)
	}

	p.logger.Debug("File injected", "selector", selector, "name", file.Name, "bytes", len(file.Data))
	return nil
}

func (p *Page) SetFiles(ctx context.Context, selector string, paths []string) error {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("element %s: %w", selector, err)
	}
	if err := el.SetFiles(paths); err != nil {
		return fmt.Errorf("set files: %w", err)
	}
	return nil
}

func (p *Page) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	imgBytes, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > 1024 {
		img = imaging.Resize(img, 1024, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (p *Page) close(ctx context.Context) error {
	var err error
	if p.router != nil {
		err = multierr.Append(err, p.router.Stop())
	}
	if cerr := p.page.Context(ctx).Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("close page: %w", cerr))
	}
	return err
}
