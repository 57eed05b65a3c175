package rod

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"snapsearch/internal/application/port/output"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/multierr"
)

var _ output.RemoteBrowser = (*RemoteBrowser)(nil)

var (
	ErrInvalidEndpoint = errors.New("invalid browser endpoint")
	ErrInvalidURL      = errors.New("invalid URL")
)

// blockedResources never reach the network when BlockResources is set.
var blockedResources = []proto.NetworkResourceType{
	proto.NetworkResourceTypeImage,
	proto.NetworkResourceTypeFont,
	proto.NetworkResourceTypeMedia,
}

type Config struct {
	BlockResources bool
	Incognito      bool
	// CloseBrowser shuts the remote browser down on session close instead of
	// only detaching from it. Only for browsers provisioned per connection.
	CloseBrowser bool
	// Trace logs every CDP call rod makes.
	Trace bool
}

func DefaultConfig() Config {
	return Config{
		BlockResources: true,
		Incognito:      true,
	}
}

// RemoteBrowser attaches to browsers that are already running elsewhere,
// addressed by a DevTools websocket or HTTP endpoint.
type RemoteBrowser struct {
	cfg    Config
	logger output.LoggerPort
}

func NewRemoteBrowser(cfg Config, logger output.LoggerPort) *RemoteBrowser {
	return &RemoteBrowser{cfg: cfg, logger: logger}
}

func (b *RemoteBrowser) Acquire(ctx context.Context, endpoint string) (output.BrowserSession, error) {
	wsURL, header, err := resolveEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	ws := &cdp.WebSocket{}
	if err := ws.Connect(ctx, wsURL, header); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	sessCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	root := rod.New().Client(cdp.New().Start(ws)).Context(sessCtx).Trace(b.cfg.Trace)
	if err := root.Connect(); err != nil {
		cancel()
		_ = ws.Close()
		return nil, fmt.Errorf("attach to browser: %w", err)
	}

	s := &Session{
		cfg:     b.cfg,
		logger:  b.logger,
		ctx:     sessCtx,
		cancel:  cancel,
		ws:      ws,
		root:    root,
		browser: root,
	}

	if b.cfg.Incognito {
		incognito, err := root.Incognito()
		if err != nil {
			b.logger.Warn("Incognito context unavailable, using default context", "error", err)
		} else {
			s.browser = incognito
		}
	}

	b.logger.Debug("Attached to remote browser", "incognito", s.browser != root)
	return s, nil
}

// resolveEndpoint turns endpoint into a websocket URL. HTTP endpoints are
// resolved through /json/version; credentials in the URL become a Basic
// Authorization header.
func resolveEndpoint(endpoint string) (string, http.Header, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || u.Host == "" {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}

	header := http.Header{}
	if u.User != nil {
		user := u.User.Username()
		pass, _ := u.User.Password()
		header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(user+":"+pass)))
	}

	switch u.Scheme {
	case "ws", "wss":
		return u.String(), header, nil
	case "http", "https":
		resolved, err := launcher.ResolveURL(u.String())
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
		}
		return resolved, header, nil
	default:
		return "", nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEndpoint, u.Scheme)
	}
}

var _ output.BrowserSession = (*Session)(nil)

type Session struct {
	cfg    Config
	logger output.LoggerPort
	ctx    context.Context
	cancel context.CancelFunc
	ws     *cdp.WebSocket
	root   *rod.Browser
	// browser is the incognito context when one was created, else root.
	browser *rod.Browser

	mu    sync.Mutex
	pages []*Page

	once     sync.Once
	closeErr error
}

func (s *Session) OpenPage(ctx context.Context) (output.BrowserPage, error) {
	created, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	p := &Page{page: created.Context(s.ctx), logger: s.logger}

	if s.cfg.BlockResources {
		router := p.page.HijackRequests()
		for _, rt := range blockedResources {
			if err := router.Add("*", rt, blockRequest); err != nil {
				_ = router.Stop()
				_ = p.page.Close()
				return nil, fmt.Errorf("install resource blocking: %w", err)
			}
		}
		go router.Run()
		p.router = router
	}

	s.mu.Lock()
	s.pages = append(s.pages, p)
	s.mu.Unlock()
	return p, nil
}

func blockRequest(h *rod.Hijack) {
	h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
}

// Close releases pages, the incognito context and, when configured, the
// browser itself. Safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.once.Do(func() {
		var err error

		s.mu.Lock()
		pages := s.pages
		s.pages = nil
		s.mu.Unlock()

		for _, p := range pages {
			err = multierr.Append(err, p.close(ctx))
		}

		if s.browser != s.root {
			if cerr := s.browser.Context(ctx).Close(); cerr != nil {
				err = multierr.Append(err, fmt.Errorf("dispose incognito context: %w", cerr))
			}
		}
		if s.cfg.CloseBrowser {
			if cerr := s.root.Context(ctx).Close(); cerr != nil {
				err = multierr.Append(err, fmt.Errorf("close browser: %w", cerr))
			}
		}

		s.cancel()
		if cerr := s.ws.Close(); cerr != nil && s.cfg.CloseBrowser {
			// Browser.close usually drops the socket first.
			s.logger.Debug("Websocket close", "error", cerr)
		} else if cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close websocket: %w", cerr))
		}

		s.closeErr = err
	})
	return s.closeErr
}
