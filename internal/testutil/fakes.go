package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"snapsearch/internal/application/port/output"
	"snapsearch/internal/domain/entity"
)

var (
	_ output.RemoteBrowser    = (*FakeBrowser)(nil)
	_ output.BrowserSession   = (*FakeSession)(nil)
	_ output.BrowserPage      = (*FakePage)(nil)
	_ output.ControlInspector = (*FakePage)(nil)
	_ output.ArtifactStore    = (*FakeStore)(nil)
	_ output.MetricsPort      = (*FakeMetrics)(nil)
)

// JSONExchange builds a completed exchange whose body is served from memory.
func JSONExchange(url string, status int, body string) entity.Exchange {
	return entity.Exchange{
		RequestID:    fmt.Sprintf("req-%d", time.Now().UnixNano()),
		URL:          url,
		Status:       status,
		MIMEType:     "application/json",
		ResourceType: "Fetch",
		Body: func(ctx context.Context) ([]byte, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return []byte(body), nil
		},
	}
}

type FakeBrowser struct {
	Session *FakeSession
	// AcquireFunc overrides the default behavior when set.
	AcquireFunc func(ctx context.Context, endpoint string) (output.BrowserSession, error)

	mu        sync.Mutex
	endpoints []string
}

func NewFakeBrowser(page *FakePage) *FakeBrowser {
	return &FakeBrowser{Session: &FakeSession{Page: page}}
}

func (b *FakeBrowser) Acquire(ctx context.Context, endpoint string) (output.BrowserSession, error) {
	b.mu.Lock()
	b.endpoints = append(b.endpoints, endpoint)
	b.mu.Unlock()

	if b.AcquireFunc != nil {
		return b.AcquireFunc(ctx, endpoint)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.Session, nil
}

func (b *FakeBrowser) Endpoints() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.endpoints...)
}

type FakeSession struct {
	Page     *FakePage
	OpenErr  error
	CloseErr error

	closes atomic.Int32
}

func (s *FakeSession) OpenPage(ctx context.Context) (output.BrowserPage, error) {
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	return s.Page, nil
}

func (s *FakeSession) Close(ctx context.Context) error {
	s.closes.Add(1)
	if s.Page != nil {
		s.Page.closeSubscribers()
	}
	return s.CloseErr
}

func (s *FakeSession) Closes() int {
	return int(s.closes.Load())
}

// FakePage is a scripted page. Exchanges emitted with Emit reach only the
// subscribers registered at that moment, as on a real page.
type FakePage struct {
	NavigateFunc    func(ctx context.Context, url string) error
	WaitElementFunc func(ctx context.Context, selector string) error
	InjectFunc      func(ctx context.Context, selector string, file entity.UploadFile) error
	// OnUpload runs after a successful upload, in its own goroutine.
	OnUpload      func(p *FakePage)
	ScreenshotErr error
	HTMLContent   string
	ControlList   []entity.Control

	mu          sync.Mutex
	subs        map[int]chan entity.Exchange
	nextSub     int
	visible     chan struct{}
	visibleOnce sync.Once
	navigations []string
	uploads     []entity.UploadFile
	filePaths   [][]string
	shots       int
}

func NewFakePage() *FakePage {
	return &FakePage{
		subs:    make(map[int]chan entity.Exchange),
		visible: make(chan struct{}),
	}
}

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	p.navigations = append(p.navigations, url)
	p.mu.Unlock()
	if p.NavigateFunc != nil {
		return p.NavigateFunc(ctx, url)
	}
	return ctx.Err()
}

func (p *FakePage) Exchanges(ctx context.Context) (<-chan entity.Exchange, error) {
	ch := make(chan entity.Exchange, 16)

	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		if c, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(c)
		}
		p.mu.Unlock()
	}()
	return ch, nil
}

// Emit delivers ex to every live subscriber.
func (p *FakePage) Emit(ex entity.Exchange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- ex:
		default:
		}
	}
}

func (p *FakePage) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

func (p *FakePage) closeSubscribers() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
}

// ShowResults makes the results region visible. Safe to call repeatedly.
func (p *FakePage) ShowResults() {
	p.visibleOnce.Do(func() { close(p.visible) })
}

func (p *FakePage) WaitElement(ctx context.Context, selector string) error {
	if p.WaitElementFunc != nil {
		return p.WaitElementFunc(ctx, selector)
	}
	return ctx.Err()
}

func (p *FakePage) WaitVisible(ctx context.Context, selector string) error {
	select {
	case <-p.visible:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *FakePage) InjectFile(ctx context.Context, selector string, file entity.UploadFile) error {
	if p.InjectFunc != nil {
		if err := p.InjectFunc(ctx, selector, file); err != nil {
			return err
		}
	}
	p.mu.Lock()
	p.uploads = append(p.uploads, file)
	p.mu.Unlock()
	p.fireUpload()
	return nil
}

func (p *FakePage) SetFiles(ctx context.Context, selector string, paths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.filePaths = append(p.filePaths, append([]string(nil), paths...))
	p.mu.Unlock()
	p.fireUpload()
	return nil
}

func (p *FakePage) fireUpload() {
	if p.OnUpload != nil {
		go p.OnUpload(p)
	}
}

func (p *FakePage) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	p.mu.Lock()
	p.shots++
	p.mu.Unlock()
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	return &entity.Screenshot{Data: JPEGBytes, Format: "jpeg", Width: 1, Height: 1}, nil
}

func (p *FakePage) HTML(ctx context.Context) (string, error) {
	return p.HTMLContent, nil
}

func (p *FakePage) Controls(ctx context.Context, limit int) ([]entity.Control, error) {
	if len(p.ControlList) > limit {
		return p.ControlList[:limit], nil
	}
	return p.ControlList, nil
}

func (p *FakePage) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

func (p *FakePage) Uploads() []entity.UploadFile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.UploadFile(nil), p.uploads...)
}

func (p *FakePage) FilePaths() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]string(nil), p.filePaths...)
}

func (p *FakePage) Screenshots() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shots
}

// FakeStore keeps artifacts in memory.
type FakeStore struct {
	SaveErr error

	mu      sync.Mutex
	saved   []string
	temps   map[string][]byte
	removed []string
}

func NewFakeStore() *FakeStore {
	return &FakeStore{temps: make(map[string][]byte)}
}

func (s *FakeStore) SaveScreenshot(name string, shot *entity.Screenshot) (string, error) {
	if s.SaveErr != nil {
		return "", s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, name)
	return "mem://" + name, nil
}

func (s *FakeStore) SaveDOM(name string, html string) (string, error) {
	if s.SaveErr != nil {
		return "", s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, name)
	return "mem://" + name, nil
}

func (s *FakeStore) CreateTemp(name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := "/tmp/fake/" + name
	s.temps[path] = append([]byte(nil), data...)
	return path, nil
}

func (s *FakeStore) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.temps, path)
	s.removed = append(s.removed, path)
	return nil
}

func (s *FakeStore) Saved() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.saved...)
}

// Temps lists temporary files not yet removed.
func (s *FakeStore) Temps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.temps))
	for p := range s.temps {
		out = append(out, p)
	}
	return out
}

func (s *FakeStore) Removed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.removed...)
}

// FakeMetrics records every call.
type FakeMetrics struct {
	mu       sync.Mutex
	started  int
	finished []entity.ErrorKind
	states   []entity.WorkflowState
}

func (m *FakeMetrics) WorkflowStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *FakeMetrics) WorkflowFinished(kind entity.ErrorKind, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = append(m.finished, kind)
}

func (m *FakeMetrics) StateEntered(state entity.WorkflowState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, state)
}

func (m *FakeMetrics) Started() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

func (m *FakeMetrics) Finished() []entity.ErrorKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.ErrorKind(nil), m.finished...)
}

func (m *FakeMetrics) States() []entity.WorkflowState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.WorkflowState(nil), m.states...)
}
