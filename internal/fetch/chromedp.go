package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrRendererUnavailable indicates headless Chrome could not be started.
// This is a setup failure and fatal to the run that needs rendering.
var ErrRendererUnavailable = errors.New("renderer unavailable")

// RenderConfig controls the chromedp-backed renderer.
type RenderConfig struct {
	UserAgent  string
	NavTimeout time.Duration
	// WaitSelector names the container element that signals the listing has
	// rendered. Empty means wait for <body> only.
	WaitSelector string
	// WaitTimeout bounds the container wait. A timeout degrades to whatever
	// rendered so far; it is not a fetch failure.
	WaitTimeout time.Duration
}

// ChromeRenderer fetches pages with JavaScript enabled via headless Chrome.
// One renderer is owned by exactly one pipeline instance and must be closed
// when the run finishes.
type ChromeRenderer struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	cfg             RenderConfig
	logger          *zap.Logger
}

// NewChromeRenderer starts a browser and warms it up. A warmup failure is a
// setup error; callers must surface it rather than degrade.
func NewChromeRenderer(cfg RenderConfig, logger *zap.Logger) (*ChromeRenderer, error) {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 30 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 15 * time.Second
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		allocatorCancel()
		browserCancel()
		return nil, fmt.Errorf("%w: chromedp warmup: %v", ErrRendererUnavailable, err)
	}

	return &ChromeRenderer{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		cfg:             cfg,
		logger:          logger,
	}, nil
}

// Close tears down the browser and allocator contexts.
func (r *ChromeRenderer) Close() {
	if r == nil {
		return
	}
	r.browserCancel()
	r.allocatorCancel()
}

// Fetch navigates with JavaScript enabled and returns the DOM snapshot.
func (r *ChromeRenderer) Fetch(ctx context.Context, rawURL string) (Page, error) {
	if r == nil {
		return Page{}, ErrRendererUnavailable
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, r.cfg.NavTimeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	meta := newResponseMeta()
	r.recordResponse(tabCtx, meta)

	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(r.cfg.UserAgent),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return Page{}, fmt.Errorf("chromedp navigate %s: %w", rawURL, err)
	}

	r.awaitContainer(tabCtx, rawURL)

	var html string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return Page{}, fmt.Errorf("chromedp snapshot %s: %w", rawURL, err)
	}

	return Page{
		URL:        rawURL,
		FinalURL:   meta.finalURL(rawURL),
		StatusCode: meta.statusCode,
		Headers:    meta.headers,
		Body:       []byte(html),
		Rendered:   true,
	}, nil
}

// awaitContainer blocks until the named container is visible or the bounded
// wait elapses. Timing out is best-effort degradation, not failure.
func (r *ChromeRenderer) awaitContainer(tabCtx context.Context, rawURL string) {
	if r.cfg.WaitSelector == "" {
		return
	}
	waitCtx, cancelWait := context.WithTimeout(tabCtx, r.cfg.WaitTimeout)
	defer cancelWait()
	err := chromedp.Run(waitCtx, chromedp.WaitVisible(r.cfg.WaitSelector, chromedp.ByQuery))
	if err != nil && r.logger != nil {
		r.logger.Warn("Container wait elapsed; using partially rendered DOM",
			zap.String("url", rawURL),
			zap.String("selector", r.cfg.WaitSelector),
			zap.Error(err),
		)
	}
}

type responseMeta struct {
	once       sync.Once
	statusCode int
	headers    http.Header
	url        string
}

func newResponseMeta() *responseMeta {
	return &responseMeta{
		headers: make(http.Header),
	}
}

func (m *responseMeta) finalURL(raw string) string {
	if m.url == "" {
		return raw
	}
	return m.url
}

func (r *ChromeRenderer) recordResponse(tabCtx context.Context, meta *responseMeta) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		meta.once.Do(func() {
			meta.statusCode = int(resp.Response.Status)
			meta.url = resp.Response.URL
			for k, v := range resp.Response.Headers {
				meta.headers.Add(k, fmt.Sprint(v))
			}
		})
	})
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
