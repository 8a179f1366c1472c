package sensor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"observer/internal/config"
	"observer/internal/mangle"
	"observer/internal/signal"
)

// toastSelector and modalSelector match the DOM conventions common
// front-end toast/modal libraries (react-toastify, MUI, Bootstrap)
// render under: a role/aria hook first, a class-name fallback second.
const (
	toastSelector = `[role="status"], [role="alert"], .toast, .Toastify__toast, .MuiSnackbar-root`
	modalSelector = `[role="dialog"], [aria-modal="true"], .modal.show, .MuiModal-root`
)

// RodSource is the real-browser SignalSource: it drives one Chrome
// page via go-rod and classifies DOM/network/console facts through a
// Mangle engine to decide which signal.Kinds an interaction produced.
type RodSource struct {
	cfg    config.Browser
	log    *zap.Logger
	engine *mangle.Engine

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
}

// NewRodSource builds a RodSource bound to cfg, loading the DOM fact
// schema and classification rules into a fresh Mangle engine.
func NewRodSource(cfg config.Browser, logger *zap.Logger) (*RodSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	engine, err := mangle.NewEngine(mangle.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("sensor: construct mangle engine: %w", err)
	}
	if err := engine.LoadSchemaString(domFactSchema); err != nil {
		return nil, fmt.Errorf("sensor: load dom fact schema: %w", err)
	}
	if err := engine.LoadSchemaString(domRules); err != nil {
		return nil, fmt.Errorf("sensor: load dom classification rules: %w", err)
	}
	return &RodSource{cfg: cfg, log: logger, engine: engine}, nil
}

// start connects to an existing debugger URL if one's reachable,
// launching a new Chrome instance only as a fallback.
func (s *RodSource) start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		if _, err := s.browser.Version(); err == nil {
			return nil
		}
		_ = s.browser.Close()
		s.browser = nil
		s.page = nil
	}

	controlURL := s.cfg.DebuggerURL
	if controlURL == "" && len(s.cfg.Launch) > 0 {
		bin := s.cfg.Launch[0]
		launch := launcher.New().Bin(bin).Headless(s.cfg.Headless)
		for _, rawFlag := range s.cfg.Launch[1:] {
			flagStr := strings.TrimLeft(rawFlag, "-")
			name, val, hasVal := strings.Cut(flagStr, "=")
			if hasVal {
				launch = launch.Set(flags.Flag(name), val)
			} else {
				launch = launch.Set(flags.Flag(name))
			}
		}
		url, err := launch.Launch()
		if err != nil {
			return fmt.Errorf("sensor: launch chrome: %w", err)
		}
		controlURL = url
	}
	if controlURL == "" {
		url, err := launcher.New().Headless(s.cfg.Headless).Launch()
		if err != nil {
			return fmt.Errorf("sensor: no debugger_url and default launch failed: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("sensor: connect to chrome: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("sensor: open page: %w", err)
	}
	if s.cfg.ViewportWidth > 0 && s.cfg.ViewportHeight > 0 {
		if err := (proto.EmulationSetDeviceMetricsOverride{
			Width:             s.cfg.ViewportWidth,
			Height:            s.cfg.ViewportHeight,
			DeviceScaleFactor: 1.0,
			Mobile:            false,
		}).Call(page); err != nil {
			s.log.Warn("set viewport failed", zap.Error(err))
		}
	}
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		s.log.Warn("enable network domain failed", zap.Error(err))
	}
	if err := (proto.RuntimeEnable{}).Call(page); err != nil {
		s.log.Warn("enable runtime domain failed", zap.Error(err))
	}

	s.browser = browser
	s.page = page
	return nil
}

// Navigate implements Source.
func (s *RodSource) Navigate(ctx context.Context, url string) error {
	if err := s.start(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	page := s.page
	s.mu.Unlock()
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("sensor: navigate to %s: %w", url, err)
	}
	return page.WaitLoad()
}

// Observe implements Source: it snapshots the page, streams CDP
// network/console events for the whole timeout window, re-snapshots,
// and classifies the delta plus the streamed events through the Mangle
// engine into the signal vocabulary. It does not click, submit or
// navigate for interaction; whatever changes the page during the
// window is what gets observed.
func (s *RodSource) Observe(ctx context.Context, interaction Interaction, timeout time.Duration) (Observation, error) {
	if err := s.start(ctx); err != nil {
		return Observation{}, err
	}

	s.mu.Lock()
	page := s.page
	s.mu.Unlock()

	before, err := s.snapshot(page)
	if err != nil {
		return Observation{}, fmt.Errorf("sensor: snapshot before interaction: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	capture := newEventCapture()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.watchEvents(waitCtx, page, capture)
	}()

	<-waitCtx.Done()
	wg.Wait()

	after, err := s.snapshot(page)
	if err != nil {
		return Observation{}, fmt.Errorf("sensor: snapshot after interaction: %w", err)
	}

	return s.classify(before, after, capture), nil
}

// Close implements Source.
func (s *RodSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	s.browser = nil
	s.page = nil
	return err
}

// domSnapshot is the raw page state captured before/after an
// interaction window.
type domSnapshot struct {
	htmlLength     int
	visibleNodes   int
	url            string
	toastCandidate bool
	modalCandidate bool
}

func (s *RodSource) snapshot(page *rod.Page) (domSnapshot, error) {
	html, err := page.HTML()
	if err != nil {
		return domSnapshot{}, err
	}
	info, err := page.Info()
	url := ""
	if err == nil && info != nil {
		url = info.URL
	}
	visible, err := page.Elements("body *:not([style*='display: none']):not([style*='visibility: hidden'])")
	count := 0
	if err == nil {
		count = len(visible)
	}
	toasts, _ := page.Elements(toastSelector)
	modals, _ := page.Elements(modalSelector)
	return domSnapshot{
		htmlLength:     len(html),
		visibleNodes:   count,
		url:            url,
		toastCandidate: len(toasts) > 0,
		modalCandidate: len(modals) > 0,
	}, nil
}

// eventCapture accumulates the network response counters and status
// a watchEvents goroutine observes during one interaction window, so
// classify can summarize them into Observation fields after the
// window closes. The raw events themselves are pushed into the Mangle
// engine as facts in parallel (watchEvents), so classify also derives
// console/network findings through the engine's rules independently
// of this struct's counters.
type eventCapture struct {
	mu                sync.Mutex
	requestsSent      int
	responsesReceived int
	worstStatus       int
	authChallenge     bool
}

func newEventCapture() *eventCapture {
	return &eventCapture{}
}

func (c *eventCapture) recordRequest() {
	c.mu.Lock()
	c.requestsSent++
	c.mu.Unlock()
}

// recordResponse keeps the most diagnostically significant status
// code seen: a 401/403/5xx outranks any prior 2xx/3xx/4xx, since
// evidence law cares about the presence of a hard failure status, not
// the order responses arrived in.
func (c *eventCapture) recordResponse(status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responsesReceived++
	if status == 401 || status == 403 {
		c.authChallenge = true
	}
	if c.worstStatus == 0 || isMoreSevere(status, c.worstStatus) {
		c.worstStatus = status
	}
}

func isMoreSevere(candidate, current int) bool {
	rank := func(status int) int {
		switch {
		case status == 401 || status == 403 || status >= 500:
			return 3
		case status >= 400:
			return 2
		default:
			return 1
		}
	}
	return rank(candidate) > rank(current)
}

func (c *eventCapture) snapshot() (status int, authChallenge bool, requestsSent, responsesReceived int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.worstStatus, c.authChallenge, c.requestsSent, c.responsesReceived
}

// watchEvents streams CDP network/console events for the lifetime of
// ctx, pushing each into the Mangle engine as a raw fact
// (net_request/net_response/console_event/auth_challenge_event,
// domfacts.go) and mirroring the network counters into capture so
// classify can summarize without re-querying the engine per field.
// Returns once ctx is done, binding the listener loop's lifetime
// directly to the caller's context rather than an explicit stop
// channel.
func (s *RodSource) watchEvents(ctx context.Context, page *rod.Page, capture *eventCapture) {
	wait := page.Context(ctx).EachEvent(
		func(ev *proto.NetworkRequestWillBeSent) {
			capture.recordRequest()
			_ = s.engine.PushFact("net_request", string(ev.RequestID), string(ev.Request.Method), ev.Request.URL)
		},
		func(ev *proto.NetworkResponseReceived) {
			status := 0
			if ev.Response != nil {
				status = ev.Response.Status
			}
			capture.recordResponse(status)
			_ = s.engine.PushFact("net_response", string(ev.RequestID), fmt.Sprintf("%d", status))
			if status == 401 || status == 403 {
				_ = s.engine.PushFact("auth_challenge_event")
			}
		},
		func(ev *proto.RuntimeConsoleAPICalled) {
			_ = s.engine.PushFact("console_event", string(ev.Type), stringifyConsoleArgs(ev.Args))
		},
	)
	wait()
}

func stringifyConsoleArgs(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if arg.Description != "" {
			parts = append(parts, arg.Description)
			continue
		}
		parts = append(parts, string(arg.Value))
	}
	return strings.Join(parts, " ")
}

// classify turns a before/after snapshot pair plus the interaction
// window's captured network/console events into the observed signal
// set. It derives facts through the Mangle engine
// (substantive_dom_change / toast_appeared / modal_appeared /
// console_error_present / network_error_response, domfacts.go) rather
// than hand-rolling the same conditionals in Go.
func (s *RodSource) classify(before, after domSnapshot, capture *eventCapture) Observation {
	now := time.Now()
	var signals []signal.Signal

	addedBytes := after.htmlLength - before.htmlLength
	addedNodes := after.visibleNodes - before.visibleNodes
	if addedBytes != 0 || addedNodes != 0 {
		// Push the raw delta as Mangle facts; DomChanged is emitted only
		// when substantive_dom_change (domfacts.go) derives for the delta
		// element, which takes a dom_visible "true" fact for it. The
		// byte/node thresholds themselves are the Anti-False-Green
		// Filter's job downstream.
		const deltaElemID = "interaction_delta"
		visible := "false"
		if addedNodes > 0 {
			visible = "true"
		}
		_ = s.engine.PushFact("dom_added", deltaElemID)
		_ = s.engine.PushFact("dom_visible", deltaElemID, visible)
		if s.engine.QueryFacts("substantive_dom_change", deltaElemID) != nil {
			signals = append(signals, signal.New(signal.DomChanged, now, signal.Payload{
				AddedBytes:        addedBytes,
				AddedVisibleNodes: addedNodes,
			}))
		}
	}

	if after.url != before.url {
		signals = append(signals, signal.New(signal.UrlChanged, now, signal.Payload{URL: after.url}))
		signals = append(signals, signal.New(signal.RouteChanged, now, signal.Payload{URL: after.url}))
	}

	if after.toastCandidate {
		const toastID = "toast_after"
		_ = s.engine.PushFact("toast_candidate", toastID)
		_ = s.engine.PushFact("dom_visible", toastID, "true")
		if s.engine.QueryFacts("toast_appeared", toastID) != nil {
			signals = append(signals, signal.New(signal.ToastAppeared, now, signal.Payload{}))
		}
	}
	if after.modalCandidate {
		const modalID = "modal_after"
		_ = s.engine.PushFact("modal_candidate", modalID)
		_ = s.engine.PushFact("dom_visible", modalID, "true")
		if s.engine.QueryFacts("modal_appeared", modalID) != nil {
			signals = append(signals, signal.New(signal.ModalAppeared, now, signal.Payload{}))
		}
	}

	var consoleErrors []string
	for _, f := range s.engine.QueryFacts("console_error_present") {
		if len(f.Args) > 0 {
			consoleErrors = append(consoleErrors, fmt.Sprintf("%v", f.Args[0]))
		}
	}
	if len(consoleErrors) > 0 {
		signals = append(signals, signal.New(signal.ConsoleError, now, signal.Payload{ErrorText: consoleErrors[0]}))
	}

	networkFailures := s.engine.QueryFacts("network_error_response")

	status, authChallenge, requestsSent, responsesReceived := capture.snapshot()
	if authChallenge {
		signals = append(signals, signal.New(signal.AuthChallenge, now, signal.Payload{NetworkStatus: status}))
	}
	if len(networkFailures) > 0 && status == 0 {
		status = 500
	}

	return Observation{
		Signals:           signals,
		NetworkStatus:     status,
		ConsoleErrors:     consoleErrors,
		DomDelta:          DomDelta{AddedBytes: addedBytes, AddedVisibleNodes: addedNodes},
		AuthChallenge:     authChallenge,
		RequestsSent:      requestsSent,
		ResponsesReceived: responsesReceived,
	}
}
