package daemon

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/wwebgo/wweb/internal/bridge"
	"github.com/wwebgo/wweb/internal/bus"
	"github.com/wwebgo/wweb/internal/client"
	"github.com/wwebgo/wweb/internal/config"
	"github.com/wwebgo/wweb/internal/events"
	"github.com/wwebgo/wweb/internal/session"
	"github.com/wwebgo/wweb/internal/status"
	"github.com/wwebgo/wweb/internal/wid"
	"go.uber.org/zap"
)

// ErrNotInitialized is returned by operations that need a live browser
// before Initialize has completed.
var ErrNotInitialized = errors.New("daemon: session not initialized")

// Session owns one live browser-backed client: it launches the browser,
// injects the page helpers, wires the mutation stream and drives the auth
// flow. It is the teardown authority the normalizer calls back into on
// terminal connection states.
type Session struct {
	name    string
	cfg     *config.Config
	bus     *bus.Bus
	machine *status.Machine
	logger  *zap.Logger

	mu      sync.Mutex
	browser *rod.Browser
	bridge  *bridge.Bridge
	client  *client.Client
	cancel  context.CancelFunc
}

// NewSession creates an unstarted session orchestrator. The browser is not
// launched until Initialize.
func NewSession(p Params, cfg *config.Config, b *bus.Bus, m *status.Machine, logger *zap.Logger) *Session {
	return &Session{
		name:    p.SessionName,
		cfg:     cfg,
		bus:     b,
		machine: m,
		logger:  logger,
	}
}

// Initialize launches the browser, injects the page helpers, binds the
// mutation stream and starts the auth flow in the background. It returns
// once the session is live; readiness is reported on the bus.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return errors.New("daemon: session already initialized")
	}

	browser, page, err := bridge.Launch(bridge.LaunchConfig{
		BinPath:    s.cfg.Browser.BinPath,
		Headless:   s.cfg.Browser.HeadlessEnabled(),
		ProxyURL:   s.cfg.Browser.ProxyURL,
		ProfileDir: session.ProfileDir(s.name),
	}, s.logger)
	if err != nil {
		return err
	}

	br := bridge.New(page, s.logger)
	cl := client.New(br, client.Config{FFmpegPath: s.cfg.Media.FFmpegPath}, s.logger)

	norm := events.NewNormalizer(s.bus, s.machine, cl, s, events.Config{
		TakeoverOnConflict: s.cfg.Takeover.OnConflict,
		TakeoverDelay:      time.Duration(s.cfg.Takeover.DelayMs) * time.Millisecond,
	}, s.logger)

	// The binding must exist before the helpers register their listeners.
	if err := norm.Bind(br); err != nil {
		_ = browser.Close()
		return err
	}
	if err := br.InjectHelpers(ctx); err != nil {
		_ = browser.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	norm.Start(runCtx)

	s.browser = browser
	s.bridge = br
	s.client = cl
	s.cancel = cancel

	go func() {
		if err := norm.RunAuthFlow(runCtx, cl, s.cfg.PhoneNumber); err != nil {
			s.logger.Error("auth flow ended", zap.Error(err))
		}
	}()

	s.logger.Info("session initialized", zap.String("session", s.name))
	return nil
}

// Client returns the live command façade, or nil before Initialize.
func (s *Session) Client() *client.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// Close tears down the browser and stops the mutation consumer. Safe to
// call before Initialize and more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	var err error
	if s.bridge != nil {
		err = s.bridge.Close()
		s.bridge = nil
	}
	if s.browser != nil {
		if cerr := s.browser.Close(); err == nil {
			err = cerr
		}
		s.browser = nil
	}
	s.client = nil
	if err != nil {
		s.logger.Warn("session teardown", zap.Error(err))
	}
	return err
}

// TakeOver reclaims the session from a conflicting client.
func (s *Session) TakeOver(ctx context.Context) error {
	cl := s.Client()
	if cl == nil {
		return ErrNotInitialized
	}
	return cl.TakeOver(ctx)
}

// SendText delivers one queued text message through the live client. It is
// the delivery port the outbox drains through.
func (s *Session) SendText(ctx context.Context, chatID wid.WID, text string) (string, error) {
	cl := s.Client()
	if cl == nil {
		return "", ErrNotInitialized
	}
	msg, err := cl.SendMessage(ctx, chatID, text, nil)
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", nil
	}
	return msg.ID.Serialized, nil
}
