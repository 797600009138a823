// Package bridge implements the remote evaluation boundary: executing
// functions against the live web client inside the browser and receiving
// push-style mutation callbacks from it. All other components cross the
// boundary exclusively through this package.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/ysmood/gson"
	"go.uber.org/zap"
)

// ErrClosed is returned by every call issued after Close. Calls on a closed
// bridge fail deterministically, they never hang.
var ErrClosed = errors.New("bridge: closed")

// RemoteError is a failure raised inside the remote environment, carrying
// the remote error's name and message verbatim.
type RemoteError struct {
	Name    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("bridge: remote %s: %s", e.Name, e.Message)
}

// IsRemote reports whether err is a remote failure with the given name.
// Callers use it to recover known rejections into handled results.
func IsRemote(err error, name string) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Name == name
}

// Bridge executes functions against one page. Exactly one bridge targets a
// page per client instance; it is never re-created. Calls are not retried
// and no timeout is imposed here: callers wanting bounded latency pass a
// context with a deadline.
type Bridge struct {
	page   *rod.Page
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	stops  []func() error
}

// New wraps an already-attached page. Browser process lifecycle and script
// injection are the caller's concern.
func New(page *rod.Page, logger *zap.Logger) *Bridge {
	return &Bridge{page: page, logger: logger}
}

// Execute evaluates fn, a JavaScript function literal, against the page
// with the given arguments and returns its (promise-resolved) result as
// raw JSON. A throw inside the remote environment surfaces as *RemoteError.
func (b *Bridge) Execute(ctx context.Context, fn string, args ...any) (json.RawMessage, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	page := b.page
	b.mu.Unlock()

	res, err := page.Context(ctx).Evaluate(rod.Eval(fn, args...).ByPromise())
	if err != nil {
		if b.isClosed() {
			return nil, ErrClosed
		}
		var evalErr *rod.EvalError
		if errors.As(err, &evalErr) && evalErr.Exception != nil {
			return nil, &RemoteError{
				Name:    evalErr.Exception.ClassName,
				Message: evalErr.Exception.Description,
			}
		}
		return nil, fmt.Errorf("bridge: evaluate %s: %w", fnName(fn), err)
	}

	data, err := json.Marshal(res.Value)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode result of %s: %w", fnName(fn), err)
	}
	return data, nil
}

// ExecuteInto evaluates fn and decodes the result into out.
func (b *Bridge) ExecuteInto(ctx context.Context, out any, fn string, args ...any) error {
	data, err := b.Execute(ctx, fn, args...)
	if err != nil {
		return err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("bridge: decode result of %s: %w", fnName(fn), err)
	}
	return nil
}

// Bind exposes a page-callable function under the given name. The page
// invokes it with a single JSON payload; the handler must not block the
// remote environment and must not issue further long-running bridge calls.
func (b *Bridge) Bind(name string, handler func(payload json.RawMessage)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	stop, err := b.page.Expose(name, func(g gson.JSON) (any, error) {
		data, err := json.Marshal(g)
		if err != nil {
			b.logger.Warn("dropping malformed binding payload",
				zap.String("binding", name), zap.Error(err))
			return nil, nil
		}
		handler(data)
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("bridge: expose %s: %w", name, err)
	}
	b.stops = append(b.stops, stop)
	return nil
}

// Close tears down the remote session resource. All in-flight and future
// calls fail with ErrClosed. Close is idempotent.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	stops := b.stops
	b.stops = nil
	page := b.page
	b.mu.Unlock()

	for _, stop := range stops {
		_ = stop()
	}
	if err := page.Close(); err != nil {
		return fmt.Errorf("bridge: close page: %w", err)
	}
	return nil
}

func (b *Bridge) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// fnName extracts a short label for logs and errors from a function
// literal such as "(id) => window.WWeb.getChat(id)".
func fnName(fn string) string {
	if i := strings.Index(fn, "window."); i >= 0 {
		rest := fn[i+len("window."):]
		if j := strings.IndexAny(rest, "(,;"); j >= 0 {
			return rest[:j]
		}
		return rest
	}
	if len(fn) > 40 {
		return fn[:40] + "..."
	}
	return fn
}
