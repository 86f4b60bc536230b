package calabash

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/calabash-bridge/pkg/core"
	"github.com/devicelab-dev/calabash-bridge/pkg/decode"
	"github.com/devicelab-dev/calabash-bridge/pkg/logger"
	"github.com/devicelab-dev/calabash-bridge/pkg/transport"
)

// Query runs query and returns the matches. Each projection narrows the
// returned fields to a property, e.g. "text".
func (b *Bridge) Query(ctx context.Context, query string, projections ...string) (*Elements, error) {
	items := make([]interface{}, len(projections))
	for i, p := range projections {
		items[i] = p
	}
	v, err := b.query(ctx, query, items)
	if err != nil {
		return nil, err
	}
	return newElements(b, query, v), nil
}

// QueryValue runs query and returns the raw decoded result list.
func (b *Bridge) QueryValue(ctx context.Context, query string, projections ...interface{}) (decode.Value, error) {
	return b.query(ctx, query, projections)
}

func (b *Bridge) query(ctx context.Context, query string, projections []interface{}) (decode.Value, error) {
	logger.Info("Executing query - %s", query)
	if projections == nil {
		projections = []interface{}{}
	}
	return b.do(ctx, call{
		op:      "query",
		query:   query,
		args:    transport.Args{"query": query, "projections": projections},
		failure: fmt.Sprintf("Failed to execute '%s'", query),
	})
}

// ElementExists reports whether query matches at least one element.
func (b *Bridge) ElementExists(ctx context.Context, query string) (bool, error) {
	logger.Info("Checking element exists: %s", query)
	v, err := b.do(ctx, call{
		op:      "element_exists",
		query:   query,
		args:    transport.Args{"query": query},
		failure: "Failed to check element exists",
	})
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

// Touch taps the first element matching query.
func (b *Bridge) Touch(ctx context.Context, query string) error {
	logger.Info("Touching - %s", query)
	_, err := b.do(ctx, call{
		op:      "touch",
		query:   query,
		args:    transport.Args{"query": query},
		failure: fmt.Sprintf("Failed to touch on: %s", query),
		settle:  true,
	})
	return err
}

// Flash highlights the elements matching query.
func (b *Bridge) Flash(ctx context.Context, query string) error {
	logger.Info("Flashing: %s", query)
	_, err := b.do(ctx, call{
		op:      "flash",
		query:   query,
		args:    transport.Args{"query": query},
		failure: fmt.Sprintf("Failed to flash on: %s", query),
	})
	return err
}

// Scroll scrolls the view matching query.
func (b *Bridge) Scroll(ctx context.Context, query string, dir Direction) error {
	logger.Info("Scrolling: %s", query)
	_, err := b.do(ctx, call{
		op:      "scroll",
		query:   query,
		args:    transport.Args{"query": query, "direction": dir.String()},
		failure: fmt.Sprintf("Failed to scroll: %s", query),
		settle:  true,
	})
	return err
}

// Swipe swipes on the view matching query. opts may be nil.
func (b *Bridge) Swipe(ctx context.Context, query string, dir Direction, opts *SwipeOptions) error {
	logger.Info("Swiping: %s, direction: %s", query, dir)
	_, err := b.do(ctx, call{
		op:      "swipe",
		query:   query,
		args:    swipeArgs(query, dir, opts),
		failure: fmt.Sprintf("Failed to swipe: %s", query),
		settle:  true,
	})
	return err
}

// Pinch pinches the view matching query, or the screen when query is empty.
func (b *Bridge) Pinch(ctx context.Context, query string, mode PinchMode) error {
	logger.Info("Pinching: %s. In or out: %s", query, mode)
	options := map[string]interface{}{}
	if query != "" {
		options["query"] = query
	}
	_, err := b.do(ctx, call{
		op:      "pinch",
		query:   query,
		args:    transport.Args{"mode": mode.String(), "options": options},
		failure: fmt.Sprintf("Failed to pinch: %s", query),
		settle:  true,
	})
	return err
}

// Rotate turns the device.
func (b *Bridge) Rotate(ctx context.Context, dir RotateDirection) error {
	logger.Info("Rotating to %s", dir)
	_, err := b.do(ctx, call{
		op:      "rotate",
		args:    transport.Args{"direction": dir.String()},
		failure: fmt.Sprintf("Failed to rotate to: %s", dir),
		settle:  true,
	})
	return err
}

// EnterText types text on the visible keyboard.
func (b *Bridge) EnterText(ctx context.Context, text string) error {
	logger.Info("Entering text - %s", text)
	_, err := b.do(ctx, call{
		op:      "keyboard_enter_text",
		args:    transport.Args{"text": text},
		failure: fmt.Sprintf("Failed to enter text: %s", text),
		settle:  true,
	})
	return err
}

// EnterChar types one key, such as "Delete" or "Return".
func (b *Bridge) EnterChar(ctx context.Context, char string) error {
	logger.Info("Entering character '%s'", char)
	_, err := b.do(ctx, call{
		op:      "keyboard_enter_char",
		args:    transport.Args{"char": char},
		failure: fmt.Sprintf("Failed to enter character: %s", char),
		settle:  true,
	})
	return err
}

// Done presses the keyboard's done key.
func (b *Bridge) Done(ctx context.Context) error {
	logger.Info("Pressing done button")
	_, err := b.do(ctx, call{op: "done", failure: "Failed to press 'done'"})
	return err
}

// Exit terminates the application under test.
func (b *Bridge) Exit(ctx context.Context) error {
	logger.Info("Exiting iOS application")
	_, err := b.do(ctx, call{op: "calabash_exit", failure: "Failed to exit application"})
	return err
}

// Launch starts the application with the configured environment.
func (b *Bridge) Launch(ctx context.Context) error {
	logger.Info("Launching application on %s", b.cfg.Endpoint)
	_, err := b.do(ctx, call{
		op:      "launch",
		args:    transport.Args{"env": b.cfg.Env()},
		failure: "Failed to launch application",
	})
	return err
}

// StartRecording begins recording touch events.
func (b *Bridge) StartRecording(ctx context.Context) error {
	logger.Info("Starting recording")
	_, err := b.do(ctx, call{op: "record_begin", failure: "Failed to start recording"})
	return err
}

// StopRecording ends recording and saves the events under fileName.
func (b *Bridge) StopRecording(ctx context.Context, fileName string) error {
	logger.Info("Stopping recording")
	_, err := b.do(ctx, call{
		op:      "record_end",
		args:    transport.Args{"file_name": fileName},
		failure: "Failed to stop recording",
	})
	return err
}

// Playback replays a recording loaded through the PlaybackLoader. The OS
// key comes from the configuration or the server's iOS major version.
func (b *Bridge) Playback(ctx context.Context, name string, opts *PlaybackOptions) error {
	if err := b.ensureNotDisposed(); err != nil {
		return err
	}
	logger.Info("Playback: %s", name)
	if b.playback == nil {
		return core.ErrMissingResource.WithMessage("no playback loader configured")
	}

	osName := b.cfg.OS
	if osName == "" {
		version, err := b.ServerVersion(ctx)
		if err != nil {
			return err
		}
		major, err := version.IOSMajor()
		if err != nil {
			return core.ErrActionFailed.WithMessage(fmt.Sprintf("Failed to playback: %s", name)).WithCause(err)
		}
		osName = fmt.Sprintf("ios%d", major)
	}

	events, err := b.playback.Load(name, osName, b.cfg.Device)
	if err != nil {
		logger.Error("Failed to load playback data for %s: %v", name, err)
		return err
	}

	_, err = b.do(ctx, call{
		op:      "playback",
		args:    playbackArgs(name, events, opts),
		failure: fmt.Sprintf("Failed to playback: %s", name),
	})
	return err
}

// ServerVersion reports the server and application versions.
func (b *Bridge) ServerVersion(ctx context.Context) (*ServerVersion, error) {
	v, err := b.do(ctx, call{op: "server_version", failure: "Failed to check server version"})
	if err != nil {
		return nil, err
	}
	return parseServerVersion(v), nil
}

// ClientVersion reports the client library version the server expects.
func (b *Bridge) ClientVersion(ctx context.Context) (string, error) {
	v, err := b.do(ctx, call{op: "client_version", failure: "Failed to check client version"})
	if err != nil {
		return "", err
	}
	if s, ok := v.Str(); ok {
		return s, nil
	}
	return v.String(), nil
}

// TakeScreenshot captures the screen into dir and returns the reported path.
// The screenshot listener is notified of every image the server embeds.
func (b *Bridge) TakeScreenshot(ctx context.Context, dir, name string) (string, error) {
	logger.Info("Taking screenshot")
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", core.ErrInvalidArgument.WithMessage(fmt.Sprintf("invalid screenshot directory %q", dir)).WithCause(err)
	}
	args := transport.Args{"prefix": abs + "/"}
	if name != "" {
		args["name"] = name
	}
	v, err := b.do(ctx, call{op: "screenshot_embed", args: args, failure: "Failed to take screenshot"})
	if err != nil {
		return "", err
	}
	path, _ := v.Str()
	return path, nil
}

// SendAppToBackground backgrounds the application for seconds and waits
// until it is back.
func (b *Bridge) SendAppToBackground(ctx context.Context, seconds int) error {
	logger.Info("Sending application to background for '%d' seconds", seconds)
	_, err := b.do(ctx, call{
		op:      "send_app_to_background",
		args:    transport.Args{"seconds": seconds},
		failure: "Failed to send application to background",
	})
	if err != nil {
		return err
	}
	b.sleep(ctx, time.Duration(seconds+2)*time.Second)
	return nil
}

// ScrollToRow scrolls the table matching query to row.
func (b *Bridge) ScrollToRow(ctx context.Context, query string, row int) error {
	logger.Info("Scrolling to row '%d' for query - %s", row, query)
	_, err := b.do(ctx, call{
		op:      "scroll_to_row",
		query:   query,
		args:    transport.Args{"query": query, "row": row},
		failure: fmt.Sprintf("Failed to scroll to row '%d' for query '%s'", row, query),
		settle:  true,
	})
	return err
}

// ScrollToCell scrolls the table matching query to the cell in opts.
func (b *Bridge) ScrollToCell(ctx context.Context, query string, opts *ScrollOptions) error {
	logger.Info("Scrolling to a cell for query - %s", query)
	_, err := b.do(ctx, call{
		op:      "scroll_to_cell",
		query:   query,
		args:    scrollArgs(query, opts),
		failure: fmt.Sprintf("Failed to scroll to cell for query '%s'", query),
		settle:  true,
	})
	return err
}

// WaitForKeyboard waits until the keyboard is visible.
func (b *Bridge) WaitForKeyboard(ctx context.Context, opts *WaitOptions) error {
	logger.Info("Waiting for keyboard to showup")
	o := WaitOptions{TimeoutMessage: "Keyboard did not appear"}
	if opts != nil {
		o = mergeWaitOptions(o, *opts)
	}
	return b.WaitForElementsExist(ctx, []string{keyboardQuery}, &o)
}

// WaitForNoneAnimating waits until no view reports an animation in progress.
func (b *Bridge) WaitForNoneAnimating(ctx context.Context, opts *WaitOptions) error {
	logger.Info("Waiting for all the animations to finish")
	o := WaitOptions{TimeoutMessage: "Timed out waiting for animations to finish"}
	if opts != nil {
		o = mergeWaitOptions(o, *opts)
	}
	return b.WaitForElementsToNotExist(ctx, []string{animatingQuery}, &o)
}

const (
	keyboardQuery  = "view:'UIKBKeyplaneView'"
	animatingQuery = "* isAnimating:1"
)

// EscapeQuotes escapes single quotes so s can be embedded in a query string.
func EscapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
