// Package main provides a CI-friendly smoke test for the console /events stream.
//
// It validates:
//   - handshake with a browser-like Origin
//   - the initial gate state event
//   - optionally, that the state reaches -want within -timeout
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const maxReadBytes = 1 << 20 // 1MiB

type stateEvent struct {
	State string          `json:"state"`
	User  json.RawMessage `json:"user,omitempty"`
	Error string          `json:"error,omitempty"`
}

func main() {
	var (
		wsURL   = flag.String("url", "ws://127.0.0.1:3000/events", "events WebSocket URL")
		origin  = flag.String("origin", "http://localhost", "Origin header to send (browser-like WS handshake)")
		want    = flag.String("want", "", "state to wait for: loading, authenticated, unauthenticated")
		timeout = flag.Duration("timeout", 7*time.Second, "overall timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateWSURL(*wsURL); err != nil {
		fatalf("invalid -url: %v", err)
	}
	if err := validateOrigin(*origin); err != nil {
		fatalf("invalid -origin: %v", err)
	}
	switch *want {
	case "", "loading", "authenticated", "unauthenticated":
	default:
		fatalf("invalid -want: %q", *want)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	h := http.Header{}
	if strings.TrimSpace(*origin) != "" {
		h.Set("Origin", *origin)
	}
	conn, resp, err := websocket.Dial(ctx, *wsURL, &websocket.DialOptions{HTTPHeader: h})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()
	conn.SetReadLimit(maxReadBytes)

	for n := 1; ; n++ {
		ev, err := readEvent(ctx, conn)
		if err != nil {
			fatalf("read event %d: %v", n, err)
		}
		if *verbose {
			fmt.Printf("event %d: state=%s user=%s error=%q\n", n, ev.State, string(ev.User), ev.Error)
		}
		if *want == "" || ev.State == *want {
			fmt.Printf("OK: state=%s events=%d\n", ev.State, n)
			return
		}
	}
}

func readEvent(ctx context.Context, conn *websocket.Conn) (stateEvent, error) {
	mt, b, err := conn.Read(ctx)
	if err != nil {
		return stateEvent{}, err
	}
	if mt != websocket.MessageText {
		return stateEvent{}, fmt.Errorf("unexpected message type %v", mt)
	}
	var ev stateEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return stateEvent{}, fmt.Errorf("decode %q: %w", b, err)
	}
	if ev.State == "" {
		return stateEvent{}, errors.New("event missing state")
	}
	return ev, nil
}

func validateWSURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	if strings.TrimSpace(u.Path) == "" {
		return errors.New("missing path")
	}
	return nil
}

func validateOrigin(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin must be http/https, got: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("origin missing host")
	}
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
