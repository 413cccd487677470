package realtime

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zishang520/engine.io-client-go/transports"
)

const (
	TransportWebSocket = "websocket"
	TransportPolling   = "polling"
)

var ErrUnknownTransport = errors.New("unknown transport")

// transportOrder maps configured names onto engine transports. The engine
// keeps its transports in an unordered set, so the client offers it one at a
// time and walks this list on connect errors.
func transportOrder(names []string) ([]transports.TransportCtor, error) {
	out := make([]transports.TransportCtor, 0, len(names))
	for _, name := range names {
		switch name {
		case TransportWebSocket:
			out = append(out, transports.WebSocket)
		case TransportPolling:
			out = append(out, transports.Polling)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, name)
		}
	}
	return out, nil
}

// Endpoint builds the engine URL for base (scheme://host[/prefix]) and path.
func Endpoint(base, path string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return nil, fmt.Errorf("parsing realtime url: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return nil, fmt.Errorf("realtime url %q: unsupported scheme %q", base, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("realtime url %q: missing host", base)
	}
	if path == "" {
		path = "/socket.io/"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Trim(path, "/") + "/"
	u.RawQuery = ""
	return u, nil
}
