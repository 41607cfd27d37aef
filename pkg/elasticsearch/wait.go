package elasticsearch

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"
)

// defaultPort is the conventional Elasticsearch HTTP port, assumed when a URL
// carries no explicit port.
const defaultPort = "9200"

// WaitForReachable blocks until one of the given URLs accepts a TCP connection
// or the timeout elapses. It mirrors the wait-for-it startup guard commonly
// placed in front of a search engine dependency: callers are expected to log
// the returned error and start anyway.
func WaitForReachable(ctx context.Context, urls []string, timeout time.Duration) error {
	if len(urls) == 0 {
		return fmt.Errorf("no elasticsearch url configured")
	}

	addrs := make([]string, 0, len(urls))
	for _, raw := range urls {
		addr, err := hostPort(raw)
		if err != nil {
			return err
		}
		addrs = append(addrs, addr)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	dialer := net.Dialer{Timeout: time.Second}
	for {
		for _, addr := range addrs {
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err == nil {
				conn.Close()
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("elasticsearch not reachable after %s: %w", timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

func hostPort(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid elasticsearch url %q", raw)
	}
	port := u.Port()
	if port == "" {
		port = defaultPort
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
