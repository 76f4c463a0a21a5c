package integrations

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// traceTransport logs the request line, status line and headers of every
// exchange at debug level, using ">" for outgoing and "<" for incoming lines.
type traceTransport struct {
	base   http.RoundTripper
	logger hclog.Logger
}

func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.logger.Debug(fmt.Sprintf("> %s %s %s", req.Method, req.URL.RequestURI(), req.Proto))
	t.logger.Debug(fmt.Sprintf("> Host: %s", req.URL.Host))
	t.traceHeaders(">", req.Header)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Debug("* request failed", "error", err)
		return nil, err
	}

	t.logger.Debug(fmt.Sprintf("< %s %s", resp.Proto, resp.Status))
	t.traceHeaders("<", resp.Header)

	return resp, nil
}

func (t *traceTransport) traceHeaders(prefix string, h http.Header) {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		value := strings.Join(h[k], ", ")
		if strings.EqualFold(k, "Authorization") {
			value = "[redacted]"
		}
		t.logger.Debug(fmt.Sprintf("%s %s: %s", prefix, k, value))
	}
}
