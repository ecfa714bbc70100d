// Package util holds small cross-cutting helpers shared by the ordasm
// core and its hosts: a fire-and-forget diagnostic logging gate, and the
// push hook diagstream registers itself through.
package util

import (
	"fmt"
	"net/http"
	"strings"
)

// LoggingEnabled gates LogF. Hosts flip it on for development builds;
// production language-server runs leave it off.
var LoggingEnabled = false

// logEndpoint receives LogF's fire-and-forget POSTs. diagstream overrides
// it at startup so log lines reach the same websocket push used for
// diagnostics; it defaults to the teacher's original local debug sink.
var logEndpoint = "http://localhost:8006/log"

// SetLogEndpoint redirects LogF's POST target. Called once by diagstream
// when it starts listening.
func SetLogEndpoint(url string) { logEndpoint = url }

// LogF formats and fires message off to logEndpoint without waiting for a
// response. A no-op unless LoggingEnabled.
func LogF(format string, args ...interface{}) {
	if !LoggingEnabled {
		return
	}
	message := fmt.Sprintf(format, args...)
	go http.Post(logEndpoint, "text/plain", strings.NewReader(message))
}
