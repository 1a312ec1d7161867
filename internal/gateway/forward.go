package gateway

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/florianilch/fleetflow-client/internal/authtransport"
)

// forwardedHeaders are the request headers passed on to the backend. Everything else,
// including any Authorization or Cookie the caller sent, is dropped; the pipeline
// supplies credentials.
var forwardedHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Accept",
	"Accept-Encoding",
	authtransport.RequestIDHeader,

	// W3C Trace Context for end-to-end correlation.
	"Traceparent",
	"Tracestate",
}

// newForwarder proxies /api/v1/* onto the backend API root through pipeline.
func newForwarder(backend *url.URL, pipeline http.RoundTripper) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Scheme = backend.Scheme
			pr.Out.URL.Host = backend.Host
			pr.Out.URL.Path = backend.Path + "/" + strings.TrimPrefix(pr.In.URL.Path, APIPrefix)
			pr.Out.URL.RawPath = ""
			pr.Out.Host = backend.Host

			inbound := pr.Out.Header
			pr.Out.Header = make(http.Header, len(forwardedHeaders))
			for _, key := range forwardedHeaders {
				if values := inbound.Values(key); len(values) > 0 {
					pr.Out.Header[http.CanonicalHeaderKey(key)] = values
				}
			}
		},
		Transport: pipeline,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if r.Context().Err() != nil {
				// Caller went away; nobody is listening for a response.
				return
			}
			slog.WarnContext(r.Context(), "forwarding to backend failed", "error", err)
			writeJSONError(r.Context(), w, "backend unavailable", http.StatusBadGateway)
		},
	}
}
