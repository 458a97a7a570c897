package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/ScanList/internal/core"
	"github.com/JonMunkholm/ScanList/internal/web/middleware"
)

// withClient tags the request context with the client address for
// service-level logging.
func withClient(r *http.Request) context.Context {
	return core.ContextWithClient(r.Context(), middleware.ClientIP(r))
}
