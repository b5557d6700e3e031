package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/realmledger/internal/api/apierr"
	"github.com/mcoot/realmledger/internal/middleware"
)

// Recovery turns handler panics into INTERNAL_ERROR envelopes. The message
// names the request ID so a caller can quote it against the server log.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, writePanicEnvelope)
}

func writePanicEnvelope(w http.ResponseWriter, _ *http.Request, _ any) {
	if id := w.Header().Get(middleware.RequestIDHeader); id != "" {
		apierr.WriteError(w, apierr.NewInternalErrorf("Internal server error (request %s)", id))
		return
	}
	apierr.WriteError(w, apierr.NewInternalError())
}
