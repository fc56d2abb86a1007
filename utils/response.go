package utils

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"recipebox/errs"
	"recipebox/store"

	"github.com/julienschmidt/httprouter"
)

type M map[string]interface{}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// RespondWithError writes the error envelope. The status and code come from
// the *errs.Error in err's chain; anything else is an INTERNAL fault and is
// logged with its cause.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.CodeOf(err)
	requestID := RequestIDFromContext(r.Context())
	if code == errs.Internal {
		slog.Error("request failed",
			"requestId", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	RespondWithJSON(w, code.Status(), M{
		"success":   false,
		"error":     errs.MessageOf(err),
		"code":      code,
		"requestId": requestID,
	})
}

// HandlerFunc is an httprouter handle that reports failure by returning an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error

// Handle adapts fn to httprouter, translating a returned error into the
// error envelope.
func Handle(fn HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if err := fn(w, r, ps); err != nil {
			RespondWithError(w, r, err)
		}
	}
}

// RespondDeleteOutcome writes the success/failure body deletes use instead of
// the error envelope.
func RespondDeleteOutcome(w http.ResponseWriter, entity string, err error) {
	switch {
	case err == nil:
		RespondWithJSON(w, http.StatusOK, M{"success": true, "message": entity + " deleted"})
	case errors.Is(err, store.ErrNotFound):
		RespondWithJSON(w, http.StatusNotFound, M{"success": false, "message": entity + " not found"})
	default:
		slog.Error("delete failed", "entity", entity, "error", err)
		RespondWithJSON(w, http.StatusInternalServerError, M{"success": false, "message": "failed to delete " + entity})
	}
}

// StoreErr classifies a store error for the envelope.
func StoreErr(err error, entity string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errs.Wrap(errs.NotFound, entity+" not found", err)
	case errors.Is(err, store.ErrDuplicate):
		return errs.Wrap(errs.Conflict, entity+" already exists", err)
	default:
		return errs.Wrap(errs.Internal, "", err)
	}
}
