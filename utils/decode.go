package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"recipebox/errs"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxBodyBytes = 1 << 20

// DecodeJSON strictly decodes the request body into dst. Unknown fields,
// trailing data and malformed JSON are INVALID_REQUEST.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.New(errs.InvalidRequest, "request body is empty")
		}
		return errs.Wrap(errs.InvalidRequest, "invalid request body: "+err.Error(), err)
	}
	if dec.More() {
		return errs.New(errs.InvalidRequest, "request body must hold a single JSON object")
	}
	return nil
}

// ParseID reads a path parameter as an ObjectID. A malformed id can never
// name a stored record, so it is reported as NOT_FOUND.
func ParseID(ps httprouter.Params, name, entity string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(ps.ByName(name))
	if err != nil {
		return primitive.NilObjectID, errs.Wrap(errs.NotFound, entity+" not found", err)
	}
	return id, nil
}
