package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recipebox/errs"
	"recipebox/store"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleWritesEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", errs.New(errs.NotFound, "recipe not found"), http.StatusNotFound, "NOT_FOUND", "recipe not found"},
		{"access denied", errs.New(errs.AccessDenied, "access denied"), http.StatusForbidden, "ACCESS_DENIED", "access denied"},
		{"wrapped", fmt.Errorf("outer: %w", errs.New(errs.InvalidRequest, "bad")), http.StatusBadRequest, "INVALID_REQUEST", "bad"},
		{"unclassified", errors.New("socket closed"), http.StatusInternalServerError, "INTERNAL", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Handle(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
				return tt.err
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithRequestID(req.Context(), "req-1"))
			rec := httptest.NewRecorder()
			h(rec, req, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := decodeBody(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, tt.wantMsg, body["error"])
			assert.Equal(t, "req-1", body["requestId"])
		})
	}
}

func TestRespondDeleteOutcome(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantSuccess bool
	}{
		{"deleted", nil, http.StatusOK, true},
		{"missing", store.ErrNotFound, http.StatusNotFound, false},
		{"store failure", errors.New("boom"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondDeleteOutcome(rec, "recipe", tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantSuccess, body["success"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestStoreErr(t *testing.T) {
	assert.Equal(t, errs.NotFound, errs.CodeOf(StoreErr(store.ErrNotFound, "unit")))
	assert.Equal(t, errs.Conflict, errs.CodeOf(StoreErr(fmt.Errorf("%w: e11000", store.ErrDuplicate), "user")))
	assert.Equal(t, errs.Internal, errs.CodeOf(StoreErr(errors.New("timeout"), "unit")))
}

func TestDecodeJSON(t *testing.T) {
	type input struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"salt"}`, false},
		{"empty object", `{}`, false},
		{"unknown field", `{"name":"salt","color":"white"}`, true},
		{"malformed", `{"name":`, true},
		{"empty body", ``, true},
		{"trailing object", `{"name":"a"}{"name":"b"}`, true},
		{"wrong type", `{"name":5}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst input
			err := DecodeJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errs.InvalidRequest, errs.CodeOf(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseID(t *testing.T) {
	ps := httprouter.Params{{Key: "id", Value: "not-an-id"}}
	_, err := ParseID(ps, "id", "recipe")
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))

	ps = httprouter.Params{{Key: "id", Value: "64b7f0c2a1b2c3d4e5f60718"}}
	id, err := ParseID(ps, "id", "recipe")
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", id.Hex())
}
