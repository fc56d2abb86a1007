package units

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recipebox/models"
	"recipebox/store"
	"recipebox/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUnits(t *testing.T) {
	h := &Handler{Store: store.NewMemory()}
	router := httprouter.New()
	router.GET("/units", utils.Handle(h.GetUnits))
	router.GET("/units/:id", utils.Handle(h.GetUnit))
	router.POST("/units", utils.Handle(h.CreateUnit))
	router.PUT("/units/:id", utils.Handle(h.UpdateUnit))
	router.DELETE("/units/:id", h.DeleteUnit)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec
	}

	rec := do(http.MethodPost, "/units", `{"name":"tbsp"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var unit models.Unit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unit))

	rec = do(http.MethodPut, "/units/"+unit.ID.Hex(), `{"name":"tablespoon"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodGet, "/units", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Unit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "tablespoon", list[0].Name)
	assert.Equal(t, unit.ID, list[0].ID)

	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/units/"+primitive.NewObjectID().Hex(), "").Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/units", `{"name":`).Code)

	rec = do(http.MethodDelete, "/units/"+unit.ID.Hex(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(http.MethodDelete, "/units/"+unit.ID.Hex(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"unit not found"}`, rec.Body.String())
}
