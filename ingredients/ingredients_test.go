package ingredients

import (
	"context"
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

func newRouter(st *store.Store) *httprouter.Router {
	h := &Handler{Store: st}
	router := httprouter.New()
	router.GET("/ingredients", utils.Handle(h.GetIngredients))
	router.GET("/ingredients/:id", utils.Handle(h.GetIngredient))
	router.POST("/ingredients", utils.Handle(h.CreateIngredient))
	router.PUT("/ingredients/:id", utils.Handle(h.UpdateIngredient))
	router.DELETE("/ingredients/:id", h.DeleteIngredient)
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestIngredientLifecycle(t *testing.T) {
	st := store.NewMemory()
	router := newRouter(st)

	rec := do(router, http.MethodGet, "/ingredients", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = do(router, http.MethodPost, "/ingredients", `{"name":" Peanut ","allergy":"nuts"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Ingredient
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Peanut", created.Name)
	assert.Equal(t, "nuts", created.Allergy)
	path := "/ingredients/" + created.ID.Hex()

	rec = do(router, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodPut, path, `{"name":"Groundnut"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got, err := st.Ingredients.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groundnut", got.Name)
	assert.Empty(t, got.Allergy, "update replaces the whole record")

	rec = do(router, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(router, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngredientErrors(t *testing.T) {
	router := newRouter(store.NewMemory())
	missing := "/ingredients/" + primitive.NewObjectID().Hex()

	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"get malformed id", http.MethodGet, "/ingredients/xyz", "", http.StatusNotFound},
		{"update missing", http.MethodPut, missing, `{"name":"a"}`, http.StatusNotFound},
		{"create unknown field", http.MethodPost, "/ingredients", `{"name":"a","vegan":true}`, http.StatusBadRequest},
		{"delete missing", http.MethodDelete, missing, "", http.StatusNotFound},
		{"delete malformed", http.MethodDelete, "/ingredients/xyz", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, do(router, tt.method, tt.path, tt.body).Code)
		})
	}
}
