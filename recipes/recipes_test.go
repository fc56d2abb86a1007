package recipes

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

type testServer struct {
	*fixture
	router *httprouter.Router
	caller *models.User
}

// newTestServer mounts the recipe handlers with the caller already on the
// request context, the way the gate leaves it.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	f := newFixture(t)
	caller := &models.User{Email: "cook@example.com"}
	require.NoError(t, f.st.Users.Insert(context.Background(), caller))

	h := &Handler{Store: f.st, Search: &Searcher{Store: f.st}}
	asCaller := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			next(w, r.WithContext(utils.WithUserID(r.Context(), caller.ID)), ps)
		}
	}

	router := httprouter.New()
	router.GET("/recipes", utils.Handle(h.GetRecipes))
	router.GET("/recipes/:id", utils.Handle(h.GetRecipe))
	router.POST("/recipes", asCaller(utils.Handle(h.CreateRecipe)))
	router.PUT("/recipes/:id", asCaller(utils.Handle(h.UpdateRecipe)))
	router.DELETE("/recipes/:id", asCaller(h.DeleteRecipe))
	router.POST("/recipes/:id/comment", asCaller(utils.Handle(h.AddComment)))
	router.DELETE("/recipes/:id/comment/:commentId", asCaller(h.DeleteComment))
	return &testServer{fixture: f, router: router, caller: caller}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestGetRecipesNeverNull(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/recipes?ingredients=saffron", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/recipes?vegan=perhaps", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", decode[map[string]interface{}](t, rec)["code"])
}

func TestGetRecipeResolvesReferences(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	gram := &models.Unit{Name: "g"}
	require.NoError(t, s.st.Units.Insert(ctx, gram))
	recipe := &models.Recipe{
		Title:       "Rice Bowl",
		Ingredients: []primitive.ObjectID{s.ing["Rice"], primitive.NewObjectID()},
		Quantities:  []models.Quantity{{Quantity: 200, Unit: gram.ID, Ingredient: s.ing["Rice"]}},
		Creator:     s.caller.ID,
	}
	recipe.Normalize()
	require.NoError(t, s.st.Recipes.Insert(ctx, recipe))

	rec := s.do(t, http.MethodGet, "/recipes/"+recipe.ID.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "Rice Bowl", view["title"])

	ingredients := view["ingredients"].([]interface{})
	require.Len(t, ingredients, 1, "dangling ingredient references are dropped")
	assert.Equal(t, "Rice", ingredients[0].(map[string]interface{})["name"])

	quantities := view["quantities"].([]interface{})
	require.Len(t, quantities, 1)
	q := quantities[0].(map[string]interface{})
	assert.EqualValues(t, 200, q["quantity"])
	assert.Equal(t, "g", q["unit"].(map[string]interface{})["name"])

	creator := view["creator"].(map[string]interface{})
	assert.Equal(t, "cook@example.com", creator["email"])
	assert.NotContains(t, creator, "password")
}

func TestGetRecipeNotFound(t *testing.T) {
	s := newTestServer(t)
	for _, id := range []string{"garbage", primitive.NewObjectID().Hex()} {
		rec := s.do(t, http.MethodGet, "/recipes/"+id, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
		assert.Equal(t, "NOT_FOUND", decode[map[string]interface{}](t, rec)["code"])
	}
}

func TestCreateRecipe(t *testing.T) {
	s := newTestServer(t)

	body := `{"title":"Fried Rice","prepTime":15,"steps":["fry"],"ingredients":["` + s.ing["Rice"].Hex() + `"],"vegan":true}`
	rec := s.do(t, http.MethodPost, "/recipes", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[models.Recipe](t, rec)
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, s.caller.ID, created.Creator, "creator defaults to the caller")
	assert.False(t, created.CreatedAt.IsZero())

	stored, err := s.st.Recipes.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fried Rice", stored.Title)
	assert.Equal(t, 15, stored.PrepTime)
	assert.Empty(t, stored.Comments)
}

func TestCreateRecipeRejectsBadInput(t *testing.T) {
	s := newTestServer(t)
	tests := map[string]string{
		"unknown field":     `{"title":"x","servings":4}`,
		"malformed id":      `{"title":"x","ingredients":["nope"]}`,
		"negative prepTime": `{"title":"x","prepTime":-1}`,
		"path in image":     `{"title":"x","image":"../etc/passwd"}`,
		"not json":          `title=x`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/recipes", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_REQUEST", decode[map[string]interface{}](t, rec)["code"])
		})
	}
}

func TestUpdateRecipeIsFullReplace(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	id := s.recipes["Bread"]

	original, err := s.st.Recipes.Get(ctx, id)
	require.NoError(t, err)
	original.Description = "crusty"
	original.Creator = s.caller.ID
	require.NoError(t, s.st.Recipes.Replace(ctx, id, original))
	commentID := primitive.NewObjectID()
	require.NoError(t, s.st.Recipes.AddComment(ctx, id, commentID))

	rec := s.do(t, http.MethodPut, "/recipes/"+id.Hex(), `{"title":"Flatbread"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := s.st.Recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Flatbread", stored.Title)
	assert.Empty(t, stored.Description, "omitted fields are cleared")
	assert.Empty(t, stored.Ingredients)
	assert.False(t, stored.Vegan)
	assert.Equal(t, []primitive.ObjectID{commentID}, stored.Comments, "comments survive the replace")
	assert.Equal(t, original.CreatedAt, stored.CreatedAt)
	assert.True(t, stored.Creator.IsZero(), "an omitted creator is cleared")

	rec = s.do(t, http.MethodPut, "/recipes/"+primitive.NewObjectID().Hex(), `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRecipe(t *testing.T) {
	s := newTestServer(t)
	id := s.recipes["Plain Rice"].Hex()

	rec := s.do(t, http.MethodDelete, "/recipes/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, true, body["success"])

	rec = s.do(t, http.MethodDelete, "/recipes/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body = decode[map[string]interface{}](t, rec)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])

	rec = s.do(t, http.MethodDelete, "/recipes/garbage", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decode[map[string]interface{}](t, rec)["success"])
}

func TestAddComment(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	id := s.recipes["Bread"]

	rec := s.do(t, http.MethodPost, "/recipes/"+id.Hex()+"/comment", `{"content":"lovely"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	view := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "lovely", view["content"])
	author := view["author"].(map[string]interface{})
	assert.Equal(t, s.caller.ID.Hex(), author["id"])

	commentID, err := primitive.ObjectIDFromHex(view["id"].(string))
	require.NoError(t, err)
	stored, err := s.st.Recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{commentID}, stored.Comments)

	// Re-attaching the same comment id keeps a single reference.
	require.NoError(t, s.st.Recipes.AddComment(ctx, id, commentID))
	stored, err = s.st.Recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, stored.Comments, 1)

	rec = s.do(t, http.MethodGet, "/recipes/"+id.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	comments := decode[map[string]interface{}](t, rec)["comments"].([]interface{})
	require.Len(t, comments, 1)
	assert.Equal(t, "lovely", comments[0].(map[string]interface{})["content"])
}

func TestAddCommentToMissingRecipe(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/recipes/"+primitive.NewObjectID().Hex()+"/comment", `{"content":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	n, err := s.st.Comments.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "no comment is created for a missing recipe")
}

func TestDeleteComment(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	id := s.recipes["Bread"]

	rec := s.do(t, http.MethodPost, "/recipes/"+id.Hex()+"/comment", `{"content":"dry"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	commentID := decode[map[string]interface{}](t, rec)["id"].(string)

	rec = s.do(t, http.MethodDelete, "/recipes/"+id.Hex()+"/comment/"+commentID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]interface{}](t, rec)["success"])

	stored, err := s.st.Recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, stored.Comments)

	rec = s.do(t, http.MethodDelete, "/recipes/"+id.Hex()+"/comment/"+commentID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decode[map[string]interface{}](t, rec)["success"])
}

func TestDeleteIsNotCascading(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	id := s.recipes["Bread"]

	rec := s.do(t, http.MethodPost, "/recipes/"+id.Hex()+"/comment", `{"content":"kept"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodDelete, "/recipes/"+id.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	n, err := s.st.Comments.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = s.st.Recipes.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
