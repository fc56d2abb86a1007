package recipes

import (
	"net/http"
	"time"

	"recipebox/errs"
	"recipebox/models"
	"recipebox/mq"
	"recipebox/store"
	"recipebox/utils"

	"github.com/julienschmidt/httprouter"
)

const entity = "recipe"

type Handler struct {
	Store  *store.Store
	Search *Searcher
	Events *mq.Hub
}

// GetRecipes is the catalog search. With no parameters it lists everything.
func (h *Handler) GetRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	facets, err := ParseFacets(r.URL.Query())
	if err != nil {
		return err
	}
	views, err := h.Search.Search(r.Context(), facets)
	if err != nil {
		return err
	}
	utils.RespondWithJSON(w, http.StatusOK, views)
	return nil
}

func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	id, err := utils.ParseID(ps, "id", entity)
	if err != nil {
		return err
	}
	recipe, err := h.Store.Recipes.Get(r.Context(), id)
	if err != nil {
		return utils.StoreErr(err, entity)
	}
	views, err := Resolve(r.Context(), h.Store, []models.Recipe{*recipe})
	if err != nil {
		return utils.StoreErr(err, entity)
	}
	utils.RespondWithJSON(w, http.StatusOK, views[0])
	return nil
}

// CreateRecipe stores a new recipe. The creator defaults to the caller.
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	in, err := decodeRecipe(w, r)
	if err != nil {
		return err
	}
	recipe := in.Recipe()
	if recipe.Creator.IsZero() {
		recipe.Creator = utils.GetUserIDFromContext(r.Context())
	}
	now := time.Now().UTC()
	recipe.CreatedAt, recipe.UpdatedAt = now, now

	if err := h.Store.Recipes.Insert(r.Context(), &recipe); err != nil {
		return utils.StoreErr(err, entity)
	}
	h.Events.Emit(entity, mq.MethodCreate, recipe.ID)
	utils.RespondWithJSON(w, http.StatusCreated, recipe)
	return nil
}

// UpdateRecipe replaces every mutable field with the input, creator
// included. Only comments and the creation time carry over.
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	id, err := utils.ParseID(ps, "id", entity)
	if err != nil {
		return err
	}
	in, err := decodeRecipe(w, r)
	if err != nil {
		return err
	}
	existing, err := h.Store.Recipes.Get(r.Context(), id)
	if err != nil {
		return utils.StoreErr(err, entity)
	}

	recipe := in.Recipe()
	recipe.Comments = existing.Comments
	recipe.CreatedAt = existing.CreatedAt
	recipe.UpdatedAt = time.Now().UTC()
	recipe.Normalize()

	if err := h.Store.Recipes.Replace(r.Context(), id, &recipe); err != nil {
		return utils.StoreErr(err, entity)
	}
	h.Events.Emit(entity, mq.MethodUpdate, id)
	utils.RespondWithJSON(w, http.StatusOK, recipe)
	return nil
}

// DeleteRecipe never cascades to the recipe's comments.
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := utils.ParseID(ps, "id", entity)
	if err != nil {
		utils.RespondDeleteOutcome(w, entity, store.ErrNotFound)
		return
	}
	err = h.Store.Recipes.Delete(r.Context(), id)
	if err == nil {
		h.Events.Emit(entity, mq.MethodDelete, id)
	}
	utils.RespondDeleteOutcome(w, entity, err)
}

func decodeRecipe(w http.ResponseWriter, r *http.Request) (models.RecipeInput, error) {
	var in models.RecipeInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		return in, err
	}
	if err := in.Validate(); err != nil {
		return in, errs.Wrap(errs.InvalidRequest, err.Error(), err)
	}
	return in, nil
}
