package ingredients

import (
	"context"
	"log/slog"
	"net/http"

	"recipebox/models"
	"recipebox/mq"
	"recipebox/rdx"
	"recipebox/store"
	"recipebox/utils"

	"github.com/julienschmidt/httprouter"
)

const entity = "ingredient"

type Handler struct {
	Store  *store.Store
	Cache  *rdx.Cache
	Events *mq.Hub
}

func (h *Handler) GetIngredients(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	list, err := h.Store.Ingredients.List(r.Context())
	if err != nil {
		return utils.StoreErr(err, entity)
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
	return nil
}

func (h *Handler) GetIngredient(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	id, err := utils.ParseID(ps, "id", entity)
	if err != nil {
		return err
	}
	ing, err := h.Store.Ingredients.Get(r.Context(), id)
	if err != nil {
		return utils.StoreErr(err, entity)
	}
	utils.RespondWithJSON(w, http.StatusOK, ing)
	return nil
}

func (h *Handler) CreateIngredient(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var in models.IngredientInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		return err
	}
	ing := in.Ingredient()
	if err := h.Store.Ingredients.Insert(r.Context(), &ing); err != nil {
		return utils.StoreErr(err, entity)
	}
	h.changed(r.Context(), mq.MethodCreate, ing)
	utils.RespondWithJSON(w, http.StatusCreated, ing)
	return nil
}

func (h *Handler) UpdateIngredient(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	id, err := utils.ParseID(ps, "id", entity)
	if err != nil {
		return err
	}
	var in models.IngredientInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		return err
	}
	ing := in.Ingredient()
	if err := h.Store.Ingredients.Replace(r.Context(), id, &ing); err != nil {
		return utils.StoreErr(err, entity)
	}
	h.changed(r.Context(), mq.MethodUpdate, ing)
	utils.RespondWithJSON(w, http.StatusOK, ing)
	return nil
}

// DeleteIngredient leaves recipes that reference the ingredient untouched.
func (h *Handler) DeleteIngredient(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := utils.ParseID(ps, "id", entity)
	if err != nil {
		utils.RespondDeleteOutcome(w, entity, store.ErrNotFound)
		return
	}
	err = h.Store.Ingredients.Delete(r.Context(), id)
	if err == nil {
		h.changed(r.Context(), mq.MethodDelete, models.Ingredient{ID: id})
	}
	utils.RespondDeleteOutcome(w, entity, err)
}

// changed invalidates cached facet lookups and announces the write.
func (h *Handler) changed(ctx context.Context, method string, ing models.Ingredient) {
	if err := h.Cache.Bump(ctx, rdx.IngredientsGeneration); err != nil {
		slog.Warn("facet cache not invalidated", "error", err)
	}
	h.Events.Emit(entity, method, ing.ID)
}
