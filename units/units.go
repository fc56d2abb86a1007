package units

import (
	"net/http"

	"recipebox/models"
	"recipebox/mq"
	"recipebox/store"
	"recipebox/utils"

	"github.com/julienschmidt/httprouter"
)

const entity = "unit"

type Handler struct {
	Store  *store.Store
	Events *mq.Hub
}

func (h *Handler) GetUnits(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	list, err := h.Store.Units.List(r.Context())
	if err != nil {
		return utils.StoreErr(err, entity)
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
	return nil
}

func (h *Handler) GetUnit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	id, err := utils.ParseID(ps, "id", entity)
	if err != nil {
		return err
	}
	unit, err := h.Store.Units.Get(r.Context(), id)
	if err != nil {
		return utils.StoreErr(err, entity)
	}
	utils.RespondWithJSON(w, http.StatusOK, unit)
	return nil
}

func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var in models.UnitInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		return err
	}
	unit := in.Unit()
	if err := h.Store.Units.Insert(r.Context(), &unit); err != nil {
		return utils.StoreErr(err, entity)
	}
	h.Events.Emit(entity, mq.MethodCreate, unit.ID)
	utils.RespondWithJSON(w, http.StatusCreated, unit)
	return nil
}

func (h *Handler) UpdateUnit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	id, err := utils.ParseID(ps, "id", entity)
	if err != nil {
		return err
	}
	var in models.UnitInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		return err
	}
	unit := in.Unit()
	if err := h.Store.Units.Replace(r.Context(), id, &unit); err != nil {
		return utils.StoreErr(err, entity)
	}
	h.Events.Emit(entity, mq.MethodUpdate, id)
	utils.RespondWithJSON(w, http.StatusOK, unit)
	return nil
}

func (h *Handler) DeleteUnit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := utils.ParseID(ps, "id", entity)
	if err != nil {
		utils.RespondDeleteOutcome(w, entity, store.ErrNotFound)
		return
	}
	err = h.Store.Units.Delete(r.Context(), id)
	if err == nil {
		h.Events.Emit(entity, mq.MethodDelete, id)
	}
	utils.RespondDeleteOutcome(w, entity, err)
}
