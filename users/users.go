package users

import (
	"net/http"
	"time"

	"recipebox/auth"
	"recipebox/errs"
	"recipebox/models"
	"recipebox/mq"
	"recipebox/store"
	"recipebox/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const entity = "user"

type Handler struct {
	Store  *store.Store
	Events *mq.Hub
}

func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	list, err := h.Store.Users.List(r.Context())
	if err != nil {
		return utils.StoreErr(err, entity)
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
	return nil
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	id, err := utils.ParseID(ps, "id", entity)
	if err != nil {
		return err
	}
	user, err := h.Store.Users.Get(r.Context(), id)
	if err != nil {
		return utils.StoreErr(err, entity)
	}
	utils.RespondWithJSON(w, http.StatusOK, user)
	return nil
}

// CreateUser registers a user. It sits outside the gate.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	user, err := h.decode(w, r)
	if err != nil {
		return err
	}
	user.CreatedAt = time.Now().UTC()
	if err := h.Store.Users.Insert(r.Context(), user); err != nil {
		return utils.StoreErr(err, entity)
	}
	h.Events.Emit(entity, mq.MethodCreate, user.ID)
	utils.RespondWithJSON(w, http.StatusCreated, user)
	return nil
}

// UpdateUser replaces the user. An omitted password clears the credential.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	id, err := utils.ParseID(ps, "id", entity)
	if err != nil {
		return err
	}
	user, err := h.decode(w, r)
	if err != nil {
		return err
	}
	existing, err := h.Store.Users.Get(r.Context(), id)
	if err != nil {
		return utils.StoreErr(err, entity)
	}
	user.CreatedAt = existing.CreatedAt
	if err := h.Store.Users.Replace(r.Context(), id, user); err != nil {
		return utils.StoreErr(err, entity)
	}
	h.Events.Emit(entity, mq.MethodUpdate, id)
	utils.RespondWithJSON(w, http.StatusOK, user)
	return nil
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := utils.ParseID(ps, "id", entity)
	if err != nil {
		utils.RespondDeleteOutcome(w, entity, store.ErrNotFound)
		return
	}
	err = h.Store.Users.Delete(r.Context(), id)
	if err == nil {
		h.Events.Emit(entity, mq.MethodDelete, id)
	}
	utils.RespondDeleteOutcome(w, entity, err)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*models.User, error) {
	var in models.UserInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, errs.Wrap(errs.InvalidRequest, err.Error(), err)
	}

	user := &models.User{Email: in.NormalizedEmail(), Favorites: in.Favorites}
	if user.Favorites == nil {
		user.Favorites = []primitive.ObjectID{}
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, errs.Wrap(errs.Internal, "", err)
		}
		user.Password = hash
	}
	return user, nil
}
