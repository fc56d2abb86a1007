package comments

import (
	"context"
	"net/http"

	"recipebox/models"
	"recipebox/store"
	"recipebox/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	Store *store.Store
}

// GetComments lists every comment with its author expanded.
func (h *Handler) GetComments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	list, err := h.Store.Comments.List(r.Context())
	if err != nil {
		return utils.StoreErr(err, "comment")
	}
	views, err := Resolve(r.Context(), h.Store.Users, list)
	if err != nil {
		return utils.StoreErr(err, "user")
	}
	utils.RespondWithJSON(w, http.StatusOK, views)
	return nil
}

// Resolve expands comment authors with one batch lookup. Authors that no
// longer exist are left empty.
func Resolve(ctx context.Context, users store.UserStore, list []models.Comment) ([]models.CommentView, error) {
	ids := make([]primitive.ObjectID, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.Author)
	}
	found, err := users.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.User, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	views := make([]models.CommentView, 0, len(list))
	for _, c := range list {
		views = append(views, models.CommentView{Comment: c, Author: byID[c.Author]})
	}
	return views, nil
}
