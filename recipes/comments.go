package recipes

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"recipebox/comments"
	"recipebox/models"
	"recipebox/mq"
	"recipebox/store"
	"recipebox/utils"

	"github.com/julienschmidt/httprouter"
)

// AddComment creates a comment and attaches it to the recipe. The two writes
// are not atomic: if the attach fails the comment stays orphaned.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	recipeID, err := utils.ParseID(ps, "id", entity)
	if err != nil {
		return err
	}
	var in models.CommentInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		return err
	}
	if _, err := h.Store.Recipes.Get(r.Context(), recipeID); err != nil {
		return utils.StoreErr(err, entity)
	}

	comment := in.Comment()
	if comment.Author.IsZero() {
		comment.Author = utils.GetUserIDFromContext(r.Context())
	}
	comment.CreatedAt = time.Now().UTC()
	if err := h.Store.Comments.Insert(r.Context(), &comment); err != nil {
		return utils.StoreErr(err, "comment")
	}
	if err := h.Store.Recipes.AddComment(r.Context(), recipeID, comment.ID); err != nil {
		slog.Warn("comment left unattached", "comment", comment.ID.Hex(), "recipe", recipeID.Hex(), "error", err)
		return utils.StoreErr(err, entity)
	}
	h.Events.Emit("comment", mq.MethodCreate, comment.ID)

	views, err := comments.Resolve(r.Context(), h.Store.Users, []models.Comment{comment})
	if err != nil {
		return utils.StoreErr(err, "user")
	}
	utils.RespondWithJSON(w, http.StatusCreated, views[0])
	return nil
}

// DeleteComment removes the comment record and its reference on the recipe.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	recipeID, err := utils.ParseID(ps, "id", entity)
	if err != nil {
		utils.RespondDeleteOutcome(w, "comment", store.ErrNotFound)
		return
	}
	commentID, err := utils.ParseID(ps, "commentId", "comment")
	if err != nil {
		utils.RespondDeleteOutcome(w, "comment", store.ErrNotFound)
		return
	}

	if err := h.Store.Comments.Delete(r.Context(), commentID); err != nil {
		utils.RespondDeleteOutcome(w, "comment", err)
		return
	}
	if err := h.Store.Recipes.RemoveComment(r.Context(), recipeID, commentID); err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Warn("comment reference not removed", "comment", commentID.Hex(), "recipe", recipeID.Hex(), "error", err)
	}
	h.Events.Emit("comment", mq.MethodDelete, commentID)
	utils.RespondDeleteOutcome(w, "comment", nil)
}
