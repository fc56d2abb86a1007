package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"recipebox/errs"
	"recipebox/models"
	"recipebox/store"
	"recipebox/utils"

	"github.com/julienschmidt/httprouter"
)

const invalidCredentials = "invalid email or password"

type Handler struct {
	Users  store.UserStore
	Tokens *Tokens
}

// Login matches the credentials against the stored hash. Unknown email and
// wrong password answer identically.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var in models.LoginInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return errs.Wrap(errs.InvalidRequest, err.Error(), err)
	}

	user, err := h.Users.FindByEmail(r.Context(), models.NormalizeEmail(in.Email))
	if errors.Is(err, store.ErrNotFound) {
		rejectLogin(w)
		return nil
	}
	if err != nil {
		return utils.StoreErr(err, "user")
	}
	if !CheckPassword(user.Password, in.Password) {
		rejectLogin(w)
		return nil
	}

	resp := utils.M{"success": true, "user": user}
	if h.Tokens.Enabled() {
		token, err := h.Tokens.Issue(user.ID)
		if err != nil {
			return errs.Wrap(errs.Internal, "", err)
		}
		resp["token"] = token
	}
	slog.Info("user logged in", "user", user.ID.Hex())
	utils.RespondWithJSON(w, http.StatusOK, resp)
	return nil
}

func rejectLogin(w http.ResponseWriter) {
	utils.RespondWithJSON(w, http.StatusUnauthorized, utils.M{"success": false, "error": invalidCredentials})
}
