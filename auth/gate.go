package auth

import (
	"errors"
	"net/http"
	"strings"

	"recipebox/errs"
	"recipebox/store"
	"recipebox/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHeader carries a caller-supplied user id.
const UserHeader = "X-User-ID"

var errAccessDenied = errs.New(errs.AccessDenied, "access denied")

// Gate lets a request through only when it names an existing user, either by
// bearer token or by the X-User-ID header.
type Gate struct {
	Users  store.UserStore
	Tokens *Tokens
}

func (g *Gate) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := g.caller(r)
		if err != nil {
			utils.RespondWithError(w, r, err)
			return
		}
		next(w, r.WithContext(utils.WithUserID(r.Context(), id)), ps)
	}
}

func (g *Gate) caller(r *http.Request) (primitive.ObjectID, error) {
	id, err := g.claimedID(r)
	if err != nil {
		return primitive.NilObjectID, errs.Wrap(errs.AccessDenied, "access denied", err)
	}
	if _, err := g.Users.Get(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return primitive.NilObjectID, errAccessDenied
		}
		return primitive.NilObjectID, utils.StoreErr(err, "user")
	}
	return id, nil
}

func (g *Gate) claimedID(r *http.Request) (primitive.ObjectID, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return primitive.NilObjectID, errors.New("malformed authorization header")
		}
		return g.Tokens.Parse(strings.TrimSpace(token))
	}
	raw := strings.TrimSpace(r.Header.Get(UserHeader))
	if raw == "" {
		return primitive.NilObjectID, errors.New("no user id supplied")
	}
	return primitive.ObjectIDFromHex(raw)
}
