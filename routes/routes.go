package routes

import (
	"net/http"
	"time"

	"recipebox/auth"
	"recipebox/comments"
	"recipebox/errs"
	"recipebox/ingredients"
	"recipebox/middleware"
	"recipebox/mq"
	"recipebox/ratelim"
	"recipebox/rdx"
	"recipebox/recipes"
	"recipebox/seed"
	"recipebox/store"
	"recipebox/units"
	"recipebox/uploads"
	"recipebox/users"
	"recipebox/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Deps is everything the handlers share.
type Deps struct {
	Store        *store.Store
	Cache        *rdx.Cache
	Events       *mq.Hub
	Limiter      *ratelim.RateLimiter
	Tokens       *auth.Tokens
	Seed         *seed.Loader
	UploadDir    string
	StoreTimeout time.Duration
}

type routes struct {
	router *httprouter.Router
	gate   *auth.Gate
	deps   Deps
}

// handle registers h under its pattern with metrics and the store timeout.
func (rs *routes) handle(method, path string, h httprouter.Handle) {
	rs.router.Handle(method, path, middleware.Instrument(path, middleware.Timeout(rs.deps.StoreTimeout, h)))
}

func (rs *routes) open(method, path string, fn utils.HandlerFunc) {
	rs.handle(method, path, utils.Handle(fn))
}

// gated routes are rate limited before the caller is looked up.
func (rs *routes) gated(method, path string, h httprouter.Handle) {
	rs.handle(method, path, rs.deps.Limiter.RateLimit(rs.gate.Authenticate(h)))
}

func (rs *routes) gatedFn(method, path string, fn utils.HandlerFunc) {
	rs.gated(method, path, utils.Handle(fn))
}

func addRecipeRoutes(rs *routes) {
	d := rs.deps
	h := &recipes.Handler{
		Store:  d.Store,
		Search: &recipes.Searcher{Store: d.Store, Cache: d.Cache},
		Events: d.Events,
	}
	rs.open(http.MethodGet, "/recipes", h.GetRecipes)
	rs.open(http.MethodGet, "/recipes/:id", h.GetRecipe)
	rs.gatedFn(http.MethodPost, "/recipes", h.CreateRecipe)
	rs.gatedFn(http.MethodPut, "/recipes/:id", h.UpdateRecipe)
	rs.gated(http.MethodDelete, "/recipes/:id", h.DeleteRecipe)
	rs.gatedFn(http.MethodPost, "/recipes/:id/comment", h.AddComment)
	rs.gated(http.MethodDelete, "/recipes/:id/comment/:commentId", h.DeleteComment)
}

func addIngredientRoutes(rs *routes) {
	h := &ingredients.Handler{Store: rs.deps.Store, Cache: rs.deps.Cache, Events: rs.deps.Events}
	rs.open(http.MethodGet, "/ingredients", h.GetIngredients)
	rs.open(http.MethodGet, "/ingredients/:id", h.GetIngredient)
	rs.gatedFn(http.MethodPost, "/ingredients", h.CreateIngredient)
	rs.gatedFn(http.MethodPut, "/ingredients/:id", h.UpdateIngredient)
	rs.gated(http.MethodDelete, "/ingredients/:id", h.DeleteIngredient)
}

func addUnitRoutes(rs *routes) {
	h := &units.Handler{Store: rs.deps.Store, Events: rs.deps.Events}
	rs.open(http.MethodGet, "/units", h.GetUnits)
	rs.open(http.MethodGet, "/units/:id", h.GetUnit)
	rs.gatedFn(http.MethodPost, "/units", h.CreateUnit)
	rs.gatedFn(http.MethodPut, "/units/:id", h.UpdateUnit)
	rs.gated(http.MethodDelete, "/units/:id", h.DeleteUnit)
}

func addUserRoutes(rs *routes) {
	h := &users.Handler{Store: rs.deps.Store, Events: rs.deps.Events}
	rs.open(http.MethodGet, "/users", h.GetUsers)
	rs.open(http.MethodGet, "/users/:id", h.GetUser)
	rs.handle(http.MethodPost, "/users", rs.deps.Limiter.RateLimit(utils.Handle(h.CreateUser)))
	rs.gatedFn(http.MethodPut, "/users/:id", h.UpdateUser)
	rs.gated(http.MethodDelete, "/users/:id", h.DeleteUser)

	c := &comments.Handler{Store: rs.deps.Store}
	rs.open(http.MethodGet, "/comments", c.GetComments)
}

func addAuthRoutes(rs *routes) {
	h := &auth.Handler{Users: rs.deps.Store.Users, Tokens: rs.deps.Tokens}
	rs.handle(http.MethodPost, "/login", rs.deps.Limiter.RateLimit(utils.Handle(h.Login)))
}

func addUtilityRoutes(rs *routes) {
	if rs.deps.Seed != nil {
		rs.gatedFn(http.MethodGet, "/initRecipes", rs.deps.Seed.InitRecipes)
	}
	up := &uploads.Handler{Dir: rs.deps.UploadDir}
	rs.gatedFn(http.MethodPost, "/uploadImage", up.UploadImage)

	rs.router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "ok"})
	})
	rs.router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	if rs.deps.Events != nil {
		rs.router.GET("/ws/events", rs.deps.Events.Handler)
	}
}

func addStaticRoutes(rs *routes) {
	rs.router.ServeFiles(uploads.URLPrefix+"*filepath", http.Dir(rs.deps.UploadDir))
}

// NewRouter wires every route and wraps the router in the shared middleware.
func NewRouter(d Deps) http.Handler {
	rs := &routes{
		router: httprouter.New(),
		gate:   &auth.Gate{Users: d.Store.Users, Tokens: d.Tokens},
		deps:   d,
	}
	rs.router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, r, errs.New(errs.NotFound, "route not found"))
	})

	addRecipeRoutes(rs)
	addIngredientRoutes(rs)
	addUnitRoutes(rs)
	addUserRoutes(rs)
	addAuthRoutes(rs)
	addUtilityRoutes(rs)
	addStaticRoutes(rs)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", auth.UserHeader, middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})

	return middleware.Chain(rs.router,
		middleware.InFlight,
		middleware.RequestID,
		middleware.Logging,
		middleware.Recover,
		middleware.SecurityHeaders,
		c.Handler,
	)
}
