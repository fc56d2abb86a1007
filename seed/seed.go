// Package seed loads the bundled catalog: units and ingredients once on an
// empty store, recipes on demand.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"recipebox/models"
	"recipebox/mq"
	"recipebox/rdx"
	"recipebox/store"
	"recipebox/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dataset is the bundled catalog. Recipes name their ingredients and units
// instead of referencing ids, which only exist once stored.
type Dataset struct {
	Units       []models.UnitInput       `json:"units"`
	Ingredients []models.IngredientInput `json:"ingredients"`
	Recipes     []Recipe                 `json:"recipes"`
}

type Recipe struct {
	Title       string     `json:"title"`
	PrepTime    int        `json:"prepTime"`
	Difficulty  string     `json:"difficulty"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	Steps       []string   `json:"steps"`
	Vegan       bool       `json:"vegan"`
	Vegetarian  bool       `json:"vegetarian"`
	Quantities  []Quantity `json:"quantities"`
}

type Quantity struct {
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	Ingredient string  `json:"ingredient"`
}

func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &ds, nil
}

type Loader struct {
	Store  *store.Store
	Data   *Dataset
	Cache  *rdx.Cache
	Events *mq.Hub
}

// SeedIngredients fills the ingredient and unit collections when they are
// empty and does nothing otherwise.
func (l *Loader) SeedIngredients(ctx context.Context) error {
	n, err := l.Store.Units.Count(ctx)
	if err != nil {
		return fmt.Errorf("count units: %w", err)
	}
	if n == 0 && len(l.Data.Units) > 0 {
		docs := make([]*models.Unit, 0, len(l.Data.Units))
		for _, in := range l.Data.Units {
			u := in.Unit()
			docs = append(docs, &u)
		}
		if err := l.Store.Units.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert units: %w", err)
		}
		slog.Info("seeded units", "count", len(docs))
	}

	n, err = l.Store.Ingredients.Count(ctx)
	if err != nil {
		return fmt.Errorf("count ingredients: %w", err)
	}
	if n > 0 {
		slog.Debug("ingredients already present, skipping seed", "count", n)
		return nil
	}
	docs := make([]*models.Ingredient, 0, len(l.Data.Ingredients))
	for _, in := range l.Data.Ingredients {
		ing := in.Ingredient()
		docs = append(docs, &ing)
	}
	if err := l.Store.Ingredients.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert ingredients: %w", err)
	}
	if err := l.Cache.Bump(ctx, rdx.IngredientsGeneration); err != nil {
		slog.Warn("facet cache not invalidated", "error", err)
	}
	slog.Info("seeded ingredients", "count", len(docs))
	return nil
}

// ReloadRecipes deletes every recipe and inserts the bundled ones against
// the current ingredients and units. Names that match nothing are skipped.
func (l *Loader) ReloadRecipes(ctx context.Context) ([]models.Recipe, error) {
	ingredients, err := l.Store.Ingredients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	units, err := l.Store.Units.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	ingredientByName := make(map[string]primitive.ObjectID, len(ingredients))
	for _, ing := range ingredients {
		ingredientByName[strings.ToLower(ing.Name)] = ing.ID
	}
	unitByName := make(map[string]primitive.ObjectID, len(units))
	for _, u := range units {
		unitByName[strings.ToLower(u.Name)] = u.ID
	}

	if err := l.Store.Recipes.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("clear recipes: %w", err)
	}

	now := time.Now().UTC()
	docs := make([]*models.Recipe, 0, len(l.Data.Recipes))
	for _, sr := range l.Data.Recipes {
		r := &models.Recipe{
			Title:       sr.Title,
			PrepTime:    sr.PrepTime,
			Difficulty:  sr.Difficulty,
			Description: sr.Description,
			Image:       sr.Image,
			Steps:       sr.Steps,
			Vegan:       sr.Vegan,
			Vegetarian:  sr.Vegetarian,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		for _, q := range sr.Quantities {
			ingID, ok := ingredientByName[strings.ToLower(q.Ingredient)]
			if !ok {
				slog.Warn("seed recipe names unknown ingredient", "recipe", sr.Title, "ingredient", q.Ingredient)
				continue
			}
			unitID, ok := unitByName[strings.ToLower(q.Unit)]
			if !ok {
				slog.Warn("seed recipe names unknown unit", "recipe", sr.Title, "unit", q.Unit)
				continue
			}
			if !r.HasIngredient(ingID) {
				r.Ingredients = append(r.Ingredients, ingID)
			}
			r.Quantities = append(r.Quantities, models.Quantity{
				Quantity:   q.Quantity,
				Unit:       unitID,
				Ingredient: ingID,
			})
		}
		r.Normalize()
		docs = append(docs, r)
	}

	if err := l.Store.Recipes.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("insert recipes: %w", err)
	}
	out := make([]models.Recipe, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d)
		l.Events.Emit("recipe", mq.MethodCreate, d.ID)
	}
	slog.Info("reloaded recipes", "count", len(out))
	return out, nil
}

// InitRecipes reloads the bundled recipes and returns them.
func (l *Loader) InitRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	list, err := l.ReloadRecipes(r.Context())
	if err != nil {
		return utils.StoreErr(err, "recipe")
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
	return nil
}
