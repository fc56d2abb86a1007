// Package store is the persistence boundary for the five catalog record types.
// Handlers depend on *Store; MongoDB backs it in production and an in-memory
// implementation backs tests and the --memory server mode.
package store

import (
	"context"
	"errors"

	"recipebox/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key is reused.
	ErrDuplicate = errors.New("duplicate key")
)

// Collection is the uniform CRUD contract every record type gets.
type Collection[T any] interface {
	// Insert assigns a fresh id, stores doc and writes the id back into it.
	Insert(ctx context.Context, doc *T) error
	InsertMany(ctx context.Context, docs []*T) error
	Get(ctx context.Context, id primitive.ObjectID) (*T, error)
	// GetMany returns the documents that exist among ids, in no particular order.
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]T, error)
	List(ctx context.Context) ([]T, error)
	// Replace overwrites the whole document stored under id.
	Replace(ctx context.Context, id primitive.ObjectID, doc *T) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
}

type RecipeStore interface {
	Collection[models.Recipe]
	Find(ctx context.Context, filter RecipeFilter) ([]models.Recipe, error)
	// AddComment appends commentID to the recipe's comments unless present.
	AddComment(ctx context.Context, recipeID, commentID primitive.ObjectID) error
	RemoveComment(ctx context.Context, recipeID, commentID primitive.ObjectID) error
}

type IngredientStore interface {
	Collection[models.Ingredient]
	// FindByAllergy matches the allergen category case-insensitively.
	FindByAllergy(ctx context.Context, allergy string) ([]models.Ingredient, error)
	// FindByName matches the ingredient name case-insensitively.
	FindByName(ctx context.Context, name string) ([]models.Ingredient, error)
}

type UserStore interface {
	Collection[models.User]
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store bundles the collections. It is constructed once and passed to every
// handler.
type Store struct {
	Recipes     RecipeStore
	Ingredients IngredientStore
	Units       Collection[models.Unit]
	Users       UserStore
	Comments    Collection[models.Comment]
}

// RecipeFilter is the ingredient inclusion/exclusion predicate plus the diet
// flags. A nil flag means "don't care".
type RecipeFilter struct {
	// Exclude lists ingredient ids a recipe must not reference.
	Exclude []primitive.ObjectID
	// RequireAny makes AnyOf binding: the recipe must reference at least one
	// of its ids, and an empty AnyOf matches nothing.
	RequireAny bool
	AnyOf      []primitive.ObjectID
	Vegan      *bool
	Vegetarian *bool
}

// Matches evaluates the filter against a recipe in memory.
func (f RecipeFilter) Matches(r *models.Recipe) bool {
	for _, id := range f.Exclude {
		if r.HasIngredient(id) {
			return false
		}
	}
	if f.RequireAny {
		found := false
		for _, id := range f.AnyOf {
			if r.HasIngredient(id) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Vegan != nil && r.Vegan != *f.Vegan {
		return false
	}
	if f.Vegetarian != nil && r.Vegetarian != *f.Vegetarian {
		return false
	}
	return true
}

// BSON renders the filter as a MongoDB query document.
func (f RecipeFilter) BSON() bson.M {
	query := bson.M{}

	ingredients := bson.M{}
	if len(f.Exclude) > 0 {
		ingredients["$nin"] = f.Exclude
	}
	if f.RequireAny {
		anyOf := f.AnyOf
		if anyOf == nil {
			anyOf = []primitive.ObjectID{}
		}
		ingredients["$in"] = anyOf
	}
	if len(ingredients) > 0 {
		query["ingredients"] = ingredients
	}

	if f.Vegan != nil {
		query["vegan"] = *f.Vegan
	}
	if f.Vegetarian != nil {
		query["vegetarian"] = *f.Vegetarian
	}
	return query
}

// stamp re-encodes doc with _id set to id as its first field and decodes the
// result back into doc, so callers see the assigned id.
func stamp[T any](doc *T, id primitive.ObjectID) (bson.Raw, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var fields bson.D
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	out := bson.D{{Key: "_id", Value: id}}
	for _, e := range fields {
		if e.Key != "_id" {
			out = append(out, e)
		}
	}

	raw, err = bson.Marshal(out)
	if err != nil {
		return nil, err
	}
	if err := bson.Unmarshal(raw, doc); err != nil {
		return nil, err
	}
	return raw, nil
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
