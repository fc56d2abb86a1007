package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Quantity is one "how much of what" line of a recipe.
type Quantity struct {
	Quantity   float64            `bson:"quantity"             json:"quantity"`
	Unit       primitive.ObjectID `bson:"unit,omitempty"       json:"unit,omitzero"`
	Ingredient primitive.ObjectID `bson:"ingredient,omitempty" json:"ingredient,omitzero"`
}

type Recipe struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"     json:"id"`
	Title       string               `bson:"title"             json:"title"`
	PrepTime    int                  `bson:"prepTime"          json:"prepTime"`
	Difficulty  string               `bson:"difficulty"        json:"difficulty"`
	Description string               `bson:"description"       json:"description"`
	Image       string               `bson:"image,omitempty"   json:"image,omitempty"`
	Steps       []string             `bson:"steps"             json:"steps"`
	Ingredients []primitive.ObjectID `bson:"ingredients"       json:"ingredients"`
	Vegan       bool                 `bson:"vegan"             json:"vegan"`
	Vegetarian  bool                 `bson:"vegetarian"        json:"vegetarian"`
	Quantities  []Quantity           `bson:"quantities"        json:"quantities"`
	Creator     primitive.ObjectID   `bson:"creator,omitempty" json:"creator,omitzero"`
	Comments    []primitive.ObjectID `bson:"comments"          json:"comments"`
	CreatedAt   time.Time            `bson:"createdAt"         json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"         json:"updatedAt"`
}

// Normalize replaces nil slices with empty ones so the stored document always
// carries arrays ($addToSet and $pull refuse to operate on null fields).
func (r *Recipe) Normalize() {
	if r.Steps == nil {
		r.Steps = []string{}
	}
	if r.Ingredients == nil {
		r.Ingredients = []primitive.ObjectID{}
	}
	if r.Quantities == nil {
		r.Quantities = []Quantity{}
	}
	if r.Comments == nil {
		r.Comments = []primitive.ObjectID{}
	}
}

// HasIngredient reports whether id is among the recipe's ingredient references.
func (r *Recipe) HasIngredient(id primitive.ObjectID) bool {
	for _, ing := range r.Ingredients {
		if ing == id {
			return true
		}
	}
	return false
}
