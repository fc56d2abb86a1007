package models

// RecipeView is a recipe with its references expanded. The outer fields
// shadow the embedded id lists when encoded.
type RecipeView struct {
	Recipe
	Ingredients []Ingredient   `json:"ingredients"`
	Quantities  []QuantityView `json:"quantities"`
	Creator     *User          `json:"creator,omitempty"`
	Comments    []CommentView  `json:"comments"`
}

type QuantityView struct {
	Quantity   float64     `json:"quantity"`
	Unit       *Unit       `json:"unit,omitempty"`
	Ingredient *Ingredient `json:"ingredient,omitempty"`
}

type CommentView struct {
	Comment
	Author *User `json:"author,omitempty"`
}
