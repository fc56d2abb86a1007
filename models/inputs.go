package models

import (
	"errors"
	"net/mail"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Input types list every field a caller may send for a write. Decoding
// rejects anything else; any subset may be omitted. Reference fields decode
// straight into ObjectIDs so malformed ids fail before reaching the store.

type QuantityInput struct {
	Quantity   float64            `json:"quantity"`
	Unit       primitive.ObjectID `json:"unit"`
	Ingredient primitive.ObjectID `json:"ingredient"`
}

type RecipeInput struct {
	Title       string               `json:"title"`
	PrepTime    int                  `json:"prepTime"`
	Difficulty  string               `json:"difficulty"`
	Description string               `json:"description"`
	Image       string               `json:"image"`
	Steps       []string             `json:"steps"`
	Ingredients []primitive.ObjectID `json:"ingredients"`
	Vegan       bool                 `json:"vegan"`
	Vegetarian  bool                 `json:"vegetarian"`
	Quantities  []QuantityInput      `json:"quantities"`
	Creator     primitive.ObjectID   `json:"creator"`
}

func (in RecipeInput) Validate() error {
	if in.PrepTime < 0 {
		return errors.New("prepTime must not be negative")
	}
	if strings.ContainsAny(in.Image, `/\`) {
		return errors.New("image must be a bare filename")
	}
	for _, q := range in.Quantities {
		if q.Quantity < 0 {
			return errors.New("quantity must not be negative")
		}
	}
	return nil
}

// Recipe builds the stored document. Every mutable field comes from the
// input, so an update built from it replaces rather than merges.
func (in RecipeInput) Recipe() Recipe {
	r := Recipe{
		Title:       in.Title,
		PrepTime:    in.PrepTime,
		Difficulty:  in.Difficulty,
		Description: in.Description,
		Image:       in.Image,
		Steps:       in.Steps,
		Ingredients: in.Ingredients,
		Vegan:       in.Vegan,
		Vegetarian:  in.Vegetarian,
		Creator:     in.Creator,
	}
	for _, q := range in.Quantities {
		r.Quantities = append(r.Quantities, Quantity(q))
	}
	r.Normalize()
	return r
}

type IngredientInput struct {
	Name    string `json:"name"`
	Allergy string `json:"allergy"`
}

func (in IngredientInput) Ingredient() Ingredient {
	return Ingredient{
		Name:    strings.TrimSpace(in.Name),
		Allergy: strings.TrimSpace(in.Allergy),
	}
}

type UnitInput struct {
	Name string `json:"name"`
}

func (in UnitInput) Unit() Unit {
	return Unit{Name: strings.TrimSpace(in.Name)}
}

type UserInput struct {
	Email     string               `json:"email"`
	Password  string               `json:"password"`
	Favorites []primitive.ObjectID `json:"favorites"`
}

// Validate checks the email shape; an email is mandatory since login keys on it.
func (in UserInput) Validate() error {
	if strings.TrimSpace(in.Email) == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return errors.New("email is malformed")
	}
	return nil
}

// NormalizedEmail is the lookup form of the email.
func (in UserInput) NormalizedEmail() string {
	return NormalizeEmail(in.Email)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type CommentInput struct {
	Author  primitive.ObjectID `json:"author"`
	Content string             `json:"content"`
}

func (in CommentInput) Comment() Comment {
	return Comment{Author: in.Author, Content: in.Content}
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	if in.Email == "" || in.Password == "" {
		return errors.New("email and password are required")
	}
	return nil
}
