package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Ingredient struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"     json:"id"`
	Name    string             `bson:"name"              json:"name"`
	Allergy string             `bson:"allergy,omitempty" json:"allergy,omitempty"`
}

type Unit struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name"          json:"name"`
}

// User never serializes its password hash.
type User struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Email     string               `bson:"email"         json:"email"`
	Password  string               `bson:"password"      json:"-"`
	Favorites []primitive.ObjectID `bson:"favorites"     json:"favorites"`
	CreatedAt time.Time            `bson:"createdAt"     json:"createdAt"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"    json:"id"`
	Author    primitive.ObjectID `bson:"author,omitempty" json:"author,omitzero"`
	Content   string             `bson:"content"          json:"content"`
	CreatedAt time.Time          `bson:"createdAt"        json:"createdAt"`
}
