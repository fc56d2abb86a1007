package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"recipebox/db"
	"recipebox/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// NewMongo binds a Store to the collections of an open connection.
func NewMongo(d *db.DB) *Store {
	return &Store{
		Recipes:     &mongoRecipes{mongoCollection[models.Recipe]{coll: d.Recipes}},
		Ingredients: &mongoIngredients{mongoCollection[models.Ingredient]{coll: d.Ingredients}},
		Units:       &mongoCollection[models.Unit]{coll: d.Units},
		Users:       &mongoUsers{mongoCollection[models.User]{coll: d.Users}},
		Comments:    &mongoCollection[models.Comment]{coll: d.Comments},
	}
}

type mongoCollection[T any] struct {
	coll *mongo.Collection
}

func (c *mongoCollection[T]) Insert(ctx context.Context, doc *T) error {
	raw, err := stamp(doc, primitive.NewObjectID())
	if err != nil {
		return fmt.Errorf("encode %s document: %w", c.coll.Name(), err)
	}
	if _, err := c.coll.InsertOne(ctx, raw); err != nil {
		return mongoErr(err)
	}
	return nil
}

func (c *mongoCollection[T]) InsertMany(ctx context.Context, docs []*T) error {
	if len(docs) == 0 {
		return nil
	}
	batch := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		raw, err := stamp(doc, primitive.NewObjectID())
		if err != nil {
			return fmt.Errorf("encode %s document: %w", c.coll.Name(), err)
		}
		batch = append(batch, raw)
	}
	if _, err := c.coll.InsertMany(ctx, batch); err != nil {
		return mongoErr(err)
	}
	return nil
}

func (c *mongoCollection[T]) Get(ctx context.Context, id primitive.ObjectID) (*T, error) {
	var doc T
	if err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, mongoErr(err)
	}
	return &doc, nil
}

func (c *mongoCollection[T]) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]T, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []T{}, nil
	}
	return c.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (c *mongoCollection[T]) List(ctx context.Context) ([]T, error) {
	return c.find(ctx, bson.M{})
}

func (c *mongoCollection[T]) find(ctx context.Context, filter interface{}) ([]T, error) {
	cursor, err := c.coll.Find(ctx, filter, db.OptionsFindOrdered())
	if err != nil {
		return nil, mongoErr(err)
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mongoErr(err)
	}
	return docs, nil
}

func (c *mongoCollection[T]) Replace(ctx context.Context, id primitive.ObjectID, doc *T) error {
	raw, err := stamp(doc, id)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", c.coll.Name(), err)
	}
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, raw)
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *mongoCollection[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoErr(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *mongoCollection[T]) Count(ctx context.Context) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, mongoErr(err)
	}
	return n, nil
}

func (c *mongoCollection[T]) DeleteAll(ctx context.Context) error {
	if _, err := c.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return mongoErr(err)
	}
	return nil
}

type mongoRecipes struct {
	mongoCollection[models.Recipe]
}

func (c *mongoRecipes) Find(ctx context.Context, filter RecipeFilter) ([]models.Recipe, error) {
	return c.find(ctx, filter.BSON())
}

func (c *mongoRecipes) AddComment(ctx context.Context, recipeID, commentID primitive.ObjectID) error {
	return c.updateComments(ctx, recipeID, bson.M{"$addToSet": bson.M{"comments": commentID}})
}

func (c *mongoRecipes) RemoveComment(ctx context.Context, recipeID, commentID primitive.ObjectID) error {
	return c.updateComments(ctx, recipeID, bson.M{"$pull": bson.M{"comments": commentID}})
}

func (c *mongoRecipes) updateComments(ctx context.Context, recipeID primitive.ObjectID, update bson.M) error {
	res, err := c.coll.UpdateByID(ctx, recipeID, update)
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoIngredients struct {
	mongoCollection[models.Ingredient]
}

func (c *mongoIngredients) FindByAllergy(ctx context.Context, allergy string) ([]models.Ingredient, error) {
	return c.find(ctx, bson.M{"allergy": equalFold(allergy)})
}

func (c *mongoIngredients) FindByName(ctx context.Context, name string) ([]models.Ingredient, error) {
	return c.find(ctx, bson.M{"name": equalFold(name)})
}

type mongoUsers struct {
	mongoCollection[models.User]
}

func (c *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := c.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, mongoErr(err)
	}
	return &user, nil
}

// equalFold is an anchored, case-insensitive match on the literal value.
func equalFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

func mongoErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
