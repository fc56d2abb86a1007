package store

import (
	"context"
	"strings"
	"sync"

	"recipebox/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewMemory creates an empty in-memory Store. Documents are kept BSON-encoded
// so reads hand out copies, the way a real document store does. Safe for
// concurrent use.
func NewMemory() *Store {
	return &Store{
		Recipes:     &memRecipes{newMemCollection[models.Recipe]()},
		Ingredients: &memIngredients{newMemCollection[models.Ingredient]()},
		Units:       newMemCollection[models.Unit](),
		Users:       &memUsers{memCollection: newMemCollection[models.User]()},
		Comments:    newMemCollection[models.Comment](),
	}
}

type memCollection[T any] struct {
	mu    sync.RWMutex
	docs  map[primitive.ObjectID]bson.Raw
	order []primitive.ObjectID
}

func newMemCollection[T any]() *memCollection[T] {
	return &memCollection[T]{docs: make(map[primitive.ObjectID]bson.Raw)}
}

func (c *memCollection[T]) Insert(ctx context.Context, doc *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertLocked(doc)
}

func (c *memCollection[T]) insertLocked(doc *T) error {
	id := primitive.NewObjectID()
	raw, err := stamp(doc, id)
	if err != nil {
		return err
	}
	c.docs[id] = raw
	c.order = append(c.order, id)
	return nil
}

func (c *memCollection[T]) InsertMany(ctx context.Context, docs []*T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, doc := range docs {
		if err := c.insertLocked(doc); err != nil {
			return err
		}
	}
	return nil
}

func (c *memCollection[T]) Get(ctx context.Context, id primitive.ObjectID) (*T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	raw, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	var doc T
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *memCollection[T]) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []T{}
	for _, id := range uniqueIDs(ids) {
		raw, ok := c.docs[id]
		if !ok {
			continue
		}
		var doc T
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *memCollection[T]) List(ctx context.Context) ([]T, error) {
	return c.filter(func(*T) bool { return true })
}

// filter decodes every document in insertion order and keeps those that match.
func (c *memCollection[T]) filter(match func(*T) bool) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []T{}
	for _, id := range c.order {
		var doc T
		if err := bson.Unmarshal(c.docs[id], &doc); err != nil {
			return nil, err
		}
		if match(&doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (c *memCollection[T]) Replace(ctx context.Context, id primitive.ObjectID, doc *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return ErrNotFound
	}
	raw, err := stamp(doc, id)
	if err != nil {
		return err
	}
	c.docs[id] = raw
	return nil
}

// update applies fn to the stored document under the write lock.
func (c *memCollection[T]) update(id primitive.ObjectID, fn func(*T)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}
	var doc T
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return err
	}
	fn(&doc)
	raw, err := stamp(&doc, id)
	if err != nil {
		return err
	}
	c.docs[id] = raw
	return nil
}

func (c *memCollection[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return ErrNotFound
	}
	delete(c.docs, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *memCollection[T]) Count(ctx context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.docs)), nil
}

func (c *memCollection[T]) DeleteAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = make(map[primitive.ObjectID]bson.Raw)
	c.order = nil
	return nil
}

type memRecipes struct {
	*memCollection[models.Recipe]
}

func (c *memRecipes) Find(ctx context.Context, filter RecipeFilter) ([]models.Recipe, error) {
	return c.filter(filter.Matches)
}

func (c *memRecipes) AddComment(ctx context.Context, recipeID, commentID primitive.ObjectID) error {
	return c.update(recipeID, func(r *models.Recipe) {
		for _, id := range r.Comments {
			if id == commentID {
				return
			}
		}
		r.Comments = append(r.Comments, commentID)
	})
}

func (c *memRecipes) RemoveComment(ctx context.Context, recipeID, commentID primitive.ObjectID) error {
	return c.update(recipeID, func(r *models.Recipe) {
		kept := r.Comments[:0]
		for _, id := range r.Comments {
			if id != commentID {
				kept = append(kept, id)
			}
		}
		r.Comments = kept
	})
}

type memIngredients struct {
	*memCollection[models.Ingredient]
}

func (c *memIngredients) FindByAllergy(ctx context.Context, allergy string) ([]models.Ingredient, error) {
	return c.filter(func(ing *models.Ingredient) bool {
		return ing.Allergy != "" && strings.EqualFold(ing.Allergy, allergy)
	})
}

func (c *memIngredients) FindByName(ctx context.Context, name string) ([]models.Ingredient, error) {
	return c.filter(func(ing *models.Ingredient) bool {
		return strings.EqualFold(ing.Name, name)
	})
}

// memUsers enforces the unique email index the Mongo collection has.
type memUsers struct {
	*memCollection[models.User]
	emailMu sync.Mutex
}

func (c *memUsers) Insert(ctx context.Context, doc *models.User) error {
	c.emailMu.Lock()
	defer c.emailMu.Unlock()

	if err := c.checkEmail(doc.Email, primitive.NilObjectID); err != nil {
		return err
	}
	return c.memCollection.Insert(ctx, doc)
}

func (c *memUsers) InsertMany(ctx context.Context, docs []*models.User) error {
	for _, doc := range docs {
		if err := c.Insert(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (c *memUsers) Replace(ctx context.Context, id primitive.ObjectID, doc *models.User) error {
	c.emailMu.Lock()
	defer c.emailMu.Unlock()

	if err := c.checkEmail(doc.Email, id); err != nil {
		return err
	}
	return c.memCollection.Replace(ctx, id, doc)
}

func (c *memUsers) checkEmail(email string, self primitive.ObjectID) error {
	taken, err := c.filter(func(u *models.User) bool {
		return u.Email == email && u.ID != self
	})
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return ErrDuplicate
	}
	return nil
}

func (c *memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	found, err := c.filter(func(u *models.User) bool { return u.Email == email })
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}
