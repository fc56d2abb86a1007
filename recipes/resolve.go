package recipes

import (
	"context"

	"recipebox/comments"
	"recipebox/models"
	"recipebox/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// Resolve expands the references of a batch of recipes. Each collection is
// read once for the whole batch; dangling references are dropped from lists
// and left nil in single-valued fields.
func Resolve(ctx context.Context, st *store.Store, list []models.Recipe) ([]models.RecipeView, error) {
	var ingredientIDs, unitIDs, userIDs, commentIDs []primitive.ObjectID
	for _, r := range list {
		ingredientIDs = append(ingredientIDs, r.Ingredients...)
		for _, q := range r.Quantities {
			ingredientIDs = append(ingredientIDs, q.Ingredient)
			unitIDs = append(unitIDs, q.Unit)
		}
		userIDs = append(userIDs, r.Creator)
		commentIDs = append(commentIDs, r.Comments...)
	}

	var (
		ingredients []models.Ingredient
		units       []models.Unit
		creators    []models.User
		commentList []models.CommentView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ingredients, err = st.Ingredients.GetMany(gctx, ingredientIDs)
		return err
	})
	g.Go(func() (err error) {
		units, err = st.Units.GetMany(gctx, unitIDs)
		return err
	})
	g.Go(func() (err error) {
		creators, err = st.Users.GetMany(gctx, userIDs)
		return err
	})
	g.Go(func() error {
		found, err := st.Comments.GetMany(gctx, commentIDs)
		if err != nil {
			return err
		}
		commentList, err = comments.Resolve(gctx, st.Users, found)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ingredientByID := index(ingredients, func(i *models.Ingredient) primitive.ObjectID { return i.ID })
	unitByID := index(units, func(u *models.Unit) primitive.ObjectID { return u.ID })
	userByID := index(creators, func(u *models.User) primitive.ObjectID { return u.ID })
	commentByID := index(commentList, func(c *models.CommentView) primitive.ObjectID { return c.ID })

	views := make([]models.RecipeView, 0, len(list))
	for _, r := range list {
		v := models.RecipeView{
			Recipe:      r,
			Ingredients: []models.Ingredient{},
			Quantities:  make([]models.QuantityView, 0, len(r.Quantities)),
			Creator:     userByID[r.Creator],
			Comments:    []models.CommentView{},
		}
		for _, id := range r.Ingredients {
			if ing, ok := ingredientByID[id]; ok {
				v.Ingredients = append(v.Ingredients, *ing)
			}
		}
		for _, q := range r.Quantities {
			v.Quantities = append(v.Quantities, models.QuantityView{
				Quantity:   q.Quantity,
				Unit:       unitByID[q.Unit],
				Ingredient: ingredientByID[q.Ingredient],
			})
		}
		for _, id := range r.Comments {
			if c, ok := commentByID[id]; ok {
				v.Comments = append(v.Comments, *c)
			}
		}
		views = append(views, v)
	}
	return views, nil
}

func index[T any](items []T, key func(*T) primitive.ObjectID) map[primitive.ObjectID]*T {
	m := make(map[primitive.ObjectID]*T, len(items))
	for i := range items {
		m[key(&items[i])] = &items[i]
	}
	return m
}
