package recipes

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"

	"recipebox/errs"
	"recipebox/models"
	"recipebox/rdx"
	"recipebox/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	facetAllergy    = "allergy"
	facetIngredient = "ingredient"
)

// Facets are the optional search parameters of GET /recipes.
type Facets struct {
	Term        string
	Allergies   []string
	Ingredients []string
	Vegan       *bool
	Vegetarian  *bool
}

// ParseFacets reads the search parameters. List facets are comma separated;
// blank entries and empty flags are ignored.
func ParseFacets(q url.Values) (Facets, error) {
	f := Facets{
		Term:        strings.TrimSpace(q.Get("term")),
		Allergies:   splitNames(q.Get("allergies")),
		Ingredients: splitNames(q.Get("ingredients")),
	}
	var err error
	if f.Vegan, err = parseFlag(q, "vegan"); err != nil {
		return Facets{}, err
	}
	if f.Vegetarian, err = parseFlag(q, "vegetarian"); err != nil {
		return Facets{}, err
	}
	return f, nil
}

func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func parseFlag(q url.Values, key string) (*bool, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidRequest, key+" must be true or false", err)
	}
	return &v, nil
}

// Searcher runs the filtered recipe search.
type Searcher struct {
	Store *store.Store
	Cache *rdx.Cache
	// Shuffle reorders the result; nil means a uniform random permutation.
	Shuffle func(n int, swap func(i, j int))
}

// Search returns every recipe that avoids all allergy-tagged ingredients and,
// when ingredient names are given, uses at least one of them. The order is
// random on every call and the result is never nil.
func (s *Searcher) Search(ctx context.Context, f Facets) ([]models.RecipeView, error) {
	gen, err := s.Cache.Generation(ctx, rdx.IngredientsGeneration)
	if err != nil {
		slog.Debug("facet cache unavailable", "error", err)
		gen = -1
	}

	var excluded, wanted []primitive.ObjectID
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		excluded, err = s.resolveFacet(gctx, facetAllergy, f.Allergies, gen)
		return err
	})
	g.Go(func() (err error) {
		wanted, err = s.resolveFacet(gctx, facetIngredient, f.Ingredients, gen)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errs.Wrap(errs.Internal, "", err)
	}

	filter := store.RecipeFilter{
		Exclude:    excluded,
		RequireAny: len(f.Ingredients) > 0,
		AnyOf:      wanted,
		Vegan:      f.Vegan,
		Vegetarian: f.Vegetarian,
	}
	if filter.RequireAny && len(wanted) == 0 {
		return []models.RecipeView{}, nil
	}

	found, err := s.Store.Recipes.Find(ctx, filter)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "", err)
	}
	found = matchTerm(found, f.Term)

	views, err := Resolve(ctx, s.Store, found)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "", err)
	}

	shuffle := s.Shuffle
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	shuffle(len(views), func(i, j int) { views[i], views[j] = views[j], views[i] })
	return views, nil
}

// resolveFacet maps every name to ingredient ids concurrently and returns the
// union. gen < 0 bypasses the cache.
func (s *Searcher) resolveFacet(ctx context.Context, kind string, names []string, gen int64) ([]primitive.ObjectID, error) {
	results := make([][]primitive.ObjectID, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() (err error) {
			results[i], err = s.lookup(gctx, kind, name, gen)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, part := range results {
		for _, id := range part {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (s *Searcher) lookup(ctx context.Context, kind, name string, gen int64) ([]primitive.ObjectID, error) {
	key := rdx.QueryKey("facet", map[string]string{
		"kind": kind,
		"name": strings.ToLower(name),
		"gen":  strconv.FormatInt(gen, 10),
	})
	if gen >= 0 {
		var cached []primitive.ObjectID
		hit, err := s.Cache.GetJSON(ctx, key, &cached)
		if err != nil {
			slog.Debug("facet cache read", "key", key, "error", err)
		}
		if hit && err == nil {
			return cached, nil
		}
	}

	var (
		found []models.Ingredient
		err   error
	)
	switch kind {
	case facetAllergy:
		found, err = s.Store.Ingredients.FindByAllergy(ctx, name)
	default:
		found, err = s.Store.Ingredients.FindByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(found))
	for _, ing := range found {
		ids = append(ids, ing.ID)
	}
	if gen >= 0 {
		if err := s.Cache.SetJSON(ctx, key, ids); err != nil {
			slog.Debug("facet cache write", "key", key, "error", err)
		}
	}
	return ids, nil
}

func matchTerm(list []models.Recipe, term string) []models.Recipe {
	if term == "" {
		return list
	}
	term = strings.ToLower(term)
	kept := list[:0]
	for _, r := range list {
		if strings.Contains(strings.ToLower(r.Title), term) {
			kept = append(kept, r)
		}
	}
	return kept
}
