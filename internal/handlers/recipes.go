package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/recipebox/internal/analytics"
	"github.com/serroba/recipebox/internal/messaging"
	"github.com/serroba/recipebox/internal/recipes"
	"github.com/serroba/recipebox/internal/shopping"
	"go.uber.org/zap"
)

type ListRecipesRequest struct {
	PageRequest

	Author           int64    `doc:"Only recipes by this author"        query:"author"`
	Tags             []string `doc:"Tag slugs, recipes with any of them" query:"tags,explode"`
	IsFavorited      string   `doc:"1 for favorites only"               enum:"0,1" query:"is_favorited"`
	IsInShoppingCart string   `doc:"1 for cart recipes only"            enum:"0,1" query:"is_in_shopping_cart"`
}

type ListRecipesResponse struct {
	Body Page[RecipeView]
}

// IngredientAmountBody references a catalog ingredient in a recipe body.
type IngredientAmountBody struct {
	ID     int64 `doc:"Ingredient id" json:"id"     example:"1"`
	Amount int   `doc:"Amount used"   json:"amount" example:"200"`
}

// RecipeBody is the writable part of a recipe.
type RecipeBody struct {
	Name        string                 `json:"name"         example:"Pancakes"  maxLength:"200"`
	Text        string                 `json:"text"         example:"Mix and fry."`
	Image       string                 `doc:"Image reference, stored as given" json:"image"`
	CookingTime int                    `doc:"Minutes"      json:"cooking_time" example:"20"`
	Tags        []int64                `doc:"Tag ids"      json:"tags"`
	Ingredients []IngredientAmountBody `json:"ingredients"`
}

func (b *RecipeBody) input() *recipes.RecipeInput {
	in := &recipes.RecipeInput{
		Name:        b.Name,
		Text:        b.Text,
		Image:       b.Image,
		CookingTime: b.CookingTime,
		TagIDs:      b.Tags,
		Ingredients: make([]recipes.IngredientAmount, 0, len(b.Ingredients)),
	}

	for _, item := range b.Ingredients {
		in.Ingredients = append(in.Ingredients, recipes.IngredientAmount{IngredientID: item.ID, Amount: item.Amount})
	}

	return in
}

type CreateRecipeRequest struct {
	Body RecipeBody
}

type UpdateRecipeRequest struct {
	ID   int64 `doc:"Recipe id" path:"id"`
	Body RecipeBody
}

type RecipeResponse struct {
	Body RecipeView
}

type GetLinkResponse struct {
	Body struct {
		ShortLink string `doc:"Absolute short link" json:"short-link" example:"http://localhost:8888/aB3dE9"`
	}
}

func relationFilter(value string) *bool {
	if value == "" {
		return nil
	}

	b := value == "1"

	return &b
}

func (h *Handler) ListRecipes(ctx context.Context, req *ListRecipesRequest) (*ListRecipesResponse, error) {
	meta := RequestMetaFromContext(ctx)
	filter := recipes.RecipeFilter{
		TagSlugs:       req.Tags,
		Favorited:      relationFilter(req.IsFavorited),
		InShoppingCart: relationFilter(req.IsInShoppingCart),
		ViewerID:       meta.UserID,
		Limit:          req.Limit,
		Offset:         req.offset(),
	}

	query := url.Values{}

	if req.Author > 0 {
		filter.AuthorID = &req.Author
		query.Set("author", strconv.FormatInt(req.Author, 10))
	}

	for _, tag := range req.Tags {
		query.Add("tags", tag)
	}

	if req.IsFavorited != "" {
		query.Set("is_favorited", req.IsFavorited)
	}

	if req.IsInShoppingCart != "" {
		query.Set("is_in_shopping_cart", req.IsInShoppingCart)
	}

	list, total, err := h.recipes.List(ctx, filter)
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to list recipes")
	}

	views := make([]RecipeView, 0, len(list))

	for i := range list {
		view, err := h.recipeView(ctx, "list", meta.UserID, &list[i])
		if err != nil {
			return nil, h.httpError(ctx, err, "failed to list recipes")
		}

		views = append(views, view)
	}

	urls := meta.URLBuilder(h.baseURL)

	return &ListRecipesResponse{Body: newPage(urls, "/api/recipes", query, req.PageRequest, total, views)}, nil
}

func (h *Handler) GetRecipe(ctx context.Context, req *IDRequest) (*RecipeResponse, error) {
	recipe, err := h.recipes.Get(ctx, req.ID)
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to get recipe")
	}

	return h.respondRecipe(ctx, "retrieve", RequestMetaFromContext(ctx).UserID, recipe)
}

func (h *Handler) CreateRecipe(ctx context.Context, req *CreateRecipeRequest) (*RecipeResponse, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := h.recipes.Create(ctx, userID, req.Body.input())
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to create recipe")
	}

	return h.respondRecipe(ctx, "create", userID, recipe)
}

// UpdateRecipe replaces every writable field of the recipe.
func (h *Handler) UpdateRecipe(ctx context.Context, req *UpdateRecipeRequest) (*RecipeResponse, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := h.recipes.Update(ctx, userID, req.ID, req.Body.input())
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to update recipe")
	}

	return h.respondRecipe(ctx, "update", userID, recipe)
}

func (h *Handler) DeleteRecipe(ctx context.Context, req *IDRequest) (*struct{}, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.recipes.Delete(ctx, userID, req.ID); err != nil {
		return nil, h.httpError(ctx, err, "failed to delete recipe")
	}

	return nil, nil
}

func (h *Handler) respondRecipe(ctx context.Context, operation string, viewerID int64, recipe *recipes.Recipe) (*RecipeResponse, error) {
	view, err := h.recipeView(ctx, operation, viewerID, recipe)
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to render recipe")
	}

	return &RecipeResponse{Body: view}, nil
}

// GetLink creates a short link to the recipe page.
func (h *Handler) GetLink(ctx context.Context, req *IDRequest) (*GetLinkResponse, error) {
	meta := RequestMetaFromContext(ctx)

	link, err := h.links.Create(ctx, req.ID, meta.URLBuilder(h.baseURL))
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to create short link")
	}

	publishEvent(ctx, h.logger, h.events.ShortLinkCreated, &analytics.ShortLinkCreatedEvent{
		Slug:         string(link.Slug),
		RecipeID:     link.RecipeID,
		ShortLinkURL: link.ShortLinkURL,
		CreatedAt:    link.CreatedAt,
		UserID:       meta.UserID,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
	})

	resp := &GetLinkResponse{}
	resp.Body.ShortLink = link.ShortLinkURL

	return resp, nil
}

func (h *Handler) AddFavorite(ctx context.Context, req *IDRequest) (*RecipeResponse, error) {
	return h.addRecipeRelation(ctx, recipes.RelationFavorite, req.ID)
}

func (h *Handler) RemoveFavorite(ctx context.Context, req *IDRequest) (*struct{}, error) {
	return h.removeRelation(ctx, recipes.RelationFavorite, req.ID)
}

func (h *Handler) AddToShoppingCart(ctx context.Context, req *IDRequest) (*RecipeResponse, error) {
	return h.addRecipeRelation(ctx, recipes.RelationShoppingCart, req.ID)
}

func (h *Handler) RemoveFromShoppingCart(ctx context.Context, req *IDRequest) (*struct{}, error) {
	return h.removeRelation(ctx, recipes.RelationShoppingCart, req.ID)
}

func (h *Handler) addRecipeRelation(ctx context.Context, rel recipes.Relation, recipeID int64) (*RecipeResponse, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.recipes.Add(ctx, rel, userID, recipeID); err != nil {
		return nil, h.httpError(ctx, err, "failed to add recipe")
	}

	recipe, err := h.recipes.Get(ctx, recipeID)
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to get recipe")
	}

	return h.respondRecipe(ctx, string(rel), userID, recipe)
}

func (h *Handler) removeRelation(ctx context.Context, rel recipes.Relation, targetID int64) (*struct{}, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.recipes.Remove(ctx, rel, userID, targetID); err != nil {
		return nil, h.httpError(ctx, err, "failed to remove "+string(rel))
	}

	return nil, nil
}

// DownloadShoppingCart streams the aggregated shopping list as a PDF.
func (h *Handler) DownloadShoppingCart(ctx context.Context, _ *struct{}) (*huma.StreamResponse, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := h.shopping.Download(ctx, userID)
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to build shopping list")
	}

	meta := RequestMetaFromContext(ctx)
	publishEvent(ctx, h.logger, h.events.ShoppingListDownloaded, &analytics.ShoppingListDownloadedEvent{
		UserID:       userID,
		Lines:        doc.Lines,
		Pages:        doc.Pages,
		DownloadedAt: h.now(),
		ClientIP:     meta.ClientIP,
	})

	return &huma.StreamResponse{
		Body: func(hctx huma.Context) {
			hctx.SetHeader("Content-Type", "application/pdf")
			hctx.SetHeader("Content-Disposition", fmt.Sprintf("attachment; filename=%q", shopping.FileName))
			hctx.SetHeader("Content-Length", strconv.Itoa(doc.Reader.Len()))
			hctx.SetStatus(http.StatusOK)

			if _, err := io.Copy(hctx.BodyWriter(), doc.Reader); err != nil {
				h.logger.Warn("failed to write shopping list",
					zap.Int64("user_id", userID),
					zap.Error(err),
				)
			}
		},
	}, nil
}

// publishEvent publishes an analytics event. Failures are logged and never
// fail the request.
func publishEvent[T any](ctx context.Context, logger *zap.Logger, publish messaging.Publish[T], event *T) {
	if err := publish(ctx, event); err != nil {
		logger.Error("failed to publish analytics event",
			zap.String("event", fmt.Sprintf("%T", event)),
			zap.String("request_id", RequestMetaFromContext(ctx).RequestID),
			zap.Error(err),
		)
	}
}
