package handlers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/serroba/recipebox/internal/recipes"
)

// RecipesLimitParam bounds the recipes embedded per author.
type RecipesLimitParam struct {
	RecipesLimit int `default:"-1" doc:"Recipes per author, -1 for all" minimum:"-1" query:"recipes_limit"`
}

type SubscribeRequest struct {
	RecipesLimitParam

	ID int64 `doc:"Author id" path:"id"`
}

type ListSubscriptionsRequest struct {
	PageRequest
	RecipesLimitParam
}

// SubscriptionResponse is a followed author with their latest recipes.
type SubscriptionResponse struct {
	UserResponse

	Recipes      []RecipeView `json:"recipes"`
	RecipesCount int          `json:"recipes_count"`
}

type SubscribeResponse struct {
	Body SubscriptionResponse
}

type ListSubscriptionsResponse struct {
	Body Page[SubscriptionResponse]
}

func (h *Handler) subscriptionResponse(ctx context.Context, sub recipes.Subscription) (SubscriptionResponse, error) {
	resp := SubscriptionResponse{
		UserResponse: userResponse(&sub.Author, true),
		Recipes:      make([]RecipeView, 0, len(sub.Recipes)),
		RecipesCount: sub.RecipesCount,
	}

	for i := range sub.Recipes {
		view, err := h.recipeView(ctx, "subscriptions", 0, &sub.Recipes[i])
		if err != nil {
			return SubscriptionResponse{}, err
		}

		resp.Recipes = append(resp.Recipes, view)
	}

	return resp, nil
}

func (h *Handler) Subscribe(ctx context.Context, req *SubscribeRequest) (*SubscribeResponse, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.recipes.Add(ctx, recipes.RelationSubscription, userID, req.ID); err != nil {
		return nil, h.httpError(ctx, err, "failed to subscribe")
	}

	subs, err := h.recipes.Subscriptions(ctx, userID, req.RecipesLimit)
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to load subscription")
	}

	for _, sub := range subs {
		if sub.Author.ID != req.ID {
			continue
		}

		body, err := h.subscriptionResponse(ctx, sub)
		if err != nil {
			return nil, h.httpError(ctx, err, "failed to load subscription")
		}

		return &SubscribeResponse{Body: body}, nil
	}

	return nil, h.httpError(ctx, recipes.ErrNotFound, "failed to load subscription")
}

func (h *Handler) Unsubscribe(ctx context.Context, req *IDRequest) (*struct{}, error) {
	return h.removeRelation(ctx, recipes.RelationSubscription, req.ID)
}

// ListSubscriptions pages through the authors the user follows.
func (h *Handler) ListSubscriptions(ctx context.Context, req *ListSubscriptionsRequest) (*ListSubscriptionsResponse, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	subs, err := h.recipes.Subscriptions(ctx, userID, req.RecipesLimit)
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to list subscriptions")
	}

	start := min(req.offset(), len(subs))
	end := min(start+req.Limit, len(subs))

	results := make([]SubscriptionResponse, 0, end-start)

	for _, sub := range subs[start:end] {
		body, err := h.subscriptionResponse(ctx, sub)
		if err != nil {
			return nil, h.httpError(ctx, err, "failed to list subscriptions")
		}

		results = append(results, body)
	}

	query := url.Values{}
	if req.RecipesLimit >= 0 {
		query.Set("recipes_limit", strconv.Itoa(req.RecipesLimit))
	}

	urls := RequestMetaFromContext(ctx).URLBuilder(h.baseURL)

	return &ListSubscriptionsResponse{
		Body: newPage(urls, "/api/users/subscriptions", query, req.PageRequest, len(subs), results),
	}, nil
}
