package handlers

import "context"

type IDRequest struct {
	ID int64 `doc:"Object id" example:"1" path:"id"`
}

type ListTagsResponse struct {
	Body []TagResponse
}

type TagResponseOutput struct {
	Body TagResponse
}

type ListIngredientsRequest struct {
	Name string `doc:"Case-insensitive name search" example:"flo" query:"name"`
}

type ListIngredientsResponse struct {
	Body []IngredientResponse
}

type IngredientResponseOutput struct {
	Body IngredientResponse
}

func (h *Handler) ListTags(ctx context.Context, _ *struct{}) (*ListTagsResponse, error) {
	tags, err := h.recipes.Tags(ctx)
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to list tags")
	}

	resp := &ListTagsResponse{Body: make([]TagResponse, 0, len(tags))}
	for _, t := range tags {
		resp.Body = append(resp.Body, tagResponse(t))
	}

	return resp, nil
}

func (h *Handler) GetTag(ctx context.Context, req *IDRequest) (*TagResponseOutput, error) {
	tag, err := h.recipes.Tag(ctx, req.ID)
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to get tag")
	}

	return &TagResponseOutput{Body: tagResponse(*tag)}, nil
}

// ListIngredients returns the catalog, prefix matches first when searching.
func (h *Handler) ListIngredients(ctx context.Context, req *ListIngredientsRequest) (*ListIngredientsResponse, error) {
	items, err := h.recipes.Ingredients(ctx, req.Name)
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to list ingredients")
	}

	resp := &ListIngredientsResponse{Body: make([]IngredientResponse, 0, len(items))}
	for _, i := range items {
		resp.Body = append(resp.Body, ingredientResponse(i))
	}

	return resp, nil
}

func (h *Handler) GetIngredient(ctx context.Context, req *IDRequest) (*IngredientResponseOutput, error) {
	item, err := h.recipes.Ingredient(ctx, req.ID)
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to get ingredient")
	}

	return &IngredientResponseOutput{Body: ingredientResponse(*item)}, nil
}
