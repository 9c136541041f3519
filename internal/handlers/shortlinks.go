package handlers

import (
	"context"
	"net/http"

	"github.com/serroba/recipebox/internal/analytics"
	"github.com/serroba/recipebox/internal/shortlink"
)

type RedirectRequest struct {
	Slug string `doc:"Short link slug" example:"aB3dE9" path:"slug"`
}

type RedirectResponse struct {
	Status   int
	Location string `doc:"Recipe page" header:"Location"`
}

// Redirect sends the client to the recipe page stored with the slug.
func (h *Handler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	link, err := h.links.Resolve(ctx, shortlink.Slug(req.Slug))
	if err != nil {
		return nil, h.httpError(ctx, err, "failed to resolve short link")
	}

	meta := RequestMetaFromContext(ctx)
	publishEvent(ctx, h.logger, h.events.ShortLinkResolved, &analytics.ShortLinkResolvedEvent{
		Slug:       string(link.Slug),
		RecipeID:   link.RecipeID,
		ResolvedAt: h.now(),
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	})

	return &RedirectResponse{Status: http.StatusFound, Location: link.RedirectURL}, nil
}
