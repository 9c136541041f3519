package handlers

import (
	"time"

	"github.com/serroba/recipebox/internal/analytics"
	"github.com/serroba/recipebox/internal/recipes"
	"github.com/serroba/recipebox/internal/shopping"
	"github.com/serroba/recipebox/internal/shortlink"
	"go.uber.org/zap"
)

// Handler serves the recipe API.
type Handler struct {
	recipes  *recipes.Service
	links    *shortlink.Service
	shopping *shopping.Service
	events   *analytics.Publishers
	baseURL  shortlink.URLBuilder
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates the API handler. baseURL is used to build absolute links
// when the request does not reveal its host.
func NewHandler(
	recipeService *recipes.Service,
	linkService *shortlink.Service,
	shoppingService *shopping.Service,
	events *analytics.Publishers,
	baseURL shortlink.URLBuilder,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		recipes:  recipeService,
		links:    linkService,
		shopping: shoppingService,
		events:   events,
		baseURL:  baseURL,
		logger:   logger,
		now:      time.Now,
	}
}
