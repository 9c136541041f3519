package shopping

import (
	"context"
	"fmt"

	"github.com/serroba/recipebox/internal/recipes"
	"go.uber.org/zap"
)

const (
	DefaultHeader = "Shopping list"
	// FileName is the attachment name of a downloaded list.
	FileName = "shopping_list.pdf"
)

// CartSource returns the recipes in a user's shopping cart.
type CartSource interface {
	ShoppingCartRecipes(ctx context.Context, userID int64) ([]recipes.Recipe, error)
}

// Service builds shopping list documents from users' carts.
type Service struct {
	carts    CartSource
	renderer *Renderer
	header   string
	logger   *zap.Logger
}

// NewService creates a shopping list service.
func NewService(carts CartSource, renderer *Renderer, header string, logger *zap.Logger) *Service {
	if header == "" {
		header = DefaultHeader
	}

	return &Service{carts: carts, renderer: renderer, header: header, logger: logger}
}

// Download renders the current shopping cart of userID.
func (s *Service) Download(ctx context.Context, userID int64) (*Document, error) {
	cart, err := s.carts.ShoppingCartRecipes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load shopping cart: %w", err)
	}

	doc, err := s.renderer.Render(Aggregate(cart), s.header)
	if err != nil {
		s.logger.Error("failed to render shopping list",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)

		return nil, err
	}

	s.logger.Debug("rendered shopping list",
		zap.Int64("user_id", userID),
		zap.Int("recipes", len(cart)),
		zap.Int("lines", doc.Lines),
		zap.Int("pages", doc.Pages),
	)

	return doc, nil
}
