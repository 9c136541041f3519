package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/recipebox/internal/recipes"
	"go.uber.org/zap"
)

// httpError translates domain errors into huma status errors. Anything
// unrecognised is logged and reported as a 500 with msg.
func (h *Handler) httpError(ctx context.Context, err error, msg string) error {
	var validation *recipes.ValidationError

	switch {
	case errors.As(err, &validation):
		if validation.Field == "" {
			return huma.Error400BadRequest(validation.Message)
		}

		return huma.Error400BadRequest("validation failed", &huma.ErrorDetail{
			Location: "body." + validation.Field,
			Message:  validation.Message,
		})
	case errors.Is(err, recipes.ErrNotFound):
		return huma.Error404NotFound("not found")
	case errors.Is(err, recipes.ErrForbidden):
		return huma.Error403Forbidden("you do not have permission to perform this action")
	}

	h.logger.Error(msg,
		zap.String("request_id", RequestMetaFromContext(ctx).RequestID),
		zap.Error(err),
	)

	return huma.Error500InternalServerError(msg)
}

// requireUser returns the authenticated user id or a 401.
func requireUser(ctx context.Context) (int64, error) {
	meta := RequestMetaFromContext(ctx)
	if !meta.Authenticated() {
		return 0, huma.Error401Unauthorized("authentication credentials were not provided")
	}

	return meta.UserID, nil
}
