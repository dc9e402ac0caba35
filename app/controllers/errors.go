// Package controllers adapts HTTP requests to the storefront services and
// writes the JSON envelope back.
package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/mazraa/app/services"
	"github.com/shashiranjanraj/mazraa/pkg/bind"
	"github.com/shashiranjanraj/mazraa/pkg/ctx"
)

// fail maps a service error to its HTTP status.
func fail(c *ctx.Context, err error) {
	var verr services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.ValidationError(verr)

	case errors.Is(err, services.ErrNotAuthenticated):
		c.Unauthorized(err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidAdminCode):
		c.Unauthorized(err.Error())

	case errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrLineNotFound),
		errors.Is(err, services.ErrClientNotFound):
		c.NotFound(err.Error())

	case errors.Is(err, services.ErrProductUnavailable),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrCategoryExists):
		c.Conflict(err.Error())

	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrEmptyMessage):
		c.Error(http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, bind.ErrFileTooLarge):
		c.Error(http.StatusRequestEntityTooLarge, "Image trop volumineuse (5 Mo maximum)")
	case errors.Is(err, bind.ErrNotImage):
		c.Error(http.StatusUnsupportedMediaType, "Le fichier doit être une image")
	case errors.Is(err, services.ErrNoPhotoDisk):
		c.Error(http.StatusServiceUnavailable, err.Error())

	default:
		c.ServerError(err)
	}
}
