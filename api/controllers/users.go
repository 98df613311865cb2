package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/platefinderz-backend/api/responses"
	"github.com/angelmondragon/platefinderz-backend/internal/users"
	"github.com/angelmondragon/platefinderz-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/platefinderz-backend/pkg/errors"
	"github.com/angelmondragon/platefinderz-backend/pkg/logger"
	"github.com/angelmondragon/platefinderz-backend/pkg/pagination"
)

type userDirectory interface {
	List(ctx context.Context, params pagination.Params) ([]models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// UsersList returns a page of users. Admin-only by route wiring.
func UsersList(repo userDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user directory unavailable"))
			return
		}

		page, err := repo.List(r.Context(), pagination.FromQuery(r.URL.Query()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users"))
			return
		}

		responses.WriteSuccess(w, users.FromModels(page))
	}
}

// UserGet returns one user by id. Admin-only by route wiring.
func UserGet(repo userDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user directory unavailable"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := repo.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found"))
			return
		}

		responses.WriteSuccess(w, users.FromModel(user))
	}
}
