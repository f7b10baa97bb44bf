package handlers

import (
	"net/http"
	"strings"

	"github.com/nkiryanov/vidtube/internal/handlers/render"
	"github.com/nkiryanov/vidtube/internal/handlers/userctx"
	"github.com/nkiryanov/vidtube/internal/logger"
)

func handleCurrentUser(auth authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := userctx.FromContext(r.Context())

		u, err := auth.CurrentUser(r.Context(), principal.UserID)
		if err != nil {
			fail(w, l, err)
			return
		}

		render.JSON(w, http.StatusOK, u.Profile(), "Current user fetched successfully")
	})
}

type updateAccountRequest struct {
	FullName string `json:"fullName" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email"`
}

func (r *updateAccountRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
}

func handleUpdateAccount(auth authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[updateAccountRequest](w, r)
		if err != nil {
			return
		}

		principal, _ := userctx.FromContext(r.Context())

		u, err := auth.UpdateAccount(r.Context(), principal.UserID, data.FullName, data.Email)
		if err != nil {
			fail(w, l, err)
			return
		}

		render.JSON(w, http.StatusOK, u.Profile(), "Account details updated successfully")
	})
}

func handleChangeAvatar(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Avatar string `json:"avatar" validate:"required,notblank"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		principal, _ := userctx.FromContext(r.Context())

		u, err := auth.ChangeAvatar(r.Context(), principal.UserID, data.Avatar)
		if err != nil {
			fail(w, l, err)
			return
		}

		render.JSON(w, http.StatusOK, u.Profile(), "Avatar updated successfully")
	})
}

func handleChangeCoverImage(auth authService, l logger.Logger) http.Handler {
	type request struct {
		CoverImage string `json:"coverImage" validate:"required,notblank"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		principal, _ := userctx.FromContext(r.Context())

		u, err := auth.ChangeCoverImage(r.Context(), principal.UserID, data.CoverImage)
		if err != nil {
			fail(w, l, err)
			return
		}

		render.JSON(w, http.StatusOK, u.Profile(), "Cover image updated successfully")
	})
}
