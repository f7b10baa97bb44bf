package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/nkiryanov/vidtube/internal/apperrors"
	"github.com/nkiryanov/vidtube/internal/handlers/credentials"
	"github.com/nkiryanov/vidtube/internal/handlers/render"
	"github.com/nkiryanov/vidtube/internal/handlers/userctx"
	"github.com/nkiryanov/vidtube/internal/logger"
	"github.com/nkiryanov/vidtube/internal/models"
	"github.com/nkiryanov/vidtube/internal/service/user"
)

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type registerRequest struct {
	Username   string `json:"username" validate:"required,notblank,max=50,excludes=@"`
	Email      string `json:"email" validate:"required,email"`
	FullName   string `json:"fullName" validate:"required,notblank,max=100"`
	Password   string `json:"password" validate:"required,notblank"`
	Avatar     string `json:"avatar" validate:"required,notblank"`
	CoverImage string `json:"coverImage"`
}

// Password is kept as typed
func (r *registerRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
	r.Avatar = strings.TrimSpace(r.Avatar)
	r.CoverImage = strings.TrimSpace(r.CoverImage)
}

func handleRegister(auth authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[registerRequest](w, r)
		if err != nil {
			return
		}

		u, err := auth.Register(r.Context(), user.RegisterParams{
			Username:   data.Username,
			Email:      data.Email,
			FullName:   data.FullName,
			Password:   data.Password,
			Avatar:     data.Avatar,
			CoverImage: data.CoverImage,
		})
		if err != nil {
			fail(w, l, err)
			return
		}

		render.JSON(w, http.StatusCreated, u.Profile(), "User registered successfully")
	})
}

func handleLogin(auth authService, tokens *credentials.Transport, l logger.Logger) http.Handler {
	// Either username or email identifies the user
	type request struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		User models.UserProfile `json:"user"`
		tokensResponse
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		login := data.Username
		if login == "" {
			login = data.Email
		}

		session, err := auth.Login(r.Context(), login, data.Password)
		if err != nil {
			fail(w, l, err)
			return
		}

		tokens.SetTokens(w, session.Tokens)
		render.JSON(w, http.StatusOK, response{
			User: session.User.Profile(),
			tokensResponse: tokensResponse{
				AccessToken:  session.Tokens.Access.Value,
				RefreshToken: session.Tokens.Refresh.Value,
			},
		}, "User logged in successfully")
	})
}

func handleLogout(auth authService, tokens *credentials.Transport, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := userctx.FromContext(r.Context())

		err := auth.Logout(r.Context(), principal.UserID)
		if err != nil {
			fail(w, l, err)
			return
		}

		tokens.ClearTokens(w)
		render.JSON(w, http.StatusOK, nil, "User logged out")
	})
}

func handleRefresh(auth authService, tokens *credentials.Transport, l logger.Logger) http.Handler {
	// Body is optional: browsers send refresh token as cookie
	type request struct {
		RefreshToken string `json:"refreshToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var data request
		err := json.NewDecoder(r.Body).Decode(&data)
		if err != nil && !errors.Is(err, io.EOF) {
			render.DecodeError(w, err)
			return
		}

		session, err := auth.Refresh(r.Context(), tokens.RefreshToken(r, data.RefreshToken))
		if err != nil {
			fail(w, l, err)
			return
		}

		tokens.SetTokens(w, session.Tokens)
		render.JSON(w, http.StatusOK, tokensResponse{
			AccessToken:  session.Tokens.Access.Value,
			RefreshToken: session.Tokens.Refresh.Value,
		}, "Access token refreshed")
	})
}

func handleChangePassword(auth authService, l logger.Logger) http.Handler {
	type request struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,notblank"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		principal, _ := userctx.FromContext(r.Context())

		err = auth.ChangePassword(r.Context(), principal.UserID, data.OldPassword, data.NewPassword)
		if err != nil {
			fail(w, l, err)
			return
		}

		render.JSON(w, http.StatusOK, nil, "Password changed successfully")
	})
}

// Render service error, unexpected ones are logged as they never reach the client
func fail(w http.ResponseWriter, l logger.Logger, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperrors.KindInternal {
		l.Error("request failed", "error", err)
	}
	render.Error(w, err)
}
