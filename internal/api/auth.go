/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/friendsincode/guardrota/internal/auth"
	"github.com/friendsincode/guardrota/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Role        string `json:"role"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "credentials_required")
		return
	}

	var user models.User
	err := a.db.WithContext(r.Context()).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("login lookup failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		a.logger.Info().Str("email", email).Msg("login rejected")
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	role := models.NormalizeRole(string(user.Role))
	token, err := auth.Issue(a.jwtSecret, auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Roles:  []string{string(role)},
	}, a.jwtTTL)
	if err != nil {
		a.logger.Error().Err(err).Msg("issue token failed")
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(a.jwtTTL.Seconds()),
		Role:        string(role),
	})
}
