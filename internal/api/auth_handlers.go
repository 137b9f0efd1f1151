package api

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/andy/talentsink/internal/auth"
)

func (a *API) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	req := &RegisterRequest{}
	if err := render.Bind(r, req); err != nil {
		a.writeError(w, r, bindError(err))
		return
	}

	user, err := a.svc.Users.Register(r.Context(), req.Email, req.FullName, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newUserResponse(user))
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	req := &LoginRequest{}
	if err := render.Bind(r, req); err != nil {
		a.writeError(w, r, bindError(err))
		return
	}

	user, token, expires, err := a.svc.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	http.SetCookie(w, a.sessionCookie(token, expires))
	render.JSON(w, r, LoginResponse{
		User:      newUserResponse(user),
		Token:     token,
		ExpiresAt: expires,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.svc.Users.Logout(r.Context(), sessionFrom(r))

	c := a.sessionCookie("", time.Unix(0, 0))
	c.MaxAge = -1
	http.SetCookie(w, c)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	user, err := a.svc.Users.GetUser(r.Context(), actor, actor.UserID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	render.JSON(w, r, newUserResponse(user))
}
