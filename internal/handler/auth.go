package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/jobera/job-feed/internal/docstore"
	"github.com/jobera/job-feed/internal/middleware"
	"github.com/jobera/job-feed/internal/server"
	"github.com/jobera/job-feed/internal/user"
)

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

func RegisterHandler(svr server.Server, userRepo *user.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "invalid payload"})
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if !svr.IsEmail(req.Email) {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "invalid email"})
			return
		}
		if len(req.Password) < 8 {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "password too short"})
			return
		}
		if _, err := userRepo.UserByEmail(r.Context(), req.Email); err == nil {
			svr.JSON(w, http.StatusConflict, map[string]string{"status": "error", "reason": "email already registered"})
			return
		} else if err != docstore.ErrNotFound {
			svr.Log(err, "unable to check account for "+req.Email)
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			svr.Log(err, "unable to hash password")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		u, err := userRepo.CreateUser(r.Context(), user.User{
			Email:        req.Email,
			FullName:     strings.TrimSpace(req.FullName),
			PasswordHash: string(hash),
		})
		if err != nil {
			svr.Log(err, "unable to create user")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		if err := issueSession(svr, w, r, u); err != nil {
			svr.Log(err, "unable to save jwt into session cookie")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusCreated, map[string]string{"status": "ok", "id": u.ID})
	}
}

func SignInHandler(svr server.Server, userRepo *user.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "invalid payload"})
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		u, err := userRepo.UserByEmail(r.Context(), req.Email)
		// same response for unknown email and bad password
		if err == docstore.ErrNotFound {
			svr.JSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "reason": "invalid credentials"})
			return
		}
		if err != nil {
			svr.Log(err, "unable to retrieve account for "+req.Email)
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			svr.JSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "reason": "invalid credentials"})
			return
		}
		if err := issueSession(svr, w, r, u); err != nil {
			svr.Log(err, "unable to save jwt into session cookie")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok", "id": u.ID})
	}
}

func SignOutHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svr.SessionStore.Get(r, middleware.SessionCookieName)
		if err == nil {
			delete(sess.Values, "jwt")
			sess.Options.MaxAge = -1
			if err := sess.Save(r, w); err != nil {
				svr.Log(err, "unable to clear session cookie")
			}
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func issueSession(svr server.Server, w http.ResponseWriter, r *http.Request, u user.User) error {
	sess, err := svr.SessionStore.Get(r, middleware.SessionCookieName)
	if err != nil {
		return err
	}
	claims := middleware.UserJWT{
		UserID:    u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: time.Now(),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(30 * 24 * time.Hour).Unix(),
			Issuer:    svr.GetConfig().SiteName,
		},
	}
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := tkn.SignedString(svr.GetJWTSigningKey())
	if err != nil {
		return err
	}
	sess.Values["jwt"] = ss
	return sess.Save(r, w)
}
