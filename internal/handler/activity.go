package handler

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/jobera/job-feed/internal/activity"
	"github.com/jobera/job-feed/internal/bookmark"
	"github.com/jobera/job-feed/internal/middleware"
	"github.com/jobera/job-feed/internal/server"
)

// BookmarkHandler flips a bookmark through the viewer's observer so the
// change shows up immediately on every surface. POST sets, DELETE clears.
// The response carries the full id set so the client can reconcile.
func BookmarkHandler(svr server.Server, observers *bookmark.Registry, set bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		o := observers.ForUser(profile.UserID)
		if o == nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		jobID := mux.Vars(r)["id"]
		if err := o.Toggle(r.Context(), jobID, set); err != nil {
			svr.Log(err, "unable to toggle bookmark for job "+jobID)
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		ids := o.BookmarkedIDs()
		sort.Strings(ids)
		svr.JSON(w, http.StatusOK, map[string]interface{}{
			"status":        "ok",
			"bookmarked":    set,
			"bookmarkedIds": ids,
		})
	}
}

func ApplyHandler(svr server.Server, store *activity.Store, apply bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		jobID := mux.Vars(r)["id"]
		if apply {
			err = store.Apply(r.Context(), profile.UserID, jobID)
		} else {
			err = store.Unapply(r.Context(), profile.UserID, jobID)
		}
		if err != nil {
			svr.Log(err, "unable to record application for job "+jobID)
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "applied": apply})
	}
}

// ActivityHandler lists the viewer's bookmarked and applied jobs.
func ActivityHandler(svr server.Server, store *activity.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		bookmarked, err := store.BookmarkedForUser(r.Context(), profile.UserID)
		if err != nil {
			svr.Log(err, "unable to retrieve bookmarked jobs")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		applied, err := store.AppliedForUser(r.Context(), profile.UserID)
		if err != nil {
			svr.Log(err, "unable to retrieve applied jobs")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{
			"bookmarked": bookmarked,
			"applied":    applied,
		})
	}
}
