package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jobera/job-feed/internal/activity"
	"github.com/jobera/job-feed/internal/bookmark"
	"github.com/jobera/job-feed/internal/category"
	"github.com/jobera/job-feed/internal/company"
	"github.com/jobera/job-feed/internal/docstore"
	"github.com/jobera/job-feed/internal/feed"
	"github.com/jobera/job-feed/internal/job"
	"github.com/jobera/job-feed/internal/middleware"
	"github.com/jobera/job-feed/internal/promo"
	"github.com/jobera/job-feed/internal/server"
	"github.com/jobera/job-feed/internal/user"
)

// marksFor resolves the viewer's bookmark set from the session. Anonymous
// viewers get nil, which assembles every row unbookmarked.
func marksFor(svr server.Server, r *http.Request, observers *bookmark.Registry) feed.BookmarkChecker {
	profile, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
	if err != nil {
		return nil
	}
	o := observers.ForUser(profile.UserID)
	if o == nil {
		return nil
	}
	return o
}

// HomeFeedHandler renders the home screen payload: promos, the category
// grid and the latest assembled job rows. The anonymous variant is cached
// since it carries no per-user state.
func HomeFeedHandler(svr server.Server, jobFeed *feed.Feed, promoRepo *promo.Repository, observers *bookmark.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anonymous := !middleware.IsSignedOn(r, svr.SessionStore, svr.GetJWTSigningKey())
		if anonymous {
			if cached, ok := svr.CacheGet(server.CacheKeyHomeFeed); ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write(cached)
				return
			}
		}
		rows, err := jobFeed.Recent(r.Context(), svr.GetConfig().JobsPerPage, marksFor(svr, r, observers))
		if err != nil {
			if docstore.IsIndexError(err) {
				svr.Log(err, "home feed query requires a composite index")
				svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "reason": "missing index"})
				return
			}
			svr.Log(err, "unable to assemble home feed")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		promos, err := promoRepo.Promos(r.Context())
		if err != nil {
			svr.Log(err, "unable to retrieve promos")
			promos = []promo.Promo{}
		}
		payload := map[string]interface{}{
			"promos":     promos,
			"categories": category.Categories,
			"jobs":       rows,
		}
		if anonymous {
			if buf, err := json.Marshal(payload); err == nil {
				if err := svr.CacheSet(server.CacheKeyHomeFeed, buf); err != nil {
					svr.Log(err, "unable to cache home feed")
				}
			}
		}
		svr.JSON(w, http.StatusOK, payload)
	}
}

func JobsHandler(svr server.Server, jobFeed *feed.Feed, observers *bookmark.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		take := svr.GetConfig().JobsPerPage
		if v := r.URL.Query().Get("take"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				take = n
			}
		}
		rows, err := jobFeed.Recent(r.Context(), take, marksFor(svr, r, observers))
		if err != nil {
			svr.Log(err, "unable to retrieve jobs")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		svr.JSON(w, http.StatusOK, rows)
	}
}

func JobsByCategoryHandler(svr server.Server, jobRepo *job.Repository, assembler *feed.Assembler, observers *bookmark.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		cat, ok := category.ByKey(vars["category"])
		if !ok {
			svr.JSON(w, http.StatusNotFound, map[string]string{"status": "error", "reason": "unknown category"})
			return
		}
		jobs, err := jobRepo.JobsByCategory(r.Context(), cat.ID)
		if err != nil {
			if docstore.IsIndexError(err) {
				svr.Log(err, "category query requires a composite index")
				svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "reason": "missing index"})
				return
			}
			svr.Log(err, "unable to retrieve jobs for category "+cat.Key)
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		rows, err := assembler.Assemble(r.Context(), jobs, marksFor(svr, r, observers))
		if err != nil {
			svr.Log(err, "unable to assemble category feed")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		svr.JSON(w, http.StatusOK, rows)
	}
}

// JobDetailHandler returns one assembled job row plus the full company
// record and, for a signed-in viewer, the applied/bookmarked state used to
// seed the detail-screen toggles.
func JobDetailHandler(svr server.Server, jobRepo *job.Repository, companyRepo *company.Repository, store *activity.Store, assembler *feed.Assembler, observers *bookmark.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		j, err := jobRepo.GetJobByID(r.Context(), vars["id"])
		if err == docstore.ErrNotFound {
			svr.JSON(w, http.StatusNotFound, map[string]string{"status": "error", "reason": "job not found"})
			return
		}
		if err != nil {
			svr.Log(err, "unable to retrieve job "+vars["id"])
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		rows, err := assembler.Assemble(r.Context(), []job.Job{j}, marksFor(svr, r, observers))
		if err != nil {
			svr.Log(err, "unable to assemble job detail")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		payload := map[string]interface{}{
			"job":      rows[0],
			"jobLink":  j.JobLink,
			"skills":   j.Skills,
			"location": j.Location,
		}
		if c, err := companyRepo.CompanyByID(r.Context(), j.CompanyID); err == nil {
			payload["company"] = c
		}
		if profile, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey()); err == nil {
			applied, err := store.IsApplied(r.Context(), profile.UserID, j.ID)
			if err == nil {
				payload["applied"] = applied
			}
			bookmarked, err := store.IsBookmarked(r.Context(), profile.UserID, j.ID)
			if err == nil {
				payload["bookmarked"] = bookmarked
			}
		}
		svr.JSON(w, http.StatusOK, payload)
	}
}

func CompaniesHandler(svr server.Server, companyRepo *company.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companies, err := companyRepo.Companies(r.Context())
		if err != nil {
			svr.Log(err, "unable to retrieve companies")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		svr.JSON(w, http.StatusOK, companies)
	}
}

func CompanyJobsHandler(svr server.Server, jobRepo *job.Repository, assembler *feed.Assembler, observers *bookmark.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		jobs, err := jobRepo.JobsByCompanyID(r.Context(), vars["id"])
		if err != nil {
			if docstore.IsIndexError(err) {
				svr.Log(err, "company jobs query requires a composite index")
				svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "reason": "missing index"})
				return
			}
			svr.Log(err, "unable to retrieve jobs for company "+vars["id"])
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		rows, err := assembler.Assemble(r.Context(), jobs, marksFor(svr, r, observers))
		if err != nil {
			svr.Log(err, "unable to assemble company feed")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		svr.JSON(w, http.StatusOK, rows)
	}
}

// CategoriesHandler lists the taxonomy with a live posting count per
// category. Counts are the same for every viewer, so the rendered payload
// is cached until a publish invalidates it.
func CategoriesHandler(svr server.Server, jobRepo *job.Repository) http.HandlerFunc {
	type categoryRow struct {
		category.Category
		Jobs int `json:"jobs"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if cached, ok := svr.CacheGet(server.CacheKeyCategories); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}
		rows := make([]categoryRow, 0, len(category.Categories))
		for _, c := range category.Categories {
			n, err := jobRepo.CountByCategory(r.Context(), c.ID)
			if err != nil {
				svr.Log(err, "unable to count jobs for category "+c.Key)
				svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
				return
			}
			rows = append(rows, categoryRow{Category: c, Jobs: n})
		}
		if buf, err := json.Marshal(rows); err == nil {
			if err := svr.CacheSet(server.CacheKeyCategories, buf); err != nil {
				svr.Log(err, "unable to cache categories")
			}
		}
		svr.JSON(w, http.StatusOK, rows)
	}
}

// ProfileHandler returns the signed-in user's profile without the password
// hash.
func ProfileHandler(svr server.Server, userRepo *user.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		u, err := userRepo.UserByID(r.Context(), profile.UserID)
		if err != nil {
			svr.Log(err, "unable to retrieve user "+profile.UserID)
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{
			"id":            u.ID,
			"email":         u.Email,
			"fullName":      u.FullName,
			"displayName":   u.DisplayName(),
			"notifyNewJobs": u.NotifyNewJobs,
		})
	}
}

func UpdateProfileHandler(svr server.Server, userRepo *user.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		var req struct {
			FullName string `json:"fullName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "invalid payload"})
			return
		}
		if err := userRepo.UpdateProfile(r.Context(), profile.UserID, req.FullName); err != nil {
			svr.Log(err, "unable to update profile for "+profile.UserID)
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// NotifyPrefsHandler flips the new-job notification opt-in and starts or
// stops the user's watch accordingly.
func NotifyPrefsHandler(svr server.Server, userRepo *user.Repository, onChange func(ctx context.Context, u user.User, notify bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		var req struct {
			Notify bool `json:"notify"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "invalid payload"})
			return
		}
		if err := userRepo.SetNotifyPrefs(r.Context(), profile.UserID, req.Notify); err != nil {
			svr.Log(err, "unable to update notification prefs for "+profile.UserID)
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		if onChange != nil {
			u, err := userRepo.UserByID(r.Context(), profile.UserID)
			if err == nil {
				onChange(r.Context(), u, req.Notify)
			}
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
