package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/jobera/job-feed/internal/category"
	"github.com/jobera/job-feed/internal/company"
	"github.com/jobera/job-feed/internal/job"
	"github.com/jobera/job-feed/internal/promo"
	"github.com/jobera/job-feed/internal/server"
)

// Publisher endpoints sit behind the machine token and are how the ingest
// pipeline loads jobs, companies and promos into the store.

type publishJobReq struct {
	Category      string   `json:"category"`
	CompanyID     string   `json:"companyId"`
	Role          string   `json:"role"`
	Description   string   `json:"description"`
	JobLink       string   `json:"jobLink"`
	JobType       string   `json:"jobType"`
	Location      string   `json:"location"`
	PublishedDate string   `json:"publishedDate"`
	Skills        []string `json:"skills"`
}

func PublishJobHandler(svr server.Server, jobRepo *job.Repository, companyRepo *company.Repository) http.HandlerFunc {
	sanitizer := bluemonday.UGCPolicy()
	return func(w http.ResponseWriter, r *http.Request) {
		var req publishJobReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "invalid payload"})
			return
		}
		cat, ok := category.ByKey(req.Category)
		if !ok {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "unknown category"})
			return
		}
		if strings.TrimSpace(req.Role) == "" || strings.TrimSpace(req.CompanyID) == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "role and companyId are required"})
			return
		}
		if _, err := companyRepo.CompanyByID(r.Context(), req.CompanyID); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "unknown company"})
			return
		}
		j := job.Job{
			CategoryID:  cat.ID,
			CompanyID:   req.CompanyID,
			Role:        strings.TrimSpace(req.Role),
			Description: sanitizer.Sanitize(req.Description),
			JobLink:     req.JobLink,
			JobType:     job.Type(req.JobType),
			Location:    req.Location,
			Skills:      req.Skills,
		}
		if req.PublishedDate != "" {
			t, err := time.Parse(time.RFC3339, req.PublishedDate)
			if err != nil {
				svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "publishedDate must be RFC3339"})
				return
			}
			j.PublishedDate = t
		}
		id, err := jobRepo.PublishJob(r.Context(), j)
		if err != nil {
			svr.Log(err, "unable to publish job")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		// published jobs change the anonymous feed and counts right away
		if err := svr.CacheDelete(server.CacheKeyHomeFeed); err != nil {
			svr.Log(err, "unable to invalidate home feed cache")
		}
		if err := svr.CacheDelete(server.CacheKeyRSSFeed); err != nil {
			svr.Log(err, "unable to invalidate rss feed cache")
		}
		if err := svr.CacheDelete(server.CacheKeyCategories); err != nil {
			svr.Log(err, "unable to invalidate categories cache")
		}
		svr.JSON(w, http.StatusCreated, map[string]string{"status": "ok", "id": id})
	}
}

func PublishCompanyHandler(svr server.Server, companyRepo *company.Repository) http.HandlerFunc {
	sanitizer := bluemonday.UGCPolicy()
	return func(w http.ResponseWriter, r *http.Request) {
		var c company.Company
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "invalid payload"})
			return
		}
		if strings.TrimSpace(c.Name) == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "name is required"})
			return
		}
		// a payload without an id is a create, and creates must not shadow
		// an existing company under a second document
		if c.ID == "" {
			if existing, err := companyRepo.CompanyByName(r.Context(), c.Name); err == nil {
				svr.JSON(w, http.StatusConflict, map[string]string{"status": "error", "reason": "company already exists", "id": existing.ID})
				return
			}
		}
		c.About = sanitizer.Sanitize(c.About)
		saved, err := companyRepo.SaveCompany(r.Context(), c)
		if err != nil {
			svr.Log(err, "unable to save company")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		svr.JSON(w, http.StatusCreated, map[string]string{"status": "ok", "id": saved.ID})
	}
}

func PublishPromoHandler(svr server.Server, promoRepo *promo.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p promo.Promo
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "invalid payload"})
			return
		}
		if strings.TrimSpace(p.URI) == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"status": "error", "reason": "uri is required"})
			return
		}
		saved, err := promoRepo.SavePromo(r.Context(), p)
		if err != nil {
			svr.Log(err, "unable to save promo")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		if err := svr.CacheDelete(server.CacheKeyHomeFeed); err != nil {
			svr.Log(err, "unable to invalidate home feed cache")
		}
		svr.JSON(w, http.StatusCreated, map[string]string{"status": "ok", "id": saved.ID})
	}
}
