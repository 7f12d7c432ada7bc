package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/feeds"

	"github.com/jobera/job-feed/internal/company"
	"github.com/jobera/job-feed/internal/job"
	"github.com/jobera/job-feed/internal/server"
)

// LegacyFeedHandler keeps the pre-rename feed path alive by pointing
// readers at the RSS endpoint.
func LegacyFeedHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svr.Redirect(w, r, http.StatusMovedPermanently, "/rss")
	}
}

func ServeRSSFeed(svr server.Server, jobRepo *job.Repository, companyRepo *company.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cached, ok := svr.CacheGet(server.CacheKeyRSSFeed); ok {
			svr.XML(w, http.StatusOK, cached)
			return
		}
		jobPosts, err := jobRepo.RecentJobs(r.Context(), 20)
		if err != nil {
			svr.Log(err, "unable to retrieve jobs for RSS Feed")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		cfg := svr.GetConfig()
		now := time.Now()
		feed := &feeds.Feed{
			Title:       fmt.Sprintf("%s Jobs", cfg.SiteName),
			Link:        &feeds.Link{Href: cfg.SiteHost},
			Description: fmt.Sprintf("Latest jobs on %s", cfg.SiteName),
			Created:     now,
		}

		companyNames := make(map[string]string)
		for _, j := range jobPosts {
			name, ok := companyNames[j.CompanyID]
			if !ok {
				name = "Unknown"
				if c, err := companyRepo.CompanyByID(r.Context(), j.CompanyID); err == nil {
					name = c.Name
				}
				companyNames[j.CompanyID] = name
			}
			feed.Items = append(feed.Items, &feeds.Item{
				Title:       fmt.Sprintf("%s with %s - %s", j.Role, name, j.Location),
				Link:        &feeds.Link{Href: fmt.Sprintf("%s/job/%s/%s", cfg.SiteHost, j.ID, job.Slug(j))},
				Description: j.Description,
				Created:     j.PublishedDate,
			})
		}
		rssFeed, err := feed.ToRss()
		if err != nil {
			svr.Log(err, "unable to convert rss feed to xml")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		if err := svr.CacheSet(server.CacheKeyRSSFeed, []byte(rssFeed)); err != nil {
			svr.Log(err, "unable to cache rss feed")
		}
		svr.XML(w, http.StatusOK, []byte(rssFeed))
	}
}
