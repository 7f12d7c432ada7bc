package handler

import (
	"encoding/json"
	"net/http"

	"github.com/jobera/job-feed/internal/bookmark"
	"github.com/jobera/job-feed/internal/docstore"
	"github.com/jobera/job-feed/internal/feed"
	"github.com/jobera/job-feed/internal/server"
)

// FeedStreamHandler streams the assembled job feed over SSE. Every change
// to the recent-jobs window produces one event carrying the full row set.
// Snapshots coalesce through a buffered channel, so a slow client only
// misses intermediate snapshots, never the latest one.
func FeedStreamHandler(svr server.Server, jobFeed *feed.Feed, observers *bookmark.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "reason": "streaming unsupported"})
			return
		}

		type snapshot struct {
			rows []feed.Row
			err  error
		}
		updates := make(chan snapshot, 1)
		cancel, err := jobFeed.Watch(svr.GetConfig().JobsPerPage, marksFor(svr, r, observers), func(rows []feed.Row, err error) {
			// keep only the newest pending snapshot
			select {
			case <-updates:
			default:
			}
			updates <- snapshot{rows: rows, err: err}
		})
		if err != nil {
			if docstore.IsIndexError(err) {
				svr.Log(err, "feed stream query requires a composite index")
				svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "reason": "missing index"})
				return
			}
			svr.Log(err, "unable to subscribe feed stream")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case snap := <-updates:
				if snap.err != nil {
					svr.Log(snap.err, "feed stream snapshot failed")
					continue
				}
				buf, err := json.Marshal(snap.rows)
				if err != nil {
					svr.Log(err, "unable to marshal feed stream snapshot")
					continue
				}
				if _, err := w.Write([]byte("event: feed\ndata: " + string(buf) + "\n\n")); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
