package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jobera/job-feed/internal/docstore"
	"github.com/jobera/job-feed/internal/middleware"
	"github.com/jobera/job-feed/internal/notification"
	"github.com/jobera/job-feed/internal/server"
)

func NotificationsHandler(svr server.Server, repo *notification.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		list, err := repo.NotificationsForUser(r.Context(), profile.UserID)
		if err != nil {
			svr.Log(err, "unable to retrieve notifications")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		unread, err := repo.UnreadCount(r.Context(), profile.UserID)
		if err != nil {
			svr.Log(err, "unable to count unread notifications")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{
			"notifications": list,
			"unread":        unread,
		})
	}
}

func MarkNotificationReadHandler(svr server.Server, repo *notification.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		id := mux.Vars(r)["id"]
		if err := repo.MarkRead(r.Context(), profile.UserID, id); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				svr.JSON(w, http.StatusNotFound, map[string]string{"status": "error", "reason": "notification not found"})
				return
			}
			svr.Log(err, "unable to mark notification read "+id)
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// NotificationStreamHandler streams the viewer's unread notifications over
// SSE so the app badge updates without polling. Each event carries the
// unread count and the unread items themselves.
func NotificationStreamHandler(svr server.Server, repo *notification.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "reason": "streaming unsupported"})
			return
		}

		type snapshot struct {
			unread []notification.Notification
			err    error
		}
		updates := make(chan snapshot, 1)
		cancel, err := repo.WatchUnread(profile.UserID, func(unread []notification.Notification, err error) {
			// keep only the newest pending snapshot
			select {
			case <-updates:
			default:
			}
			updates <- snapshot{unread: unread, err: err}
		})
		if err != nil {
			svr.Log(err, "unable to subscribe notification stream")
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
					svr.Log(snap.err, "notification stream snapshot failed")
					continue
				}
				buf, err := json.Marshal(map[string]interface{}{
					"unread":        len(snap.unread),
					"notifications": snap.unread,
				})
				if err != nil {
					svr.Log(err, "unable to marshal notification stream snapshot")
					continue
				}
				if _, err := w.Write([]byte("event: notifications\ndata: " + string(buf) + "\n\n")); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func ClearNotificationsHandler(svr server.Server, repo *notification.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		if err := repo.ClearAll(r.Context(), profile.UserID); err != nil {
			svr.Log(err, "unable to clear notifications")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
