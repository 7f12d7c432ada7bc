package main

import (
	"context"
	"log"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"github.com/jobera/job-feed/internal/activity"
	"github.com/jobera/job-feed/internal/bookmark"
	"github.com/jobera/job-feed/internal/company"
	"github.com/jobera/job-feed/internal/config"
	"github.com/jobera/job-feed/internal/database"
	"github.com/jobera/job-feed/internal/docstore"
	"github.com/jobera/job-feed/internal/feed"
	"github.com/jobera/job-feed/internal/handler"
	"github.com/jobera/job-feed/internal/job"
	"github.com/jobera/job-feed/internal/middleware"
	"github.com/jobera/job-feed/internal/notification"
	"github.com/jobera/job-feed/internal/promo"
	"github.com/jobera/job-feed/internal/server"
	"github.com/jobera/job-feed/internal/user"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config: %+v", err)
	}
	connURL := database.ConnURL(cfg.DatabaseUser, cfg.DatabasePassword, cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseName, cfg.DatabaseSSLMode)
	conn, err := database.GetDbConn(connURL)
	if err != nil {
		log.Fatalf("unable to connect to postgres: %v", err)
	}
	defer database.CloseDbConn(conn)
	indexes := database.DefaultIndexes()
	if err := database.EnsureSchema(conn, indexes); err != nil {
		log.Fatalf("unable to ensure schema: %v", err)
	}
	store, err := docstore.NewPostgres(conn, connURL, indexes)
	if err != nil {
		log.Fatalf("unable to open document store: %v", err)
	}
	defer store.Close()

	sessionStore := sessions.NewCookieStore(cfg.SessionKey)

	jobRepo := job.NewRepository(store)
	companyRepo := company.NewRepository(store)
	promoRepo := promo.NewRepository(store)
	userRepo := user.NewRepository(store)
	activityStore := activity.NewStore(store)
	notificationRepo := notification.NewRepository(store)
	observers := bookmark.NewRegistry(activityStore)
	defer observers.Close()
	assembler := feed.NewAssembler(companyRepo)
	jobFeed := feed.New(jobRepo, assembler)

	watcherLog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	watcher := notification.NewWatcher(jobRepo, notificationRepo, userRepo, watcherLog)
	defer watcher.Close()
	if err := watcher.StartAll(context.Background()); err != nil {
		log.Fatalf("unable to start notification watches: %v", err)
	}

	svr := server.NewServer(
		cfg,
		store,
		mux.NewRouter(),
		sessionStore,
	)

	svr.RegisterRoute("/api/feed", handler.HomeFeedHandler(svr, jobFeed, promoRepo, observers), []string{"GET"})
	svr.RegisterRoute("/api/feed/stream", handler.FeedStreamHandler(svr, jobFeed, observers), []string{"GET"})
	svr.RegisterRoute("/api/jobs", handler.JobsHandler(svr, jobFeed, observers), []string{"GET"})
	svr.RegisterRoute("/api/jobs/category/{category}", handler.JobsByCategoryHandler(svr, jobRepo, assembler, observers), []string{"GET"})
	svr.RegisterRoute("/api/jobs/{id}", handler.JobDetailHandler(svr, jobRepo, companyRepo, activityStore, assembler, observers), []string{"GET"})
	svr.RegisterRoute("/api/companies", handler.CompaniesHandler(svr, companyRepo), []string{"GET"})
	svr.RegisterRoute("/api/companies/{id}/jobs", handler.CompanyJobsHandler(svr, jobRepo, assembler, observers), []string{"GET"})
	svr.RegisterRoute("/api/categories", handler.CategoriesHandler(svr, jobRepo), []string{"GET"})
	svr.RegisterRoute("/rss", handler.ServeRSSFeed(svr, jobRepo, companyRepo), []string{"GET"})
	svr.RegisterRoute("/feed", handler.LegacyFeedHandler(svr), []string{"GET"})

	svr.RegisterRoute("/auth/register", handler.RegisterHandler(svr, userRepo), []string{"POST"})
	svr.RegisterRoute("/auth/signin", handler.SignInHandler(svr, userRepo), []string{"POST"})
	svr.RegisterRoute("/auth/signout", handler.SignOutHandler(svr), []string{"POST"})

	svr.RegisterRoute("/api/profile", middleware.UserAuthenticatedMiddleware(sessionStore, svr.GetJWTSigningKey(), handler.ProfileHandler(svr, userRepo)), []string{"GET"})
	svr.RegisterRoute("/api/profile", middleware.UserAuthenticatedMiddleware(sessionStore, svr.GetJWTSigningKey(), handler.UpdateProfileHandler(svr, userRepo)), []string{"PUT"})
	svr.RegisterRoute("/api/profile/notify", middleware.UserAuthenticatedMiddleware(sessionStore, svr.GetJWTSigningKey(), handler.NotifyPrefsHandler(svr, userRepo, func(ctx context.Context, u user.User, notify bool) {
		if notify {
			if err := watcher.StartForUser(ctx, u); err != nil {
				svr.Log(err, "unable to start notification watch for "+u.ID)
			}
			return
		}
		watcher.StopForUser(u.ID)
	})), []string{"PUT"})

	svr.RegisterRoute("/api/activity", middleware.UserAuthenticatedMiddleware(sessionStore, svr.GetJWTSigningKey(), handler.ActivityHandler(svr, activityStore)), []string{"GET"})
	svr.RegisterRoute("/x/bookmark/{id}", middleware.UserAuthenticatedMiddleware(sessionStore, svr.GetJWTSigningKey(), handler.BookmarkHandler(svr, observers, true)), []string{"POST"})
	svr.RegisterRoute("/x/bookmark/{id}", middleware.UserAuthenticatedMiddleware(sessionStore, svr.GetJWTSigningKey(), handler.BookmarkHandler(svr, observers, false)), []string{"DELETE"})
	svr.RegisterRoute("/x/apply/{id}", middleware.UserAuthenticatedMiddleware(sessionStore, svr.GetJWTSigningKey(), handler.ApplyHandler(svr, activityStore, true)), []string{"POST"})
	svr.RegisterRoute("/x/apply/{id}", middleware.UserAuthenticatedMiddleware(sessionStore, svr.GetJWTSigningKey(), handler.ApplyHandler(svr, activityStore, false)), []string{"DELETE"})

	svr.RegisterRoute("/api/notifications", middleware.UserAuthenticatedMiddleware(sessionStore, svr.GetJWTSigningKey(), handler.NotificationsHandler(svr, notificationRepo)), []string{"GET"})
	svr.RegisterRoute("/api/notifications/stream", middleware.UserAuthenticatedMiddleware(sessionStore, svr.GetJWTSigningKey(), handler.NotificationStreamHandler(svr, notificationRepo)), []string{"GET"})
	svr.RegisterRoute("/api/notifications/{id}/read", middleware.UserAuthenticatedMiddleware(sessionStore, svr.GetJWTSigningKey(), handler.MarkNotificationReadHandler(svr, notificationRepo)), []string{"POST"})
	svr.RegisterRoute("/api/notifications", middleware.UserAuthenticatedMiddleware(sessionStore, svr.GetJWTSigningKey(), handler.ClearNotificationsHandler(svr, notificationRepo)), []string{"DELETE"})

	svr.RegisterRoute("/x/jobs", middleware.MachineAuthenticatedMiddleware(cfg.MachineToken, handler.PublishJobHandler(svr, jobRepo, companyRepo)), []string{"POST"})
	svr.RegisterRoute("/x/companies", middleware.MachineAuthenticatedMiddleware(cfg.MachineToken, handler.PublishCompanyHandler(svr, companyRepo)), []string{"POST"})
	svr.RegisterRoute("/x/promos", middleware.MachineAuthenticatedMiddleware(cfg.MachineToken, handler.PublishPromoHandler(svr, promoRepo)), []string{"POST"})

	log.Fatal(svr.Run())
}
