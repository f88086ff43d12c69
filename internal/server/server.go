package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cadencehq/cadence/internal/analytics"
	"github.com/cadencehq/cadence/internal/backup"
	"github.com/cadencehq/cadence/internal/dashboard"
	"github.com/cadencehq/cadence/internal/email"
	"github.com/cadencehq/cadence/internal/handler"
	"github.com/cadencehq/cadence/internal/middleware"
	"github.com/cadencehq/cadence/internal/motivation"
	"github.com/cadencehq/cadence/internal/push"
	"github.com/cadencehq/cadence/internal/store"
	ws "github.com/cadencehq/cadence/internal/websocket"
)

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	authH       *handler.AuthHandler
	habitH      *handler.HabitHandler
	goalH       *handler.GoalHandler
	analyticsH  *handler.AnalyticsHandler
	dashboardH  *handler.DashboardHandler
	motivationH *handler.MotivationHandler
	pushH       *handler.PushHandler

	sessionStore      *store.SessionStore
	verificationStore *store.VerificationStore
	rateLimiter       *middleware.RateLimiter
	backupManager     *backup.Manager
	pushScheduler     *push.Scheduler
	logger            *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, gen *motivation.GeminiClient, backupCfg backup.Config, pushCfg push.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	verificationStore := store.NewVerificationStore(db)
	habitStore := store.NewHabitStore(db)
	checkInStore := store.NewCheckInStore(db)
	goalStore := store.NewGoalStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	aggregator := analytics.New(habitStore, checkInStore)
	summarizer := dashboard.New(habitStore, checkInStore)
	motivationSvc := motivation.NewService(gen, summarizer, habitStore, logger.With("component", "motivation"))

	backupMgr := backup.NewManager(backupCfg, db, backupStore)

	pushSvc := push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey)
	var pushSched *push.Scheduler
	if pushSvc.Configured() {
		pushSched = push.NewScheduler(pushSvc, pushStore, userStore, habitStore)
	}

	return &Server{
		db:  db,
		hub: hub,

		authH:       handler.NewAuthHandler(userStore, sessionStore, verificationStore, emailClient, logger.With("component", "auth")),
		habitH:      handler.NewHabitHandler(habitStore, checkInStore, hub, logger.With("component", "habit")),
		goalH:       handler.NewGoalHandler(goalStore, habitStore, hub, logger.With("component", "goal")),
		analyticsH:  handler.NewAnalyticsHandler(aggregator, logger.With("component", "analytics")),
		dashboardH:  handler.NewDashboardHandler(summarizer, habitStore, logger.With("component", "dashboard")),
		motivationH: handler.NewMotivationHandler(motivationSvc, logger.With("component", "motivation")),
		pushH:       handler.NewPushHandler(pushStore, userStore, pushSvc, logger.With("component", "push")),

		sessionStore:      sessionStore,
		verificationStore: verificationStore,
		rateLimiter:       middleware.NewRateLimiter(),
		backupManager:     backupMgr,
		pushScheduler:     pushSched,
		logger:            logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// VerificationStore returns the verification code store for cleanup tasks.
func (s *Server) VerificationStore() *store.VerificationStore {
	return s.verificationStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the reminder scheduler, nil when push is not
// configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/verify", s.rateLimitedHandler(s.authH.Verify))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Habits
	mux.HandleFunc("GET /api/habits", s.habitH.List)
	mux.HandleFunc("POST /api/habits", s.habitH.Create)
	mux.HandleFunc("GET /api/habits/stats", s.habitH.Stats)
	mux.HandleFunc("GET /api/habits/{id}", s.habitH.Get)
	mux.HandleFunc("PUT /api/habits/{id}", s.habitH.Update)
	mux.HandleFunc("DELETE /api/habits/{id}", s.habitH.Delete)
	mux.HandleFunc("POST /api/habits/{id}/checkin", s.habitH.CheckIn)
	mux.HandleFunc("GET /api/habits/{id}/history", s.habitH.History)

	// Goals
	mux.HandleFunc("GET /api/goals", s.goalH.List)
	mux.HandleFunc("POST /api/goals", s.goalH.Create)
	mux.HandleFunc("GET /api/goals/stats", s.goalH.Stats)
	mux.HandleFunc("GET /api/goals/{id}", s.goalH.Get)
	mux.HandleFunc("PUT /api/goals/{id}", s.goalH.Update)
	mux.HandleFunc("DELETE /api/goals/{id}", s.goalH.Delete)
	mux.HandleFunc("PUT /api/goals/{id}/progress", s.goalH.Progress)
	mux.HandleFunc("POST /api/goals/{id}/increment", s.goalH.Increment)

	// Dashboard
	mux.HandleFunc("GET /api/dashboard/summary", s.dashboardH.Summary)
	mux.HandleFunc("GET /api/dashboard/weekly", s.dashboardH.Weekly)
	mux.HandleFunc("GET /api/dashboard/calendar", s.dashboardH.Calendar)
	mux.HandleFunc("GET /api/dashboard/leaderboard", s.dashboardH.Leaderboard)
	mux.HandleFunc("GET /api/dashboard/achievements", s.dashboardH.Achievements)

	// Analytics
	mux.HandleFunc("GET /api/analytics/trends", s.analyticsH.Trends)
	mux.HandleFunc("GET /api/analytics/heatmap", s.analyticsH.Heatmap)
	mux.HandleFunc("GET /api/analytics/habits", s.analyticsH.HabitRates)

	// Motivation coach
	mux.HandleFunc("GET /api/motivation/daily", s.motivationH.Daily)
	mux.HandleFunc("GET /api/motivation/celebration", s.motivationH.Celebration)
	mux.HandleFunc("GET /api/motivation/habits/{id}/tips", s.motivationH.HabitTips)
	mux.HandleFunc("POST /api/motivation/chat", s.motivationH.Chat)

	// Push notifications
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("PUT /api/push/reminder", s.pushH.UpdateReminder)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
