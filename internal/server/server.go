package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/mMando123/gym-management/internal/attendance"
	"github.com/mMando123/gym-management/internal/auth"
	"github.com/mMando123/gym-management/internal/clock"
	"github.com/mMando123/gym-management/internal/config"
	"github.com/mMando123/gym-management/internal/member"
	"github.com/mMando123/gym-management/internal/notifier"
	"github.com/mMando123/gym-management/internal/payment"
	"github.com/mMando123/gym-management/internal/plan"
	"github.com/mMando123/gym-management/internal/pricing"
	"github.com/mMando123/gym-management/internal/reward"
	"github.com/mMando123/gym-management/internal/scheduler"
	"github.com/mMando123/gym-management/internal/sport"
	"github.com/mMando123/gym-management/internal/subscription"
)

type Server struct {
	router    *gin.Engine
	db        *sqlx.DB
	config    *config.Config
	scheduler *scheduler.Scheduler
	httpSrv   *http.Server
}

// New wires repositories, services and handlers onto a gin router.
// The notifier and redis client are shared with the background workers
// owned by the caller.
func New(db *sqlx.DB, cfg *config.Config, n notifier.Notifier, redisClient *redis.Client) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(50, 100))

	clk := clock.New()
	calc := pricing.NewCalculator(cfg.PromoCodes)

	memberRepo := member.NewRepository(db)
	memberHandler := member.NewHandler(member.NewService(memberRepo, clk, cfg.JWTSecret))

	sportHandler := sport.NewHandler(sport.NewRepository(db))

	planRepo := plan.NewRepository(db)
	planHandler := plan.NewHandler(planRepo)

	rewardRepo := reward.NewRepository(db)
	rewardHandler := reward.NewHandler(rewardRepo)

	subRepo := subscription.NewRepository(db, rewardRepo)
	subService := subscription.NewService(subRepo, planRepo, calc, n, clk, cfg.AutoActivateOnCash)
	subHandler := subscription.NewHandler(subService)

	attRepo := attendance.NewRepository(db, rewardRepo)
	attService := attendance.NewService(
		attRepo, subRepo, rewardRepo, clk,
		cfg.AttendancePoints, cfg.LongSessionPoints, cfg.LongSessionMinutes,
	)
	attHandler := attendance.NewHandler(attService)

	payService := payment.NewService(payment.NewRepository(db), subService, n, clk, cfg.AutoActivateOnCash)
	payHandler := payment.NewHandler(payService)

	sched := scheduler.New(
		subRepo, attRepo, rewardRepo, redisClient, clk,
		cfg.SweepInterval, cfg.StaleSessionAfter, cfg.BirthdayPoints,
	)

	public := router.Group("/auth")
	{
		public.POST("/register", memberHandler.Register)
		public.POST("/login", memberHandler.Login)
		public.POST("/refresh", memberHandler.Refresh)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", memberHandler.GetMe)

		protected.GET("/sports", sportHandler.ListSports)
		protected.GET("/sports/:sportID", sportHandler.GetSport)
		protected.GET("/plans", planHandler.ListPlans)
		protected.GET("/plans/:planID", planHandler.GetPlan)
		protected.GET("/packages", planHandler.ListPackages)

		protected.POST("/subscriptions", subHandler.Create)
		protected.GET("/subscriptions", subHandler.ListMine)
		protected.GET("/subscriptions/:id", subHandler.Get)
		protected.POST("/subscriptions/:id/freeze", subHandler.Freeze)
		protected.POST("/subscriptions/:id/unfreeze", subHandler.Unfreeze)
		protected.POST("/subscriptions/:id/cancel", subHandler.Cancel)
		protected.POST("/subscriptions/:id/renew", subHandler.Renew)
		protected.POST("/subscriptions/:id/pt-session", subHandler.UsePTSession)
		protected.GET("/subscriptions/:id/freezes", subHandler.ListFreezes)

		protected.GET("/attendance/can-attend", attHandler.CanAttend)
		protected.POST("/attendance/check-in", attHandler.CheckIn)
		protected.POST("/attendance/check-out", attHandler.CheckOut)
		protected.GET("/attendance/history", attHandler.History)
		protected.POST("/attendance/guests", attHandler.RecordGuestVisit)
		protected.POST("/attendance/guests/:id/check-out", attHandler.CheckoutGuest)
		protected.GET("/attendance/guests", attHandler.ListGuestVisits)

		protected.GET("/rewards", rewardHandler.ListRewards)
		protected.POST("/rewards/redeem", rewardHandler.Redeem)
		protected.GET("/rewards/balance", rewardHandler.GetBalance)
		protected.GET("/rewards/history", rewardHandler.GetHistory)

		protected.POST("/payments", payHandler.Record)
		protected.GET("/payments", payHandler.ListMine)
	}

	staffMiddleware := auth.RequireRole(auth.RoleStaff)
	admin := router.Group("/admin")
	admin.Use(authMiddleware, staffMiddleware)
	{
		admin.POST("/sports", sportHandler.CreateSport)
		admin.POST("/plans", planHandler.CreatePlan)
		admin.PUT("/plans/:planID/prices", planHandler.SetSportPrice)
		admin.POST("/packages", planHandler.CreatePackage)

		admin.POST("/subscriptions/:id/activate", subHandler.Activate)
		admin.POST("/payments/:id/complete", payHandler.Complete)

		admin.POST("/rewards", rewardHandler.CreateReward)
		admin.POST("/rewards/adjust", rewardHandler.AdjustPoints)
		admin.GET("/rewards/verify/:id", rewardHandler.VerifyLedger)

		admin.GET("/attendance/current", attHandler.CurrentAttendees)
		admin.POST("/sweeps/:job", RunSweep(sched))
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

	return &Server{
		router:    router,
		db:        db,
		config:    cfg,
		scheduler: sched,
	}
}

// Scheduler exposes the sweep scheduler so the caller can run it in
// the background alongside the HTTP server.
func (s *Server) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

func (s *Server) Start(port string) error {
	s.httpSrv = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
