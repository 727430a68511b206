package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"eventhub/config"
	"eventhub/db"
	"eventhub/jobs"
	"eventhub/logger"
	"eventhub/media"
	"eventhub/middlewares"
	"eventhub/models"
	"eventhub/notify"
	"eventhub/otp"
	"eventhub/routes"
	"eventhub/services"
	"eventhub/ticket"
	"eventhub/utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.MustLoad()
	log := logger.Setup(cfg.Env)
	log.Info("starting eventhub", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mg, database, err := db.ConnectMongo(ctx, cfg.Mongo, log)
	if err != nil {
		log.Error("failed to init storage", logger.Err(err))
		os.Exit(1)
	}
	rdb := db.ConnectRedis(ctx, cfg.Redis, log)

	store := models.NewMongoStore(database, log)
	tokens := utils.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL)
	inv := utils.NewCacheInvalidator(rdb)

	/* ---- external providers ---- */
	var images services.ImageHost
	if cfg.OSS.Endpoint != "" && cfg.OSS.Bucket != "" {
		oss, err := media.NewOSSHost(cfg.OSS.Endpoint, cfg.OSS.AccessKeyID, cfg.OSS.AccessKeySecret, cfg.OSS.Bucket, cfg.OSS.Folder)
		if err != nil {
			log.Error("failed to init object storage", logger.Err(err))
			os.Exit(1)
		}
		images = oss
	} else {
		log.Warn("OSS not configured, keeping uploads in memory")
		images = media.NewMemoryHost()
	}

	// Push and ID-token login share one Firebase app; both stay nil without
	// credentials.
	var (
		push services.Pusher
		ids  services.IdentityVerifier
	)
	if cfg.Firebase.CredentialsFile != "" {
		fb, err := notify.NewFirebase(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			log.Error("failed to init firebase", logger.Err(err))
			os.Exit(1)
		}
		push, ids = fb, fb
	} else {
		log.Warn("firebase not configured, push and ID-token login disabled")
	}

	var wa services.Messenger
	if cfg.WhatsApp.AccessToken != "" {
		wa = notify.NewWhatsApp(cfg.WhatsApp.BaseURL, cfg.WhatsApp.PhoneNumberID, cfg.WhatsApp.AccessToken)
	} else {
		log.Warn("whatsapp not configured, tickets will not be delivered")
	}

	var mail services.Mailer
	if cfg.SMTP.User != "" {
		mail = notify.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.Inbox)
	}

	sms := notify.NewSMSGateway(cfg.SMS.BaseURL, cfg.SMS.AuthKey, cfg.SMS.Sender, cfg.SMS.Template)

	/* ---- services ---- */
	accounts := services.NewAccountService(store, otp.NewRedisStore(rdb), sms, tokens, ids, images, log)
	events := services.NewEventService(store, images, log)
	bookings := services.NewBookingService(store, ticket.NewRenderer(cfg.Ticket.LogoPath), wa, push, services.BookingConfig{
		Template:    cfg.WhatsApp.Template,
		Language:    cfg.WhatsApp.Language,
		FrontendURL: cfg.FrontendURL,
	}, log)
	social := services.NewSocialService(store)
	admin := services.NewAdminService(store, tokens, images, push, mail, log)

	if cfg.Admin.Email != "" {
		created, err := admin.EnsureAdmin(ctx, services.AdminSignup{
			Name:     cfg.Admin.Name,
			Email:    cfg.Admin.Email,
			Mobile:   cfg.Admin.Mobile,
			Password: cfg.Admin.Password,
		})
		if err != nil {
			log.Error("failed to seed admin", logger.Err(err))
			os.Exit(1)
		}
		if created {
			log.Info("seeded admin account", slog.String("email", cfg.Admin.Email))
		}
	}

	/* ---- http ---- */
	if cfg.Env == logger.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	server := gin.New()
	server.Use(gin.Recovery(), middlewares.RequestLogger(log), cors.New(corsConfig(cfg.HTTPServer.CORSOrigins)))

	stopLimiters := routes.RegisterRoutes(server, routes.Options{
		Accounts:   accounts,
		Events:     events,
		Bookings:   bookings,
		Social:     social,
		Admin:      admin,
		Tokens:     tokens,
		Redis:      rdb,
		Cache:      inv,
		CacheTTL:   cfg.CacheTTL,
		DailyQuota: cfg.Limits.DailyQuota,
		Log:        log,
	})

	scheduler := jobs.NewScheduler(log)
	if err := scheduler.AddReconcile(cfg.Jobs.ReconcileSchedule, store.Integrity, inv, 10*time.Minute); err != nil {
		log.Error("failed to schedule jobs", logger.Err(err))
		os.Exit(1)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      server,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", logger.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("application stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server", logger.Err(err))
	}
	scheduler.Stop(shutdownCtx)
	stopLimiters()

	if err := rdb.Close(); err != nil {
		log.Error("failed to close redis", logger.Err(err))
	}
	if err := mg.Disconnect(shutdownCtx); err != nil {
		log.Error("failed to close mongo", logger.Err(err))
	}
	log.Info("application stopped")
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-Cache", "X-Quota-Used", middlewares.HeaderRequestID, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
