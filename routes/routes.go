package routes

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"eventhub/logger"
	"eventhub/middlewares"
	"eventhub/services"
	"eventhub/utils"
)

// Options carries everything the handlers need. Redis may be nil, which
// turns off the response cache and the daily quota.
type Options struct {
	Accounts *services.AccountService
	Events   *services.EventService
	Bookings *services.BookingService
	Social   *services.SocialService
	Admin    *services.AdminService
	Tokens   *utils.Tokens

	Redis      *redis.Client
	Cache      *utils.CacheInvalidator
	CacheTTL   time.Duration
	DailyQuota int

	Log *slog.Logger
}

type deps struct {
	accounts *services.AccountService
	events   *services.EventService
	bookings *services.BookingService
	social   *services.SocialService
	admin    *services.AdminService
	inv      *utils.CacheInvalidator
	log      *slog.Logger
}

// RegisterRoutes mounts the API on server. The returned func stops the
// rate limiters' background sweepers.
func RegisterRoutes(server *gin.Engine, o Options) (stop func()) {
	log := o.Log
	if log == nil {
		log = logger.Discard()
	}
	d := &deps{
		accounts: o.Accounts,
		events:   o.Events,
		bookings: o.Bookings,
		social:   o.Social,
		admin:    o.Admin,
		inv:      o.Cache,
		log:      log.With(slog.String("component", "routes")),
	}

	// global IP limit
	globalLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{RPS: 20, Burst: 40, IdleTTL: 3 * time.Minute})
	server.Use(globalLimiter.Middleware(middlewares.ByIP("ip")))

	// sign-in, OTP and contact endpoints: one request every 2s per IP
	authLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{RPS: 0.5, Burst: 2, IdleTTL: 10 * time.Minute})
	strict := authLimiter.Middleware(middlewares.ByIP("auth"))

	userLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{RPS: 5, Burst: 10, IdleTTL: 10 * time.Minute})
	authed := []gin.HandlerFunc{
		middlewares.Authenticate(o.Tokens),
		userLimiter.Middleware(middlewares.ByUser("u")),
		middlewares.Quota(o.Redis, middlewares.DailyUserQuota(o.DailyQuota), log),
	}
	adminOnly := append(authed[:len(authed):len(authed)], middlewares.AdminOnly(o.Admin))
	optional := middlewares.OptionalAuth(o.Tokens)

	listCache := middlewares.ResponseCache(o.Redis, o.CacheTTL, middlewares.EventListCache(), log)
	itemCache := middlewares.ResponseCache(o.Redis, o.CacheTTL, middlewares.EventItemCache("id"), log)
	blogCache := middlewares.ResponseCache(o.Redis, o.CacheTTL, middlewares.BlogCache(), log)

	server.GET("/", func(c *gin.Context) { c.String(200, "Welcome to the API") })
	server.GET("/checkuser", strict, d.checkUser)
	server.POST("/api/send-email", strict, d.contact)

	/* ---- users ---- */
	user := server.Group("/user")
	user.POST("/signup/sendotp", strict, d.sendSignupOTP)
	user.POST("/signup/verifyotp", strict, d.verifySignup)
	user.POST("/login", strict, d.login)
	user.POST("/auth/firebase", strict, d.firebaseLogin)
	user.POST("/password-reset/send-otp", strict, d.sendResetOTP)
	user.POST("/password-reset/verify", strict, d.resetPassword)
	{
		u := user.Group("", authed...)
		u.GET("", d.listUsers)
		u.GET("/type/:id", d.usersByType)
		u.GET("/insight", d.userInsight)
		u.PUT("/basic-update", d.updateBasic)
		u.PUT("/update/:id", d.updateProfile)
		u.PUT("/update-cordinates", d.updateCoordinates)
		u.POST("/verify", d.submitDocuments)
		u.POST("/password/change", d.changePassword)
		u.GET("/bookings/:id", d.userBookings)
		u.GET("/events/:id", d.userEvents)
		u.GET("/:id", d.getUser)
		u.DELETE("/:id", d.deleteUser)
	}

	/* ---- events ---- */
	events := server.Group("/events")
	{
		pub := events.Group("", optional)
		pub.GET("", listCache, d.listEvents(services.ListUpcoming))
		pub.GET("/past", listCache, d.listEvents(services.ListPast))
		pub.GET("/latest", listCache, d.listEvents(services.ListLatest))
		pub.GET("/live", listCache, d.listEvents(services.ListLive))
		pub.GET("/getAll", listCache, d.listEvents(services.ListApproved))
		pub.GET("/nearby", listCache, d.nearbyEvents)
		pub.GET("/search", listCache, d.searchEvents)
		pub.GET("/suggestions", listCache, d.suggestEvents)
		pub.GET("/:id", itemCache, d.getEvent)

		e := events.Group("", authed...)
		e.GET("/all", d.listEvents(services.ListAll))
		e.GET("/pending", d.pendingEvents)
		e.GET("/insight/:id", d.eventInsight)
		e.POST("", d.createEvent)
		e.POST("/event-distance", d.eventDistances)
		e.PUT("/:id", d.updateEvent)
		e.DELETE("/:id", d.deleteEvent)
	}

	/* ---- likes ---- */
	likes := server.Group("/event/like")
	likes.GET("/:eventId/count", d.likeCount)
	{
		l := likes.Group("", authed...)
		l.GET("/user", d.likedEvents)
		l.POST("/:eventId", d.toggleLike)
		l.GET("/:eventId/status", d.likeStatus)
	}

	/* ---- bookings ---- */
	booking := server.Group("/booking", authed...)
	booking.POST("", d.createBooking)
	booking.GET("/user/:userId", d.bookingsOfUser)
	booking.GET("/event/:id", d.bookingsOfEvent)
	booking.GET("/:id", d.getBooking)
	booking.DELETE("/:id", d.deleteBooking)

	/* ---- subscriptions ---- */
	subs := server.Group("/subscription", authed...)
	subs.POST("/toggle/:userId", d.toggleSubscription)
	subs.GET("/status/:guestId", d.subscriptionStatus)
	subs.GET("/subscriptions", d.subscriptions)
	subs.GET("/subscribers", d.subscribers)
	subs.GET("/count/:id", d.subscriptionCount)

	/* ---- admin ---- */
	admin := server.Group("/admin")
	admin.POST("/login", strict, d.adminLogin)
	admin.GET("/blog", blogCache, d.blogs)
	admin.GET("/blog/:id", blogCache, d.blog)
	{
		a := admin.Group("", adminOnly...)
		a.POST("/signup", d.adminSignup)
		a.GET("/event/pending", d.pendingEvents)
		a.PUT("/approve/:id", d.approveEvent)
		a.PUT("/reject/:id", d.rejectEvent)
		a.PUT("/event/:id", d.adminUpdateEvent)
		a.PUT("/user/basic/:id", d.adminUpdateBasic)
		a.PUT("/user/modify/:id", d.updateProfile)
		a.POST("/blog", d.createBlog)
		a.DELETE("/blog/:id", d.deleteBlog)
		a.GET("/analytics", d.analytics)
		a.POST("/send-notification", d.broadcast)
	}

	/* ---- push notifications ---- */
	push := server.Group("/notifications", adminOnly...)
	push.POST("/send-to-device", d.sendToDevice)
	push.POST("/send-to-devices", d.sendToDevices)
	push.POST("/send-to-topic", d.sendToTopic)
	push.POST("/subscribe-topic", d.subscribeTopic)
	push.POST("/unsubscribe-topic", d.unsubscribeTopic)

	return func() {
		globalLimiter.Close()
		authLimiter.Close()
		userLimiter.Close()
	}
}
