package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

/* -------------------- likes -------------------- */

// POST /event/like/:eventId toggles the caller's like.
func (d *deps) toggleLike(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	eventID := c.Param("eventId")
	liked, count, err := d.social.ToggleLike(c.Request.Context(), uid, eventID)
	if err != nil {
		d.respondError(c, err)
		return
	}
	d.inv.PurgeEvent(c.Request.Context(), eventID)
	if liked {
		c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Event liked", "likeCount": count})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Event unliked", "likeCount": count})
}

// GET /event/like/:eventId/count
func (d *deps) likeCount(c *gin.Context) {
	n, err := d.social.LikeCount(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "likeCount": n})
}

// GET /event/like/:eventId/status
func (d *deps) likeStatus(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	liked, err := d.social.HasLiked(c.Request.Context(), uid, c.Param("eventId"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "liked": liked})
}

// GET /event/like/user
func (d *deps) likedEvents(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	events, err := d.social.LikedEvents(c.Request.Context(), uid)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "likedEvents": events})
}

/* -------------------- subscriptions -------------------- */

// POST /subscription/toggle/:userId
func (d *deps) toggleSubscription(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	subscribed, err := d.social.ToggleSubscription(c.Request.Context(), uid, c.Param("userId"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	msg := "Unsubscribed successfully"
	if subscribed {
		msg = "Subscribed successfully"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg, "subscribed": subscribed})
}

// GET /subscription/status/:guestId
func (d *deps) subscriptionStatus(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	subscribed, err := d.social.IsSubscribed(c.Request.Context(), uid, c.Param("guestId"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "isSubscribed": subscribed})
}

// GET /subscription/subscriptions
func (d *deps) subscriptions(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	users, err := d.social.Subscriptions(c.Request.Context(), uid)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscriptions": users})
}

// GET /subscription/subscribers
func (d *deps) subscribers(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	users, err := d.social.Subscribers(c.Request.Context(), uid)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscribers": users})
}

// GET /subscription/count/:id
func (d *deps) subscriptionCount(c *gin.Context) {
	subs, followers, err := d.social.SubscriptionCounts(c.Request.Context(), c.Param("id"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscriptions": subs, "subscribers": followers})
}
