package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub/middlewares"
	"eventhub/services"
	"eventhub/utils"
)

// POST /booking books for the caller; a user field in the body is ignored.
func (d *deps) createBooking(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	var req services.BookingRequest
	if !bindJSON(c, &req) {
		return
	}
	req.User = uid.Hex()

	b, err := d.bookings.Create(c.Request.Context(), req)
	var derr *services.DeliveryError
	if err == nil || errors.As(err, &derr) {
		// seats were taken either way
		d.inv.PurgeEvent(c.Request.Context(), req.Event)
	}
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Booking created successfully", "booking": b})
}

// GET /booking/:id
func (d *deps) getBooking(c *gin.Context) {
	b, err := d.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": b})
}

// GET /booking/event/:id
func (d *deps) bookingsOfEvent(c *gin.Context) {
	bookings, err := d.bookings.ByEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": bookings})
}

// GET /booking/user/:userId lists the distinct events the user booked.
func (d *deps) bookingsOfUser(c *gin.Context) {
	events, err := d.bookings.BookedEvents(c.Request.Context(), c.Param("userId"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": events})
}

// DELETE /booking/:id returns the seats to the event. The booker, the
// event's owner and admins may cancel.
func (d *deps) deleteBooking(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	asAdmin := c.GetString(middlewares.CtxRole) == utils.RoleAdmin
	b, err := d.bookings.Delete(ctx, uid, asAdmin, c.Param("id"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	d.inv.PurgeEvent(ctx, b.Event.Hex())
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Booking deleted successfully"})
}
