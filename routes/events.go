package routes

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"eventhub/middlewares"
	"eventhub/services"
	"eventhub/utils"
)

/* -------------------- reads -------------------- */

var listMessages = map[services.Listing]string{
	services.ListUpcoming: "Upcoming events fetched successfully",
	services.ListPast:     "Past events fetched successfully",
	services.ListLatest:   "Latest events fetched successfully",
	services.ListLive:     "Live events fetched successfully",
	services.ListApproved: "Approved events fetched successfully",
	services.ListAll:      "Events fetched successfully",
}

// listEvents serves the paginated listings: GET /events, /events/past,
// /events/latest, /events/live, /events/getAll and /events/all.
func (d *deps) listEvents(l services.Listing) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := d.events.List(c.Request.Context(), callerID(c), l, pageRequest(c))
		if err != nil {
			d.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, pageBody(listMessages[l], page))
	}
}

func queryFloat(c *gin.Context, key string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(c.Query(key)), 64)
	return v, err == nil
}

// GET /events/nearby?lat=&long=[&km=][&upcoming=true]
func (d *deps) nearbyEvents(c *gin.Context) {
	lat, okLat := queryFloat(c, "lat")
	lng, okLng := queryFloat(c, "long")
	if !okLat || !okLng {
		fail(c, http.StatusBadRequest, "Invalid coordinates provided. Please provide valid longitude and latitude.")
		return
	}
	q := services.NearbyQuery{Lat: lat, Lng: lng}
	if km, ok := queryFloat(c, "km"); ok {
		q.Km = km
	}
	q.UpcomingOnly = c.Query("upcoming") == "true"

	page, err := d.events.Nearby(c.Request.Context(), callerID(c), q, pageRequest(c))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageBody("Nearby events fetched successfully", page))
}

// GET /events/search
func (d *deps) searchEvents(c *gin.Context) {
	q := services.SearchQuery{
		Name:      c.Query("name"),
		Address:   c.Query("add"),
		Category:  strings.Join(c.QueryArray("category"), ","),
		Artist:    strings.Join(append(c.QueryArray("artist"), c.QueryArray("orator")...), ","),
		Organizer: strings.Join(c.QueryArray("organizer"), ","),
		Language:  c.Query("language"),
		Date:      c.Query("date"),
	}
	if lat, ok := queryFloat(c, "lat"); ok {
		if lng, ok := queryFloat(c, "long"); ok {
			q.Lat, q.Lng = &lat, &lng
		}
	}
	page, err := d.events.Search(c.Request.Context(), callerID(c), q, pageRequest(c))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageBody("Events fetched successfully", page))
}

// GET /events/suggestions?name=
func (d *deps) suggestEvents(c *gin.Context) {
	page, err := d.events.Suggest(c.Request.Context(), callerID(c), c.Query("name"), pageRequest(c))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageBody("Suggestions fetched successfully", page))
}

// GET /events/:id
func (d *deps) getEvent(c *gin.Context) {
	ev, err := d.events.Get(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "event": ev})
}

// GET /events/pending and GET /admin/event/pending
func (d *deps) pendingEvents(c *gin.Context) {
	events, err := d.events.Pending(c.Request.Context())
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": events})
}

// GET /events/insight/:id
func (d *deps) eventInsight(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	in, err := d.events.Insight(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": in})
}

// POST /events/event-distance
func (d *deps) eventDistances(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	out, err := d.events.Distances(c.Request.Context(), uid.Hex())
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": out})
}

/* -------------------- writes -------------------- */

// eventForm reads the multipart event form: eventData (JSON) plus poster
// files. in is nil when eventData is absent.
func (d *deps) eventForm(c *gin.Context) (in *services.EventInput, posters []services.Upload, closeAll func(), ok bool) {
	closeAll = func() {}
	form, err := multipartForm(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid form data")
		return nil, nil, closeAll, false
	}
	var input services.EventInput
	present, err := formJSON(form, "eventData", &input)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			d.respondError(c, err)
		} else {
			fail(c, http.StatusBadRequest, "Invalid event data format")
		}
		return nil, nil, closeAll, false
	}
	if present {
		if err := binding.Validator.ValidateStruct(&input); err != nil {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"message": "Validation failed",
				"errors":  fieldErrors(err),
			})
			return nil, nil, closeAll, false
		}
		in = &input
	}
	posters, closeAll, err = formUploads(form)
	if err != nil {
		d.respondError(c, err)
		return nil, nil, closeAll, false
	}
	return in, posters, closeAll, true
}

func fieldErrors(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		out = append(out, fe.Namespace()+" failed on "+fe.Tag())
	}
	return out
}

// POST /events
func (d *deps) createEvent(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	in, posters, closeAll, ok := d.eventForm(c)
	if !ok {
		return
	}
	defer closeAll()
	if len(posters) == 0 {
		fail(c, http.StatusBadRequest, "At least one event poster is required")
		return
	}
	if in == nil {
		fail(c, http.StatusBadRequest, "Invalid event data format")
		return
	}

	ev, err := d.events.Create(c.Request.Context(), uid, *in, posters)
	if err != nil {
		d.respondError(c, err)
		return
	}
	d.inv.PurgeEvent(c.Request.Context(), ev.ID.Hex())
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Event created successfully", "event": ev})
}

// PUT /events/:id
func (d *deps) updateEvent(c *gin.Context) {
	d.applyEventUpdate(c, c.GetString(middlewares.CtxRole) == utils.RoleAdmin)
}

// PUT /admin/event/:id
func (d *deps) adminUpdateEvent(c *gin.Context) {
	d.applyEventUpdate(c, true)
}

func (d *deps) applyEventUpdate(c *gin.Context, asAdmin bool) {
	uid := callerID(c)
	in, posters, closeAll, ok := d.eventForm(c)
	if !ok {
		return
	}
	defer closeAll()

	id := c.Param("id")
	ev, err := d.events.Update(c.Request.Context(), uid, asAdmin, id, in, posters)
	if err != nil {
		d.respondError(c, err)
		return
	}
	d.inv.PurgeEvent(c.Request.Context(), id)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Event updated successfully", "event": ev})
}

// DELETE /events/:id
func (d *deps) deleteEvent(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	id := c.Param("id")
	asAdmin := c.GetString(middlewares.CtxRole) == utils.RoleAdmin
	if err := d.events.Delete(c.Request.Context(), uid, asAdmin, id); err != nil {
		d.respondError(c, err)
		return
	}
	d.inv.PurgeEvent(c.Request.Context(), id)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Event deleted successfully"})
}

// PUT /admin/approve/:id
func (d *deps) approveEvent(c *gin.Context) {
	ev, err := d.events.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	d.inv.PurgeEvent(c.Request.Context(), ev.ID.Hex())
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Event approved successfully", "event": ev})
}

// PUT /admin/reject/:id
func (d *deps) rejectEvent(c *gin.Context) {
	ev, err := d.events.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	d.inv.PurgeEvent(c.Request.Context(), ev.ID.Hex())
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Event rejected successfully", "event": ev})
}
