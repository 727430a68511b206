package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"eventhub/logger"
	"eventhub/middlewares"
	"eventhub/models"
	"eventhub/services"
)

// maxUploadMemory bounds the multipart form kept in memory; the rest spills
// to temp files.
const maxUploadMemory = 32 << 20

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

// respondError maps a service error to its status and body.
func (d *deps) respondError(c *gin.Context, err error) {
	var (
		verr *services.ValidationError
		cerr *services.CapacityError
		derr *services.DeliveryError
	)
	switch {
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if verr.Unprocessable {
			status = http.StatusUnprocessableEntity
		}
		body := gin.H{"success": false, "message": verr.Msg}
		if len(verr.Fields) > 0 {
			body["errors"] = verr.Fields
		}
		c.AbortWithStatusJSON(status, body)
	case errors.As(err, &cerr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": cerr.Error(),
			"max":     cerr.Max,
			"current": cerr.Current,
		})
	case errors.As(err, &derr):
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"success":          false,
			"message":          "Booking saved but the ticket could not be delivered",
			"booking":          derr.Booking,
			"bookingCommitted": true,
		})
	case errors.Is(err, services.ErrOTPMissing),
		errors.Is(err, services.ErrOTPInvalid),
		errors.Is(err, services.ErrOTPExpired),
		errors.Is(err, services.ErrSelfSubscription):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrNotApproved):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnavailable):
		_ = c.Error(err)
		fail(c, http.StatusServiceUnavailable, "This feature is not available right now.")
	default:
		_ = c.Error(err)
		d.log.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("request_id", c.GetString(middlewares.CtxRequestID)),
			logger.Err(err))
		fail(c, http.StatusInternalServerError, "Something went wrong. Please try again later.")
	}
}

// callerID is the authenticated user, or the zero id for anonymous callers.
func callerID(c *gin.Context) primitive.ObjectID {
	id, err := models.ParseID(c.GetString(middlewares.CtxUserID))
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}

// requireCaller is callerID for routes behind Authenticate. A token whose
// subject is not an id is treated like a bad token.
func requireCaller(c *gin.Context) (primitive.ObjectID, bool) {
	id := callerID(c)
	if id.IsZero() {
		fail(c, http.StatusUnauthorized, "Invalid token")
		return id, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, "Could not parse request data.")
		return false
	}
	return true
}

func pageRequest(c *gin.Context) services.PageRequest {
	page, _ := strconv.ParseInt(c.Query("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	return services.PageRequest{Page: page, Limit: limit}
}

func pageBody(msg string, p services.EventPage) gin.H {
	return gin.H{
		"success":    true,
		"message":    msg,
		"events":     p.Events,
		"pagination": p.Pagination,
	}
}

// multipartForm parses the request body as a multipart form. A request
// that is not multipart yields an empty form.
func multipartForm(c *gin.Context) (*multipart.Form, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return &multipart.Form{}, nil
	}
	return form, err
}

// formJSON decodes the JSON document carried in one form field. ok is false
// when the field is absent.
func formJSON(form *multipart.Form, field string, dst any) (ok bool, err error) {
	vals := form.Value[field]
	if len(vals) == 0 || vals[0] == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(vals[0]), dst); err != nil {
		return true, err
	}
	return true, nil
}

// formUploads opens every file in the form, ordered by field name. The
// returned func closes them.
func formUploads(form *multipart.Form) ([]services.Upload, func(), error) {
	fields := make([]string, 0, len(form.File))
	for k := range form.File {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	var (
		out   []services.Upload
		files []multipart.File
	)
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	for _, k := range fields {
		for _, fh := range form.File[k] {
			f, err := fh.Open()
			if err != nil {
				closeAll()
				return nil, func() {}, fmt.Errorf("open upload %q: %w", fh.Filename, err)
			}
			files = append(files, f)
			out = append(out, services.Upload{Filename: fh.Filename, Body: f})
		}
	}
	return out, closeAll, nil
}
