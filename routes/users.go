package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub/middlewares"
	"eventhub/models"
	"eventhub/services"
	"eventhub/utils"
)

/* -------------------- sign up / sign in -------------------- */

// POST /user/signup/sendotp
func (d *deps) sendSignupOTP(c *gin.Context) {
	var req services.SignupRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := d.accounts.SendSignupOTP(c.Request.Context(), req); err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP sent successfully"})
}

// POST /user/signup/verifyotp
func (d *deps) verifySignup(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phoneNumber"`
		OTP         string `json:"otp"`
	}
	if !bindJSON(c, &req) {
		return
	}
	u, token, err := d.accounts.VerifySignup(c.Request.Context(), req.PhoneNumber, req.OTP)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User registered successfully", "user": u, "token": token})
}

// POST /user/login
func (d *deps) login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, token, err := d.accounts.Login(c.Request.Context(), req)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Login Successful", "user": u, "id": u.ID, "token": token})
}

// POST /user/auth/firebase
func (d *deps) firebaseLogin(c *gin.Context) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if !bindJSON(c, &req) {
		return
	}
	u, token, existed, err := d.accounts.FirebaseLogin(c.Request.Context(), req.IDToken)
	if err != nil {
		d.respondError(c, err)
		return
	}
	status, msg := http.StatusOK, "User authenticated successfully"
	if !existed {
		status, msg = http.StatusCreated, "User created successfully"
	}
	c.JSON(status, gin.H{"success": true, "message": msg, "user": u, "token": token})
}

// GET /checkuser?phoneNumber=&email=
func (d *deps) checkUser(c *gin.Context) {
	exists, msg, err := d.accounts.CheckExists(c.Request.Context(), c.Query("phoneNumber"), c.Query("email"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists, "message": msg})
}

/* -------------------- passwords -------------------- */

// POST /user/password-reset/send-otp
func (d *deps) sendResetOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := d.accounts.SendResetOTP(c.Request.Context(), req.Email); err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP sent to your registered phone number"})
}

// POST /user/password-reset/verify
func (d *deps) resetPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := d.accounts.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password reset successfully"})
}

// POST /user/password/change
func (d *deps) changePassword(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := d.accounts.ChangePassword(c.Request.Context(), uid, req.CurrentPassword, req.NewPassword); err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed successfully"})
}

/* -------------------- profile -------------------- */

// GET /user
func (d *deps) listUsers(c *gin.Context) {
	users, err := d.accounts.List(c.Request.Context())
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

// GET /user/:id
func (d *deps) getUser(c *gin.Context) {
	u, err := d.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

// GET /user/type/:id lists users of one profile type.
func (d *deps) usersByType(c *gin.Context) {
	users, err := d.accounts.ListByProfileType(c.Request.Context(), callerID(c), c.Param("id"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

// GET /user/insight
func (d *deps) userInsight(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	in, err := d.accounts.Insight(c.Request.Context(), uid)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": in})
}

// PUT /user/basic-update
func (d *deps) updateBasic(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	d.applyBasicUpdate(c, uid.Hex())
}

// PUT /admin/user/basic/:id
func (d *deps) adminUpdateBasic(c *gin.Context) {
	d.applyBasicUpdate(c, c.Param("id"))
}

func (d *deps) applyBasicUpdate(c *gin.Context, id string) {
	uid, err := models.ParseID(id)
	if err != nil {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	var req services.BasicUpdate
	if !bindJSON(c, &req) {
		return
	}
	u, sentTo, err := d.accounts.UpdateBasic(c.Request.Context(), uid, req)
	if err != nil {
		d.respondError(c, err)
		return
	}
	if sentTo != "" {
		c.JSON(http.StatusOK, gin.H{"success": true, "otpRequired": true, "message": "OTP sent to " + sentTo})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User updated successfully", "user": u})
}

// PUT /user/update/:id and PUT /admin/user/modify/:id take the multipart
// profile form: updateUser (JSON) plus at most one image.
func (d *deps) updateProfile(c *gin.Context) {
	id := c.Param("id")
	if c.GetString(middlewares.CtxRole) != utils.RoleAdmin && c.GetString(middlewares.CtxUserID) != id {
		fail(c, http.StatusForbidden, "You can only update your own profile")
		return
	}
	form, err := multipartForm(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid form data")
		return
	}
	var in services.ProfileInput
	if _, err := formJSON(form, "updateUser", &in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid user data format")
		return
	}
	images, closeAll, err := formUploads(form)
	if err != nil {
		d.respondError(c, err)
		return
	}
	defer closeAll()
	if len(images) > 1 {
		fail(c, http.StatusBadRequest, "Only one profile image can be uploaded")
		return
	}

	u, err := d.accounts.UpdateProfile(c.Request.Context(), id, in, images)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User updated successfully", "user": u})
}

// POST /user/verify uploads identity documents.
func (d *deps) submitDocuments(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	form, err := multipartForm(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid form data")
		return
	}
	files, closeAll, err := formUploads(form)
	if err != nil {
		d.respondError(c, err)
		return
	}
	defer closeAll()

	urls, err := d.accounts.AddDocuments(c.Request.Context(), uid, files)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Documents uploaded successfully", "documents": urls})
}

// PUT /user/update-cordinates
func (d *deps) updateCoordinates(c *gin.Context) {
	uid, ok := requireCaller(c)
	if !ok {
		return
	}
	var req struct {
		Lat string `json:"lat"`
		Lng string `json:"lng"`
	}
	if !bindJSON(c, &req) {
		return
	}
	u, err := d.accounts.UpdateCoordinates(c.Request.Context(), uid, req.Lat, req.Lng)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User coordinates updated successfully.", "user": u})
}

// DELETE /user/:id removes the caller's own account.
func (d *deps) deleteUser(c *gin.Context) {
	id := c.Param("id")
	if c.GetString(middlewares.CtxUserID) != id {
		fail(c, http.StatusForbidden, "You can only delete your own account")
		return
	}
	if err := d.accounts.Delete(c.Request.Context(), id); err != nil {
		d.respondError(c, err)
		return
	}
	d.inv.PurgeAllEvents(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Successfully Deleted"})
}

// GET /user/events/:id lists a user's approved events.
func (d *deps) userEvents(c *gin.Context) {
	uid, err := models.ParseID(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	events, err := d.events.OwnedBy(c.Request.Context(), uid, true)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": events})
}

// GET /user/bookings/:id lists a user's bookings, newest first.
func (d *deps) userBookings(c *gin.Context) {
	bookings, err := d.bookings.ByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": bookings})
}

/* -------------------- contact -------------------- */

// POST /api/send-email
func (d *deps) contact(c *gin.Context) {
	var req services.ContactRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := d.admin.Contact(c.Request.Context(), req); err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Email sent successfully!"})
}
