package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub/services"
)

/* -------------------- admins -------------------- */

// POST /admin/signup
func (d *deps) adminSignup(c *gin.Context) {
	var req services.AdminSignup
	if !bindJSON(c, &req) {
		return
	}
	a, err := d.admin.Signup(c.Request.Context(), req)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "admin": a})
}

// POST /admin/login
func (d *deps) adminLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	a, token, err := d.admin.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Authentication successful", "token": token, "id": a.ID})
}

// GET /admin/analytics
func (d *deps) analytics(c *gin.Context) {
	a, err := d.admin.Analytics(c.Request.Context())
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": a})
}

/* -------------------- blogs -------------------- */

// POST /admin/blog takes blogData (JSON title and content) and the images.
func (d *deps) createBlog(c *gin.Context) {
	form, err := multipartForm(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid form data")
		return
	}
	var data struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	present, err := formJSON(form, "blogData", &data)
	if !present {
		fail(c, http.StatusBadRequest, "Blog data is required")
		return
	}
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid blog data format")
		return
	}
	images, closeAll, err := formUploads(form)
	if err != nil {
		d.respondError(c, err)
		return
	}
	defer closeAll()

	b, err := d.admin.CreateBlog(c.Request.Context(), data.Title, data.Content, images)
	if err != nil {
		d.respondError(c, err)
		return
	}
	d.inv.PurgeBlogs(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Blog added successfully", "blog": b})
}

// GET /admin/blog
func (d *deps) blogs(c *gin.Context) {
	list, err := d.admin.Blogs(c.Request.Context())
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "blogs": list})
}

// GET /admin/blog/:id
func (d *deps) blog(c *gin.Context) {
	b, err := d.admin.Blog(c.Request.Context(), c.Param("id"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Blog retrieved successfully", "blog": b})
}

// DELETE /admin/blog/:id
func (d *deps) deleteBlog(c *gin.Context) {
	out, err := d.admin.DeleteBlog(c.Request.Context(), c.Param("id"))
	if err != nil {
		d.respondError(c, err)
		return
	}
	d.inv.PurgeBlogs(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Blog deleted successfully", "data": out})
}

/* -------------------- push -------------------- */

// POST /admin/send-notification pushes to every user's latest device.
func (d *deps) broadcast(c *gin.Context) {
	var req services.PushRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := d.admin.Broadcast(c.Request.Context(), req)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification sent", "result": res})
}

// POST /notifications/send-to-device
func (d *deps) sendToDevice(c *gin.Context) {
	var req services.PushRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := d.admin.SendToDevice(c.Request.Context(), req)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "response": id})
}

// POST /notifications/send-to-devices
func (d *deps) sendToDevices(c *gin.Context) {
	var req services.PushRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := d.admin.SendToDevices(c.Request.Context(), req)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "response": res})
}

// POST /notifications/send-to-topic
func (d *deps) sendToTopic(c *gin.Context) {
	var req services.PushRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := d.admin.SendToTopic(c.Request.Context(), req)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "response": id})
}

// POST /notifications/subscribe-topic
func (d *deps) subscribeTopic(c *gin.Context) {
	var req services.PushRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := d.admin.SubscribeTopic(c.Request.Context(), req.Tokens, req.Topic)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "response": res})
}

// POST /notifications/unsubscribe-topic
func (d *deps) unsubscribeTopic(c *gin.Context) {
	var req services.PushRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := d.admin.UnsubscribeTopic(c.Request.Context(), req.Tokens, req.Topic)
	if err != nil {
		d.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "response": res})
}
