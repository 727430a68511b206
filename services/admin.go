package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"eventhub/logger"
	"eventhub/models"
	"eventhub/notify"
	"eventhub/utils"
)

const (
	BlogFolder = "blogs"
	maxImages  = 4
	// multicastBatch is the most tokens one multicast call accepts.
	multicastBatch = 500
)

// AdminService covers the back-office: admin accounts, analytics, blogs,
// push notifications and the contact form.
type AdminService struct {
	store  *models.Store
	tokens *utils.Tokens
	images ImageHost
	push   Pusher
	mail   Mailer
	log    *slog.Logger
}

// NewAdminService wires the back-office. push and mail may be nil; the
// operations needing them then fail with ErrUnavailable.
func NewAdminService(store *models.Store, tokens *utils.Tokens, images ImageHost, push Pusher, mail Mailer, log *slog.Logger) *AdminService {
	if log == nil {
		log = logger.Discard()
	}
	return &AdminService{store: store, tokens: tokens, images: images, push: push, mail: mail, log: log}
}

/* -------------------- admins -------------------- */

type AdminSignup struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

func (s *AdminService) Signup(ctx context.Context, req AdminSignup) (models.Admin, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Password) == "" || !validEmail(email) {
		return models.Admin{}, unprocessable("Invalid Inputs")
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return models.Admin{}, err
	}
	a := models.Admin{
		Name:        strings.TrimSpace(req.Name),
		Email:       email,
		Mobile:      strings.TrimSpace(req.Mobile),
		Password:    hash,
		Designation: models.DesignationAdmin,
	}
	if err := s.store.Admins.Create(ctx, &a); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return models.Admin{}, invalid("Admin already exists")
		}
		return models.Admin{}, err
	}
	s.log.Info("admin created", slog.String("admin", a.ID.Hex()))
	return a, nil
}

// EnsureAdmin creates the account unless one with that email exists.
func (s *AdminService) EnsureAdmin(ctx context.Context, req AdminSignup) (created bool, err error) {
	_, err = s.store.Admins.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return false, err
	}
	if _, err := s.Signup(ctx, req); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AdminService) Login(ctx context.Context, email, password string) (models.Admin, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return models.Admin{}, "", unprocessable("Email and password are required")
	}
	a, err := s.store.Admins.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return models.Admin{}, "", notFound("Admin not found")
	}
	if err != nil {
		return models.Admin{}, "", err
	}
	if !utils.CheckPasswordHash(password, a.Password) {
		return models.Admin{}, "", &AuthError{Msg: "Invalid credentials"}
	}
	role := utils.RoleUser
	if a.Designation == models.DesignationAdmin {
		role = utils.RoleAdmin
	}
	token, err := s.tokens.GenerateToken(a.Email, a.ID.Hex(), role)
	return a, token, err
}

// IsAdmin reports whether id names an admin whose designation is still
// admin.
func (s *AdminService) IsAdmin(ctx context.Context, id string) (bool, error) {
	aid, err := models.ParseID(id)
	if err != nil {
		return false, nil
	}
	a, err := s.store.Admins.GetByID(ctx, aid)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.Designation == models.DesignationAdmin, nil
}

type Analytics struct {
	Users    int64 `json:"users"`
	Bookings int64 `json:"bookings"`
	Events   int64 `json:"events"`
}

// Analytics counts users and events; Bookings is the attendee total.
func (s *AdminService) Analytics(ctx context.Context) (Analytics, error) {
	var out Analytics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Users, err = s.store.Users.Count(gctx)
		return
	})
	g.Go(func() (err error) {
		out.Events, err = s.store.Events.Count(gctx, models.EventFilter{})
		return
	})
	g.Go(func() (err error) {
		out.Bookings, err = s.store.Bookings.TotalAttendees(gctx)
		return
	})
	if err := g.Wait(); err != nil {
		return Analytics{}, fmt.Errorf("analytics: %w", err)
	}
	return out, nil
}

/* -------------------- blogs -------------------- */

type BlogView struct {
	models.Blog
	CreatedAt time.Time `json:"createdAt"`
}

func blogView(b models.Blog) BlogView {
	return BlogView{Blog: b, CreatedAt: b.ID.Timestamp()}
}

func (s *AdminService) CreateBlog(ctx context.Context, title, content string, images []Upload) (models.Blog, error) {
	const op = "services.AdminService.CreateBlog"
	log := s.log.With(slog.String("op", op))

	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return models.Blog{}, invalid("Title and content are required")
	}
	if len(images) == 0 {
		return models.Blog{}, invalid("At least one image is required")
	}
	if len(images) > maxImages {
		return models.Blog{}, invalid(fmt.Sprintf("Maximum %d images allowed", maxImages))
	}

	urls, err := uploadAll(ctx, s.images, log, BlogFolder, images)
	if err != nil {
		return models.Blog{}, fmt.Errorf("upload blog images: %w", err)
	}
	b := models.Blog{Title: title, Content: content, Images: urls}
	if err := s.store.Blogs.Create(ctx, &b); err != nil {
		removeAll(context.WithoutCancel(ctx), s.images, log, urls)
		if errors.Is(err, models.ErrDuplicate) {
			return models.Blog{}, &ConflictError{Msg: "Blog title already exists"}
		}
		return models.Blog{}, err
	}
	return b, nil
}

// Blogs lists every blog, newest first.
func (s *AdminService) Blogs(ctx context.Context) ([]BlogView, error) {
	blogs, err := s.store.Blogs.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(blogs) == 0 {
		return nil, notFound("No Blogs found")
	}
	out := make([]BlogView, 0, len(blogs))
	for i := len(blogs) - 1; i >= 0; i-- {
		out = append(out, blogView(blogs[i]))
	}
	return out, nil
}

func (s *AdminService) blog(ctx context.Context, id string) (models.Blog, error) {
	bid, err := models.ParseID(id)
	if err != nil {
		return models.Blog{}, invalid("Invalid blog ID format")
	}
	b, err := s.store.Blogs.GetByID(ctx, bid)
	if errors.Is(err, models.ErrNotFound) {
		return models.Blog{}, notFound("No blog found with ID: %s", id)
	}
	return b, err
}

func (s *AdminService) Blog(ctx context.Context, id string) (BlogView, error) {
	b, err := s.blog(ctx, id)
	if err != nil {
		return BlogView{}, err
	}
	return blogView(b), nil
}

type BlogDeletion struct {
	ID            primitive.ObjectID `json:"id"`
	Title         string             `json:"title"`
	ImagesDeleted int                `json:"imagesDeleted"`
	ImagesFailed  int                `json:"imagesFailed"`
}

// DeleteBlog removes the blog, then its images best effort.
func (s *AdminService) DeleteBlog(ctx context.Context, id string) (BlogDeletion, error) {
	b, err := s.blog(ctx, id)
	if err != nil {
		return BlogDeletion{}, err
	}
	if err := s.store.Integrity.DeleteBlog(ctx, b.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return BlogDeletion{}, notFound("No blog found with ID: %s", id)
		}
		return BlogDeletion{}, err
	}
	out := BlogDeletion{ID: b.ID, Title: b.Title}
	for _, u := range b.Images {
		if err := s.images.Delete(ctx, u); err != nil {
			s.log.Warn("could not remove blog image", slog.String("url", u), logger.Err(err))
			out.ImagesFailed++
			continue
		}
		out.ImagesDeleted++
	}
	return out, nil
}

/* -------------------- notifications -------------------- */

type PushRequest struct {
	Token  string            `json:"token"`
	Tokens []string          `json:"tokens"`
	Topic  string            `json:"topic"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data"`
}

func (s *AdminService) pusher() (Pusher, error) {
	if s.push == nil {
		return nil, fmt.Errorf("push notifications: %w", ErrUnavailable)
	}
	return s.push, nil
}

func (r PushRequest) requireMessage() error {
	if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Body) == "" {
		return invalid("title and body are required")
	}
	return nil
}

// SendToDevice returns the provider's message id.
func (s *AdminService) SendToDevice(ctx context.Context, r PushRequest) (string, error) {
	p, err := s.pusher()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(r.Token) == "" {
		return "", invalid("token is required")
	}
	if err := r.requireMessage(); err != nil {
		return "", err
	}
	return p.Send(ctx, notify.Push{Token: r.Token, Title: r.Title, Body: r.Body, Data: r.Data})
}

func (s *AdminService) SendToDevices(ctx context.Context, r PushRequest) (notify.MulticastResult, error) {
	p, err := s.pusher()
	if err != nil {
		return notify.MulticastResult{}, err
	}
	if len(r.Tokens) == 0 {
		return notify.MulticastResult{}, invalid("tokens are required")
	}
	if err := r.requireMessage(); err != nil {
		return notify.MulticastResult{}, err
	}
	return s.multicast(ctx, p, r.Tokens, r.Title, r.Body, r.Data)
}

// multicast sends in provider-sized batches and merges the results.
func (s *AdminService) multicast(ctx context.Context, p Pusher, tokens []string, title, body string, data map[string]string) (notify.MulticastResult, error) {
	out := notify.MulticastResult{FailedTokens: []string{}}
	for start := 0; start < len(tokens); start += multicastBatch {
		batch := tokens[start:min(start+multicastBatch, len(tokens))]
		res, err := p.SendMulticast(ctx, batch, title, body, data)
		if err != nil {
			return out, err
		}
		out.SuccessCount += res.SuccessCount
		out.FailureCount += res.FailureCount
		out.FailedTokens = append(out.FailedTokens, res.FailedTokens...)
	}
	return out, nil
}

func (s *AdminService) SendToTopic(ctx context.Context, r PushRequest) (string, error) {
	p, err := s.pusher()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(r.Topic) == "" {
		return "", invalid("topic is required")
	}
	if err := r.requireMessage(); err != nil {
		return "", err
	}
	return p.SendToTopic(ctx, r.Topic, r.Title, r.Body, r.Data)
}

func (s *AdminService) SubscribeTopic(ctx context.Context, tokens []string, topic string) (notify.TopicResult, error) {
	p, err := s.pusher()
	if err != nil {
		return notify.TopicResult{}, err
	}
	if len(tokens) == 0 || strings.TrimSpace(topic) == "" {
		return notify.TopicResult{}, invalid("tokens and topic are required")
	}
	return p.SubscribeToTopic(ctx, tokens, topic)
}

func (s *AdminService) UnsubscribeTopic(ctx context.Context, tokens []string, topic string) (notify.TopicResult, error) {
	p, err := s.pusher()
	if err != nil {
		return notify.TopicResult{}, err
	}
	if len(tokens) == 0 || strings.TrimSpace(topic) == "" {
		return notify.TopicResult{}, invalid("tokens and topic are required")
	}
	return p.UnsubscribeFromTopic(ctx, tokens, topic)
}

type BroadcastResult struct {
	Recipients int `json:"recipients"`
	notify.MulticastResult
}

// Broadcast pushes one message to the latest device of every user.
func (s *AdminService) Broadcast(ctx context.Context, r PushRequest) (BroadcastResult, error) {
	const op = "services.AdminService.Broadcast"
	log := s.log.With(slog.String("op", op))

	p, err := s.pusher()
	if err != nil {
		return BroadcastResult{}, err
	}
	if err := r.requireMessage(); err != nil {
		return BroadcastResult{}, err
	}
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return BroadcastResult{}, err
	}
	var tokens []string
	for _, u := range users {
		if t := u.LatestDeviceToken(); t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return BroadcastResult{}, notFound("No users with registered devices")
	}
	res, err := s.multicast(ctx, p, tokens, r.Title, r.Body, r.Data)
	if err != nil {
		return BroadcastResult{}, fmt.Errorf("broadcast: %w", err)
	}
	log.Info("broadcast sent",
		slog.Int("recipients", len(tokens)),
		slog.Int("failed", res.FailureCount))
	return BroadcastResult{Recipients: len(tokens), MulticastResult: res}, nil
}

/* -------------------- contact -------------------- */

type ContactRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

// Contact forwards the contact form to the site inbox.
func (s *AdminService) Contact(ctx context.Context, r ContactRequest) error {
	if s.mail == nil {
		return fmt.Errorf("contact mail: %w", ErrUnavailable)
	}
	blank := func(v string) bool { return strings.TrimSpace(v) == "" }
	if blank(r.FirstName) || blank(r.LastName) || blank(r.Email) || blank(r.Message) {
		return invalid("Please provide firstName, lastName, email, and message.")
	}
	if !validEmail(strings.TrimSpace(r.Email)) {
		return invalid("Invalid email format")
	}
	phone := strings.TrimSpace(r.Phone)
	if phone == "" {
		phone = "N/A"
	}
	name := strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName)
	body := fmt.Sprintf("<p><b>Name:</b> %s<br><b>Email:</b> %s<br><b>Phone:</b> %s</p><p>%s</p>",
		html.EscapeString(name),
		html.EscapeString(r.Email),
		html.EscapeString(phone),
		strings.ReplaceAll(html.EscapeString(r.Message), "\n", "<br>"))

	err := s.mail.Send(ctx, notify.Mail{
		ReplyTo: strings.TrimSpace(r.Email),
		Subject: "Contact Us Message from " + name,
		HTML:    body,
	})
	if err != nil {
		s.log.Error("contact mail failed", logger.Err(err))
		return fmt.Errorf("send contact mail: %w", err)
	}
	return nil
}
