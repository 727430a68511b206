package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"eventhub/logger"
	"eventhub/models"
	"eventhub/otp"
	"eventhub/utils"
)

const (
	ProfileFolder  = "users"
	DocumentFolder = "documents"

	// OTPValidity is how long a code can be used. Records outlive it by
	// otpGrace so a late attempt reports expiry instead of a missing request.
	OTPValidity = 10 * time.Minute
	otpGrace    = time.Hour
)

var (
	validate     = validator.New()
	tenDigits    = regexp.MustCompile(`^\d{10}$`)
	fourDigits   = regexp.MustCompile(`^\d{4}$`)
	eventTypes   = []string{"live", "onsite", "youtube stream"}
	postalCodeRe = regexp.MustCompile(`^\d{5,6}$`)
)

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

type AccountService struct {
	store  *models.Store
	otps   otp.Store
	sms    SMSSender
	tokens *utils.Tokens
	ids    IdentityVerifier
	images ImageHost
	log    *slog.Logger
	now    func() time.Time
}

// NewAccountService wires the account flows. ids may be nil when ID-token
// login is not configured.
func NewAccountService(store *models.Store, otps otp.Store, sms SMSSender, tokens *utils.Tokens, ids IdentityVerifier, images ImageHost, log *slog.Logger) *AccountService {
	if log == nil {
		log = logger.Discard()
	}
	return &AccountService{
		store:  store,
		otps:   otps,
		sms:    sms,
		tokens: tokens,
		ids:    ids,
		images: images,
		log:    log,
		now:    time.Now,
	}
}

/* -------------------- one-time codes -------------------- */

type otpRecord struct {
	Code      string          `json:"code"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// issueOTP texts a fresh code to phone and parks payload under key until
// the code is verified.
func (s *AccountService) issueOTP(ctx context.Context, key, phone string, payload any) error {
	code, err := otp.Generate()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	rec, err := json.Marshal(otpRecord{Code: code, ExpiresAt: s.now().Add(OTPValidity), Payload: raw})
	if err != nil {
		return err
	}
	if err := s.sms.SendOTP(ctx, phone, code); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return s.otps.Put(ctx, key, string(rec), OTPValidity+otpGrace)
}

// checkOTP verifies code against key and decodes the parked payload. A used
// or expired record is removed.
func (s *AccountService) checkOTP(ctx context.Context, key, code string, payload any) error {
	raw, err := s.otps.Get(ctx, key)
	if errors.Is(err, otp.ErrMissing) {
		return ErrOTPMissing
	}
	if err != nil {
		return err
	}
	var rec otpRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return fmt.Errorf("decode otp record: %w", err)
	}
	if rec.Code != strings.TrimSpace(code) {
		return ErrOTPInvalid
	}
	if s.now().After(rec.ExpiresAt) {
		_ = s.otps.Delete(ctx, key)
		return ErrOTPExpired
	}
	if payload != nil && len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, payload); err != nil {
			return fmt.Errorf("decode otp payload: %w", err)
		}
	}
	return s.otps.Delete(ctx, key)
}

func signupKey(phone string) string { return "signup:" + phone }
func resetKey(email string) string { return "reset:" + strings.ToLower(email) }
func updateKey(id primitive.ObjectID) string { return "update:" + id.Hex() }

/* -------------------- registration -------------------- */

type SignupRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	UserType    string `json:"userType"`
	ProfileType string `json:"profileType"`
	FCMToken    string `json:"fcmToken"`
}

func (r *SignupRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.UserType = strings.TrimSpace(r.UserType)
	r.ProfileType = strings.TrimSpace(r.ProfileType)
	r.FCMToken = strings.TrimSpace(r.FCMToken)
}

func (r SignupRequest) validate() error {
	if r.FCMToken == "" {
		return unprocessable("FCM Token is required")
	}
	var problems []string
	if r.Name == "" {
		problems = append(problems, "Name is required")
	}
	if r.Email == "" {
		problems = append(problems, "Email is required")
	} else if !validEmail(r.Email) {
		problems = append(problems, "Invalid email format")
	}
	if !models.ValidUserType(r.UserType) {
		problems = append(problems, "UserType is required and should be one of these: Host&Participant, Participant")
	}
	if r.ProfileType != "" && !models.ValidProfileType(r.ProfileType) {
		problems = append(problems, "ProfileType should be one of these: Artist, Orator, Organizer")
	}
	if r.PhoneNumber == "" {
		problems = append(problems, "Phone number is required")
	}
	if strings.TrimSpace(r.Password) == "" {
		problems = append(problems, "Password is required")
	}
	if len(problems) > 0 {
		return unprocessable("Validation Failed", problems...)
	}
	return nil
}

type pendingSignup struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phoneNumber"`
	PasswordHash string `json:"passwordHash"`
	UserType     string `json:"userType"`
	ProfileType  string `json:"profileType,omitempty"`
	FCMToken     string `json:"fcmToken"`
}

// SendSignupOTP validates a registration and texts a code to its phone. The
// account is created by VerifySignup.
func (s *AccountService) SendSignupOTP(ctx context.Context, req SignupRequest) error {
	req.normalize()
	if err := req.validate(); err != nil {
		return err
	}
	if _, err := s.store.Users.GetByEmail(ctx, req.Email); err == nil {
		return invalid("User with this email already exists. Please use a different one.")
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	if _, err := s.store.Users.GetByPhone(ctx, req.PhoneNumber); err == nil {
		return invalid("User with this phone number already exists. Please use a different one.")
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.issueOTP(ctx, signupKey(req.PhoneNumber), req.PhoneNumber, pendingSignup{
		Name:         req.Name,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		UserType:     req.UserType,
		ProfileType:  req.ProfileType,
		FCMToken:     req.FCMToken,
	})
}

// VerifySignup creates the account parked by SendSignupOTP and signs the
// user in.
func (s *AccountService) VerifySignup(ctx context.Context, phone, code string) (models.User, string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return models.User{}, "", unprocessable("Validation Failed", "Phone number is required")
	}
	if !fourDigits.MatchString(strings.TrimSpace(code)) {
		return models.User{}, "", unprocessable("Validation Failed", "OTP is required and should be 4 digit number")
	}
	var p pendingSignup
	if err := s.checkOTP(ctx, signupKey(phone), code, &p); err != nil {
		return models.User{}, "", err
	}

	u := models.User{
		Name:        p.Name,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		Password:    p.PasswordHash,
		UserType:    p.UserType,
		ProfileType: p.ProfileType,
		FCMToken:    []string{p.FCMToken},
	}
	if err := s.store.Users.Create(ctx, &u); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return models.User{}, "", invalid("User with this email or phone number already exists.")
		}
		return models.User{}, "", fmt.Errorf("create user: %w", err)
	}
	token, err := s.tokens.GenerateToken(u.Email, u.ID.Hex(), utils.RoleUser)
	if err != nil {
		return models.User{}, "", err
	}
	s.log.Info("user registered", slog.String("user", u.ID.Hex()))
	return u, token, nil
}

// CheckExists reports whether phone or email belongs to an account and
// which of the two matched.
func (s *AccountService) CheckExists(ctx context.Context, phone, email string) (bool, string, error) {
	phone, email = strings.TrimSpace(phone), strings.TrimSpace(email)
	if phone == "" && email == "" {
		return false, "", invalid("Phone number or email is required")
	}
	if phone != "" {
		if _, err := s.store.Users.GetByPhone(ctx, phone); err == nil {
			return true, "Phone number already exists.", nil
		} else if !errors.Is(err, models.ErrNotFound) {
			return false, "", err
		}
	}
	if email != "" {
		if _, err := s.store.Users.GetByEmail(ctx, email); err == nil {
			return true, "Email already exists.", nil
		} else if !errors.Is(err, models.ErrNotFound) {
			return false, "", err
		}
	}
	return false, "User not found with this phone number or email.", nil
}

/* -------------------- sign in -------------------- */

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FCMToken string `json:"fcmToken"`
}

func (s *AccountService) Login(ctx context.Context, req LoginRequest) (models.User, string, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || strings.TrimSpace(req.Password) == "" {
		return models.User{}, "", unprocessable("Email and password are required")
	}
	if !validEmail(email) {
		return models.User{}, "", unprocessable("Invalid email format")
	}
	u, err := s.store.Users.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return models.User{}, "", notFound("User not found")
	}
	if err != nil {
		return models.User{}, "", err
	}
	if u.Password == "" {
		return models.User{}, "", notFound("Password update pending")
	}
	if !utils.CheckPasswordHash(req.Password, u.Password) {
		return models.User{}, "", &AuthError{Msg: "Incorrect password"}
	}
	if t := strings.TrimSpace(req.FCMToken); t != "" && !slices.Contains(u.FCMToken, t) {
		if err := s.store.Users.AddDeviceToken(ctx, u.ID, t); err != nil {
			return models.User{}, "", err
		}
	}
	token, err := s.tokens.GenerateToken(u.Email, u.ID.Hex(), utils.RoleUser)
	return u, token, err
}

// FirebaseLogin signs in with a Firebase ID token, creating the account on
// first use. existed is false for a new account.
func (s *AccountService) FirebaseLogin(ctx context.Context, idToken string) (u models.User, token string, existed bool, err error) {
	if strings.TrimSpace(idToken) == "" {
		return u, "", false, invalid("No ID token provided")
	}
	if s.ids == nil {
		return u, "", false, fmt.Errorf("id token login: %w", ErrUnavailable)
	}
	id, err := s.ids.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.log.Warn("id token rejected", logger.Err(err))
		return u, "", false, &AuthError{Msg: "Authentication failed"}
	}
	if id.Email == "" {
		return u, "", false, invalid("Invalid token: Email not found")
	}

	u, err = s.store.Users.GetByEmail(ctx, id.Email)
	switch {
	case err == nil:
		existed = true
	case errors.Is(err, models.ErrNotFound):
		name := id.Name
		if name == "" {
			name, _, _ = strings.Cut(id.Email, "@")
		}
		u = models.User{Name: name, Email: strings.ToLower(id.Email)}
		if id.Picture != "" {
			pic := id.Picture
			u.Profile = &pic
		}
		if err := s.store.Users.Create(ctx, &u); err != nil {
			return u, "", false, fmt.Errorf("create user: %w", err)
		}
	default:
		return u, "", false, err
	}
	token, err = s.tokens.GenerateToken(u.Email, u.ID.Hex(), utils.RoleUser)
	return u, token, existed, err
}

/* -------------------- passwords -------------------- */

func weakPassword(pw string) error {
	broken := utils.StrongPassword(pw)
	if len(broken) == 0 {
		return nil
	}
	fields := make([]string, len(broken))
	for i, b := range broken {
		fields[i] = "Password must contain " + b
	}
	return invalid("Invalid new password", fields...)
}

// SendResetOTP texts a reset code to the phone of the account owning email.
func (s *AccountService) SendResetOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid("Email is required")
	}
	if !validEmail(email) {
		return invalid("Invalid email format")
	}
	u, err := s.store.Users.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return notFound("No user found with this email")
	}
	if err != nil {
		return err
	}
	if u.PhoneNumber == "" {
		return invalid("No phone number on file for this account")
	}
	return s.issueOTP(ctx, resetKey(email), u.PhoneNumber, u.ID)
}

func (s *AccountService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email, newPassword = strings.TrimSpace(email), strings.TrimSpace(newPassword)
	if email == "" || strings.TrimSpace(code) == "" || newPassword == "" {
		return invalid("Email, OTP, and new password are required")
	}
	if err := weakPassword(newPassword); err != nil {
		return err
	}
	var id primitive.ObjectID
	if err := s.checkOTP(ctx, resetKey(email), code, &id); err != nil {
		return err
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.Users.SetPassword(ctx, id, hash); errors.Is(err, models.ErrNotFound) {
		return notFound("User not found")
	} else if err != nil {
		return err
	}
	return nil
}

func (s *AccountService) ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error {
	current, next = strings.TrimSpace(current), strings.TrimSpace(next)
	if current == "" || next == "" {
		return invalid("Current password and new password are required")
	}
	if err := weakPassword(next); err != nil {
		return err
	}
	if current == next {
		return invalid("New password must be different from current password")
	}
	u, err := s.store.Users.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return notFound("User not found")
	}
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(current, u.Password) {
		return invalid("Current password is incorrect")
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.Users.SetPassword(ctx, userID, hash)
}

/* -------------------- profile -------------------- */

func (s *AccountService) user(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	u, err := s.store.Users.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return u, notFound("User not found")
	}
	return u, err
}

func (s *AccountService) Get(ctx context.Context, id string) (models.User, error) {
	uid, err := parseID(id, "User")
	if err != nil {
		return models.User{}, err
	}
	return s.user(ctx, uid)
}

// List returns every user, newest first.
func (s *AccountService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users.List(ctx)
	slices.Reverse(users)
	return users, err
}

// UserListing is a user with the caller's subscription to them.
type UserListing struct {
	models.User
	IsSubscribed bool       `json:"isSubscribed"`
	SubscribedAt *time.Time `json:"subscribedAt"`
}

// ListByProfileType lists users of one profile type, newest first, marking
// those viewer subscribes to.
func (s *AccountService) ListByProfileType(ctx context.Context, viewer primitive.ObjectID, profileType string) ([]UserListing, error) {
	if !models.ValidProfileType(profileType) {
		return nil, invalid("profileType must be one of: Artist, Orator, Organizer")
	}
	var (
		users []models.User
		subs  []models.Subscription
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.store.Users.ListByProfileType(gctx, profileType)
		return err
	})
	g.Go(func() error {
		var err error
		subs, err = s.store.Subscriptions.BySubscriber(gctx, viewer)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	since := map[primitive.ObjectID]time.Time{}
	for _, sub := range subs {
		since[sub.SubscribedTo] = sub.CreatedAt
	}
	out := make([]UserListing, 0, len(users))
	for i := len(users) - 1; i >= 0; i-- {
		l := UserListing{User: users[i]}
		if at, ok := since[users[i].ID]; ok {
			l.IsSubscribed, l.SubscribedAt = true, &at
		}
		out = append(out, l)
	}
	return out, nil
}

// BasicUpdate changes account identity fields. Phone number and password
// changes need a code: the first call texts it, the second carries it in OTP.
type BasicUpdate struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
	Password    *string `json:"password"`
	ProfileType *string `json:"profileType"`
	OTP         *string `json:"otp"`
}

type pendingUpdate struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	PhoneNumber  *string `json:"phoneNumber,omitempty"`
	ProfileType  *string `json:"profileType,omitempty"`
	PasswordHash string  `json:"passwordHash,omitempty"`
}

// UpdateBasic applies req. When a code is needed and req carries none, it is
// texted and sentTo names the destination; nothing is written yet.
func (s *AccountService) UpdateBasic(ctx context.Context, userID primitive.ObjectID, req BasicUpdate) (u models.User, sentTo string, err error) {
	u, err = s.user(ctx, userID)
	if err != nil {
		return u, "", err
	}
	given := func(p *string) bool { return p != nil && strings.TrimSpace(*p) != "" }
	if !given(req.Name) && !given(req.Email) && !given(req.PhoneNumber) && !given(req.Password) && req.ProfileType == nil {
		return u, "", invalid("No update fields provided. Please supply at least one field.")
	}

	var (
		pend      pendingUpdate
		needsCode bool
		dest      = u.PhoneNumber
	)
	if req.ProfileType != nil {
		if *req.ProfileType != "" && !models.ValidProfileType(*req.ProfileType) {
			return u, "", invalid("ProfileType must be one of: Artist, Orator, Organizer or null")
		}
		pend.ProfileType = req.ProfileType
	}
	if given(req.PhoneNumber) {
		phone := strings.TrimSpace(*req.PhoneNumber)
		if !tenDigits.MatchString(phone) {
			return u, "", unprocessable("Invalid phone number format; it must be 10 digits.")
		}
		if phone != u.PhoneNumber {
			if other, err := s.store.Users.GetByPhone(ctx, phone); err == nil && other.ID != userID {
				return u, "", &ConflictError{Msg: "The new phone number is already in use."}
			}
			needsCode, dest = true, phone
			pend.PhoneNumber = &phone
		}
	}
	if given(req.Password) {
		pw := strings.TrimSpace(*req.Password)
		if err := weakPassword(pw); err != nil {
			return u, "", err
		}
		hash, err := utils.HashPassword(pw)
		if err != nil {
			return u, "", err
		}
		needsCode = true
		pend.PasswordHash = hash
	}
	if given(req.Name) {
		name := strings.TrimSpace(*req.Name)
		pend.Name = &name
	}
	if given(req.Email) {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !validEmail(email) {
			return u, "", unprocessable("Invalid email format")
		}
		if other, err := s.store.Users.GetByEmail(ctx, email); err == nil && other.ID != userID {
			return u, "", &ConflictError{Msg: "The new email is already in use."}
		}
		pend.Email = &email
	}

	if needsCode {
		if req.OTP == nil || strings.TrimSpace(*req.OTP) == "" {
			if dest == "" {
				return u, "", invalid("A phone number is required to verify this change")
			}
			return u, dest, s.issueOTP(ctx, updateKey(userID), dest, pend)
		}
		pend = pendingUpdate{}
		if err := s.checkOTP(ctx, updateKey(userID), *req.OTP, &pend); err != nil {
			return u, "", err
		}
	}
	u, err = s.applyPending(ctx, userID, pend)
	return u, "", err
}

func (s *AccountService) applyPending(ctx context.Context, userID primitive.ObjectID, p pendingUpdate) (models.User, error) {
	var u models.User
	err := s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.store.Users.Update(ctx, userID, models.UserPatch{
			Name:        p.Name,
			Email:       p.Email,
			PhoneNumber: p.PhoneNumber,
			ProfileType: p.ProfileType,
		})
		if err != nil {
			return err
		}
		if p.PasswordHash != "" {
			return s.store.Users.SetPassword(ctx, userID, p.PasswordHash)
		}
		return nil
	})
	if errors.Is(err, models.ErrDuplicate) {
		return u, &ConflictError{Msg: "The new email or phone number is already in use."}
	}
	return u, err
}

// ProfileInput is the updateUser document of the profile form.
type ProfileInput struct {
	Desc                *string              `json:"desc"`
	Location            *models.UserLocation `json:"location"`
	Social              json.RawMessage      `json:"social"`
	Interests           []string             `json:"interests"`
	PreferredEventTypes []string             `json:"preferredEventTypes"`
	ProfileType         *string              `json:"profileType"`
}

func (in ProfileInput) validate() error {
	if in.ProfileType != nil && !models.ValidProfileType(*in.ProfileType) {
		return invalid("ProfileType must be one of: Artist, Orator, Organizer")
	}
	for _, t := range in.PreferredEventTypes {
		if !slices.Contains(eventTypes, t) {
			return invalid("PreferredEventTypes must be one of: " + strings.Join(eventTypes, ", "))
		}
	}
	if loc := in.Location; loc != nil {
		var missing []string
		for name, v := range map[string]string{
			"address": loc.Address, "city": loc.City, "state": loc.State,
			"postalCode": loc.PostalCode, "country": loc.Country,
		} {
			if strings.TrimSpace(v) == "" {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			slices.Sort(missing)
			return invalid("Location is missing required fields", missing...)
		}
		if !postalCodeRe.MatchString(loc.PostalCode) {
			return invalid("Postal code must be a valid 5 or 6-digit number")
		}
	}
	return nil
}

// UpdateProfile edits the descriptive profile. Social links merge into the
// stored ones. A new image replaces the old, which is then removed.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, in ProfileInput, images []Upload) (models.User, error) {
	const op = "services.AccountService.UpdateProfile"
	log := s.log.With(slog.String("op", op))

	uid, err := parseID(id, "User")
	if err != nil {
		return models.User{}, err
	}
	u, err := s.user(ctx, uid)
	if err != nil {
		return models.User{}, err
	}
	if err := in.validate(); err != nil {
		return models.User{}, err
	}
	if len(images) > 1 {
		return models.User{}, invalid("Only one image allowed")
	}

	p := models.UserPatch{
		Desc:                in.Desc,
		Location:            in.Location,
		Interests:           in.Interests,
		PreferredEventTypes: in.PreferredEventTypes,
		ProfileType:         in.ProfileType,
	}
	if len(in.Social) > 0 {
		links := u.Social
		if err := json.Unmarshal(in.Social, &links); err != nil {
			return models.User{}, invalid("Invalid social links")
		}
		p.Social = &links
	}
	if len(images) == 1 {
		urls, err := uploadAll(ctx, s.images, log, ProfileFolder, images)
		if err != nil {
			return models.User{}, fmt.Errorf("upload profile image: %w", err)
		}
		p.Profile = &urls[0]
	}

	updated, err := s.store.Users.Update(ctx, uid, p)
	if err != nil {
		if p.Profile != nil {
			removeAll(context.WithoutCancel(ctx), s.images, log, []string{*p.Profile})
		}
		return models.User{}, err
	}
	if p.Profile != nil && u.Profile != nil && *u.Profile != "" {
		removeAll(ctx, s.images, log, []string{*u.Profile})
	}
	return updated, nil
}

// AddDocuments uploads verification documents and appends them to the user.
func (s *AccountService) AddDocuments(ctx context.Context, userID primitive.ObjectID, files []Upload) ([]string, error) {
	if len(files) == 0 {
		return nil, invalid("No files uploaded")
	}
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	urls, err := uploadAll(ctx, s.images, s.log, DocumentFolder, files)
	if err != nil {
		return nil, fmt.Errorf("upload documents: %w", err)
	}
	docs := append(slices.Clip(u.Document), urls...)
	updated, err := s.store.Users.Update(ctx, userID, models.UserPatch{Document: docs})
	if err != nil {
		removeAll(context.WithoutCancel(ctx), s.images, s.log, urls)
		return nil, err
	}
	return updated.Document, nil
}

func (s *AccountService) UpdateCoordinates(ctx context.Context, userID primitive.ObjectID, lat, lng string) (models.User, error) {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" || lng == "" {
		return models.User{}, invalid("Latitude and Longitude are required.")
	}
	if la, ln, ok := models.ParseLatLng(lat, lng); !ok || la < -90 || la > 90 || ln < -180 || ln > 180 {
		return models.User{}, invalid("Latitude and Longitude must be valid coordinates.")
	}
	u, err := s.store.Users.Update(ctx, userID, models.UserPatch{Coordinates: &models.Coordinates{Lat: lat, Lng: lng}})
	if errors.Is(err, models.ErrNotFound) {
		return u, notFound("User not found.")
	}
	return u, err
}

// Delete removes the account and everything it owns.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id, "User")
	if err != nil {
		return err
	}
	u, err := s.store.Users.GetByID(ctx, uid)
	if errors.Is(err, models.ErrNotFound) {
		return notFound("User not found.")
	}
	if err != nil {
		return err
	}
	if err := s.store.Integrity.DeleteUser(ctx, uid); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return notFound("User not found.")
		}
		return err
	}
	if u.Profile != nil && *u.Profile != "" {
		removeAll(ctx, s.images, s.log, []string{*u.Profile})
	}
	s.log.Info("user deleted", slog.String("user", uid.Hex()))
	return nil
}

type UserInsight struct {
	Subscribers            int            `json:"subscribers"`
	TotalEvents            int            `json:"totalEvents"`
	UpcomingApprovedEvents []models.Event `json:"upcomingApprovedEvents"`
	PastEvents             []models.Event `json:"pastEvents"`
}

// Insight summarises a host's audience and events.
func (s *AccountService) Insight(ctx context.Context, userID primitive.ObjectID) (UserInsight, error) {
	var (
		subs   []models.Subscription
		events []models.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subs, err = s.store.Subscriptions.BySubscribedTo(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		events, _, err = s.store.Events.Find(gctx, models.EventFilter{Owner: userID}, models.Page{})
		return err
	})
	if err := g.Wait(); err != nil {
		return UserInsight{}, err
	}

	now := s.now()
	out := UserInsight{
		Subscribers:            len(subs),
		TotalEvents:            len(events),
		UpcomingApprovedEvents: []models.Event{},
		PastEvents:             []models.Event{},
	}
	for _, e := range events {
		switch {
		case e.Approved && e.StartDate.After(now):
			out.UpcomingApprovedEvents = append(out.UpcomingApprovedEvents, e)
		case e.EndDate.Before(now):
			out.PastEvents = append(out.PastEvents, e)
		}
	}
	return out, nil
}
