package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"eventhub/models"
)

type SocialService struct {
	store *models.Store
}

func NewSocialService(store *models.Store) *SocialService {
	return &SocialService{store: store}
}

/* -------------------- likes -------------------- */

// ToggleLike likes the event, or unlikes it when the user already did.
// It returns the new state and the event's like count.
func (s *SocialService) ToggleLike(ctx context.Context, userID primitive.ObjectID, eventID string) (bool, int, error) {
	eid, err := parseID(eventID, "Event")
	if err != nil {
		return false, 0, err
	}
	if _, err := s.store.Events.GetByID(ctx, eid); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, 0, notFound("Event not found")
		}
		return false, 0, err
	}

	var liked bool
	err = s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.store.Likes.Get(ctx, userID, eid)
		switch {
		case err == nil:
			liked = false
			return s.store.Integrity.DeleteLike(ctx, existing.ID)
		case errors.Is(err, models.ErrNotFound):
			liked = true
			if err := s.store.Likes.Create(ctx, &models.Like{UserID: userID, EventID: eid}); err != nil {
				return err
			}
			return s.store.Integrity.AdjustLikeCount(ctx, eid, 1)
		default:
			return err
		}
	})
	if errors.Is(err, models.ErrDuplicate) {
		return false, 0, &ConflictError{Msg: "Like already recorded"}
	}
	if err != nil {
		return false, 0, err
	}

	e, err := s.store.Events.GetByID(ctx, eid)
	if err != nil {
		return liked, 0, err
	}
	return liked, e.LikeCount, nil
}

func (s *SocialService) LikeCount(ctx context.Context, eventID string) (int, error) {
	eid, err := parseID(eventID, "Event")
	if err != nil {
		return 0, err
	}
	e, err := s.store.Events.GetByID(ctx, eid)
	if errors.Is(err, models.ErrNotFound) {
		return 0, notFound("Event not found")
	}
	return e.LikeCount, err
}

func (s *SocialService) HasLiked(ctx context.Context, userID primitive.ObjectID, eventID string) (bool, error) {
	eid, err := models.ParseID(eventID)
	if err != nil {
		return false, nil
	}
	_, err = s.store.Likes.Get(ctx, userID, eid)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *SocialService) LikedEvents(ctx context.Context, userID primitive.ObjectID) ([]models.Event, error) {
	ids, err := s.store.Likes.EventIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []models.Event{}
	for _, id := range ids {
		e, err := s.store.Events.GetByID(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

/* -------------------- subscriptions -------------------- */

// UserSummary is the public face of a user in subscription lists.
type UserSummary struct {
	ID        primitive.ObjectID `json:"_id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Profile   *string            `json:"profile"`
	CreatedAt time.Time          `json:"createdAt"`
}

func summarize(u models.User) UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Profile: u.Profile, CreatedAt: u.CreatedAt}
}

// ToggleSubscription subscribes to target, or unsubscribes when already
// subscribed. It reports the new state.
func (s *SocialService) ToggleSubscription(ctx context.Context, subscriber primitive.ObjectID, target string) (bool, error) {
	tid, err := parseID(target, "User")
	if err != nil {
		return false, err
	}
	if tid == subscriber {
		return false, ErrSelfSubscription
	}
	if _, err := s.store.Users.GetByID(ctx, tid); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, notFound("User not found")
		}
		return false, err
	}

	var subscribed bool
	err = s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.store.Subscriptions.Get(ctx, subscriber, tid)
		switch {
		case err == nil:
			subscribed = false
			return s.store.Integrity.DeleteSubscription(ctx, existing.ID)
		case errors.Is(err, models.ErrNotFound):
			subscribed = true
			return s.store.Subscriptions.Create(ctx, &models.Subscription{Subscriber: subscriber, SubscribedTo: tid})
		default:
			return err
		}
	})
	if errors.Is(err, models.ErrDuplicate) {
		return false, &ConflictError{Msg: "Already subscribed"}
	}
	return subscribed, err
}

func (s *SocialService) IsSubscribed(ctx context.Context, subscriber primitive.ObjectID, target string) (bool, error) {
	tid, err := models.ParseID(target)
	if err != nil {
		return false, nil
	}
	_, err = s.store.Subscriptions.Get(ctx, subscriber, tid)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *SocialService) requireUser(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.store.Users.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return notFound("User not found")
	}
	return err
}

func (s *SocialService) summaries(ctx context.Context, ids []primitive.ObjectID) ([]UserSummary, error) {
	out := []UserSummary{}
	for _, id := range ids {
		u, err := s.store.Users.GetByID(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(u))
	}
	return out, nil
}

// Subscriptions lists the users userID follows.
func (s *SocialService) Subscriptions(ctx context.Context, userID primitive.ObjectID) ([]UserSummary, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	subs, err := s.store.Subscriptions.BySubscriber(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.SubscribedTo)
	}
	return s.summaries(ctx, ids)
}

// Subscribers lists the users following userID.
func (s *SocialService) Subscribers(ctx context.Context, userID primitive.ObjectID) ([]UserSummary, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	subs, err := s.store.Subscriptions.BySubscribedTo(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.Subscriber)
	}
	return s.summaries(ctx, ids)
}

// SubscriptionCounts returns how many users userID follows and how many
// follow it.
func (s *SocialService) SubscriptionCounts(ctx context.Context, userID string) (subscriptions, subscribers int, err error) {
	uid, err := parseID(userID, "User")
	if err != nil {
		return 0, 0, err
	}
	if err := s.requireUser(ctx, uid); err != nil {
		return 0, 0, err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.store.Subscriptions.BySubscriber(gctx, uid)
		subscriptions = len(out)
		return err
	})
	g.Go(func() error {
		in, err := s.store.Subscriptions.BySubscribedTo(gctx, uid)
		subscribers = len(in)
		return err
	})
	err = g.Wait()
	return subscriptions, subscribers, err
}
