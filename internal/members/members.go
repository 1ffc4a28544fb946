package members

import (
	"context"
	"fmt"
	"net/url"

	"gymgo/internal/api"
	dto "gymgo/internal/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service covers the member-facing backend surface: profile, classes,
// bookings and subscriptions.
type Service struct {
	api    *api.Client
	logger *zap.Logger
}

func NewService(apiClient *api.Client, logger *zap.Logger) *Service {
	return &Service{
		api:    apiClient,
		logger: logger.With(zap.String("component", "members_service")),
	}
}

// Profile fetches the authenticated member's profile.
func (s *Service) Profile(ctx context.Context) (*dto.Profile, error) {
	s.logger.Info("Getting profile")

	var profile dto.Profile
	if err := s.api.Get(ctx, "/api/v1/members/me", &profile); err != nil {
		s.logger.Error("Failed to get profile", zap.Error(err))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// UpdateProfile applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, update *dto.ProfileUpdate) (*dto.Profile, error) {
	s.logger.Info("Updating profile")

	var profile dto.Profile
	if err := s.api.Patch(ctx, "/api/v1/members/me", update, &profile); err != nil {
		s.logger.Error("Failed to update profile", zap.Error(err))
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &profile, nil
}

// Classes lists upcoming classes, optionally filtered by date (YYYY-MM-DD).
func (s *Service) Classes(ctx context.Context, date string) ([]*dto.GymClass, error) {
	s.logger.Info("Listing classes", zap.String("date", date))

	path := "/api/v1/classes"
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}

	var classes []*dto.GymClass
	if err := s.api.Get(ctx, path, &classes); err != nil {
		s.logger.Error("Failed to list classes", zap.Error(err))
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return classes, nil
}

// Class fetches a single class by id.
func (s *Service) Class(ctx context.Context, classID string) (*dto.GymClass, error) {
	var class dto.GymClass
	if err := s.api.Get(ctx, "/api/v1/classes/"+classID, &class); err != nil {
		s.logger.Error("Failed to get class", zap.String("class_id", classID), zap.Error(err))
		return nil, fmt.Errorf("failed to get class %s: %w", classID, err)
	}
	return &class, nil
}

type bookingBody struct {
	ClassID        string `json:"class_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

// Book reserves a spot in a class. Each call carries a fresh
// idempotency key so the backend can de-duplicate retried submissions.
func (s *Service) Book(ctx context.Context, classID string) (*dto.Booking, error) {
	s.logger.Info("Booking class", zap.String("class_id", classID))

	body := &bookingBody{ClassID: classID, IdempotencyKey: uuid.New().String()}
	var booking dto.Booking
	if err := s.api.Post(ctx, "/api/v1/bookings", body, &booking); err != nil {
		s.logger.Error("Failed to book class", zap.String("class_id", classID), zap.Error(err))
		return nil, fmt.Errorf("failed to book class %s: %w", classID, err)
	}

	s.logger.Info("Class booked", zap.String("booking_id", booking.ID), zap.String("status", string(booking.Status)))
	return &booking, nil
}

// Bookings lists the member's bookings.
func (s *Service) Bookings(ctx context.Context) ([]*dto.Booking, error) {
	var bookings []*dto.Booking
	if err := s.api.Get(ctx, "/api/v1/bookings", &bookings); err != nil {
		s.logger.Error("Failed to list bookings", zap.Error(err))
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// CancelBooking cancels a booking by id.
func (s *Service) CancelBooking(ctx context.Context, bookingID string) error {
	s.logger.Info("Cancelling booking", zap.String("booking_id", bookingID))

	if err := s.api.Delete(ctx, "/api/v1/bookings/"+bookingID, nil); err != nil {
		s.logger.Error("Failed to cancel booking", zap.String("booking_id", bookingID), zap.Error(err))
		return fmt.Errorf("failed to cancel booking %s: %w", bookingID, err)
	}
	return nil
}

// Plans lists the available subscription plans.
func (s *Service) Plans(ctx context.Context) ([]*dto.Plan, error) {
	var plans []*dto.Plan
	if err := s.api.Get(ctx, "/api/v1/plans", &plans); err != nil {
		s.logger.Error("Failed to list plans", zap.Error(err))
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// Subscriptions lists the member's subscriptions.
func (s *Service) Subscriptions(ctx context.Context) ([]*dto.Subscription, error) {
	var subs []*dto.Subscription
	if err := s.api.Get(ctx, "/api/v1/subscriptions", &subs); err != nil {
		s.logger.Error("Failed to list subscriptions", zap.Error(err))
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

type subscribeBody struct {
	PlanID string `json:"plan_id"`
}

// Subscribe starts a subscription on the given plan.
func (s *Service) Subscribe(ctx context.Context, planID string) (*dto.Subscription, error) {
	s.logger.Info("Subscribing", zap.String("plan_id", planID))

	var sub dto.Subscription
	if err := s.api.Post(ctx, "/api/v1/subscriptions", &subscribeBody{PlanID: planID}, &sub); err != nil {
		s.logger.Error("Failed to subscribe", zap.String("plan_id", planID), zap.Error(err))
		return nil, fmt.Errorf("failed to subscribe to plan %s: %w", planID, err)
	}
	return &sub, nil
}

// CancelSubscription cancels a subscription by id.
func (s *Service) CancelSubscription(ctx context.Context, subscriptionID string) error {
	s.logger.Info("Cancelling subscription", zap.String("subscription_id", subscriptionID))

	if err := s.api.Delete(ctx, "/api/v1/subscriptions/"+subscriptionID, nil); err != nil {
		s.logger.Error("Failed to cancel subscription", zap.String("subscription_id", subscriptionID), zap.Error(err))
		return fmt.Errorf("failed to cancel subscription %s: %w", subscriptionID, err)
	}
	return nil
}
