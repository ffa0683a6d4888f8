package account

import (
	"context"
	"errors"

	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// Plans returns the subscription tiers
func Plans() []domain.Plan {
	return domain.Plans
}

// Subscription returns the caller's subscription. Users without one, or
// whose document cannot be read, are on the free plan.
func (s *Service) Subscription(ctx context.Context) (domain.Subscription, error) {
	actor, ok := domain.ActorFromContext(ctx)
	if !ok {
		return domain.Subscription{}, domain.ErrNotAuthenticated
	}
	user, err := s.User(ctx, actor.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("failed to load subscription", "userID", actor.UserID, "error", err)
		}
		return domain.Subscription{Plan: domain.PlanFree}, nil
	}
	if user.Subscription.Plan == "" {
		return domain.Subscription{Plan: domain.PlanFree}, nil
	}
	return user.Subscription, nil
}

// UpdateSubscription switches plans. No payment is taken.
func (s *Service) UpdateSubscription(ctx context.Context, planID string) domain.Result {
	actor, ok := domain.ActorFromContext(ctx)
	if !ok {
		return domain.Failed(domain.ErrNotAuthenticated)
	}
	if _, ok := domain.FindPlan(planID); !ok {
		return domain.Failed(domain.ErrInvalidPlan)
	}
	err := s.store.Update(ctx, docstore.CollectionUsers, actor.UserID, map[string]any{
		"subscription": map[string]any{
			"plan":      planID,
			"startDate": s.now().UnixMilli(),
			"endDate":   nil,
		},
	})
	if err != nil {
		s.logger.Error("failed to update subscription", "userID", actor.UserID, "error", err)
		return domain.Failed(err)
	}
	s.logger.Info("subscription updated", "userID", actor.UserID, "plan", planID)
	return domain.Succeeded(actor.UserID)
}
