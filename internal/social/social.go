// Package social maintains the follow graph and the follower counters
// derived from it.
package social

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/apperrors"
	"github.com/anonto42/memoshare/internal/events"
	"github.com/anonto42/memoshare/internal/ledger"
	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/repositories"
)

type Service struct {
	follows  repositories.FollowRepository
	users    repositories.UserRepository
	ledger   *ledger.Ledger
	notifier *events.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(follows repositories.FollowRepository, users repositories.UserRepository, l *ledger.Ledger, notifier *events.Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		follows:  follows,
		users:    users,
		ledger:   l,
		notifier: notifier,
		logger:   logger,
		now:      models.Now,
	}
}

// Follow creates the edge followerID -> targetID. Repeating it is a no-op.
// The follower counter is synced from the edge itself, so an Unfollow racing
// with this call or a retry after a partial failure cannot leave it drifted.
func (s *Service) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return apperrors.InvalidOperation("cannot follow yourself")
	}
	if _, err := s.users.GetUserByID(ctx, targetID); err != nil {
		return err
	}

	created, err := s.follows.CreateFollow(ctx, &models.Follow{
		FollowerID:  followerID,
		FollowingID: targetID,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return fmt.Errorf("follow %s: %w", targetID, err)
	}

	if err := s.syncFollower(ctx, followerID, targetID); err != nil {
		return err
	}

	if created {
		s.logger.Info("user followed",
			zap.String("follower_id", followerID),
			zap.String("following_id", targetID))
		s.notifier.Notify(ctx, events.Event{
			Type:        events.TypeFollow,
			ActorID:     followerID,
			RecipientID: targetID,
		})
	}
	return nil
}

// Unfollow removes the edge if present. Absent edges are a no-op.
func (s *Service) Unfollow(ctx context.Context, followerID, targetID string) error {
	removed, err := s.follows.DeleteFollow(ctx, followerID, targetID)
	if err != nil {
		return fmt.Errorf("unfollow %s: %w", targetID, err)
	}
	if err := s.syncFollower(ctx, followerID, targetID); err != nil {
		return err
	}
	if removed {
		s.logger.Info("user unfollowed",
			zap.String("follower_id", followerID),
			zap.String("following_id", targetID))
	}
	return nil
}

// syncFollower sets followerID's membership in targetID's follower counter
// to whether the edge exists right now.
func (s *Service) syncFollower(ctx context.Context, followerID, targetID string) error {
	_, err := s.ledger.Sync(ctx, models.CollectionFollowerCounts, targetID, followerID,
		func(ctx context.Context) (bool, error) {
			return s.follows.IsFollowing(ctx, followerID, targetID)
		})
	if err != nil {
		return fmt.Errorf("sync follower count of %s: %w", targetID, err)
	}
	return nil
}

func (s *Service) IsFollowing(ctx context.Context, a, b string) (bool, error) {
	return s.follows.IsFollowing(ctx, a, b)
}

// IsMutual reports whether a and b follow each other. Both edges are read
// on every call.
func (s *Service) IsMutual(ctx context.Context, a, b string) (bool, error) {
	ab, err := s.follows.IsFollowing(ctx, a, b)
	if err != nil || !ab {
		return false, err
	}
	return s.follows.IsFollowing(ctx, b, a)
}

func (s *Service) FollowerCount(ctx context.Context, userID string) (int, error) {
	agg, err := s.ledger.Get(ctx, models.CollectionFollowerCounts, userID)
	if err != nil {
		return 0, err
	}
	return agg.Count, nil
}

// ListFollowing returns the profiles userID follows. Deleted accounts are skipped.
func (s *Service) ListFollowing(ctx context.Context, userID string) ([]models.UserCompact, error) {
	ids, err := s.follows.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.joinUsers(ctx, ids)
}

// ListFollowers returns the profiles following userID. Deleted accounts are skipped.
func (s *Service) ListFollowers(ctx context.Context, userID string) ([]models.UserCompact, error) {
	ids, err := s.follows.GetFollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.joinUsers(ctx, ids)
}

func (s *Service) joinUsers(ctx context.Context, ids []string) ([]models.UserCompact, error) {
	out := make([]models.UserCompact, 0, len(ids))
	for _, id := range ids {
		user, err := s.users.GetUserByID(ctx, id)
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, user.ToCompact())
	}
	return out, nil
}
