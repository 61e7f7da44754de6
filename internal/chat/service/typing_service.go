package service

import (
	"context"
	"fmt"
	"time"

	"chathub/internal/chat/repository"
	"chathub/internal/common"
	"chathub/internal/config"
	"chathub/internal/dbmysql"
)

type TypingService interface {
	StartTyping(ctx context.Context, userID string, loc repository.TypingLocation) (*dbmysql.TypingIndicator, error)
	StopTyping(ctx context.Context, userID string, loc *repository.TypingLocation) error
	ListTypingIndicators(ctx context.Context, loc *repository.TypingLocation) ([]*dbmysql.TypingIndicator, error)
}

type typingService struct {
	typingRepo repository.TypingRepository

	// visibility bounds what reads return; cleanup is the tighter window
	// the write path uses to scrub rows nobody can see anymore.
	visibility time.Duration
	cleanup    time.Duration
}

func NewTypingService(typingRepo repository.TypingRepository, cnf *config.Config) TypingService {
	return &typingService{
		typingRepo: typingRepo,
		visibility: time.Duration(cnf.Typing.VisibilitySeconds) * time.Second,
		cleanup:    time.Duration(cnf.Typing.CleanupSeconds) * time.Second,
	}
}

// StartTyping upserts the indicator for (user, location): first start in a
// location inserts a row, repeats refresh its timestamp. Stale rows are
// scrubbed opportunistically on the way in.
func (s *typingService) StartTyping(ctx context.Context, userID string, loc repository.TypingLocation) (*dbmysql.TypingIndicator, error) {
	if err := validateLocation(loc); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.typingRepo.DeleteOlderThan(ctx, now.Add(-s.cleanup)); err != nil {
		return nil, err
	}
	return s.typingRepo.Upsert(ctx, userID, loc, now)
}

// StopTyping with a location removes that one indicator; with none it
// clears every indicator the user has, in all locations. Stopping when
// nothing is active is a no-op.
func (s *typingService) StopTyping(ctx context.Context, userID string, loc *repository.TypingLocation) error {
	if loc == nil {
		return s.typingRepo.DeleteAllForUser(ctx, userID)
	}
	if err := validateLocation(*loc); err != nil {
		return err
	}
	return s.typingRepo.DeleteAt(ctx, userID, *loc)
}

func (s *typingService) ListTypingIndicators(ctx context.Context, loc *repository.TypingLocation) ([]*dbmysql.TypingIndicator, error) {
	if loc != nil {
		if err := validateLocation(*loc); err != nil {
			return nil, err
		}
	}
	since := time.Now().UTC().Add(-s.visibility)
	return s.typingRepo.ListActive(ctx, loc, since)
}

// A location names at most one destination; the zero location ("typing
// nowhere in particular") is allowed.
func validateLocation(loc repository.TypingLocation) error {
	count := 0
	if loc.ChannelID != "" {
		count++
	}
	if loc.GroupID != "" {
		count++
	}
	if loc.RecipientID != "" {
		count++
	}
	if count > 1 {
		return fmt.Errorf("%w: typing location must name at most one destination", common.ErrInvalidInput)
	}
	return nil
}
