package service

import (
	"context"
	"fmt"

	"github.com/to404hanga/online_judge_duel/entity"
	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/repository"
	"github.com/to404hanga/online_judge_duel/service/scoring"
	"golang.org/x/sync/errgroup"
)

type OutcomeResolver interface {
	// Resolve 由双方提交历史计算对战比分与胜者
	Resolve(ctx context.Context, duel *entity.Duel) (*model.DuelOutcome, error)
}

type OutcomeResolverImpl struct {
	users repository.UserRepository
}

var _ OutcomeResolver = (*OutcomeResolverImpl)(nil)

func NewOutcomeResolver(users repository.UserRepository) OutcomeResolver {
	return &OutcomeResolverImpl{users: users}
}

func (r *OutcomeResolverImpl) Resolve(ctx context.Context, duel *entity.Duel) (*model.DuelOutcome, error) {
	outcome := &model.DuelOutcome{
		DuelID:  duel.ID,
		Status:  duel.Status,
		User1ID: duel.User1ID,
		User2ID: duel.User2ID,
		User1:   map[string]int{},
		User2:   map[string]int{},
		Final:   duel.Status == entity.DuelStatusCompleted,
	}
	if duel.User2ID == nil {
		return outcome, nil
	}
	user2ID := *duel.User2ID

	var user1Subs, user2Subs []entity.Submission
	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		subs, err := r.users.GetSubmissions(ectx, duel.User1ID)
		user1Subs = subs
		return err
	})
	eg.Go(func() error {
		subs, err := r.users.GetSubmissions(ectx, user2ID)
		user2Subs = subs
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("Resolve failed at load submissions: %w", err)
	}

	agg1 := scoring.Calculate(user1Subs, scoring.ForDuel(duel.ID), scoring.ForUser(duel.User1ID))
	agg2 := scoring.Calculate(user2Subs, scoring.ForDuel(duel.ID), scoring.ForUser(user2ID))

	outcome.Scores = model.DuelScores{User1: agg1.Total, User2: agg2.Total}
	outcome.User1 = agg1.PerChallengeBest
	outcome.User2 = agg2.PerChallengeBest

	switch {
	case agg1.Total > agg2.Total:
		outcome.WinnerID = &outcome.User1ID
	case agg2.Total > agg1.Total:
		outcome.WinnerID = &user2ID
	}
	return outcome, nil
}
