package service

import (
	"errors"
	"fmt"

	"github.com/to404hanga/online_judge_duel/judge"
	"github.com/to404hanga/online_judge_duel/repository"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrDuelNotFound      = errors.New("duel not found")
	ErrDuelNotPending    = errors.New("duel is not pending")
	ErrDuelAlreadyJoined = fmt.Errorf("%w: already joined by another user", ErrDuelNotPending)
	ErrSelfJoin          = errors.New("cannot join a duel created by yourself")
	ErrDuelNotActive     = errors.New("duel is not active")
	ErrNotParticipant    = errors.New("user is not a participant of the duel")
	ErrChallengeNotFound = fmt.Errorf("%w: challenge not found", ErrValidation)
	ErrJudgeUnavailable  = judge.ErrUnavailable
	ErrStoreConflict     = repository.ErrStoreConflict
)
