package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/to404hanga/online_judge_duel/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultAppendAttempts = 5

type UserRepository interface {
	// GetSubmissions 获取用户提交历史, 用户不存在时返回空列表
	GetSubmissions(ctx context.Context, userID uint64) ([]entity.Submission, error)
	// AppendSubmission 以乐观锁追加一条提交记录, 相同 id 的重复追加视为成功
	AppendSubmission(ctx context.Context, userID uint64, submission entity.Submission) error
	// ListUsers 分页获取用户及其提交历史, 按 id 升序
	ListUsers(ctx context.Context, page, pageSize int) ([]entity.User, error)
}

type UserRepositoryImpl struct {
	db          *gorm.DB
	maxAttempts int
}

var _ UserRepository = (*UserRepositoryImpl)(nil)

func NewUserRepository(db *gorm.DB, maxAttempts int) UserRepository {
	if maxAttempts <= 0 {
		maxAttempts = DefaultAppendAttempts
	}
	return &UserRepositoryImpl{
		db:          db,
		maxAttempts: maxAttempts,
	}
}

func (r *UserRepositoryImpl) GetSubmissions(ctx context.Context, userID uint64) ([]entity.Submission, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []entity.Submission{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetSubmissions failed at select user: %w", err)
	}
	return user.Submissions, nil
}

func (r *UserRepositoryImpl) AppendSubmission(ctx context.Context, userID uint64, submission entity.Submission) error {
	// 用户资料由外部维护, 首次提交时补一行空历史
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.User{ID: userID, Submissions: entity.SubmissionList{}}).Error
	if err != nil {
		return fmt.Errorf("AppendSubmission failed at ensure user: %w", err)
	}

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		var user entity.User
		if err = r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
			return fmt.Errorf("AppendSubmission failed at select user: %w", err)
		}

		for _, s := range user.Submissions {
			if s.ID == submission.ID {
				return nil
			}
		}

		next := make(entity.SubmissionList, 0, len(user.Submissions)+1)
		next = append(next, user.Submissions...)
		next = append(next, submission)

		res := r.db.WithContext(ctx).Model(&entity.User{}).
			Where("id = ?", userID).
			Where("version = ?", user.Version).
			Updates(map[string]any{
				"submissions": next,
				"version":     gorm.Expr("version + 1"),
				"updated_at":  time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("AppendSubmission failed at update user: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			return nil
		}
	}
	return fmt.Errorf("AppendSubmission failed after %d attempts: %w", r.maxAttempts, ErrStoreConflict)
}

func (r *UserRepositoryImpl) ListUsers(ctx context.Context, page, pageSize int) ([]entity.User, error) {
	users := make([]entity.User, 0, pageSize)
	err := r.db.WithContext(ctx).
		Order("id asc").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("ListUsers failed at select: %w", err)
	}
	return users, nil
}
