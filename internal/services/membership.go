package services

import (
	"errors"
	"sync"
	"time"

	"github.com/coletiva/backend/internal/models"
	"github.com/coletiva/backend/pkg/logger"
	"github.com/coletiva/backend/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JoinOutcome describes how a join attempt resolved.
type JoinOutcome string

const (
	JoinAccepted        JoinOutcome = "accepted"
	JoinAlreadyAccepted JoinOutcome = "already_accepted"
	JoinRejectedFull    JoinOutcome = "rejected_full"
	JoinRejectedRemoved JoinOutcome = "rejected_removed"
)

// JoinResult is the outcome of a join or restore attempt plus the resulting
// membership when one exists.
type JoinResult struct {
	Outcome    JoinOutcome
	Membership *models.ProjectMembership
}

// MembershipService handles project admission, removal and reinstatement.
//
// Admission is capacity gated: the accepted count must never exceed the
// project's participant limit, even under concurrent joins. Two layers
// enforce this: a per-project mutex serializes joins inside this process,
// and row locks on the project serialize across processes on drivers that
// support SELECT ... FOR UPDATE. The mutex lives on the instance, so every
// caller that admits members (join and restore) must share one service.
type MembershipService struct {
	db     *gorm.DB
	now    func() time.Time
	joinMu sync.Map // project ID -> *sync.Mutex
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db, now: time.Now}
}

func (s *MembershipService) lockProject(projectID uint) func() {
	v, _ := s.joinMu.LoadOrStore(projectID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// forUpdate adds a row lock on drivers that support it. SQLite rejects
// FOR UPDATE and serializes writers on its own.
func (s *MembershipService) forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Join admits a participant into a project if a seat is free.
//
// Repeating a join that already succeeded returns already_accepted without
// touching the membership, so retries are harmless. A membership removed by
// an admin blocks self rejoin; only an admin restore can reinstate it.
func (s *MembershipService) Join(projectID, userID uint) (*JoinResult, error) {
	unlock := s.lockProject(projectID)
	defer unlock()

	var result *JoinResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var project models.CollectiveProject
		if err := s.forUpdate(tx).Where("is_active = ?", true).First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("project not found")
			}
			return err
		}

		var membership models.ProjectMembership
		err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).First(&membership).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if found {
			switch membership.Status {
			case models.MembershipAccepted:
				result = &JoinResult{Outcome: JoinAlreadyAccepted, Membership: &membership}
				return nil
			case models.MembershipRemoved:
				result = &JoinResult{Outcome: JoinRejectedRemoved, Membership: &membership}
				return nil
			}
		}

		var accepted int64
		if err := tx.Model(&models.ProjectMembership{}).
			Where("project_id = ? AND status = ?", projectID, models.MembershipAccepted).
			Count(&accepted).Error; err != nil {
			return err
		}
		if accepted >= int64(project.ParticipantLimit) {
			result = &JoinResult{Outcome: JoinRejectedFull}
			return nil
		}

		acceptedAt := s.now()
		if found {
			// Pending membership left over from a failed earlier attempt.
			membership.Status = models.MembershipAccepted
			membership.AcceptedAt = &acceptedAt
			if err := tx.Model(&membership).Updates(map[string]interface{}{
				"status":      models.MembershipAccepted,
				"accepted_at": acceptedAt,
			}).Error; err != nil {
				return err
			}
		} else {
			membership = models.ProjectMembership{
				ProjectID:  projectID,
				UserID:     userID,
				Status:     models.MembershipAccepted,
				AcceptedAt: &acceptedAt,
			}
			if err := tx.Create(&membership).Error; err != nil {
				// Unique index hit: another process admitted this user first.
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					result = &JoinResult{Outcome: JoinAlreadyAccepted}
					return nil
				}
				return err
			}
		}

		result = &JoinResult{Outcome: JoinAccepted, Membership: &membership}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Uint("project_id", projectID).
		Uint("user_id", userID).
		Str("outcome", string(result.Outcome)).
		Msg("membership join")
	return result, nil
}

// Get returns the caller's membership in a project, or nil when none exists.
func (s *MembershipService) Get(projectID, userID uint) (*models.ProjectMembership, error) {
	var membership models.ProjectMembership
	err := s.db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// RequireAccepted loads the caller's membership and fails with 403 unless it
// is accepted. Write operations on a project go through this gate.
func (s *MembershipService) RequireAccepted(projectID, userID uint) (*models.ProjectMembership, error) {
	membership, err := s.Get(projectID, userID)
	if err != nil {
		return nil, err
	}
	if membership == nil || membership.Status != models.MembershipAccepted {
		return nil, response.NewForbidden("active membership required")
	}
	return membership, nil
}

// Remove marks a membership as removed, freeing its seat. The membership row
// and its payment history stay in place.
func (s *MembershipService) Remove(projectID, membershipID, adminID uint) (*models.ProjectMembership, error) {
	var membership models.ProjectMembership
	err := s.db.Where("id = ? AND project_id = ?", membershipID, projectID).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("membership not found")
	}
	if err != nil {
		return nil, err
	}
	if membership.Status == models.MembershipRemoved {
		return &membership, nil
	}

	removedAt := s.now()
	membership.Status = models.MembershipRemoved
	membership.RemovedAt = &removedAt
	membership.RemovedBy = &adminID
	if err := s.db.Model(&membership).Updates(map[string]interface{}{
		"status":     models.MembershipRemoved,
		"removed_at": removedAt,
		"removed_by": adminID,
	}).Error; err != nil {
		return nil, err
	}

	logger.Info().
		Uint("project_id", projectID).
		Uint("membership_id", membershipID).
		Uint("admin_id", adminID).
		Msg("membership removed")
	return &membership, nil
}

// Restore reinstates a removed membership. It competes for a seat the same
// way a fresh join does, so a full project rejects the restore.
func (s *MembershipService) Restore(projectID, membershipID, adminID uint) (*JoinResult, error) {
	unlock := s.lockProject(projectID)
	defer unlock()

	var result *JoinResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var project models.CollectiveProject
		if err := s.forUpdate(tx).First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("project not found")
			}
			return err
		}

		var membership models.ProjectMembership
		err := tx.Where("id = ? AND project_id = ?", membershipID, projectID).First(&membership).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("membership not found")
		}
		if err != nil {
			return err
		}
		if membership.Status == models.MembershipAccepted {
			result = &JoinResult{Outcome: JoinAlreadyAccepted, Membership: &membership}
			return nil
		}

		var accepted int64
		if err := tx.Model(&models.ProjectMembership{}).
			Where("project_id = ? AND status = ?", projectID, models.MembershipAccepted).
			Count(&accepted).Error; err != nil {
			return err
		}
		if accepted >= int64(project.ParticipantLimit) {
			result = &JoinResult{Outcome: JoinRejectedFull}
			return nil
		}

		acceptedAt := s.now()
		membership.Status = models.MembershipAccepted
		membership.AcceptedAt = &acceptedAt
		membership.RemovedAt = nil
		membership.RemovedBy = nil
		if err := tx.Model(&membership).Updates(map[string]interface{}{
			"status":      models.MembershipAccepted,
			"accepted_at": acceptedAt,
			"removed_at":  nil,
			"removed_by":  nil,
		}).Error; err != nil {
			return err
		}

		result = &JoinResult{Outcome: JoinAccepted, Membership: &membership}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Uint("project_id", projectID).
		Uint("membership_id", membershipID).
		Uint("admin_id", adminID).
		Str("outcome", string(result.Outcome)).
		Msg("membership restored")
	return result, nil
}

// MemberListItem is one row of the admin member listing.
type MemberListItem struct {
	ID         uint                    `json:"id"`
	UserID     uint                    `json:"user_id"`
	FirstName  string                  `json:"first_name"`
	LastName   string                  `json:"last_name"`
	Phone      string                  `json:"phone"`
	Status     models.MembershipStatus `json:"status"`
	AcceptedAt *time.Time              `json:"accepted_at"`
	RemovedAt  *time.Time              `json:"removed_at"`
}

// ListMembers returns a page of a project's memberships with participant
// identity, newest acceptances first.
func (s *MembershipService) ListMembers(projectID uint, status, search string, page, pageSize int) ([]MemberListItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	q := s.db.Table("project_memberships").
		Select(`project_memberships.id,
			project_memberships.user_id,
			users.first_name,
			users.last_name,
			users.phone,
			project_memberships.status,
			project_memberships.accepted_at,
			project_memberships.removed_at`).
		Joins("JOIN users ON users.id = project_memberships.user_id").
		Where("project_memberships.project_id = ?", projectID)

	if status != "" {
		q = q.Where("project_memberships.status = ?", status)
	}
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("users.first_name LIKE ? OR users.last_name LIKE ? OR users.phone LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []MemberListItem
	err := q.Order("project_memberships.accepted_at DESC, project_memberships.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// AcceptedCount returns the number of seats in use for a project.
func (s *MembershipService) AcceptedCount(projectID uint) (int64, error) {
	var n int64
	err := s.db.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND status = ?", projectID, models.MembershipAccepted).
		Count(&n).Error
	return n, err
}
