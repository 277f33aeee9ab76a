package reconcile

import (
	"fmt"
	"time"

	"github.com/coletiva/backend/internal/models"
	"gorm.io/gorm"
)

// StatusScope selects which memberships a reconciliation pass visits.
type StatusScope string

const (
	ScopeAcceptedOnly   StatusScope = "accepted_only"
	ScopeIncludeRemoved StatusScope = "include_removed"
)

// ValidScope reports whether v names a supported status scope.
func ValidScope(v StatusScope) bool {
	return v == ScopeAcceptedOnly || v == ScopeIncludeRemoved
}

// MemberRow is the membership + participant identity data one report row needs.
type MemberRow struct {
	MembershipID uint
	UserID       uint
	Status       models.MembershipStatus
	AcceptedAt   *time.Time
	RemovedAt    *time.Time
	FirstName    string
	LastName     string
	Phone        string
}

// MembershipCursor pages a project's memberships in ascending membership-id
// order using keyset batches ("id > last seen id"), so memory stays bounded
// and every membership is visited exactly once. The cursor only moves
// forward; to re-read, build a new cursor.
type MembershipCursor struct {
	db        *gorm.DB
	projectID uint
	scope     StatusScope
	batchSize int
	lastID    uint
	done      bool
}

const defaultBatchSize = 1000

func NewMembershipCursor(db *gorm.DB, projectID uint, scope StatusScope, batchSize int) *MembershipCursor {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &MembershipCursor{
		db:        db,
		projectID: projectID,
		scope:     scope,
		batchSize: batchSize,
	}
}

// Next returns the next batch, or nil once the cursor is exhausted.
func (c *MembershipCursor) Next() ([]MemberRow, error) {
	if c.done {
		return nil, nil
	}

	q := c.db.Table("project_memberships").
		Select(`project_memberships.id AS membership_id,
			project_memberships.user_id,
			project_memberships.status,
			project_memberships.accepted_at,
			project_memberships.removed_at,
			users.first_name,
			users.last_name,
			users.phone`).
		Joins("JOIN users ON users.id = project_memberships.user_id").
		Where("project_memberships.project_id = ?", c.projectID).
		Where("project_memberships.id > ?", c.lastID).
		Order("project_memberships.id").
		Limit(c.batchSize)

	if c.scope == ScopeAcceptedOnly {
		q = q.Where("project_memberships.status = ?", models.MembershipAccepted)
	} else {
		q = q.Where("project_memberships.status IN ?",
			[]models.MembershipStatus{models.MembershipAccepted, models.MembershipRemoved})
	}

	var rows []MemberRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load membership batch: %w", err)
	}

	if len(rows) == 0 {
		c.done = true
		return nil, nil
	}

	c.lastID = rows[len(rows)-1].MembershipID
	return rows, nil
}
