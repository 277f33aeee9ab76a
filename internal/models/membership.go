package models

import (
	"time"
)

// MembershipStatus is a closed set. Transitions are pending -> accepted and
// accepted -> removed; removed members are only reinstated by an admin restore.
type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "pending"
	MembershipAccepted MembershipStatus = "accepted"
	MembershipRemoved  MembershipStatus = "removed"
)

// ProjectMembership links a user to a collective project. At most one row per
// (project, user) pair.
type ProjectMembership struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	ProjectID  uint               `gorm:"uniqueIndex:idx_membership_project_user;not null" json:"project_id"`
	Project    *CollectiveProject `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
	UserID     uint               `gorm:"uniqueIndex:idx_membership_project_user;not null" json:"user_id"`
	User       *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status     MembershipStatus   `gorm:"size:20;default:pending" json:"status"`
	AcceptedAt *time.Time         `json:"accepted_at"`
	RemovedAt  *time.Time         `json:"removed_at"`
	RemovedBy  *uint              `json:"removed_by"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func (ProjectMembership) TableName() string { return "project_memberships" }
