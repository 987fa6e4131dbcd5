package models

import "gorm.io/gorm"

type Project struct {
	gorm.Model

	Name        string `gorm:"size:255;not null"`
	Description string
	OwnerID     uint `gorm:"not null;index"`

	// Relationships
	Owner              User                `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	ProjectMemberships []ProjectMembership `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tasks              []Task              `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// HasMember reports whether userID appears in the loaded memberships.
// ProjectMemberships must be preloaded.
func (p Project) HasMember(userID uint) bool {
	for _, m := range p.ProjectMemberships {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the user ids of the loaded memberships.
func (p Project) MemberIDs() []uint {
	ids := make([]uint, 0, len(p.ProjectMemberships))
	for _, m := range p.ProjectMemberships {
		ids = append(ids, m.UserID)
	}
	return ids
}
