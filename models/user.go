package models

// User is a registered account. Role flags are plain booleans: admins manage
// events and accounts, the owner additionally outranks other admins and can
// never be demoted or deactivated by them.
type User struct {
	ID           string `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"uniqueIndex;not null"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"` // stored lowercase
	PasswordHash string `json:"-" gorm:"not null"`

	// Profile
	DisplayName     string `json:"display_name"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	FavoriteFighter string `json:"favorite_fighter,omitempty"`

	// Role / status flags. No gorm defaults on booleans: GORM skips
	// zero-valued fields that carry a default tag on insert, which would turn
	// an explicit IsActive=false into true.
	IsAdmin  bool `json:"is_admin"`
	IsOwner  bool `json:"is_owner"`
	IsActive bool `json:"is_active"`

	Timestamps

	// Relationships
	PickSets []PickSet  `json:"pick_sets,omitempty" gorm:"foreignKey:UserID"`
	Stats    *UserStats `json:"stats,omitempty" gorm:"foreignKey:UserID"`
}
