package model

import "time"

// Profile mirrors the Supabase profiles table; ID is the auth user id.
type Profile struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	FullName  *string   `gorm:"size:120" json:"full_name,omitempty"`
	Phone     *string   `gorm:"size:40" json:"phone,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
