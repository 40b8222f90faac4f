package models

// User represents an account in the system.
// The friend set is not embedded here; it lives in the friendships table so
// that membership updates are atomic and symmetric by construction.
type User struct {
	BaseModel
	Name             string `gorm:"type:varchar(100);not null" json:"name"`
	Email            string `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash     string `gorm:"type:varchar(255);not null" json:"-"` // never serialized
	AvatarURL        string `gorm:"type:varchar(255)" json:"profilePic,omitempty"`
	Bio              string `gorm:"type:text" json:"bio,omitempty"`
	Location         string `gorm:"type:varchar(100)" json:"location,omitempty"`
	NativeLanguage   string `gorm:"type:varchar(50)" json:"nativeLanguage,omitempty"`
	LearningLanguage string `gorm:"type:varchar(50)" json:"learningLanguage,omitempty"`
	IsOnboarded      bool   `gorm:"default:false" json:"isOnBoarded"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// PublicProfile holds the public fields of a user, safe to show to other
// members (friend lists, request listings, recommendations).
type PublicProfile struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	AvatarURL        string `json:"profilePic,omitempty"`
	Location         string `json:"location,omitempty"`
	NativeLanguage   string `json:"nativeLanguage,omitempty"`
	LearningLanguage string `json:"learningLanguage,omitempty"`
}

// PublicProfileOf projects a user onto its public fields.
func PublicProfileOf(u *User) *PublicProfile {
	return &PublicProfile{
		ID:               u.ID,
		Name:             u.Name,
		AvatarURL:        u.AvatarURL,
		Location:         u.Location,
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
	}
}

// ProfileUpdate is the allow-listed set of fields a user may change during
// onboarding. Anything outside this struct (email, password hash, friends)
// cannot be touched through the onboarding path.
type ProfileUpdate struct {
	Name             string `json:"name"`
	Bio              string `json:"bio"`
	Location         string `json:"location"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
}

// MissingFields reports which required onboarding fields are empty.
func (p ProfileUpdate) MissingFields() map[string]bool {
	missing := map[string]bool{}
	if p.Name == "" {
		missing["name"] = true
	}
	if p.Bio == "" {
		missing["bio"] = true
	}
	if p.Location == "" {
		missing["location"] = true
	}
	if p.NativeLanguage == "" {
		missing["nativeLanguage"] = true
	}
	if p.LearningLanguage == "" {
		missing["learningLanguage"] = true
	}
	if len(missing) == 0 {
		return nil
	}
	return missing
}
