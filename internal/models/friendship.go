package models

// Friendship represents a mutual friend relation between two users.
// UserLo is always less than UserHi, and the pair carries a unique index, so
// each relation exists exactly once however it was created. Inserting an
// existing pair is a no-op (set-union semantics), which makes the
// post-acceptance friend-set update idempotent and safe to retry.
type Friendship struct {
	BaseModel
	UserLo uint `gorm:"not null;uniqueIndex:idx_friendship_pair"`
	UserHi uint `gorm:"not null;uniqueIndex:idx_friendship_pair"`
}

// TableName specifies the table name for the Friendship model.
func (Friendship) TableName() string {
	return "friendships"
}

// NewFriendship builds a friendship in canonical order.
func NewFriendship(userA, userB uint) *Friendship {
	if userA > userB {
		userA, userB = userB, userA
	}
	return &Friendship{UserLo: userA, UserHi: userB}
}
