package models

import "gorm.io/gorm"

// FriendRequestStatus defines the state of a friend request.
type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
)

// FriendRequest represents a directed friend proposal between two users.
//
// PairLo/PairHi hold the unordered {sender, recipient} pair in canonical
// order and carry a unique index, so the store itself guarantees at most one
// request per pair in either direction, regardless of status. Creation is an
// atomic conditional insert: a concurrent duplicate surfaces as a unique
// violation rather than slipping past a read-then-write check.
type FriendRequest struct {
	BaseModel
	SenderID    uint                `gorm:"not null;index" json:"senderId"`
	RecipientID uint                `gorm:"not null;index" json:"recipientId"`
	PairLo      uint                `gorm:"not null;uniqueIndex:idx_friend_request_pair" json:"-"`
	PairHi      uint                `gorm:"not null;uniqueIndex:idx_friend_request_pair" json:"-"`
	Status      FriendRequestStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
}

// TableName specifies the table name for the FriendRequest model.
func (FriendRequest) TableName() string {
	return "friend_requests"
}

// SetPair fills the canonical pair columns from sender and recipient.
func (r *FriendRequest) SetPair() {
	lo, hi := r.SenderID, r.RecipientID
	if lo > hi {
		lo, hi = hi, lo
	}
	r.PairLo, r.PairHi = lo, hi
}

// BeforeCreate keeps the pair columns consistent even when a caller forgets
// to call SetPair.
func (r *FriendRequest) BeforeCreate(tx *gorm.DB) error {
	if r.PairLo == 0 && r.PairHi == 0 {
		r.SetPair()
	}
	return nil
}

// FriendRequestWithProfiles is a DTO pairing a request with the public
// profile of its counterpart, for API listings. Incoming listings fill
// Sender; outgoing listings fill Recipient.
type FriendRequestWithProfiles struct {
	FriendRequest
	Sender    *PublicProfile `json:"sender,omitempty"`
	Recipient *PublicProfile `json:"recipient,omitempty"`
}
