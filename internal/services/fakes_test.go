package services

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"streamify/internal/models"
)

// In-memory repository fakes. They mirror the storage contracts the services
// rely on, including gorm.ErrRecordNotFound lookups and gorm.ErrDuplicatedKey
// on unique-index violations.

type fakeUserRepo struct {
	nextID uint
	users  map[uint]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]*models.User{}}
}

func (f *fakeUserRepo) addUser(u models.User) *models.User {
	f.nextID++
	u.ID = f.nextID
	f.users[u.ID] = &u
	return &u
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	user.ID = f.nextID
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByIDSafe(ctx context.Context, id uint) (*models.User, error) {
	user, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id uint, update models.ProfileUpdate) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	user.Name = update.Name
	user.Bio = update.Bio
	user.Location = update.Location
	user.NativeLanguage = update.NativeLanguage
	user.LearningLanguage = update.LearningLanguage
	user.IsOnboarded = true
	copied := *user
	copied.PasswordHash = ""
	return &copied, nil
}

func (f *fakeUserRepo) GetPublicProfileByID(ctx context.Context, id uint) (*models.PublicProfile, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return models.PublicProfileOf(user), nil
}

func (f *fakeUserRepo) GetPublicProfilesByIDs(ctx context.Context, ids []uint) ([]*models.PublicProfile, error) {
	profiles := []*models.PublicProfile{}
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			profiles = append(profiles, models.PublicProfileOf(user))
		}
	}
	return profiles, nil
}

func (f *fakeUserRepo) ListOnboardedExcluding(ctx context.Context, excludeIDs []uint) ([]models.User, error) {
	excluded := map[uint]bool{}
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	users := []models.User{}
	for _, user := range f.users {
		if user.IsOnboarded && !excluded[user.ID] {
			users = append(users, *user)
		}
	}
	return users, nil
}

type fakeRequestRepo struct {
	nextID   uint
	requests map[uint]*models.FriendRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[uint]*models.FriendRequest{}}
}

func (f *fakeRequestRepo) Create(ctx context.Context, request *models.FriendRequest) error {
	request.SetPair()
	for _, existing := range f.requests {
		if existing.PairLo == request.PairLo && existing.PairHi == request.PairHi {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	request.ID = f.nextID
	stored := *request
	f.requests[request.ID] = &stored
	return nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, requestID uint) (*models.FriendRequest, error) {
	request, ok := f.requests[requestID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *request
	return &copied, nil
}

func (f *fakeRequestRepo) MarkAccepted(ctx context.Context, requestID uint) (bool, error) {
	request, ok := f.requests[requestID]
	if !ok || request.Status != models.FriendRequestStatusPending {
		return false, nil
	}
	request.Status = models.FriendRequestStatusAccepted
	return true, nil
}

func (f *fakeRequestRepo) listByStatus(userID uint, recipient bool, status models.FriendRequestStatus) []models.FriendRequest {
	var result []models.FriendRequest
	for id := uint(1); id <= f.nextID; id++ {
		request, ok := f.requests[id]
		if !ok || request.Status != status {
			continue
		}
		if recipient && request.RecipientID == userID {
			result = append(result, *request)
		}
		if !recipient && request.SenderID == userID {
			result = append(result, *request)
		}
	}
	return result
}

func (f *fakeRequestRepo) ListPendingForRecipient(ctx context.Context, recipientID uint) ([]models.FriendRequest, error) {
	return f.listByStatus(recipientID, true, models.FriendRequestStatusPending), nil
}

func (f *fakeRequestRepo) ListPendingFromSender(ctx context.Context, senderID uint) ([]models.FriendRequest, error) {
	return f.listByStatus(senderID, false, models.FriendRequestStatusPending), nil
}

func (f *fakeRequestRepo) ListAcceptedForRecipient(ctx context.Context, recipientID uint) ([]models.FriendRequest, error) {
	return f.listByStatus(recipientID, true, models.FriendRequestStatusAccepted), nil
}

type fakeFriendshipRepo struct {
	pairs map[[2]uint]bool
}

func newFakeFriendshipRepo() *fakeFriendshipRepo {
	return &fakeFriendshipRepo{pairs: map[[2]uint]bool{}}
}

func canonicalPair(a, b uint) [2]uint {
	if a > b {
		a, b = b, a
	}
	return [2]uint{a, b}
}

func (f *fakeFriendshipRepo) Upsert(ctx context.Context, userA, userB uint) error {
	f.pairs[canonicalPair(userA, userB)] = true
	return nil
}

func (f *fakeFriendshipRepo) AreFriends(ctx context.Context, userA, userB uint) (bool, error) {
	return f.pairs[canonicalPair(userA, userB)], nil
}

func (f *fakeFriendshipRepo) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	for pair := range f.pairs {
		if pair[0] == userID {
			ids = append(ids, pair[1])
		}
		if pair[1] == userID {
			ids = append(ids, pair[0])
		}
	}
	return ids, nil
}

// recordingProducer captures published messages for assertions. Publishing
// happens on background goroutines, so delivery is signalled via a channel.
type recordingProducer struct {
	mu       sync.Mutex
	messages [][]byte
	notify   chan struct{}
}

func newRecordingProducer() *recordingProducer {
	return &recordingProducer{notify: make(chan struct{}, 16)}
}

func (p *recordingProducer) SendMessage(ctx context.Context, topic string, key, payload []byte) error {
	p.mu.Lock()
	p.messages = append(p.messages, payload)
	p.mu.Unlock()
	p.notify <- struct{}{}
	return nil
}

func (p *recordingProducer) Close() {}

// failingProducer always errors, to prove publishing never leaks into the
// caller's success path.
type failingProducer struct{}

func (failingProducer) SendMessage(ctx context.Context, topic string, key, payload []byte) error {
	return context.DeadlineExceeded
}

func (failingProducer) Close() {}

// recordingSyncer satisfies chat.IdentitySyncer for auth service tests.
type recordingSyncer struct {
	synced []*models.User
}

func (s *recordingSyncer) SyncUser(user *models.User) {
	s.synced = append(s.synced, user)
}
