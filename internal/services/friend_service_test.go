package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"streamify/internal/config"
	"streamify/internal/models"
)

type friendServiceFixture struct {
	svc            FriendService
	userRepo       *fakeUserRepo
	requestRepo    *fakeRequestRepo
	friendshipRepo *fakeFriendshipRepo
	producer       *recordingProducer
	alice          *models.User
	bob            *models.User
	carol          *models.User
}

func newFriendServiceFixture() *friendServiceFixture {
	userRepo := newFakeUserRepo()
	requestRepo := newFakeRequestRepo()
	friendshipRepo := newFakeFriendshipRepo()
	producer := newRecordingProducer()

	f := &friendServiceFixture{
		userRepo:       userRepo,
		requestRepo:    requestRepo,
		friendshipRepo: friendshipRepo,
		producer:       producer,
	}
	f.alice = userRepo.addUser(models.User{Name: "Alice", Email: "alice@example.com", IsOnboarded: true})
	f.bob = userRepo.addUser(models.User{Name: "Bob", Email: "bob@example.com", IsOnboarded: true})
	f.carol = userRepo.addUser(models.User{Name: "Carol", Email: "carol@example.com", IsOnboarded: true})

	f.svc = NewFriendService(userRepo, requestRepo, friendshipRepo, producer,
		config.KafkaConfig{NotificationsTopic: "test-notifications"})
	return f
}

func (f *friendServiceFixture) waitForEvent(t *testing.T) friendRequestEvent {
	t.Helper()
	select {
	case <-f.producer.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("no event published within 2s")
	}
	f.producer.mu.Lock()
	defer f.producer.mu.Unlock()
	var event friendRequestEvent
	if err := json.Unmarshal(f.producer.messages[len(f.producer.messages)-1], &event); err != nil {
		t.Fatalf("decoding event payload: %v", err)
	}
	return event
}

func TestSendRequest(t *testing.T) {
	f := newFriendServiceFixture()
	ctx := context.Background()

	request, err := f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if request.SenderID != f.alice.ID || request.RecipientID != f.bob.ID {
		t.Errorf("request endpoints wrong: %+v", request)
	}
	if request.Status != models.FriendRequestStatusPending {
		t.Errorf("status = %q, want pending", request.Status)
	}

	event := f.waitForEvent(t)
	if event.Type != "friend_request.sent" || event.SenderID != f.alice.ID {
		t.Errorf("published event wrong: %+v", event)
	}
}

func TestSendRequestValidation(t *testing.T) {
	f := newFriendServiceFixture()
	ctx := context.Background()

	tests := []struct {
		name        string
		senderID    uint
		recipientID uint
		wantErr     error
	}{
		{"to self", f.alice.ID, f.alice.ID, ErrSelfRequest},
		{"unknown recipient", f.alice.ID, 999, ErrRecipientNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.SendRequest(ctx, tt.senderID, tt.recipientID); !errors.Is(err, tt.wantErr) {
				t.Errorf("SendRequest = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSendRequestAlreadyFriends(t *testing.T) {
	f := newFriendServiceFixture()
	ctx := context.Background()

	if err := f.friendshipRepo.Upsert(ctx, f.alice.ID, f.bob.ID); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if _, err := f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID); !errors.Is(err, ErrAlreadyFriends) {
		t.Errorf("SendRequest between friends = %v, want ErrAlreadyFriends", err)
	}
	// The guard is direction-agnostic.
	if _, err := f.svc.SendRequest(ctx, f.bob.ID, f.alice.ID); !errors.Is(err, ErrAlreadyFriends) {
		t.Errorf("SendRequest reversed between friends = %v, want ErrAlreadyFriends", err)
	}
}

func TestSendRequestDuplicate(t *testing.T) {
	f := newFriendServiceFixture()
	ctx := context.Background()

	if _, err := f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	if _, err := f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID); !errors.Is(err, ErrDuplicateRequest) {
		t.Errorf("repeated SendRequest = %v, want ErrDuplicateRequest", err)
	}
	// A counter-request in the opposite direction hits the same pair index.
	if _, err := f.svc.SendRequest(ctx, f.bob.ID, f.alice.ID); !errors.Is(err, ErrDuplicateRequest) {
		t.Errorf("reversed SendRequest = %v, want ErrDuplicateRequest", err)
	}
}

func TestAcceptRequest(t *testing.T) {
	f := newFriendServiceFixture()
	ctx := context.Background()

	sent, err := f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	f.waitForEvent(t)

	accepted, err := f.svc.AcceptRequest(ctx, f.bob.ID, sent.ID)
	if err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}
	if accepted.Status != models.FriendRequestStatusAccepted {
		t.Errorf("status = %q, want accepted", accepted.Status)
	}

	// The friendship is mutual regardless of argument order.
	for _, pair := range [][2]uint{{f.alice.ID, f.bob.ID}, {f.bob.ID, f.alice.ID}} {
		friends, err := f.friendshipRepo.AreFriends(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatalf("AreFriends: %v", err)
		}
		if !friends {
			t.Errorf("AreFriends(%d, %d) = false after accept", pair[0], pair[1])
		}
	}

	event := f.waitForEvent(t)
	if event.Type != "friend_request.accepted" || event.RequestID != sent.ID {
		t.Errorf("published event wrong: %+v", event)
	}
}

func TestAcceptRequestErrors(t *testing.T) {
	f := newFriendServiceFixture()
	ctx := context.Background()

	sent, err := f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	if _, err := f.svc.AcceptRequest(ctx, f.bob.ID, 999); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("accept unknown request = %v, want ErrRequestNotFound", err)
	}
	// Neither the sender nor a third party may accept.
	if _, err := f.svc.AcceptRequest(ctx, f.alice.ID, sent.ID); !errors.Is(err, ErrNotRequestRecipient) {
		t.Errorf("accept by sender = %v, want ErrNotRequestRecipient", err)
	}
	if _, err := f.svc.AcceptRequest(ctx, f.carol.ID, sent.ID); !errors.Is(err, ErrNotRequestRecipient) {
		t.Errorf("accept by third party = %v, want ErrNotRequestRecipient", err)
	}

	if _, err := f.svc.AcceptRequest(ctx, f.bob.ID, sent.ID); err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}
	if _, err := f.svc.AcceptRequest(ctx, f.bob.ID, sent.ID); !errors.Is(err, ErrRequestAlreadyAccepted) {
		t.Errorf("second accept = %v, want ErrRequestAlreadyAccepted", err)
	}
}

func TestListRequests(t *testing.T) {
	f := newFriendServiceFixture()
	ctx := context.Background()

	// Bob -> Alice pending, Carol -> Alice accepted, Alice -> nobody yet.
	fromBob, err := f.svc.SendRequest(ctx, f.bob.ID, f.alice.ID)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	fromCarol, err := f.svc.SendRequest(ctx, f.carol.ID, f.alice.ID)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if _, err := f.svc.AcceptRequest(ctx, f.alice.ID, fromCarol.ID); err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}

	overview, err := f.svc.ListRequests(ctx, f.alice.ID)
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}

	if len(overview.Incoming) != 1 || overview.Incoming[0].ID != fromBob.ID {
		t.Errorf("incoming = %+v, want only Bob's request", overview.Incoming)
	}
	if overview.Incoming[0].Sender == nil || overview.Incoming[0].Sender.Name != "Bob" {
		t.Errorf("incoming sender profile missing: %+v", overview.Incoming[0])
	}
	if len(overview.Accepted) != 1 || overview.Accepted[0].ID != fromCarol.ID {
		t.Errorf("accepted = %+v, want only Carol's request", overview.Accepted)
	}
	if len(overview.Sent) != 0 {
		t.Errorf("sent = %+v, want empty", overview.Sent)
	}

	// The accepted view is the recipient's; Carol as sender sees nothing there.
	carolView, err := f.svc.ListRequests(ctx, f.carol.ID)
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(carolView.Accepted) != 0 {
		t.Errorf("sender's accepted view = %+v, want empty", carolView.Accepted)
	}
}

func TestListOutgoing(t *testing.T) {
	f := newFriendServiceFixture()
	ctx := context.Background()

	if _, err := f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if _, err := f.svc.SendRequest(ctx, f.alice.ID, f.carol.ID); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	outgoing, err := f.svc.ListOutgoing(ctx, f.alice.ID)
	if err != nil {
		t.Fatalf("ListOutgoing: %v", err)
	}
	if len(outgoing) != 2 {
		t.Fatalf("outgoing count = %d, want 2", len(outgoing))
	}
	if outgoing[0].Recipient == nil || outgoing[1].Recipient == nil {
		t.Errorf("outgoing requests missing recipient profiles: %+v", outgoing)
	}
}

func TestListFriends(t *testing.T) {
	f := newFriendServiceFixture()
	ctx := context.Background()

	empty, err := f.svc.ListFriends(ctx, f.alice.ID)
	if err != nil {
		t.Fatalf("ListFriends: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("friends of a fresh user = %+v, want empty", empty)
	}

	sent, err := f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if _, err := f.svc.AcceptRequest(ctx, f.bob.ID, sent.ID); err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}

	// Both sides see each other.
	aliceFriends, err := f.svc.ListFriends(ctx, f.alice.ID)
	if err != nil {
		t.Fatalf("ListFriends: %v", err)
	}
	if len(aliceFriends) != 1 || aliceFriends[0].ID != f.bob.ID {
		t.Errorf("alice's friends = %+v, want only Bob", aliceFriends)
	}
	bobFriends, err := f.svc.ListFriends(ctx, f.bob.ID)
	if err != nil {
		t.Fatalf("ListFriends: %v", err)
	}
	if len(bobFriends) != 1 || bobFriends[0].ID != f.alice.ID {
		t.Errorf("bob's friends = %+v, want only Alice", bobFriends)
	}
}

func TestRecommendUsers(t *testing.T) {
	f := newFriendServiceFixture()
	ctx := context.Background()

	// Dave has not finished onboarding and must never be recommended.
	f.userRepo.addUser(models.User{Name: "Dave", Email: "dave@example.com", IsOnboarded: false})

	sent, err := f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if _, err := f.svc.AcceptRequest(ctx, f.bob.ID, sent.ID); err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}

	recommended, err := f.svc.RecommendUsers(ctx, f.alice.ID)
	if err != nil {
		t.Fatalf("RecommendUsers: %v", err)
	}
	if len(recommended) != 1 || recommended[0].ID != f.carol.ID {
		t.Errorf("recommended = %+v, want only Carol", recommended)
	}
}

// A broken or absent event pipeline must never fail the user-facing operation.
func TestEventPublishingNeverFailsCaller(t *testing.T) {
	userRepo := newFakeUserRepo()
	alice := userRepo.addUser(models.User{Name: "Alice", Email: "alice@example.com", IsOnboarded: true})
	bob := userRepo.addUser(models.User{Name: "Bob", Email: "bob@example.com", IsOnboarded: true})
	ctx := context.Background()

	withFailing := NewFriendService(userRepo, newFakeRequestRepo(), newFakeFriendshipRepo(),
		failingProducer{}, config.KafkaConfig{NotificationsTopic: "test-notifications"})
	sent, err := withFailing.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("SendRequest with failing producer: %v", err)
	}
	if _, err := withFailing.AcceptRequest(ctx, bob.ID, sent.ID); err != nil {
		t.Fatalf("AcceptRequest with failing producer: %v", err)
	}

	withNil := NewFriendService(userRepo, newFakeRequestRepo(), newFakeFriendshipRepo(),
		nil, config.KafkaConfig{})
	if _, err := withNil.SendRequest(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("SendRequest with nil producer: %v", err)
	}
}
