package domain

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestEditMessageAuthorOnly(t *testing.T) {
	messages := newMemMessages()
	svc := NewMessageService(messages)
	ctx := context.Background()
	author := uuid.New()
	other := uuid.New()

	msg, err := messages.CreateMessage(ctx, CreateMessageParams{
		ChatID:   uuid.New(),
		SenderID: author,
		Content:  "original",
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.EditMessage(ctx, msg.ID, other, "hijacked")
	if !IsKind(err, KindForbidden) {
		t.Errorf("edit by non-author err = %v, want forbidden", err)
	}
	if stored, _ := messages.GetMessageByID(ctx, msg.ID); stored.Content != "original" {
		t.Errorf("content = %q, want original", stored.Content)
	}

	updated, err := svc.EditMessage(ctx, msg.ID, author, "revised")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Content != "revised" {
		t.Errorf("content = %q, want revised", updated.Content)
	}
}

func TestEditMessageMissing(t *testing.T) {
	svc := NewMessageService(newMemMessages())

	_, err := svc.EditMessage(context.Background(), uuid.New(), uuid.New(), "x")
	if !IsKind(err, KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestDeleteMessageAuthorOnly(t *testing.T) {
	messages := newMemMessages()
	svc := NewMessageService(messages)
	ctx := context.Background()
	author := uuid.New()
	other := uuid.New()

	msg, err := messages.CreateMessage(ctx, CreateMessageParams{
		ChatID:   uuid.New(),
		SenderID: author,
		Content:  "hello",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteMessage(ctx, msg.ID, other); !IsKind(err, KindForbidden) {
		t.Errorf("delete by non-author err = %v, want forbidden", err)
	}
	if err := svc.DeleteMessage(ctx, msg.ID, author); err != nil {
		t.Fatal(err)
	}
	if _, err := messages.GetMessageByID(ctx, msg.ID); !IsKind(err, KindNotFound) {
		t.Errorf("message after delete: err = %v, want not found", err)
	}
}

func TestGetUserMessages(t *testing.T) {
	messages := newMemMessages()
	svc := NewMessageService(messages)
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()
	chatID := uuid.New()

	// Sent by alice, received by alice, unrelated.
	if _, err := messages.CreateMessage(ctx, CreateMessageParams{ChatID: chatID, SenderID: alice, ReceiverID: &bob, Content: "from alice"}); err != nil {
		t.Fatal(err)
	}
	if _, err := messages.CreateMessage(ctx, CreateMessageParams{ChatID: chatID, SenderID: bob, ReceiverID: &alice, Content: "to alice"}); err != nil {
		t.Fatal(err)
	}
	if _, err := messages.CreateMessage(ctx, CreateMessageParams{ChatID: uuid.New(), SenderID: bob, ReceiverID: &carol, Content: "other"}); err != nil {
		t.Fatal(err)
	}

	msgs, err := svc.GetUserMessages(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Errorf("messages = %d, want 2", len(msgs))
	}
}
