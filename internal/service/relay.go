package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/IlyaM70/JustMessanger/internal/model"
)

var (
	ErrEmptyRecipient    = errors.New("recipient id is empty")
	ErrEmptyText         = errors.New("text is empty")
	ErrEmptyUserID       = errors.New("user id is empty")
	ErrEmptyOtherUserID  = errors.New("other user id is empty")
	ErrSenderNotFound    = errors.New("sender was not found")
	ErrRecipientNotFound = errors.New("recipient was not found")
)

// MessageStore is the durable message table the relay writes to and reads
// history from.
type MessageStore interface {
	Insert(ctx context.Context, msg *model.Message) (int64, error)
	GetConversation(ctx context.Context, userID, otherUserID string) ([]model.Message, error)
	GetContacts(ctx context.Context, userID string) ([]model.Contact, error)
}

// AuthorizationClient answers whether a user id is known to the auth
// service. Implementations must fail closed: any uncertainty reads as
// "does not exist".
type AuthorizationClient interface {
	UserExists(ctx context.Context, userID string) bool
	FillContacts(ctx context.Context, contacts []model.Contact) ([]model.Contact, error)
}

// Notifier pushes a named event to every open connection of one user.
// Delivery is best effort and never blocks the caller on transport state.
type Notifier interface {
	Notify(userID, event string, payload any)
}

// Relay is the message pipeline: validate, persist, then push.
type Relay struct {
	store    MessageStore
	auth     AuthorizationClient
	notifier Notifier
}

func NewRelay(store MessageStore, auth AuthorizationClient, notifier Notifier) *Relay {
	return &Relay{store: store, auth: auth, notifier: notifier}
}

// Send validates the request, persists the message, then fans it out to the
// recipient's open connections. A message is only ever pushed after it is
// durably stored; a recipient with no open connections still gets a stored
// message retrievable via History.
func (r *Relay) Send(ctx context.Context, senderID, recipientID, text string) (*model.Message, error) {
	if recipientID == "" {
		return nil, ErrEmptyRecipient
	}
	if text == "" {
		return nil, ErrEmptyText
	}
	if senderID == "" || !r.auth.UserExists(ctx, senderID) {
		return nil, ErrSenderNotFound
	}
	if !r.auth.UserExists(ctx, recipientID) {
		return nil, ErrRecipientNotFound
	}

	msg := &model.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        text,
		SentAt:      time.Now().UTC(),
	}

	id, err := r.store.Insert(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}
	msg.ID = id

	r.notifier.Notify(recipientID, "ReceiveMessage", model.PushMessage{
		ID:       msg.ID,
		SenderID: msg.SenderID,
		Text:     msg.Text,
		SentAt:   msg.SentAt,
	})

	return msg, nil
}

// History returns the conversation between two users, oldest first. An empty
// conversation is an empty list, not an error.
func (r *Relay) History(ctx context.Context, userID, otherUserID string) ([]model.Message, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if otherUserID == "" {
		return nil, ErrEmptyOtherUserID
	}

	msgs, err := r.store.GetConversation(ctx, userID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

// Contacts lists the user's conversation partners, enriched with names from
// the auth service. Enrichment failure degrades to the bare list.
func (r *Relay) Contacts(ctx context.Context, userID string) ([]model.Contact, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	contacts, err := r.store.GetContacts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	if contacts == nil {
		return []model.Contact{}, nil
	}

	filled, err := r.auth.FillContacts(ctx, contacts)
	if err != nil {
		log.Printf("Relay: contact enrichment failed: %v", err)
		return contacts, nil
	}
	return filled, nil
}
