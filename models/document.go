package models

import (
	"time"

	"github.com/google/uuid"
)

type (
	// AccessEntry records one collaborator's grant on a document.
	AccessEntry struct {
		Role      Role      `json:"role" bson:"role"`
		Email     string    `json:"email" bson:"email"`
		Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	}

	// Document is a shared text document with last-write-wins autosave.
	// Access maps user id to the granted role; completing an invitation
	// adds exactly one entry here.
	Document struct {
		Id        string                 `json:"id" bson:"_id"`
		Title     string                 `json:"title" bson:"title"`
		Content   string                 `json:"content" bson:"content"`
		OwnerId   string                 `json:"ownerId" bson:"ownerId"`
		Access    map[string]AccessEntry `json:"access" bson:"access"`
		CreatedAt time.Time              `json:"createdAt" bson:"createdAt"`
		UpdatedAt time.Time              `json:"updatedAt" bson:"updatedAt"`
	}
)

//New document owned by the given user, with the owner's access entry seeded
func NewDocument(title, ownerId, ownerEmail string) *Document {
	now := time.Now().UTC()
	return &Document{
		Id:      uuid.NewString(),
		Title:   title,
		OwnerId: ownerId,
		Access: map[string]AccessEntry{
			ownerId: {Role: RoleOwner, Email: ownerEmail, Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AccessFor returns the access entry for the user, if any.
func (d *Document) AccessFor(userId string) (AccessEntry, bool) {
	entry, ok := d.Access[userId]
	return entry, ok
}

func (d *Document) CanView(userId string) bool {
	if userId == d.OwnerId {
		return true
	}
	_, ok := d.Access[userId]
	return ok
}

func (d *Document) CanEdit(userId string) bool {
	if userId == d.OwnerId {
		return true
	}
	entry, ok := d.Access[userId]
	return ok && (entry.Role == RoleEditor || entry.Role == RoleOwner)
}
