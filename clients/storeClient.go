package clients

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/sharethoughts/courier/models"
)

// ErrNotFound is returned by mutating operations whose target record is
// missing; lookups report absence as a nil result instead.
var ErrNotFound = errors.New("record not found")

type StoreClient interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	UpsertInvitation(ctx context.Context, invitation *models.Invitation) error
	// FindInvitation returns nil with no error when the token is unknown.
	FindInvitation(ctx context.Context, token string) (*models.Invitation, error)
	// FindInvitations matches on the non-empty fields of the filter, further
	// restricted to the given statuses when any are supplied.
	FindInvitations(ctx context.Context, filter *models.Invitation, statuses ...models.Status) ([]*models.Invitation, error)
	// ExpireInvitation transitions an invitation to expired only if it is
	// still pending and past its expiry, reporting whether a transition
	// happened. Safe to call concurrently and repeatedly.
	ExpireInvitation(ctx context.Context, token string, now time.Time) (bool, error)

	UpsertDocument(ctx context.Context, document *models.Document) error
	// FindDocument returns nil with no error when the id is unknown.
	FindDocument(ctx context.Context, id string) (*models.Document, error)
	// FindDocumentsForUser returns documents the user owns or has an access
	// entry on, most recently updated first.
	FindDocumentsForUser(ctx context.Context, userId string) ([]*models.Document, error)
	// GrantAccess sets the user's entry in the document's access map as a
	// single atomic write on the document record.
	GrantAccess(ctx context.Context, documentId, userId string, entry models.AccessEntry) error
	SetDocumentContent(ctx context.Context, id, content string, at time.Time) error
	RemoveDocument(ctx context.Context, id string) error
}
