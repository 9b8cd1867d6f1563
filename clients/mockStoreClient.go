package clients

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/sharethoughts/courier/models"
)

// MockStoreClient is an in-memory store with the same transition semantics
// as the Mongo store. Used by tests in place of a live database.
type MockStoreClient struct {
	mu          sync.Mutex
	doBad       bool
	invitations map[string]models.Invitation
	documents   map[string]models.Document
}

func NewMockStoreClient(doBad bool) *MockStoreClient {
	return &MockStoreClient{
		doBad:       doBad,
		invitations: map[string]models.Invitation{},
		documents:   map[string]models.Document{},
	}
}

func (d *MockStoreClient) Ping(ctx context.Context) error {
	if d.doBad {
		return errors.New("Ping failure")
	}
	return nil
}

func (d *MockStoreClient) Close(ctx context.Context) error { return nil }

func (d *MockStoreClient) UpsertInvitation(ctx context.Context, invitation *models.Invitation) error {
	if d.doBad {
		return errors.New("UpsertInvitation failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.invitations[invitation.Token] = *invitation
	return nil
}

func (d *MockStoreClient) FindInvitation(ctx context.Context, token string) (*models.Invitation, error) {
	if d.doBad {
		return nil, errors.New("FindInvitation failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	invitation, ok := d.invitations[token]
	if !ok {
		return nil, nil
	}
	return &invitation, nil
}

func (d *MockStoreClient) FindInvitations(ctx context.Context, filter *models.Invitation, statuses ...models.Status) ([]*models.Invitation, error) {
	if d.doBad {
		return nil, errors.New("FindInvitations failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var results []*models.Invitation
	for token := range d.invitations {
		invitation := d.invitations[token]
		if filter.Email != "" && invitation.Email != filter.Email {
			continue
		}
		if filter.InviterId != "" && invitation.InviterId != filter.InviterId {
			continue
		}
		if filter.DocumentId != "" && invitation.DocumentId != filter.DocumentId {
			continue
		}
		if filter.UserId != "" && invitation.UserId != filter.UserId {
			continue
		}
		if len(statuses) > 0 && !statusIn(invitation.Status, statuses) {
			continue
		}
		results = append(results, &invitation)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results, nil
}

func (d *MockStoreClient) ExpireInvitation(ctx context.Context, token string, now time.Time) (bool, error) {
	if d.doBad {
		return false, errors.New("ExpireInvitation failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	invitation, ok := d.invitations[token]
	if !ok || invitation.Status != models.StatusPending || !invitation.ExpiresAt.Before(now) {
		return false, nil
	}
	invitation.Status = models.StatusExpired
	invitation.Modified = now
	d.invitations[token] = invitation
	return true, nil
}

func (d *MockStoreClient) UpsertDocument(ctx context.Context, document *models.Document) error {
	if d.doBad {
		return errors.New("UpsertDocument failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.documents[document.Id] = copyDocument(*document)
	return nil
}

func (d *MockStoreClient) FindDocument(ctx context.Context, id string) (*models.Document, error) {
	if d.doBad {
		return nil, errors.New("FindDocument failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	document, ok := d.documents[id]
	if !ok {
		return nil, nil
	}
	document = copyDocument(document)
	return &document, nil
}

func (d *MockStoreClient) FindDocumentsForUser(ctx context.Context, userId string) ([]*models.Document, error) {
	if d.doBad {
		return nil, errors.New("FindDocumentsForUser failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var results []*models.Document
	for id := range d.documents {
		document := d.documents[id]
		if document.OwnerId != userId {
			if _, ok := document.Access[userId]; !ok {
				continue
			}
		}
		document = copyDocument(document)
		results = append(results, &document)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].UpdatedAt.After(results[j].UpdatedAt)
	})
	return results, nil
}

func (d *MockStoreClient) GrantAccess(ctx context.Context, documentId, userId string, entry models.AccessEntry) error {
	if d.doBad {
		return errors.New("GrantAccess failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	document, ok := d.documents[documentId]
	if !ok {
		return ErrNotFound
	}
	document = copyDocument(document)
	document.Access[userId] = entry
	document.UpdatedAt = entry.Timestamp
	d.documents[documentId] = document
	return nil
}

func (d *MockStoreClient) SetDocumentContent(ctx context.Context, id, content string, at time.Time) error {
	if d.doBad {
		return errors.New("SetDocumentContent failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	document, ok := d.documents[id]
	if !ok {
		return ErrNotFound
	}
	document.Content = content
	document.UpdatedAt = at
	d.documents[id] = document
	return nil
}

func (d *MockStoreClient) RemoveDocument(ctx context.Context, id string) error {
	if d.doBad {
		return errors.New("RemoveDocument failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.documents, id)
	return nil
}

func statusIn(status models.Status, statuses []models.Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// copyDocument prevents callers from mutating the stored access map through
// a returned document.
func copyDocument(document models.Document) models.Document {
	access := make(map[string]models.AccessEntry, len(document.Access))
	for userId, entry := range document.Access {
		access[userId] = entry
	}
	document.Access = access
	return document
}
