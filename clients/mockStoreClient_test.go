package clients

import (
	"context"
	"testing"
	"time"

	"github.com/sharethoughts/courier/models"
)

func TestMockStore_InvitationRoundtrip(t *testing.T) {
	store := NewMockStoreClient(false)
	ctx := context.Background()

	invitation, err := models.NewInvitation("invitee@email.org", models.RoleViewer, "doc-1", "Project Notes", "inviter@email.org", "UID123")
	if err != nil {
		t.Fatalf("creating invitation: %s", err)
	}
	if err := store.UpsertInvitation(ctx, invitation); err != nil {
		t.Fatalf("storing invitation: %s", err)
	}

	found, err := store.FindInvitation(ctx, invitation.Token)
	if err != nil {
		t.Fatalf("finding invitation: %s", err)
	}
	if found == nil || found.Email != invitation.Email {
		t.Fatalf("Found [%v] expected the stored invitation", found)
	}

	missing, err := store.FindInvitation(ctx, "no-such-token")
	if err != nil {
		t.Fatalf("finding unknown invitation: %s", err)
	}
	if missing != nil {
		t.Fatal("An unknown token should find nothing, without error")
	}
}

func TestMockStore_ExpireInvitationIsConditional(t *testing.T) {
	store := NewMockStoreClient(false)
	ctx := context.Background()
	now := time.Now().UTC()

	fresh, _ := models.NewInvitation("fresh@email.org", models.RoleViewer, "doc-1", "Project Notes", "", "UID123")
	store.UpsertInvitation(ctx, fresh)

	// a pending invitation that is not past its expiry stays pending
	expired, err := store.ExpireInvitation(ctx, fresh.Token, now)
	if err != nil {
		t.Fatalf("expiring invitation: %s", err)
	}
	if expired {
		t.Fatal("A fresh invitation should not transition to expired")
	}

	stale, _ := models.NewInvitation("stale@email.org", models.RoleViewer, "doc-1", "Project Notes", "", "UID123")
	stale.ExpiresAt = now.Add(-time.Hour)
	store.UpsertInvitation(ctx, stale)

	expired, err = store.ExpireInvitation(ctx, stale.Token, now)
	if err != nil {
		t.Fatalf("expiring invitation: %s", err)
	}
	if !expired {
		t.Fatal("A stale pending invitation should transition to expired")
	}
	found, _ := store.FindInvitation(ctx, stale.Token)
	if found.Status != models.StatusExpired {
		t.Fatalf("Status given [%s] expected [%s]", found.Status, models.StatusExpired)
	}

	// the transition happens at most once
	expired, err = store.ExpireInvitation(ctx, stale.Token, now)
	if err != nil {
		t.Fatalf("expiring invitation twice: %s", err)
	}
	if expired {
		t.Fatal("An already expired invitation should not transition again")
	}

	accepted, _ := models.NewInvitation("done@email.org", models.RoleViewer, "doc-1", "Project Notes", "", "UID123")
	accepted.ExpiresAt = now.Add(-time.Hour)
	accepted.UpdateStatus(models.StatusAccepted)
	store.UpsertInvitation(ctx, accepted)

	expired, _ = store.ExpireInvitation(ctx, accepted.Token, now)
	if expired {
		t.Fatal("A terminal invitation should never transition to expired")
	}
}

func TestMockStore_GrantAccess(t *testing.T) {
	store := NewMockStoreClient(false)
	ctx := context.Background()
	now := time.Now().UTC()
	entry := models.AccessEntry{Role: models.RoleEditor, Email: "invitee@email.org", Timestamp: now}

	if err := store.GrantAccess(ctx, "no-such-doc", "UID999", entry); err != ErrNotFound {
		t.Fatalf("Error given [%v] expected [%v]", err, ErrNotFound)
	}

	document := models.NewDocument("Project Notes", "UID123", "owner@email.org")
	store.UpsertDocument(ctx, document)

	if err := store.GrantAccess(ctx, document.Id, "UID999", entry); err != nil {
		t.Fatalf("granting access: %s", err)
	}

	granted, _ := store.FindDocument(ctx, document.Id)
	got, ok := granted.AccessFor("UID999")
	if !ok {
		t.Fatal("No access entry was stored")
	}
	if got.Role != models.RoleEditor || got.Email != "invitee@email.org" {
		t.Fatalf("Entry given [%v] expected [%v]", got, entry)
	}
	// the owner's seeded entry is untouched
	if _, ok := granted.AccessFor("UID123"); !ok {
		t.Fatal("The owner's access entry was lost")
	}

	// re-granting the same entry is idempotent
	if err := store.GrantAccess(ctx, document.Id, "UID999", entry); err != nil {
		t.Fatalf("re-granting access: %s", err)
	}
	regranted, _ := store.FindDocument(ctx, document.Id)
	if len(regranted.Access) != 2 {
		t.Fatalf("Access entries given [%d] expected [2]", len(regranted.Access))
	}
}

func TestMockStore_FindDocumentsForUser(t *testing.T) {
	store := NewMockStoreClient(false)
	ctx := context.Background()

	owned := models.NewDocument("Mine", "UID123", "owner@email.org")
	store.UpsertDocument(ctx, owned)

	shared := models.NewDocument("Theirs", "UID999", "other@email.org")
	store.UpsertDocument(ctx, shared)
	store.GrantAccess(ctx, shared.Id, "UID123", models.AccessEntry{Role: models.RoleViewer, Email: "owner@email.org", Timestamp: time.Now().UTC()})

	hidden := models.NewDocument("Hidden", "UID999", "other@email.org")
	store.UpsertDocument(ctx, hidden)

	documents, err := store.FindDocumentsForUser(ctx, "UID123")
	if err != nil {
		t.Fatalf("finding documents: %s", err)
	}
	if len(documents) != 2 {
		t.Fatalf("Documents given [%d] expected [2]", len(documents))
	}
	for _, document := range documents {
		if document.Id == hidden.Id {
			t.Fatal("Listing includes a document without access")
		}
	}
}
