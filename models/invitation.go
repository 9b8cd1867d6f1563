package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

type (
	// Invitation is the record behind an invitation link. The token is both
	// the record key and the bearer capability embedded in the emailed link,
	// so it is never echoed back in API responses.
	Invitation struct {
		Token         string    `json:"-" bson:"_id"`
		Email         string    `json:"email" bson:"email"`
		Role          Role      `json:"role" bson:"role"`
		DocumentId    string    `json:"documentId" bson:"documentId"`
		DocumentTitle string    `json:"documentTitle" bson:"documentTitle"`
		InviterEmail  string    `json:"inviterEmail,omitempty" bson:"inviterEmail,omitempty"`
		InviterId     string    `json:"inviterId" bson:"inviterId"`
		Status        Status    `json:"status" bson:"status"`
		CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
		ExpiresAt     time.Time `json:"expiresAt" bson:"expiresAt"`
		AcceptedAt    time.Time `json:"acceptedAt,omitempty" bson:"acceptedAt,omitempty"`
		UserId        string    `json:"userId,omitempty" bson:"userId,omitempty"`
		Modified      time.Time `json:"modified,omitempty" bson:"modified,omitempty"`
	}

	//Enum type's
	Status string
	Role   string
)

const (
	//Available Status's
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusExpired  Status = "expired"
	//Available Role's
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleOwner  Role = "owner"

	// InvitationDuration is how long an invitation stays valid after issue.
	InvitationDuration = 7 * 24 * time.Hour

	tokenBytes = 32
)

// Valid reports whether the role may be granted through an invitation.
// Owner is never granted this way, it belongs to the document creator.
func (r Role) Valid() bool {
	return r == RoleViewer || r == RoleEditor
}

//New invitation in pending state with a freshly generated token
func NewInvitation(email string, role Role, documentId, documentTitle, inviterEmail, inviterId string) (*Invitation, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Invitation{
		Token:         token,
		Email:         email,
		Role:          role,
		DocumentId:    documentId,
		DocumentTitle: documentTitle,
		InviterEmail:  inviterEmail,
		InviterId:     inviterId,
		Status:        StatusPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(InvitationDuration),
	}, nil
}

//Set a new status and update the modified time
func (i *Invitation) UpdateStatus(newStatus Status) {
	i.Status = newStatus
	i.Modified = time.Now().UTC()
}

func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// generateToken produces the 256-bit random key used in invitation URLs.
// Failure to read entropy is an environment fault the caller cannot recover
// from, so it is surfaced rather than retried.
func generateToken() (string, error) {
	rb := make([]byte, tokenBytes)
	if _, err := rand.Read(rb); err != nil {
		return "", err
	}
	return hex.EncodeToString(rb), nil
}
