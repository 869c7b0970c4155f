package cart

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Scope is the ownership key of a cart: the anonymous session plus the
// signed-in account when there is one. Guest and account scopes never share
// lines, even for the same session.
type Scope struct {
	SessionID string
	AccountID *uuid.UUID
}

// NewScope trims the session id and drops a nil account id.
func NewScope(sessionID string, accountID *uuid.UUID) Scope {
	scope := Scope{SessionID: strings.TrimSpace(sessionID)}
	if accountID != nil && *accountID != uuid.Nil {
		id := *accountID
		scope.AccountID = &id
	}
	return scope
}

// IsGuest reports whether the scope has no account.
func (s Scope) IsGuest() bool {
	return s.AccountID == nil
}

// Validate rejects scopes without a session id.
func (s Scope) Validate() error {
	if strings.TrimSpace(s.SessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required").
			WithDetails(map[string]string{"session_id": "required"})
	}
	return nil
}

// Apply restricts a cart_lines query to this scope.
func (s Scope) Apply(db *gorm.DB) *gorm.DB {
	db = db.Where("cart_lines.session_id = ?", s.SessionID)
	if s.AccountID != nil {
		return db.Where("cart_lines.account_id = ?", *s.AccountID)
	}
	return db.Where("cart_lines.account_id IS NULL")
}
