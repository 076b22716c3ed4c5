// Package services holds the storefront's business operations. Handlers
// translate HTTP into calls here; nothing in this package knows about gin.
package services

import "github.com/google/uuid"

// Caller identifies who a request acts for: an account, an anonymous
// session, or both during login.
type Caller struct {
	AccountID    *uuid.UUID
	SessionToken string
}

func (c Caller) Authenticated() bool {
	return c.AccountID != nil
}

func AccountCaller(id uuid.UUID) Caller {
	return Caller{AccountID: &id}
}

func SessionCaller(token string) Caller {
	return Caller{SessionToken: token}
}
