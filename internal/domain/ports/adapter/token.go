package adapter

import "lingotube-backend/internal/domain/model"

// TokenIssuer mints a signed bearer access token for a user. Issuance is a
// pure computation over the shared signing secret.
type TokenIssuer interface {
	Issue(u *model.User) (string, error)
}
