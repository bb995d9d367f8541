package repository

import (
	"context"
)

const getUserBySessionToken = `
SELECT u.id, u.email, u.role, u.client_id, u.created_at
FROM users u
JOIN sessions s ON s.user_id = u.id
WHERE s.token = $1 AND s.expires_at > now()
`

// GetUserBySessionToken resolves an active session token to its principal.
// Tokens are issued by the external identity provider; expired sessions
// behave as if absent.
func (q *Queries) GetUserBySessionToken(ctx context.Context, token string) (User, error) {
	row := q.db.QueryRow(ctx, getUserBySessionToken, token)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Role, &u.ClientID, &u.CreatedAt)
	return u, err
}
