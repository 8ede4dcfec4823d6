package repository

import (
	"context"

	"github.com/Kalwarein/edu-harmony-link/internal/models"
)

type PushSubscriptionRepository struct {
	db DBTX
}

func NewPushSubscriptionRepository(db DBTX) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{db: db}
}

// Upsert stores a browser's push subscription, reviving it if the same
// endpoint was previously revoked.
func (r *PushSubscriptionRepository) Upsert(
	ctx context.Context,
	userID string,
	endpoint string,
	keyP256dh string,
	keyAuth string,
) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (endpoint)
		DO UPDATE SET user_id = $1, p256dh = $3, auth = $4, revoked_at = NULL
	`, userID, endpoint, keyP256dh, keyAuth)
	return err
}

func (r *PushSubscriptionRepository) ListActiveForUser(
	ctx context.Context,
	userID string,
) ([]models.PushSubscription, error) {
	return r.list(ctx, `
		SELECT id, user_id, endpoint, p256dh, auth, created_at, revoked_at
		FROM push_subscriptions
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID)
}

func (r *PushSubscriptionRepository) ListAllActive(ctx context.Context) ([]models.PushSubscription, error) {
	return r.list(ctx, `
		SELECT id, user_id, endpoint, p256dh, auth, created_at, revoked_at
		FROM push_subscriptions
		WHERE revoked_at IS NULL
	`)
}

func (r *PushSubscriptionRepository) list(
	ctx context.Context,
	query string,
	args ...any,
) ([]models.PushSubscription, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subscriptions := make([]models.PushSubscription, 0)
	for rows.Next() {
		var sub models.PushSubscription
		if err := rows.Scan(
			&sub.ID,
			&sub.UserID,
			&sub.Endpoint,
			&sub.KeyP256dh,
			&sub.KeyAuth,
			&sub.CreatedAt,
			&sub.RevokedAt,
		); err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subscriptions, nil
}

// RevokeEndpoint marks a subscription dead after the push service reports
// it gone (404/410).
func (r *PushSubscriptionRepository) RevokeEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE push_subscriptions
		SET revoked_at = NOW()
		WHERE endpoint = $1
	`, endpoint)
	return err
}

// RevokeEndpointForUser handles client-initiated unsubscribes. The user
// filter keeps one account from revoking another account's subscription.
func (r *PushSubscriptionRepository) RevokeEndpointForUser(ctx context.Context, endpoint, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE push_subscriptions
		SET revoked_at = NOW()
		WHERE endpoint = $1 AND user_id = $2
	`, endpoint, userID)
	return err
}
