package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps accounts in Redis. The account record lives under its
// email key and is created with SETNX, which is what makes email unique.
// The last-login time is kept under a separate key so that logins never
// rewrite the record.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

type redisAccount struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	Role             Role   `json:"role"`
	PasswordHash     string `json:"password_hash,omitempty"`
	HasLocalPassword bool   `json:"has_local_password"`
	CreatedAt        int64  `json:"created_at"`
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "account:",
	}
}

func (r *RedisStore) emailKey(email string) string {
	return r.prefix + "email:" + email
}

func (r *RedisStore) lastLoginKey(id string) string {
	return r.prefix + "last_login:" + id
}

func (r *RedisStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	val, err := r.client.Get(ctx, r.emailKey(NormalizeEmail(email))).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec redisAccount
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("account: failed to unmarshal: %w", err)
	}

	a := &Account{
		ID:               rec.ID,
		Email:            rec.Email,
		Name:             rec.Name,
		Role:             rec.Role,
		PasswordHash:     rec.PasswordHash,
		HasLocalPassword: rec.HasLocalPassword,
		CreatedAt:        fromMillis(rec.CreatedAt),
	}

	ms, err := r.client.Get(ctx, r.lastLoginKey(rec.ID)).Int64()
	switch {
	case err == nil:
		a.LastLoginAt = fromMillis(ms)
	case !errors.Is(err, redis.Nil):
		return nil, err
	}

	return a, nil
}

func (r *RedisStore) Insert(ctx context.Context, a *Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.Email = NormalizeEmail(a.Email)

	data, err := json.Marshal(redisAccount{
		ID:               a.ID,
		Email:            a.Email,
		Name:             a.Name,
		Role:             a.Role,
		PasswordHash:     a.PasswordHash,
		HasLocalPassword: a.HasLocalPassword,
		CreatedAt:        toMillis(a.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("account: failed to marshal: %w", err)
	}

	// The last-login key is written first so that every visible record
	// has one; UpdateLastLogin relies on it to detect unknown ids.
	loginKey := r.lastLoginKey(a.ID)
	if err := r.client.Set(ctx, loginKey, strconv.FormatInt(toMillis(a.LastLoginAt), 10), 0).Err(); err != nil {
		return err
	}

	created, err := r.client.SetNX(ctx, r.emailKey(a.Email), data, 0).Result()
	if err != nil || !created {
		r.client.Del(ctx, loginKey)
	}
	if err != nil {
		return err
	}
	if !created {
		return ErrDuplicateEmail
	}
	return nil
}

// UpdateLastLogin only overwrites an existing last-login key and reports
// ErrNotFound for ids that were never inserted.
func (r *RedisStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	updated, err := r.client.SetXX(ctx, r.lastLoginKey(id), strconv.FormatInt(toMillis(at), 10), 0).Result()
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}
