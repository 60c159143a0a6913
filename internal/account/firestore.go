package account

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultFirestoreCollection = "accounts"

// FirestoreStore keeps accounts in Firestore, one document per normalized
// email. Document creation fails with AlreadyExists for a taken email.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

var _ Store = (*FirestoreStore)(nil)

type accountDoc struct {
	ID               string    `firestore:"id"`
	Email            string    `firestore:"email"`
	Name             string    `firestore:"name"`
	Role             string    `firestore:"role"`
	PasswordHash     string    `firestore:"password_hash,omitempty"`
	HasLocalPassword bool      `firestore:"has_local_password"`
	CreatedAt        time.Time `firestore:"created_at"`
	LastLoginAt      time.Time `firestore:"last_login_at"`
}

// NewFirestoreClient connects to projectID, using database when it names
// a non-default database.
func NewFirestoreClient(ctx context.Context, projectID, database string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}

	var (
		client *firestore.Client
		err    error
	)
	if database != "" && database != "(default)" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, database)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{
		client:     client,
		collection: defaultFirestoreCollection,
	}
}

func (s *FirestoreStore) doc(email string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(email)
}

func (s *FirestoreStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	snap, err := s.doc(NormalizeEmail(email)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var d accountDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("account: failed to decode document: %w", err)
	}

	return &Account{
		ID:               d.ID,
		Email:            d.Email,
		Name:             d.Name,
		Role:             Role(d.Role),
		PasswordHash:     d.PasswordHash,
		HasLocalPassword: d.HasLocalPassword,
		CreatedAt:        d.CreatedAt,
		LastLoginAt:      d.LastLoginAt,
	}, nil
}

func (s *FirestoreStore) Insert(ctx context.Context, a *Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.Email = NormalizeEmail(a.Email)

	_, err := s.doc(a.Email).Create(ctx, accountDoc{
		ID:               a.ID,
		Email:            a.Email,
		Name:             a.Name,
		Role:             string(a.Role),
		PasswordHash:     a.PasswordHash,
		HasLocalPassword: a.HasLocalPassword,
		CreatedAt:        a.CreatedAt,
		LastLoginAt:      a.LastLoginAt,
	})
	if status.Code(err) == codes.AlreadyExists {
		return ErrDuplicateEmail
	}
	return err
}

// UpdateLastLogin looks the document up by account id since documents are
// keyed by email.
func (s *FirestoreStore) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	snaps, err := s.client.Collection(s.collection).
		Where("id", "==", id).
		Limit(1).
		Documents(ctx).
		GetAll()
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return ErrNotFound
	}

	_, err = snaps[0].Ref.Update(ctx, []firestore.Update{
		{Path: "last_login_at", Value: at},
	})
	return err
}
