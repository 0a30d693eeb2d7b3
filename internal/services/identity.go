package services

import (
	"context"
	"crypto/rand"
	"math/big"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// IdentityProvider provisions login accounts for members. Create failures
// are recoverable (the member continues without a linked account) and
// deletes are best-effort.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password, displayName, phone string) (string, error)
	DeleteAccount(ctx context.Context, uid string) error
}

// InitFirebase initializes the Firebase Admin SDK and returns an auth client
func InitFirebase(credPath string) (*auth.Client, error) {
	opt := option.WithCredentialsFile(credPath)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, err
	}
	return app.Auth(context.Background())
}

// FirebaseIdentity implements IdentityProvider on the Firebase Admin SDK
type FirebaseIdentity struct {
	client *auth.Client
}

func NewFirebaseIdentity(client *auth.Client) *FirebaseIdentity {
	return &FirebaseIdentity{client: client}
}

func (f *FirebaseIdentity) CreateAccount(ctx context.Context, email, password, displayName, phone string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		EmailVerified(true).
		Password(password).
		DisplayName(displayName)
	if phone != "" {
		params = params.PhoneNumber(phone)
	}

	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return "", &DependencyDegraded{Dependency: "identity provider", Err: err}
	}
	return user.UID, nil
}

func (f *FirebaseIdentity) DeleteAccount(ctx context.Context, uid string) error {
	if err := f.client.DeleteUser(ctx, uid); err != nil {
		return &DependencyDegraded{Dependency: "identity provider", Err: err}
	}
	return nil
}

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GeneratePassword returns a random temporary password for a new account
func GeneratePassword(length int) string {
	if length <= 0 {
		length = 12
	}
	buf := make([]byte, length)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			buf[i] = passwordAlphabet[0]
			continue
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf)
}
