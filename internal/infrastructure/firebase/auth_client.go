package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

type Options struct {
	ProjectID          string
	ServiceAccountPath string
	ServiceAccountJSON string
}

// ClientOptions picks inline credentials over a key file and falls back to
// application default credentials.
func (o Options) ClientOptions() []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case o.ServiceAccountJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(o.ServiceAccountJSON)))
	case o.ServiceAccountPath != "":
		opts = append(opts, option.WithCredentialsFile(o.ServiceAccountPath))
	}
	return opts
}

// NewApp initializes the Firebase app shared by Firestore and Auth.
func NewApp(ctx context.Context, o Options) (*firebase.App, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: o.ProjectID}, o.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	return app, nil
}

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// Verify checks a Firebase ID token and returns its UID.
func (f *FirebaseAuthClient) Verify(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}
	return result.UID, nil
}
