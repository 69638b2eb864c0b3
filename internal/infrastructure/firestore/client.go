package firestore

import (
	"context"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// FirestoreClient wraps the Firestore connection used for swipe journaling.
type FirestoreClient struct {
	client *firestore.Client
}

// NewFirestoreClient connects to the given project. On Cloud Run the default
// service credentials apply; locally a credentials file is used when present.
func NewFirestoreClient(ctx context.Context, projectID string) (*FirestoreClient, error) {
	var client *firestore.Client
	var err error

	isCloudRun := os.Getenv("K_SERVICE") != ""

	if isCloudRun {
		client, err = firestore.NewClient(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("creating Firestore client with default auth: %w", err)
		}
	} else {
		credentialsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
		if credentialsFile == "" {
			client, err = firestore.NewClient(ctx, projectID)
		} else if _, fileErr := os.Stat(credentialsFile); fileErr != nil {
			log.Printf("⚠️ credentials file not found: %s, falling back to default auth", credentialsFile)
			client, err = firestore.NewClient(ctx, projectID)
		} else {
			client, err = firestore.NewClient(ctx, projectID, option.WithCredentialsFile(credentialsFile))
		}
		if err != nil {
			return nil, fmt.Errorf("creating Firestore client: %w", err)
		}
	}

	log.Printf("✅ Firestore client initialized for project: %s", projectID)
	return &FirestoreClient{client: client}, nil
}

func (fc *FirestoreClient) Close() error {
	return fc.client.Close()
}

func (fc *FirestoreClient) GetClient() *firestore.Client {
	return fc.client
}
