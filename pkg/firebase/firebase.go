package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and the clients derived from it.
// Firestore and Bucket are only set when requested.
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
	Firestore   *firestore.Client
	Bucket      *storage.BucketHandle
	BucketName  string
}

type Options struct {
	CredentialsPath string
	StorageBucket   string
	WithFirestore   bool
	WithStorage     bool
}

// InitFirebase initializes the Firebase application and the clients named in opts
func InitFirebase(ctx context.Context, opts Options, logger *zap.Logger) (*App, error) {
	if opts.CredentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}

	// Check if the credentials file exists
	if _, err := os.Stat(opts.CredentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", opts.CredentialsPath)
	}

	var conf *firebase.Config
	if opts.StorageBucket != "" {
		conf = &firebase.Config{StorageBucket: opts.StorageBucket}
	}
	firebaseApp, err := firebase.NewApp(ctx, conf, option.WithCredentialsFile(opts.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}
	app := &App{FirebaseApp: firebaseApp, AuthClient: authClient, BucketName: opts.StorageBucket}

	if opts.WithFirestore {
		if app.Firestore, err = firebaseApp.Firestore(ctx); err != nil {
			return nil, fmt.Errorf("error getting firestore client: %w", err)
		}
	}

	if opts.WithStorage {
		if opts.StorageBucket == "" {
			return nil, fmt.Errorf("FIREBASE_STORAGE_BUCKET is required for firebase blob storage")
		}
		storageClient, err := firebaseApp.Storage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting storage client: %w", err)
		}
		if app.Bucket, err = storageClient.DefaultBucket(); err != nil {
			return nil, fmt.Errorf("error opening storage bucket: %w", err)
		}
	}

	logger.Info("firebase initialized",
		zap.Bool("firestore", opts.WithFirestore),
		zap.Bool("storage", opts.WithStorage))
	return app, nil
}

// Close releases the Firestore client when one was opened.
func (a *App) Close() error {
	if a.Firestore != nil {
		return a.Firestore.Close()
	}
	return nil
}
