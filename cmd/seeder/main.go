// Command seeder fills a store with fake users, memos and interactions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/app"
	"github.com/anonto42/memoshare/internal/events"
	"github.com/anonto42/memoshare/internal/identity"
	"github.com/anonto42/memoshare/internal/models"
	"github.com/anonto42/memoshare/internal/store"
	"github.com/anonto42/memoshare/internal/store/memstore"
	"github.com/anonto42/memoshare/internal/store/mongostore"
	"github.com/anonto42/memoshare/internal/store/pgstore"
	"github.com/anonto42/memoshare/pkg/config"
	"github.com/anonto42/memoshare/pkg/logger"
)

func main() {
	numUsers := flag.Int("users", 20, "number of users to create")
	memosPerUser := flag.Int("memos", 5, "memos per user")
	seed := flag.Int64("seed", 0, "random seed, 0 for time based")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	gofakeit.Seed(*seed)

	ctx := context.Background()
	repo, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	publisher := events.NewMemoryPublisher()
	svc := app.NewServices(app.Deps{
		Store:            repo,
		Publisher:        publisher,
		Logger:           log,
		LedgerMaxRetries: cfg.LedgerMaxRetries,
	})

	s := &seeder{svc: svc, session: identity.NewSession(), log: log}
	if err := s.run(ctx, *numUsers, *memosPerUser); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}
	log.Info("seeding complete",
		zap.Int("users", len(s.userIDs)),
		zap.Int("memos", len(s.memoIDs)),
		zap.Int("events", len(publisher.Events())))
}

type seeder struct {
	svc     *app.Services
	session *identity.Session
	log     *zap.Logger
	userIDs []string
	memoIDs []string
}

func (s *seeder) run(ctx context.Context, numUsers, memosPerUser int) error {
	// Sign-in creates the profile, the same way the API's first request does.
	var registerErr error
	unsubscribe := s.session.OnChange(func(p *identity.Principal) {
		if p == nil || registerErr != nil {
			return
		}
		if _, err := s.svc.Users.Register(ctx, p.ID, p.DisplayName); err != nil {
			registerErr = fmt.Errorf("register %s: %w", p.ID, err)
		}
	})
	defer unsubscribe()

	for i := 0; i < numUsers; i++ {
		p := identity.Principal{ID: gofakeit.UUID(), DisplayName: gofakeit.Name()}
		s.session.SignIn(p)
		if registerErr != nil {
			return registerErr
		}
		if err := s.profile(ctx, p.ID); err != nil {
			return err
		}
		for j := 0; j < memosPerUser; j++ {
			memo, err := s.svc.Memos.Create(ctx, p.ID, models.CreateMemoRequest{
				Title:   gofakeit.Sentence(gofakeit.Number(2, 6)),
				Summary: gofakeit.Sentence(gofakeit.Number(8, 20)),
				Body:    "# " + gofakeit.HipsterSentence(4) + "\n\n" + gofakeit.Paragraph(2, 4, 12, "\n\n"),
			})
			if err != nil {
				return err
			}
			s.memoIDs = append(s.memoIDs, memo.ID)
		}
		s.userIDs = append(s.userIDs, p.ID)
		s.session.SignOut()
	}

	return s.interact(ctx)
}

func (s *seeder) profile(ctx context.Context, userID string) error {
	bio := gofakeit.HipsterSentence(8)
	if _, err := s.svc.Users.UpdateProfile(ctx, userID, models.UpdateProfileRequest{Bio: &bio}); err != nil {
		return err
	}
	handle := strings.ToLower(gofakeit.Username())
	if _, err := s.svc.Users.SetHandle(ctx, userID, handle); err != nil {
		// collisions and odd characters just leave the user without a handle
		s.log.Debug("handle skipped", zap.String("handle", handle), zap.Error(err))
	}
	return nil
}

func (s *seeder) interact(ctx context.Context) error {
	if len(s.userIDs) < 2 {
		return nil
	}
	for _, userID := range s.userIDs {
		for k := 0; k < gofakeit.Number(1, 5); k++ {
			target := s.userIDs[gofakeit.Number(0, len(s.userIDs)-1)]
			if target == userID {
				continue
			}
			if err := s.svc.Social.Follow(ctx, userID, target); err != nil {
				return err
			}
		}
		if len(s.memoIDs) == 0 {
			continue
		}
		for k := 0; k < gofakeit.Number(0, 8); k++ {
			memoID := s.memoIDs[gofakeit.Number(0, len(s.memoIDs)-1)]
			if _, err := s.svc.Engagement.ToggleLike(ctx, userID, memoID); err != nil {
				return err
			}
			if gofakeit.Bool() {
				if _, err := s.svc.Engagement.AddComment(ctx, userID, memoID, gofakeit.Sentence(gofakeit.Number(3, 12))); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Repository, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		return memstore.New(), func() {}, nil
	case "mongo":
		client, err := config.InitMongo(cfg.MongoURI, log)
		if err != nil {
			return nil, nil, err
		}
		return mongostore.New(client.Database(cfg.MongoDatabase)), func() { config.CloseMongo(client, log) }, nil
	case "postgres":
		db, err := config.InitPostgres(cfg.PostgresConn, log)
		if err != nil {
			return nil, nil, err
		}
		s := pgstore.New(db)
		if err := s.Migrate(ctx); err != nil {
			return nil, nil, err
		}
		return s, func() { config.ClosePostgres(db, log) }, nil
	}
	return nil, nil, fmt.Errorf("seeder does not support STORE_BACKEND %q", cfg.StoreBackend)
}
