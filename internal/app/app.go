// Package app assembles the domain services over a document store.
package app

import (
	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/blob"
	"github.com/anonto42/memoshare/internal/chat"
	"github.com/anonto42/memoshare/internal/engagement"
	"github.com/anonto42/memoshare/internal/events"
	"github.com/anonto42/memoshare/internal/feed"
	"github.com/anonto42/memoshare/internal/ledger"
	"github.com/anonto42/memoshare/internal/live"
	"github.com/anonto42/memoshare/internal/memos"
	"github.com/anonto42/memoshare/internal/metrics"
	"github.com/anonto42/memoshare/internal/repositories"
	"github.com/anonto42/memoshare/internal/search"
	"github.com/anonto42/memoshare/internal/social"
	"github.com/anonto42/memoshare/internal/store"
	"github.com/anonto42/memoshare/internal/users"
)

// Deps are the infrastructure the services run on. Blobs may be nil, which
// disables image uploads. Broker and Publisher default to in-process
// implementations.
type Deps struct {
	Store     store.Repository
	Blobs     blob.Store
	Broker    live.Broker
	Publisher events.Publisher
	Logger    *zap.Logger
	Metrics   *metrics.Collector

	LedgerMaxRetries int
	FeedPageSize     int
	SearchWindow     int
	SearchThreshold  float64
}

type Services struct {
	Users      *users.Service
	Memos      *memos.Service
	Social     *social.Service
	Engagement *engagement.Service
	Feed       *feed.Service
	Search     *search.Service
	Chat       *chat.Service
	Broker     live.Broker
	Notifier   *events.Notifier
}

// NewServices wires every repository and service over d.Store.
func NewServices(d Deps) *Services {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	broker := d.Broker
	if broker == nil {
		broker = live.NewHub(logger.Named("live"))
	}
	publisher := d.Publisher
	if publisher == nil {
		publisher = events.NewLogPublisher(logger.Named("events"))
	}
	maxRetries := d.LedgerMaxRetries
	if maxRetries <= 0 {
		maxRetries = ledger.DefaultMaxRetries
	}
	threshold := d.SearchThreshold
	if threshold <= 0 {
		threshold = search.DefaultThreshold
	}

	userRepo := repositories.NewUserRepository(d.Store)
	memoRepo := repositories.NewMemoRepository(d.Store)
	followRepo := repositories.NewFollowRepository(d.Store)
	aggregateRepo := repositories.NewAggregateRepository(d.Store)
	bookmarkRepo := repositories.NewBookmarkRepository(d.Store)
	commentRepo := repositories.NewCommentRepository(d.Store)
	chatRepo := repositories.NewChatRepository(d.Store)

	counts := ledger.New(aggregateRepo,
		ledger.WithMaxRetries(maxRetries),
		ledger.WithLogger(logger.Named("ledger")),
		ledger.WithMetrics(d.Metrics),
	)
	notifier := events.NewNotifier(publisher, logger.Named("events"), d.Metrics)

	socialSvc := social.NewService(followRepo, userRepo, counts, notifier, logger.Named("social"))
	feedSvc := feed.NewService(memoRepo, userRepo, d.FeedPageSize, logger.Named("feed"), d.Metrics)

	return &Services{
		Users:  users.NewService(userRepo, d.Blobs, logger.Named("users")),
		Memos:  memos.NewService(memoRepo, userRepo, logger.Named("memos")),
		Social: socialSvc,
		Engagement: engagement.NewService(engagement.Deps{
			Memos:     memoRepo,
			Users:     userRepo,
			Bookmarks: bookmarkRepo,
			Comments:  commentRepo,
			Ledger:    counts,
			Notifier:  notifier,
			Logger:    logger.Named("engagement"),
		}),
		Feed:     feedSvc,
		Search:   search.NewService(feedSvc, d.SearchWindow, d.FeedPageSize, threshold, logger.Named("search"), d.Metrics),
		Chat:     chat.NewService(socialSvc, chatRepo, broker, notifier, logger.Named("chat")),
		Broker:   broker,
		Notifier: notifier,
	}
}
