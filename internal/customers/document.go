package customers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/fourthcoffee/fc-commerce/internal/config"
	"github.com/fourthcoffee/fc-commerce/internal/datagen"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
	"github.com/fourthcoffee/fc-commerce/internal/models"
	"github.com/fourthcoffee/fc-commerce/pkg/version"
)

// DocumentService reads customers from a MongoDB-compatible document store.
type DocumentService struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
	log     zerolog.Logger

	mu    sync.Mutex
	faker *datagen.Faker
}

// NewDocumentService connects to cfg.Endpoint and pings it.
func NewDocumentService(ctx context.Context, cfg config.CustomersConfig) (*DocumentService, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.Endpoint).
		SetAppName(version.UserAgent()).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping document store: %w", err)
	}

	svc := newDocumentService(client.Database(cfg.Database).Collection(cfg.Collection), timeout)
	svc.client = client
	return svc, nil
}

func newDocumentService(coll *mongo.Collection, timeout time.Duration) *DocumentService {
	return &DocumentService{
		coll:    coll,
		timeout: timeout,
		faker:   datagen.NewFaker(),
		log: logging.Component("customers").With().
			Str("collection", coll.Name()).
			Logger(),
	}
}

func (s *DocumentService) fail(err error, op string) error {
	s.log.Error().Err(err).Str("op", op).Msg("Document store query failed")
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

// RandomCustomers uses $sample. Servers without $sample get a page from
// a random offset instead.
func (s *DocumentService) RandomCustomers(ctx context.Context, n int) ([]models.Customer, error) {
	if n <= 0 {
		return []models.Customer{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{{{Key: "$sample", Value: bson.D{{Key: "size", Value: n}}}}}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err == nil {
		return s.drain(ctx, cur, "random")
	}

	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) {
		return nil, s.fail(err, "random")
	}
	s.log.Warn().Err(err).Msg("$sample not supported, using random offset")

	total, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, s.fail(err, "count")
	}
	var skip int64
	if span := total - int64(n); span > 0 {
		s.mu.Lock()
		skip = int64(s.faker.Int(0, int(span)))
		s.mu.Unlock()
	}
	cur, err = s.coll.Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "id", Value: 1}}).SetSkip(skip).SetLimit(int64(n)))
	if err != nil {
		return nil, s.fail(err, "random")
	}
	return s.drain(ctx, cur, "random")
}

func (s *DocumentService) CustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	if id == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "id", Value: id}},
		bson.D{{Key: "customerId", Value: id}},
	}}}

	var c models.Customer
	err := s.coll.FindOne(ctx, filter).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail(err, "by id")
	}
	return &c, nil
}

// AllCustomers returns the customers that have recommendations.
func (s *DocumentService) AllCustomers(ctx context.Context) ([]models.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.D{{Key: "recommendations", Value: bson.D{{Key: "$ne", Value: nil}}}})
	if err != nil {
		return nil, s.fail(err, "all")
	}
	return s.drain(ctx, cur, "all")
}

func (s *DocumentService) Search(ctx context.Context, term string, limit int) ([]models.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.D{}
	if term != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		filter = bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: re}},
			bson.D{{Key: "email", Value: re}},
			bson.D{{Key: "customerId", Value: re}},
			bson.D{{Key: "id", Value: re}},
		}}}
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, s.fail(err, "search")
	}
	return s.drain(ctx, cur, "search")
}

// drain walks the cursor batch by batch.
func (s *DocumentService) drain(ctx context.Context, cur *mongo.Cursor, op string) ([]models.Customer, error) {
	defer cur.Close(ctx)

	out := []models.Customer{}
	for cur.Next(ctx) {
		var c models.Customer
		if err := cur.Decode(&c); err != nil {
			return nil, s.fail(err, op)
		}
		out = append(out, c)
	}
	if err := cur.Err(); err != nil {
		return nil, s.fail(err, op)
	}
	return out, nil
}

func (s *DocumentService) Source() string {
	return SourceDocumentStore
}

func (s *DocumentService) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
