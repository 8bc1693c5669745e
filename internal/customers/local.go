package customers

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/fourthcoffee/fc-commerce/internal/datagen"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
	"github.com/fourthcoffee/fc-commerce/internal/models"
)

// LocalJSONService serves customers from a JSON array file. The file is
// read once, on first use.
type LocalJSONService struct {
	path string

	once      sync.Once
	customers []models.Customer

	mu    sync.Mutex
	faker *datagen.Faker
}

// NewLocalJSONService creates a service over the file at path.
func NewLocalJSONService(path string) *LocalJSONService {
	return &LocalJSONService{path: path, faker: datagen.NewFaker()}
}


func (s *LocalJSONService) load() []models.Customer {
	s.once.Do(func() {
		log := logging.Component("customers").With().Str("file", s.path).Logger()

		data, err := os.ReadFile(s.path)
		if err != nil {
			log.Error().Err(err).Msg("Could not read customer file")
			return
		}
		var customers []models.Customer
		if err := json.Unmarshal(data, &customers); err != nil {
			log.Error().Err(err).Msg("Customer file is not a valid JSON array")
			return
		}
		s.customers = customers
		log.Info().Int("count", len(customers)).Msg("Loaded customers from local file")
	})
	return s.customers
}

// RandomCustomers returns n customers from a shuffled copy of the list.
func (s *LocalJSONService) RandomCustomers(_ context.Context, n int) ([]models.Customer, error) {
	all := s.load()
	if len(all) == 0 || n <= 0 {
		return []models.Customer{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return datagen.Sample(s.faker, all, n), nil
}

func (s *LocalJSONService) CustomerByID(_ context.Context, id string) (*models.Customer, error) {
	for _, c := range s.load() {
		if c.HasID(id) {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *LocalJSONService) AllCustomers(_ context.Context) ([]models.Customer, error) {
	all := s.load()
	out := make([]models.Customer, len(all))
	copy(out, all)
	return out, nil
}

func (s *LocalJSONService) Search(_ context.Context, term string, limit int) ([]models.Customer, error) {
	out := []models.Customer{}
	for _, c := range s.load() {
		if limit > 0 && len(out) >= limit {
			break
		}
		if c.Matches(term) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *LocalJSONService) Source() string {
	return SourceLocalFile
}

func (s *LocalJSONService) Close(context.Context) error {
	return nil
}
