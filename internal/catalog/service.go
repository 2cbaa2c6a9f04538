package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/ascentsys/retail-client/pkg/enums"
	pkgerrors "github.com/ascentsys/retail-client/pkg/errors"
	"github.com/ascentsys/retail-client/pkg/logger"
)

type catalogFetcher interface {
	FetchCatalog(ctx context.Context) (string, error)
}

// Service retrieves the catalog from the wire and keeps the latest decoded
// snapshot so callers can resolve stock ceilings without refetching.
type Service interface {
	Fetch(ctx context.Context) ([]Record, error)
	Snapshot() []Record
	Filter(category enums.ProductCategory) []Record
	RecordByID(id string) (Record, bool)
}

type service struct {
	fetcher catalogFetcher
	decoder Decoder
	log     *logger.Logger

	mu       sync.RWMutex
	snapshot []Record
}

// NewService wires a catalog service with the provided fetcher and decoder.
func NewService(fetcher catalogFetcher, decoder Decoder, log *logger.Logger) (Service, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("catalog fetcher required")
	}
	if decoder == nil {
		return nil, fmt.Errorf("catalog decoder required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		fetcher: fetcher,
		decoder: decoder,
		log:     log,
	}, nil
}

// Fetch performs one listing round trip, decodes the body and replaces the
// held snapshot wholesale. Transport failures pass through as
// connection-class errors; a malformed body degrades to fewer records, not
// an error.
func (s *service) Fetch(ctx context.Context) ([]Record, error) {
	body, err := s.fetcher.FetchCatalog(ctx)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeConnection, err, "fetch catalog")
	}

	records := s.decoder.Decode(body)
	s.log.Debug(s.log.WithField(ctx, "records", len(records)), "catalog decoded")

	s.mu.Lock()
	s.snapshot = records
	s.mu.Unlock()

	return s.copySnapshot(), nil
}

// Snapshot returns the records from the most recent fetch, in wire order.
func (s *service) Snapshot() []Record {
	return s.copySnapshot()
}

// Filter returns the latest snapshot narrowed to the given filter category.
func (s *service) Filter(category enums.ProductCategory) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FilterByCategory(s.snapshot, category)
}

// RecordByID resolves a record from the latest snapshot.
func (s *service) RecordByID(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.snapshot {
		if record.ID == id {
			return record, true
		}
	}
	return Record{}, false
}

func (s *service) copySnapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}
