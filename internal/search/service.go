package search

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/imagematch/match-api/internal/index"
	"github.com/imagematch/match-api/pkg/signature"
)

// Service orchestrates signature generation and the signature store. It is the
// domain layer behind every HTTP route.
type Service struct {
	generator  *signature.Generator
	store      *index.Store
	ingester   *Ingester
	downloader *Downloader
}

// NewService returns a Service bound to the given store. A nil ingester makes
// every add synchronous.
func NewService(store *index.Store, ingester *Ingester, downloader *Downloader) *Service {
	return &Service{
		generator:  signature.NewGenerator(),
		store:      store,
		ingester:   ingester,
		downloader: downloader,
	}
}

// Fetch downloads image bytes from a remote URL.
func (s *Service) Fetch(ctx context.Context, url string) ([]byte, error) {
	return s.downloader.Fetch(ctx, url)
}

var (
	_globalMu      sync.RWMutex
	_globalService *Service
)

// S returns the global match service previously installed with ReplaceGlobals.
func S() *Service {
	_globalMu.RLock()
	defer _globalMu.RUnlock()
	return _globalService
}

// ReplaceGlobals affects a new global match service, returning a function to
// restore the previous one.
func ReplaceGlobals(service *Service) func() {
	_globalMu.Lock()
	defer _globalMu.Unlock()
	prev := _globalService
	_globalService = service
	return func() { ReplaceGlobals(prev) }
}

// AddImage signs the image and stores it under the given path. When the async
// ingester is enabled the record is queued and indexed in the background.
func (s *Service) AddImage(ctx context.Context, path string, img []byte, metadata json.RawMessage) error {
	sig, err := s.generator.Generate(img)
	if err != nil {
		return err
	}
	record := index.NewRecord(path, sig, metadata)

	if s.ingester != nil {
		return s.ingester.Ingest(record)
	}

	_, err = s.store.Add(ctx, record)
	return err
}

// DeleteImage removes every signature stored under the given path and returns
// the number of removed documents.
func (s *Service) DeleteImage(ctx context.Context, path string) (int, error) {
	return s.store.Delete(ctx, path)
}

// SearchImage looks up indexed images within the given distance cutoff of the
// query image. With allOrientations, the 8 dihedral transforms of the query
// are searched and merged, keeping the best distance per document.
func (s *Service) SearchImage(ctx context.Context, img []byte, allOrientations bool, cutoff float64) ([]index.Match, error) {
	grey, err := signature.DecodeGrey(img)
	if err != nil {
		return nil, err
	}

	variants := []*signature.GreyImage{grey}
	if allOrientations {
		variants = signature.Orientations(grey)
	}

	best := make(map[string]index.Match)
	for _, variant := range variants {
		sig := s.generator.GenerateGrey(variant)
		matches, err := s.store.Search(ctx, sig, cutoff)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			if prev, ok := best[match.ID]; !ok || match.Dist < prev.Dist {
				best[match.ID] = match
			}
		}
	}

	merged := make([]index.Match, 0, len(best))
	for _, match := range best {
		merged = append(merged, match)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Dist < merged[j].Dist })
	return merged, nil
}

// CompareImages signs both images and returns their similarity score.
func (s *Service) CompareImages(a, b []byte) (float64, error) {
	sigA, err := s.generator.Generate(a)
	if err != nil {
		return 0, err
	}
	sigB, err := s.generator.Generate(b)
	if err != nil {
		return 0, err
	}
	return signature.Score(signature.NormalizedDistance(sigA, sigB)), nil
}

// CountImages returns the number of indexed images.
func (s *Service) CountImages(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

// ListImages returns indexed image paths at the given offset.
func (s *Service) ListImages(ctx context.Context, offset, limit int) ([]string, error) {
	return s.store.List(ctx, offset, limit)
}

// Stop drains the async ingester, if any.
func (s *Service) Stop() {
	if s.ingester != nil {
		s.ingester.Stop()
		zap.L().Info("Match service stopped")
	}
}
