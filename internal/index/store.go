package index

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
	"github.com/elastic/go-elasticsearch/v8/typedapi/indices/create"
	"github.com/elastic/go-elasticsearch/v8/typedapi/some"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imagematch/match-api/pkg/elasticsearch"
	"github.com/imagematch/match-api/pkg/signature"
)

// DefaultCandidates is the number of pre-filtered candidates fetched from
// Elasticsearch before the exact distance re-ranking.
const DefaultCandidates = 100

// Match is one search result after distance re-ranking.
type Match struct {
	ID       string          `json:"id"`
	Path     string          `json:"path"`
	Dist     float64         `json:"dist"`
	Metadata json.RawMessage `json:"metadata"`
}

// Store persists image signatures in an Elasticsearch index and resolves
// similarity lookups with a two phase search: a term query over the locality
// sensitive word fields narrows the index down to candidates, then the exact
// normalized distance is computed in process.
type Store struct {
	Index      string
	Candidates int
}

// NewStore returns a Store bound to the given index name.
func NewStore(index string) *Store {
	return &Store{Index: index, Candidates: DefaultCandidates}
}

var (
	_globalStoreMu sync.RWMutex
	_globalStore   *Store
)

// S returns the global signature store previously installed with ReplaceGlobals.
func S() *Store {
	_globalStoreMu.RLock()
	defer _globalStoreMu.RUnlock()
	return _globalStore
}

// ReplaceGlobals affects a new global signature store, returning a function to
// restore the previous one.
func ReplaceGlobals(store *Store) func() {
	_globalStoreMu.Lock()
	defer _globalStoreMu.Unlock()
	prev := _globalStore
	_globalStore = store
	return func() { ReplaceGlobals(prev) }
}

// EnsureIndex creates the signature index with its explicit mapping when it
// does not exist yet.
func (s *Store) EnsureIndex(ctx context.Context) error {
	exists, err := elasticsearch.C().Indices.Exists(s.Index).IsSuccess(ctx)
	if err != nil {
		return fmt.Errorf("index exists check: %w", err)
	}
	if exists {
		return nil
	}

	properties := map[string]types.Property{
		"path":      types.NewKeywordProperty(),
		"signature": types.NewIntegerNumberProperty(),
		"timestamp": types.NewDateProperty(),
	}
	metadata := types.NewObjectProperty()
	metadata.Enabled = some.Bool(false)
	properties["metadata"] = metadata
	for i := 0; i < WordCount; i++ {
		properties[WordField(i)] = types.NewLongNumberProperty()
	}

	_, err = elasticsearch.C().Indices.Create(s.Index).
		Request(&create.Request{Mappings: &types.TypeMapping{Properties: properties}}).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("index create: %w", err)
	}
	zap.L().Info("Signature index created", zap.String("index", s.Index))
	return nil
}

// Add indexes a new record and removes any previous documents stored under the
// same path, so that a path always resolves to its latest signature.
func (s *Store) Add(ctx context.Context, record Record) (string, error) {
	oldIDs, err := s.IDsWithPath(ctx, record.Path)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	_, err = elasticsearch.C().Index(s.Index).Id(id).Document(record).Do(ctx)
	if err != nil {
		return "", fmt.Errorf("index document: %w", err)
	}

	for _, oldID := range oldIDs {
		if _, err := elasticsearch.C().Delete(s.Index, oldID).Do(ctx); err != nil {
			zap.L().Warn("Delete superseded document", zap.String("id", oldID), zap.Error(err))
		}
	}
	return id, nil
}

// Delete removes every document stored under the given path and returns the
// number of deleted documents.
func (s *Store) Delete(ctx context.Context, path string) (int, error) {
	ids, err := s.IDsWithPath(ctx, path)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if _, err := elasticsearch.C().Delete(s.Index, id).Do(ctx); err != nil {
			return 0, fmt.Errorf("delete document %s: %w", id, err)
		}
	}
	return len(ids), nil
}

// IDsWithPath returns the ids of every document stored under the given path.
func (s *Store) IDsWithPath(ctx context.Context, path string) ([]string, error) {
	resp, err := elasticsearch.C().Search().Index(s.Index).
		Request(&search.Request{
			Query: &types.Query{
				Term: map[string]types.TermQuery{"path": {Value: path}},
			},
			Size:    some.Int(s.candidates()),
			Source_: false,
		}).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search by path: %w", err)
	}

	ids := make([]string, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		if hit.Id_ != nil {
			ids = append(ids, *hit.Id_)
		}
	}
	return ids, nil
}

// Search returns the indexed images within the given normalized distance of the
// query signature, closest first.
func (s *Store) Search(ctx context.Context, sig signature.Signature, cutoff float64) ([]Match, error) {
	words := Words(sig)
	should := make([]types.Query, 0, len(words))
	for i, word := range words {
		should = append(should, types.Query{
			Term: map[string]types.TermQuery{WordField(i): {Value: word}},
		})
	}

	resp, err := elasticsearch.C().Search().Index(s.Index).
		Request(&search.Request{
			Query: &types.Query{
				Bool: &types.BoolQuery{
					Should:             should,
					MinimumShouldMatch: 1,
				},
			},
			Size:    some.Int(s.candidates()),
			Source_: types.SourceFilter{Excludes: []string{"simple_word_*"}},
		}).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search by words: %w", err)
	}

	matches := make([]Match, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var stored storedRecord
		if err := json.Unmarshal(hit.Source_, &stored); err != nil {
			zap.L().Warn("Decode stored record", zap.Error(err))
			continue
		}
		dist := signature.NormalizedDistance(sig, stored.Signature)
		if dist >= cutoff {
			continue
		}
		match := Match{Path: stored.Path, Dist: dist, Metadata: stored.Metadata}
		if hit.Id_ != nil {
			match.ID = *hit.Id_
		}
		matches = append(matches, match)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Dist < matches[j].Dist })
	return matches, nil
}

// Count returns the number of indexed images.
func (s *Store) Count(ctx context.Context) (int64, error) {
	resp, err := elasticsearch.C().Count().Index(s.Index).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return resp.Count, nil
}

// List returns the paths of indexed images at the given offset.
func (s *Store) List(ctx context.Context, offset, limit int) ([]string, error) {
	resp, err := elasticsearch.C().Search().Index(s.Index).
		Request(&search.Request{
			From:    some.Int(offset),
			Size:    some.Int(limit),
			Source_: types.SourceFilter{Includes: []string{"path"}},
		}).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	paths := make([]string, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var stored storedRecord
		if err := json.Unmarshal(hit.Source_, &stored); err != nil {
			zap.L().Warn("Decode stored record", zap.Error(err))
			continue
		}
		paths = append(paths, stored.Path)
	}
	return paths, nil
}

func (s *Store) candidates() int {
	if s.Candidates > 0 {
		return s.Candidates
	}
	return DefaultCandidates
}
