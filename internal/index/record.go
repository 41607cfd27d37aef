package index

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/imagematch/match-api/pkg/signature"
)

// Record is the Elasticsearch document stored for one indexed image. The word
// fields are flattened at the top level of the document so that each one can be
// targeted by a plain term query.
type Record struct {
	Path      string              `json:"path"`
	Signature signature.Signature `json:"signature"`
	Metadata  json.RawMessage     `json:"metadata,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	Words     []int64             `json:"-"`
}

// NewRecord builds the document for an image signature, including its
// locality sensitive words.
func NewRecord(path string, sig signature.Signature, metadata json.RawMessage) Record {
	return Record{
		Path:      path,
		Signature: sig,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
		Words:     Words(sig),
	}
}

// MarshalJSON flattens the word fields into the document body.
func (r Record) MarshalJSON() ([]byte, error) {
	doc := map[string]interface{}{
		"path":      r.Path,
		"signature": r.Signature,
		"timestamp": r.Timestamp,
	}
	if len(r.Metadata) > 0 {
		doc["metadata"] = r.Metadata
	}
	for i, word := range r.Words {
		doc[WordField(i)] = word
	}
	return json.Marshal(doc)
}

// WordField returns the document field name holding the i-th word.
func WordField(i int) string {
	return fmt.Sprintf("simple_word_%d", i)
}

// storedRecord is the subset of a Record read back from a search hit, the word
// fields being excluded from the source.
type storedRecord struct {
	Path      string              `json:"path"`
	Signature signature.Signature `json:"signature"`
	Metadata  json.RawMessage     `json:"metadata"`
	Timestamp time.Time           `json:"timestamp"`
}
