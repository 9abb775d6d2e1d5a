// Package search maintains the Bleve full-text index over contacts.
// The index trails the store: writes flow in through the store's
// contact write hook, and a failed index update never fails the write
// that triggered it.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/daylistapp/daylist-server/internal/domain"
)

// mappingVersion is incremented whenever the index mapping changes,
// forcing a rebuild on startup.
const mappingVersion = "1"

// ContactIndex wraps a Bleve index over contact documents.
// All public methods are safe for concurrent use.
type ContactIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	logger *slog.Logger
}

// Open creates or opens the contact index under dataPath. A corrupt
// index or a mapping version mismatch drops and recreates the index;
// it is rebuilt from the store at startup.
func Open(dataPath string, logger *slog.Logger) (*ContactIndex, error) {
	indexPath := filepath.Join(dataPath, "contacts.bleve")
	versionPath := filepath.Join(dataPath, "contacts.version")

	rebuild := false
	if _, err := os.Stat(indexPath); err == nil {
		version, err := os.ReadFile(versionPath)
		if err != nil || string(version) != mappingVersion {
			logger.Info("contact index mapping changed, rebuilding",
				"new_version", mappingVersion)
			rebuild = true
		}
	}

	var index bleve.Index
	if !rebuild {
		if existing, err := bleve.Open(indexPath); err == nil {
			index = existing
		} else if !os.IsNotExist(err) && err != bleve.ErrorIndexPathDoesNotExist {
			logger.Warn("failed to open contact index, recreating", "error", err)
			rebuild = true
		}
	}

	if rebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		index = nil
	}

	if index == nil {
		created, err := bleve.New(indexPath, buildMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write index version file", "error", err)
		}
		index = created
	}

	return &ContactIndex{index: index, logger: logger}, nil
}

// Close closes the index and releases resources.
func (s *ContactIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// DocumentCount returns the number of indexed contacts.
func (s *ContactIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

func buildMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = simple.Name
	nameField.Store = true
	docMapping.AddFieldMappingsAt("name", nameField)

	emailField := bleve.NewTextFieldMapping()
	emailField.Analyzer = simple.Name
	emailField.Store = true
	docMapping.AddFieldMappingsAt("email", emailField)

	companyField := bleve.NewTextFieldMapping()
	companyField.Analyzer = en.AnalyzerName
	companyField.Store = true
	docMapping.AddFieldMappingsAt("company", companyField)

	// Owner is a filter, never analyzed.
	ownerField := bleve.NewTextFieldMapping()
	ownerField.Analyzer = keyword.Name
	ownerField.Store = false
	docMapping.AddFieldMappingsAt("owner_id", ownerField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// IndexContact adds or updates a contact in the index.
func (s *ContactIndex) IndexContact(c *domain.Contact) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(c.ID, map[string]any{
		"name":     c.Name,
		"email":    c.Email,
		"company":  c.Company,
		"owner_id": c.CreatedBy,
	})
}

// DeleteContact removes a contact from the index.
func (s *ContactIndex) DeleteContact(contactID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(contactID)
}

// Hit is one search result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Name  string  `json:"name"`
}

// Search finds the owner's contacts matching the query, best match
// first. Prefix matches cover partially-typed names; queries longer
// than 3 runes additionally tolerate one typo.
func (s *ContactIndex) Search(ctx context.Context, ownerID, q string, limit int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	clauses := []query.Query{bleve.NewMatchQuery(q), bleve.NewPrefixQuery(q)}
	// Fuzziness 1 on a short query matches half the index; only
	// queries longer than 3 runes get the typo tolerance.
	if len([]rune(q)) > 3 {
		fuzzy := bleve.NewFuzzyQuery(q)
		fuzzy.SetFuzziness(1)
		clauses = append(clauses, fuzzy)
	}
	text := bleve.NewDisjunctionQuery(clauses...)

	owner := bleve.NewTermQuery(ownerID)
	owner.SetField("owner_id")

	full := bleve.NewConjunctionQuery(owner, text)

	req := bleve.NewSearchRequestOptions(full, limit, 0, false)
	req.Fields = []string{"name"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if name, ok := h.Fields["name"].(string); ok {
			hit.Name = name
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Rebuild re-indexes a full set of contacts in batches. Called at
// startup after a mapping change.
func (s *ContactIndex) Rebuild(contacts []*domain.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const batchSize = 500
	for start := 0; start < len(contacts); start += batchSize {
		end := min(start+batchSize, len(contacts))

		batch := s.index.NewBatch()
		for _, c := range contacts[start:end] {
			if err := batch.Index(c.ID, map[string]any{
				"name":     c.Name,
				"email":    c.Email,
				"company":  c.Company,
				"owner_id": c.CreatedBy,
			}); err != nil {
				return fmt.Errorf("batch index contact %s: %w", c.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("apply index batch: %w", err)
		}
	}

	s.logger.Info("contact index rebuilt", "count", len(contacts))
	return nil
}
