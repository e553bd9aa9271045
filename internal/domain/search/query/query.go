// Package query holds the validated per-request search descriptor.
package query

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/facedex/internal/domain"
	"github.com/kailas-cloud/facedex/internal/domain/search/filter"
	"github.com/kailas-cloud/facedex/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 1024
	DefaultK       = 10
	MaxK           = 50
)

// Query is a validated search descriptor. Construct via NewText or NewEntity.
type Query struct {
	queryMode mode.Mode
	text      string
	entityID  string
	filters   filter.Filter
	k         int
}

// NewText validates and normalizes a free-text query.
// k <= 0 is rejected; k above MaxK is clamped, not rejected.
func NewText(text string, filters filter.Filter, k int) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("%w: query text is required", domain.ErrInvalidQuery)
	}
	if len(text) > MaxQueryLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	k, err := clampK(k)
	if err != nil {
		return Query{}, err
	}
	return Query{queryMode: mode.Text, text: text, filters: filters, k: k}, nil
}

// NewEntity validates an entity-to-entity query. The id is resolved
// against the corpus later; only shape is checked here.
func NewEntity(entityID string, filters filter.Filter, k int) (Query, error) {
	if entityID == "" {
		return Query{}, fmt.Errorf("%w: entity id is required", domain.ErrInvalidQuery)
	}
	k, err := clampK(k)
	if err != nil {
		return Query{}, err
	}
	return Query{queryMode: mode.Entity, entityID: entityID, filters: filters, k: k}, nil
}

func clampK(k int) (int, error) {
	if k <= 0 {
		return 0, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidQuery, k)
	}
	if k > MaxK {
		k = MaxK
	}
	return k, nil
}

// Mode returns the query mode.
func (q *Query) Mode() mode.Mode { return q.queryMode }

// Text returns the trimmed query text (text mode only).
func (q *Query) Text() string { return q.text }

// EntityID returns the source entity id (entity mode only).
func (q *Query) EntityID() string { return q.entityID }

// Filters returns the categorical pre-filter.
func (q *Query) Filters() filter.Filter { return q.filters }

// K returns the requested result count, clamped to [1, MaxK].
func (q *Query) K() int { return q.k }

// NormalizedText returns the case- and whitespace-normalized query text.
// Trivially different but semantically identical queries normalize equal.
func (q *Query) NormalizedText() string {
	return strings.Join(strings.Fields(strings.ToLower(q.text)), " ")
}

// CacheKey returns a deterministic key covering mode, normalized
// text or entity id, filters, and k.
func (q *Query) CacheKey() string {
	subject := q.entityID
	if q.queryMode == mode.Text {
		subject = q.NormalizedText()
	}
	raw := string(q.queryMode) + "|" + subject + "|k=" + strconv.Itoa(q.k) + "|" + q.filters.Canonical()
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
