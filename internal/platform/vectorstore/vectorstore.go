package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CollectionKey scopes every vector operation to a single tenant and
// project. There is deliberately no way to build a query that spans
// tenants: adapters receive the key, not raw namespace strings.
type CollectionKey struct {
	TenantID  uuid.UUID
	ProjectID uuid.UUID
}

func (k CollectionKey) Namespace() string {
	return fmt.Sprintf("tenant:%s:project:%s", k.TenantID, k.ProjectID)
}

func (k CollectionKey) Valid() bool {
	return k.TenantID != uuid.Nil && k.ProjectID != uuid.Nil
}

// Vector is one embedded chunk headed for the store.
type Vector struct {
	ID       string
	Values   []float32
	Text     string
	Metadata map[string]any
}

// Match is a ranked query result. Distance follows the convention of the
// answering engine: 0 is identical, larger is less similar.
type Match struct {
	ID       string
	Text     string
	Metadata map[string]any
	Distance float64
}

// Store is the vector store adapter contract. Filters use the mongo-ish
// operator map dialect ($and/$or/$not/$eq/$ne/$in) translated by each
// adapter.
type Store interface {
	Upsert(ctx context.Context, key CollectionKey, vectors []Vector) error
	Query(ctx context.Context, key CollectionKey, embedding []float32, topK int, filter map[string]any) ([]Match, error)
	DeleteByFilter(ctx context.Context, key CollectionKey, filter map[string]any) error
}
