// Package store keeps scanned trees so the HTTP server can serve and lay
// them out later.
//
// Two backends implement [Store]:
//   - [FileStore]: one JSON file per tree, for single-instance deployments
//   - [MongoStore]: a MongoDB collection, for shared deployments
//
// Trees are stored as [tree.Document] values. Put assigns a UUID when the
// document has no ID yet.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/gitscroll/pkg/tree"
)

// Store persists tree documents.
type Store interface {
	// Put saves doc and returns its ID. An empty doc.ID is replaced by a new
	// UUID; an existing ID overwrites the stored document.
	Put(ctx context.Context, doc tree.Document) (string, error)

	// Get returns the document with the given ID, or an error with code
	// TREE_NOT_FOUND.
	Get(ctx context.Context, id string) (tree.Document, error)

	// List returns summaries of all documents, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a document. Deleting a missing ID is an error with
	// code TREE_NOT_FOUND.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// Summary describes a stored tree without its nodes.
type Summary struct {
	ID        string      `json:"id" bson:"_id"`
	Source    string      `json:"source,omitempty" bson:"source,omitempty"`
	ScannedAt time.Time   `json:"scanned_at,omitempty" bson:"scanned_at,omitempty"`
	Stats     *tree.Stats `json:"stats,omitempty" bson:"stats,omitempty"`
}

func summarize(doc tree.Document) Summary {
	return Summary{ID: doc.ID, Source: doc.Source, ScannedAt: doc.ScannedAt, Stats: doc.Stats}
}

// prepare fills in the ID and scan time of a document about to be stored.
func prepare(doc *tree.Document) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.ScannedAt.IsZero() {
		doc.ScannedAt = time.Now().UTC()
	}
}

// ValidID reports whether id looks like an ID Put could have assigned.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
