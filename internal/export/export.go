// Package export writes a JSON snapshot of both item collections.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/natefinch/atomic"

	"github.com/erazemk/revival/internal/model"
	"github.com/erazemk/revival/internal/store"
)

// Source provides the records to export. *lifecycle.Manager implements it.
type Source interface {
	List(ctx context.Context) ([]model.Item, error)
	ListDeleted(ctx context.Context) ([]model.Item, error)
	Photo(ctx context.Context, c store.Collection, id int64) ([]byte, string, error)
}

// Record is one exported item. Photo is base64 encoded by encoding/json.
type Record struct {
	model.Item
	Photo []byte `json:"photo,omitempty"`
}

// Snapshot is the exported document.
type Snapshot struct {
	ExportedAt time.Time `json:"exported_at"`
	Items      []Record  `json:"items"`
	Deleted    []Record  `json:"deleted_items"`
}

// Build reads both collections, including photos.
func Build(ctx context.Context, src Source, now time.Time) (*Snapshot, error) {
	active, err := src.List(ctx)
	if err != nil {
		return nil, err
	}
	deleted, err := src.ListDeleted(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{ExportedAt: now.UTC()}
	if snap.Items, err = records(ctx, src, store.Active, active); err != nil {
		return nil, err
	}
	if snap.Deleted, err = records(ctx, src, store.Deleted, deleted); err != nil {
		return nil, err
	}
	return snap, nil
}

func records(ctx context.Context, src Source, c store.Collection, items []model.Item) ([]Record, error) {
	out := make([]Record, 0, len(items))
	for _, it := range items {
		rec := Record{Item: it}
		if it.HasPhoto() {
			data, _, err := src.Photo(ctx, c, it.ID)
			if err != nil {
				return nil, fmt.Errorf("reading photo of %s item %d: %w", c.Name(), it.ID, err)
			}
			rec.Photo = data
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteFile builds a snapshot and writes it to path atomically, so an
// interrupted export never leaves a truncated file behind.
func WriteFile(ctx context.Context, src Source, path string) (*Snapshot, error) {
	snap, err := Build(ctx, src, time.Now())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return snap, nil
}
