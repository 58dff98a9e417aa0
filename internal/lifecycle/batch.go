package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/erazemk/revival/internal/model"
	"github.com/erazemk/revival/internal/store"
)

// Decider is asked whether a restored item may replace the active item that
// already has its name and category. Returning false skips the item.
type Decider func(restoring, existing model.Item) bool

// ReplaceAlways accepts every replacement.
func ReplaceAlways(model.Item, model.Item) bool { return true }

// ReplaceNever declines every replacement.
func ReplaceNever(model.Item, model.Item) bool { return false }

// Failure records why one item of a batch was not processed.
type Failure struct {
	ID  int64
	Err error
}

// BatchResult reports the outcome of a multi-item operation. Each item is
// processed atomically; the batch as a whole is not.
type BatchResult struct {
	// Done holds the processed items as stored after the operation (with
	// their new IDs) or, for purges, as they were before removal.
	Done []model.Item
	// Skipped holds deleted items whose restore was declined.
	Skipped []model.Item
	// Missing holds selected IDs that no longer exist.
	Missing []int64
	Failed  []Failure
}

// Err joins the failures of the batch, or returns nil.
func (r BatchResult) Err() error {
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = fmt.Errorf("item %d: %w", f.ID, f.Err)
	}
	return errors.Join(errs...)
}

func (m *Manager) batchLogger(action string) *slog.Logger {
	return m.logger().With("op", uuid.NewString(), "action", action)
}

// Delete moves the selected active items to the recycle bin. Nothing happens
// unless confirmed is true.
func (m *Manager) Delete(ctx context.Context, ids []int64, confirmed bool) (BatchResult, error) {
	var res BatchResult
	log := m.batchLogger("delete")
	if !confirmed {
		log.Info("delete not confirmed", "selected", len(ids))
		return res, nil
	}

	for _, id := range ids {
		var moved *model.Item
		err := store.InTx(ctx, m.DB, func(tx *sql.Tx) error {
			newID, err := store.MoveItem(ctx, tx, store.Active, store.Deleted, id)
			if err != nil || newID == 0 {
				return err
			}
			moved, err = store.GetItem(ctx, tx, store.Deleted, newID)
			return err
		})
		switch {
		case err != nil:
			res.Failed = append(res.Failed, Failure{ID: id, Err: m.fail("deleting item", err, ErrDuplicate)})
		case moved == nil:
			res.Missing = append(res.Missing, id)
		default:
			log.Info("item moved to recycle bin", "id", id, "deleted_id", moved.ID, "name", moved.Name)
			res.Done = append(res.Done, *moved)
		}
	}

	log.Info("delete finished", "moved", len(res.Done), "missing", len(res.Missing), "failed", len(res.Failed))
	return res, res.Err()
}

// Restore moves the selected items from the recycle bin back to the active
// collection. When an active item already has the same name and category,
// decide chooses between replacing it and skipping the restore. A nil decide
// never replaces.
func (m *Manager) Restore(ctx context.Context, ids []int64, decide Decider) (BatchResult, error) {
	var res BatchResult
	log := m.batchLogger("restore")
	if decide == nil {
		decide = ReplaceNever
	}

	for _, id := range ids {
		restored, skipped, err := m.restoreOne(ctx, id, decide)
		switch {
		case err != nil:
			res.Failed = append(res.Failed, Failure{ID: id, Err: m.fail("restoring item", err, ErrDuplicate)})
		case skipped != nil:
			log.Info("restore skipped", "deleted_id", id, "name", skipped.Name, "category", skipped.Category)
			res.Skipped = append(res.Skipped, *skipped)
		case restored == nil:
			res.Missing = append(res.Missing, id)
		default:
			log.Info("item restored", "deleted_id", id, "id", restored.ID, "name", restored.Name)
			res.Done = append(res.Done, *restored)
		}
	}

	log.Info("restore finished", "restored", len(res.Done), "skipped", len(res.Skipped),
		"missing", len(res.Missing), "failed", len(res.Failed))
	return res, res.Err()
}

// errRestoreGone aborts a restore whose deleted item vanished after the
// replace decision.
var errRestoreGone = errors.New("deleted item no longer exists")

// restoreOne restores a single deleted item. The decision is taken before the
// transaction starts so that no transaction is held while the caller asks
// the user.
func (m *Manager) restoreOne(ctx context.Context, id int64, decide Decider) (restored, skipped *model.Item, err error) {
	deleted, err := store.GetItem(ctx, m.DB, store.Deleted, id)
	if err != nil || deleted == nil {
		return nil, nil, err
	}

	existing, err := store.FindItem(ctx, m.DB, deleted.Key())
	if err != nil {
		return nil, nil, err
	}
	if existing != nil && !decide(*deleted, *existing) {
		return nil, deleted, nil
	}

	err = store.InTx(ctx, m.DB, func(tx *sql.Tx) error {
		if existing != nil {
			if _, err := store.DeleteItem(ctx, tx, store.Active, existing.ID); err != nil {
				return err
			}
		}

		newID, err := store.MoveItem(ctx, tx, store.Deleted, store.Active, id)
		if err != nil {
			return err
		}
		if newID == 0 {
			// Purged while the decision was pending. Roll back so the
			// replaced item stays.
			return errRestoreGone
		}
		restored, err = store.GetItem(ctx, tx, store.Active, newID)
		return err
	})
	if errors.Is(err, errRestoreGone) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if existing != nil && restored != nil {
		m.logger().Info("active item replaced", "replaced_id", existing.ID, "id", restored.ID)
	}
	return restored, nil, nil
}

// Purge removes the selected items from the recycle bin permanently. Nothing
// happens unless confirmed is true.
func (m *Manager) Purge(ctx context.Context, ids []int64, confirmed bool) (BatchResult, error) {
	var res BatchResult
	log := m.batchLogger("purge")
	if !confirmed {
		log.Info("purge not confirmed", "selected", len(ids))
		return res, nil
	}

	for _, id := range ids {
		var purged *model.Item
		err := store.InTx(ctx, m.DB, func(tx *sql.Tx) error {
			var err error
			purged, err = store.GetItem(ctx, tx, store.Deleted, id)
			if err != nil || purged == nil {
				return err
			}
			_, err = store.DeleteItem(ctx, tx, store.Deleted, id)
			return err
		})
		switch {
		case err != nil:
			res.Failed = append(res.Failed, Failure{ID: id, Err: m.fail("purging item", err, ErrDuplicate)})
		case purged == nil:
			res.Missing = append(res.Missing, id)
		default:
			log.Info("item purged", "deleted_id", id, "name", purged.Name)
			res.Done = append(res.Done, *purged)
		}
	}

	log.Info("purge finished", "purged", len(res.Done), "missing", len(res.Missing), "failed", len(res.Failed))
	return res, res.Err()
}

// EmptyBin purges every item in the recycle bin and returns how many were
// removed. Nothing happens unless confirmed is true.
func (m *Manager) EmptyBin(ctx context.Context, confirmed bool) (int64, error) {
	if !confirmed {
		return 0, nil
	}

	n, err := store.DeleteAllItems(ctx, m.DB, store.Deleted)
	if err != nil {
		return 0, m.fail("emptying recycle bin", err, ErrDuplicate)
	}

	m.logger().Info("recycle bin emptied", "purged", n)
	return n, nil
}
