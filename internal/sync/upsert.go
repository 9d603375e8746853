// Package sync merges freshly scraped records into the persistent
// store. The merge never clobbers manually curated data: protected and
// system fields are skipped, and a null never replaces a non-null.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"

	"github.com/roastlens/roastlens/internal/price"
	"github.com/roastlens/roastlens/internal/store"
	"github.com/roastlens/roastlens/internal/types"
)

// systemFields are never written by the scraper regardless of the
// caller's protected list.
var systemFields = map[string]struct{}{
	"created_at":  {},
	"updated_at":  {},
	"is_verified": {},
}

// Engine performs smart upserts against a Store.
type Engine struct {
	store  store.Store
	logger *slog.Logger
}

func New(st store.Store, logger *slog.Logger) *Engine {
	return &Engine{store: st, logger: logger.With("component", "sync")}
}

// Upsert merges doc into collection. A doc without an id inserts; a doc
// whose id no longer exists falls back to insert; otherwise only the
// computed merge set is written, and an empty merge set writes nothing.
// The returned record reflects the persisted state.
func (e *Engine) Upsert(ctx context.Context, collection string, doc store.Record, protectedFields []string) (store.Record, error) {
	id, _ := doc["id"].(string)
	if id == "" {
		return e.insert(ctx, collection, doc)
	}

	existing, err := e.store.Get(ctx, collection, id)
	if errors.Is(err, types.ErrNotFound) {
		e.logger.Warn("record id not found, inserting as new", "collection", collection, "id", id)
		return e.insert(ctx, collection, doc)
	}
	if err != nil {
		return nil, &types.SyncError{Entity: collection, Key: id, Err: err}
	}

	updates := mergeSet(existing, doc, protectedFields)
	if len(updates) == 0 {
		e.logger.Debug("no changes detected", "collection", collection, "id", id)
		return existing, nil
	}

	if err := e.store.Update(ctx, collection, id, updates); err != nil {
		return nil, &types.SyncError{Entity: collection, Key: id, Err: err}
	}
	e.logger.Info("record updated",
		"collection", collection, "id", id, "fields", len(updates))

	merged := make(store.Record, len(existing)+len(updates))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged, nil
}

func (e *Engine) insert(ctx context.Context, collection string, doc store.Record) (store.Record, error) {
	rec := make(store.Record, len(doc))
	for k, v := range doc {
		// Null identifier and null fields are dropped so the store
		// assigns defaults.
		if k == "id" || v == nil {
			continue
		}
		rec[k] = v
	}

	id, err := e.store.Insert(ctx, collection, rec)
	if err != nil {
		return nil, &types.SyncError{Entity: collection, Err: err}
	}
	rec["id"] = id
	e.logger.Info("record inserted", "collection", collection, "id", id)
	return rec, nil
}

// mergeSet computes the fields that actually need writing.
func mergeSet(existing, doc store.Record, protectedFields []string) store.Record {
	protected := make(map[string]struct{}, len(protectedFields)+len(systemFields))
	for _, f := range protectedFields {
		protected[f] = struct{}{}
	}
	for f := range systemFields {
		protected[f] = struct{}{}
	}

	updates := make(store.Record)
	for key, newValue := range doc {
		if key == "id" {
			continue
		}
		if _, skip := protected[key]; skip {
			continue
		}

		existingValue, present := existing[key]
		if !present {
			updates[key] = newValue
			continue
		}
		// Never regress non-null to null.
		if newValue == nil && existingValue != nil {
			continue
		}
		if equalValue(existingValue, newValue) {
			continue
		}
		updates[key] = newValue
	}
	return updates
}

// equalValue compares across the type drift a store round-trip
// introduces: mongo hands back int32/int64 for ints and primitive.A
// for slices. Values that marshal to the same JSON are the same value.
func equalValue(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

// findExisting returns the id of the first record matching any of the
// given field/value pairs, tried in order. Lookup failures resolve to
// "not found" so the caller falls through to insert.
func (e *Engine) findExisting(ctx context.Context, collection string, pairs [][2]any, match func(store.Record) bool) string {
	for _, p := range pairs {
		field, _ := p[0].(string)
		if field == "" || p[1] == "" {
			continue
		}
		recs, err := e.store.ListByField(ctx, collection, field, p[1])
		if err != nil {
			e.logger.Warn("existing record lookup failed",
				"collection", collection, "field", field, "error", err)
			continue
		}
		for _, rec := range recs {
			if match != nil && !match(rec) {
				continue
			}
			if id, _ := rec["id"].(string); id != "" {
				return id
			}
		}
	}
	return ""
}

// UpsertMerchant syncs a roaster record and returns its id. A record
// without an id is matched against the store by name, then by slug, so
// repeated runs update the same roaster instead of inserting twins.
func (e *Engine) UpsertMerchant(ctx context.Context, m *types.MerchantRecord) (string, error) {
	if m.ID == "" {
		m.ID = e.findExisting(ctx, store.Merchants, [][2]any{
			{"name", m.Name},
			{"slug", m.Slug},
		}, nil)
	}
	doc := m.Document()
	if m.ID != "" {
		doc["id"] = m.ID
	}

	rec, err := e.Upsert(ctx, store.Merchants, doc, nil)
	if err != nil {
		return "", err
	}
	id, _ := rec["id"].(string)
	m.ID = id
	return id, nil
}

// UpsertProduct syncs a product and its scraper-owned child records.
// Children (prices, flavor links, brew links, external links) are not
// merged: existing rows are deleted and the fresh set reinserted.
func (e *Engine) UpsertProduct(ctx context.Context, c *types.ProductCandidate) (string, error) {
	if c.ID == "" {
		c.ID = e.findExisting(ctx, store.Products, [][2]any{
			{"slug", c.Slug},
		}, func(rec store.Record) bool {
			mid, _ := rec["merchant_id"].(string)
			return mid == c.MerchantID
		})
	}
	doc := c.Document()
	if c.ID != "" {
		doc["id"] = c.ID
	}

	rec, err := e.Upsert(ctx, store.Products, doc, []string{"is_featured"})
	if err != nil {
		return "", err
	}
	id, _ := rec["id"].(string)
	c.ID = id

	e.replacePrices(ctx, c)
	e.replaceLinks(ctx, store.FlavorLinks, "flavor", id, c.FlavorProfiles)
	e.replaceLinks(ctx, store.BrewLinks, "method", id, c.BrewMethods)
	e.replaceExternalLinks(ctx, c)
	return id, nil
}

// Child record failures are logged, not fatal: the parent record is
// already consistent and the next run rebuilds children anyway.
func (e *Engine) replacePrices(ctx context.Context, c *types.ProductCandidate) {
	if len(c.Prices) == 0 {
		return
	}
	if err := e.store.DeleteWhere(ctx, store.ProductPrices, "coffee_id", c.ID); err != nil {
		e.logger.Warn("clearing product prices failed", "id", c.ID, "error", err)
		return
	}
	for grams, p := range c.Prices {
		rec := store.Record{
			"coffee_id":  c.ID,
			"size_grams": grams,
			"price":      p,
			"confidence": c.Conf(price.FieldName(grams)),
		}
		if _, err := e.store.Insert(ctx, store.ProductPrices, rec); err != nil {
			e.logger.Warn("inserting product price failed",
				"id", c.ID, "grams", grams, "error", err)
		}
	}
}

func (e *Engine) replaceLinks(ctx context.Context, collection, field, id string, values []string) {
	if len(values) == 0 {
		return
	}
	if err := e.store.DeleteWhere(ctx, collection, "coffee_id", id); err != nil {
		e.logger.Warn("clearing links failed", "collection", collection, "id", id, "error", err)
		return
	}
	for _, v := range values {
		rec := store.Record{"coffee_id": id, field: v}
		if _, err := e.store.Insert(ctx, collection, rec); err != nil {
			e.logger.Warn("inserting link failed",
				"collection", collection, "id", id, "value", v, "error", err)
		}
	}
}

func (e *Engine) replaceExternalLinks(ctx context.Context, c *types.ProductCandidate) {
	if c.SourceURL == "" {
		return
	}
	if err := e.store.DeleteWhere(ctx, store.ExternalLinks, "coffee_id", c.ID); err != nil {
		e.logger.Warn("clearing external links failed", "id", c.ID, "error", err)
		return
	}
	rec := store.Record{"coffee_id": c.ID, "provider": "store", "url": c.SourceURL}
	if _, err := e.store.Insert(ctx, store.ExternalLinks, rec); err != nil {
		e.logger.Warn("inserting external link failed", "id", c.ID, "error", err)
	}
}
