package services

import (
	"log/slog"
	"sync"

	"github.com/manthysbr/modelpilot/internal/core/domain"
)

// catalogEntry guards the one mutable field of a resource, its availability status.
type catalogEntry struct {
	mu  sync.RWMutex
	res domain.Resource
}

func (e *catalogEntry) snapshot() domain.Resource {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.res.Clone()
}

// Catalog is the registry of resource descriptors. It is read-mostly after load:
// the map and order are guarded by mu, and each entry's status by its own lock
// so that availability updates never block scoring of other resources.
type Catalog struct {
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[domain.ResourceID]*catalogEntry
	order   []domain.ResourceID
}

// NewCatalog creates an empty catalog.
func NewCatalog(logger *slog.Logger) *Catalog {
	return &Catalog{
		logger:  logger,
		entries: make(map[domain.ResourceID]*catalogEntry),
	}
}

// Load adds descriptors to the catalog. A later descriptor with an id already
// present overwrites the earlier one but keeps its position.
func (c *Catalog) Load(resources []domain.Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(resources)
	c.logger.Info("resource catalog loaded", "count", len(c.order))
}

// Replace swaps the whole catalog for the given descriptors (config hot reload).
func (c *Catalog) Replace(resources []domain.Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[domain.ResourceID]*catalogEntry, len(resources))
	c.order = nil
	c.loadLocked(resources)
	c.logger.Info("resource catalog replaced", "count", len(c.order))
}

func (c *Catalog) loadLocked(resources []domain.Resource) {
	for _, r := range resources {
		if r.ID == "" {
			c.logger.Warn("skipping resource descriptor without id", "name", r.Name)
			continue
		}
		if entry, ok := c.entries[r.ID]; ok {
			entry.mu.Lock()
			entry.res = r.Clone()
			entry.mu.Unlock()
			continue
		}
		c.entries[r.ID] = &catalogEntry{res: r.Clone()}
		c.order = append(c.order, r.ID)
	}
}

// Get returns a copy of the resource, or false if the id is unknown.
func (c *Catalog) Get(id domain.ResourceID) (domain.Resource, bool) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return domain.Resource{}, false
	}
	return entry.snapshot(), true
}

// All returns copies of every resource in catalog order.
func (c *Catalog) All() []domain.Resource {
	c.mu.RLock()
	entries := make([]*catalogEntry, 0, len(c.order))
	for _, id := range c.order {
		entries = append(entries, c.entries[id])
	}
	c.mu.RUnlock()

	out := make([]domain.Resource, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.snapshot())
	}
	return out
}

// View runs fn on a copy of the resource while holding its status lock, so
// SetAvailability cannot change the status until fn returns. Returns false for
// unknown ids.
func (c *Catalog) View(id domain.ResourceID, fn func(res domain.Resource)) bool {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	fn(entry.res.Clone())
	return true
}

// Len returns the number of resources.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// SetAvailability updates a resource's status. Returns false for unknown ids
// and unknown statuses.
func (c *Catalog) SetAvailability(id domain.ResourceID, status domain.AvailabilityStatus) bool {
	if !status.Valid() {
		return false
	}
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return false
	}

	entry.mu.Lock()
	prev := entry.res.Availability.Status
	entry.res.Availability.Status = status
	entry.mu.Unlock()

	if prev != status {
		c.logger.Info("resource availability changed", "resource_id", id, "from", prev, "to", status)
	}
	return true
}
