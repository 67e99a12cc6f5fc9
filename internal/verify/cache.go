package verify

import (
	"encoding/json"
	"time"

	"github.com/mvickers/citecheck/internal/cache"
	"github.com/mvickers/citecheck/internal/model"
)

// RecordCache stores verification records keyed by citation string with a
// TTL. Only verified records are cached: a negative result may be a
// transient source failure, and caching it would pin the failure for the
// whole TTL.
type RecordCache struct {
	backend cache.Cache
	ttl     time.Duration
}

// NewRecordCache wraps a cache backend. A nil backend disables caching.
func NewRecordCache(backend cache.Cache, ttl time.Duration) *RecordCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RecordCache{backend: backend, ttl: ttl}
}

// Get returns the cached record for a citation, if present.
func (c *RecordCache) Get(citation string) (model.VerificationRecord, bool) {
	if c == nil || c.backend == nil {
		return model.VerificationRecord{}, false
	}

	data, ok := c.backend.Get(cache.Key("verify", citation))
	if !ok {
		return model.VerificationRecord{}, false
	}

	var rec model.VerificationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.VerificationRecord{}, false
	}
	return rec, true
}

// Set caches a record. Unverified records are dropped.
func (c *RecordCache) Set(rec model.VerificationRecord) {
	if c == nil || c.backend == nil || !rec.Verified {
		return
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	_ = c.backend.Set(cache.Key("verify", rec.Citation), data, c.ttl)
}
