package verify

import (
	"testing"
	"time"

	"github.com/mvickers/citecheck/internal/cache"
	"github.com/mvickers/citecheck/internal/model"
)

func TestRecordCache_RoundTrip(t *testing.T) {
	c := NewRecordCache(cache.NewMemoryCache(time.Hour, 0), time.Hour)

	rec := model.VerificationRecord{
		Citation:      "347 U.S. 483",
		Verified:      true,
		CanonicalName: "Brown v. Board of Education",
		CanonicalDate: "1954-05-17",
		Source:        "citation_lookup",
	}
	c.Set(rec)

	got, ok := c.Get("347 U.S. 483")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.CanonicalName != rec.CanonicalName || !got.Verified {
		t.Errorf("got %+v", got)
	}
}

func TestRecordCache_DropsUnverified(t *testing.T) {
	c := NewRecordCache(cache.NewMemoryCache(time.Hour, 0), time.Hour)

	c.Set(model.VerificationRecord{Citation: "999 U.S. 999", Verified: false, Error: "not found"})

	if _, ok := c.Get("999 U.S. 999"); ok {
		t.Error("unverified record should not be cached")
	}
}

func TestRecordCache_NilBackend(t *testing.T) {
	var c *RecordCache
	c.Set(model.VerificationRecord{Citation: "347 U.S. 483", Verified: true})
	if _, ok := c.Get("347 U.S. 483"); ok {
		t.Error("nil cache should always miss")
	}
}
