package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHashRequest(t *testing.T) {
	body := []byte(`{"amount":"50000"}`)

	h1 := HashRequest(body)
	h2 := HashRequest(body)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	// Any byte change produces a different fingerprint
	h3 := HashRequest([]byte(`{"amount":"50001"}`))
	assert.NotEqual(t, h1, h3)
}

func TestIdempotencyRecord_Expired(t *testing.T) {
	now := time.Now().UTC()
	rec := &IdempotencyRecord{ExpiresAt: now.Add(time.Hour)}

	assert.False(t, rec.Expired(now))
	assert.True(t, rec.Expired(now.Add(2*time.Hour)))
}

func TestBuildIdempotencyCacheKey(t *testing.T) {
	assert.Equal(t, "transfer:abc", BuildIdempotencyCacheKey(ScopeTransfer, "abc"))
	assert.Equal(t, "internal-transfer:abc", BuildIdempotencyCacheKey(ScopeInternalTransfer, "abc"))
}
