package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// IdempotencyScope namespaces caller-supplied keys per mutating operation.
type IdempotencyScope string

const (
	ScopeTransfer         IdempotencyScope = "transfer"
	ScopeInternalTransfer IdempotencyScope = "internal-transfer"
)

// IdempotencyStatus is the lifecycle of an idempotency record.
type IdempotencyStatus string

const (
	IdempotencyInProgress IdempotencyStatus = "IN_PROGRESS"
	IdempotencyCompleted  IdempotencyStatus = "COMPLETED"
	IdempotencyFailed     IdempotencyStatus = "FAILED"
)

// IdempotencyRecord guards at-most-one successful execution per (scope, key).
// A retry with the same key and body gets the stored response; a retry with a
// different body is a conflict.
type IdempotencyRecord struct {
	Scope          IdempotencyScope  `json:"scope"`
	Key            string            `json:"key"`
	RequestHash    string            `json:"request_hash"`
	Status         IdempotencyStatus `json:"status"`
	ResponseStatus int               `json:"response_status"`
	ResponseBody   []byte            `json:"response_body,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	ExpiresAt      time.Time         `json:"expires_at"`
}

// Expired reports whether the record has passed its retention window.
func (r *IdempotencyRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// HashRequest fingerprints a request body for idempotency comparison.
func HashRequest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// BuildIdempotencyCacheKey constructs the redis fast-path cache key.
func BuildIdempotencyCacheKey(scope IdempotencyScope, key string) string {
	return string(scope) + ":" + key
}
