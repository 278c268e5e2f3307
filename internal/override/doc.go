// Package override tracks which checks a user has ignored for a post or
// taxonomy term and keeps that list in sync with a backend.
//
// The store only ever exposes server-confirmed lists. While an ignore or
// restore call is in flight the (entity, check) pair is marked pending,
// which rejects duplicate submissions but never changes what is rendered.
// The first read of an entity fetches its list; concurrent first reads
// share one request.
package override
