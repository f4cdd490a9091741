package box

import "github.com/google/uuid"

// SourceKey identifies a reference Source across filter chain setup calls.
// The original C++ filter_cache keyed its shared-digest cache on the
// data_source pointer's identity; Go gives no such guarantee for interface
// values backed by arbitrary types, so FilterEnv mints an explicit key
// instead of relying on reference identity.
type SourceKey uuid.UUID

// FilterEnv is threaded through every FilterBuilder.Setup/Teardown call. It
// lets filters that need to scan a reference source more than once (the
// xdelta filter, and any future filter that digests its input) share a
// single pass over that source rather than re-reading it per consumer.
type FilterEnv struct {
	keys  map[interface{}]SourceKey
	cache map[SourceKey]interface{}
}

// NewFilterEnv returns an empty shared environment. A fresh one should be
// created per archive write or read pass.
func NewFilterEnv() *FilterEnv {
	return &FilterEnv{
		keys:  make(map[interface{}]SourceKey),
		cache: make(map[SourceKey]interface{}),
	}
}

// Register mints (or returns the existing) SourceKey for src. Pass any
// stable handle the caller controls the lifetime of, e.g. the *Entry or
// *Stream that owns the source; src is looked up by that handle's identity,
// not by the Source value itself, since Source is frequently a fresh wrapper
// each time a chain is built.
func (e *FilterEnv) Register(handle interface{}) SourceKey {
	if k, ok := e.keys[handle]; ok {
		return k
	}
	k := SourceKey(uuid.New())
	e.keys[handle] = k
	return k
}

// Put stores a cached value (typically a precomputed digest or an
// already-materialized reference buffer) under key.
func (e *FilterEnv) Put(key SourceKey, value interface{}) {
	e.cache[key] = value
}

// Get retrieves a cached value previously stored with Put.
func (e *FilterEnv) Get(key SourceKey) (interface{}, bool) {
	v, ok := e.cache[key]
	return v, ok
}

// xdeltaReferenceHandle is the stable handle BindXDeltaReference and the
// xdelta filter decoder both register, so they resolve to the same key
// without either side needing to see the other's SourceKey directly.
const xdeltaReferenceHandle = "box: xdelta reference source"

// BindXDeltaReference makes ref available to the xdelta filter decoder when
// an archive containing xdelta-filtered streams is read. It must be called
// before Read if any stream or entry in the archive uses FilterXDelta.
func (e *FilterEnv) BindXDeltaReference(ref SeekableSource) {
	e.Put(e.Register(xdeltaReferenceHandle), ref)
}

// xdeltaReference looks up the reference source bound by BindXDeltaReference.
func (e *FilterEnv) xdeltaReference() (SeekableSource, bool) {
	v, ok := e.Get(e.Register(xdeltaReferenceHandle))
	if !ok {
		return nil, false
	}
	ref, ok := v.(SeekableSource)
	return ref, ok
}

// digestOf returns the cached DigestInfo for ref, if one was stored by an
// earlier putDigest call against the same reference identity (ref
// itself is the stable handle: every XDeltaFilterBuilder sharing a delta
// source passes the same ref value).
func (e *FilterEnv) digestOf(ref SeekableSource) (DigestInfo, bool) {
	v, ok := e.Get(e.Register(ref))
	if !ok {
		return DigestInfo{}, false
	}
	d, ok := v.(DigestInfo)
	return d, ok
}

// putDigest caches digest under ref's identity, so the next builder set up
// against the same reference source reuses it instead of re-scanning ref.
func (e *FilterEnv) putDigest(ref SeekableSource, digest DigestInfo) {
	e.Put(e.Register(ref), digest)
}
