// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// rendered is a cached response.
type rendered struct {
	body  []byte
	ctype string
	info  codeInfo
}

// renderCache is an LRU cache of rendered codes, safe for concurrent
// use.  A nil *renderCache caches nothing.
type renderCache struct {
	mu sync.Mutex
	c  *lru.Cache
}

func newRenderCache(n int) *renderCache {
	if n <= 0 {
		return nil
	}
	return &renderCache{c: lru.New(n)}
}

func (rc *renderCache) get(key string) (*rendered, bool) {
	if rc == nil {
		return nil, false
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	v, ok := rc.c.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*rendered), true
}

func (rc *renderCache) add(key string, r *rendered) {
	if rc == nil {
		return
	}
	rc.mu.Lock()
	rc.c.Add(key, r)
	rc.mu.Unlock()
}

func (rc *renderCache) len() int {
	if rc == nil {
		return 0
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.c.Len()
}
