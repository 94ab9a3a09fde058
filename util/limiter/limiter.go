// Copyright 2023 The Cuber Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package limiter caps the number of catalog writes that may be in
// flight at once. catalog.System.SyncWrite acquires before proposing and
// releases once the proposal resolves, bounding how many goroutines can
// pile up waiting on the tablet's single raft group rather than letting
// an unbounded burst of callers queue proposals.
package limiter

import (
	"errors"
	"sync/atomic"
)

type Limiter interface {
	AcquireWrite() error
	ReleaseWrite()
}

type LimitConfig struct {
	WriteConcurrency int
}

type limiter struct {
	writeCountLimit *countLimit
}

func NewLimiter(cfg LimitConfig) Limiter {
	lim := &limiter{}
	if cfg.WriteConcurrency > 0 {
		lim.writeCountLimit = newCountLimit(cfg.WriteConcurrency)
	}
	return lim
}

func (lim *limiter) AcquireWrite() error {
	if lim.writeCountLimit != nil {
		return lim.writeCountLimit.Acquire()
	}
	return nil
}

func (lim *limiter) ReleaseWrite() {
	if lim.writeCountLimit != nil {
		lim.writeCountLimit.Release()
	}
}

const minusOne = ^uint32(0)

type countLimit struct {
	limit   uint32
	current uint32
}

func newCountLimit(n int) *countLimit {
	return &countLimit{limit: uint32(n)}
}

func (l *countLimit) Acquire() error {
	if atomic.AddUint32(&l.current, 1) > l.limit {
		atomic.AddUint32(&l.current, minusOne)
		return errors.New("limit exceeded")
	}
	return nil
}

func (l *countLimit) Release() {
	atomic.AddUint32(&l.current, minusOne)
}
