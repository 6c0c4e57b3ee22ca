// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/mathext/prng"
)

// DebugSeed 為 debug 建置（-tags detranddebug）時預設 SeedSource 的固定 seed，
// 即 MT19937 的標準預設 seed。
const DebugSeed uint64 = 5489

// Seeder 產生自播種用的 seed；由宿主透過 SetSeeder 安裝。
type Seeder func() uint64

// SeedSource 為自播種產生器提供 seed，可被多個 goroutine 同時使用。
type SeedSource struct {
	mu   sync.Mutex
	rng  *prng.MT19937
	fn   Seeder
	base uint64
	log  atomic.Pointer[slog.Logger]
}

// NewSeedSource 建立以內部 MT19937（seed = base）產生 64-bit seed 的來源。
func NewSeedSource(base uint64) *SeedSource {
	rng := prng.NewMT19937()
	rng.Seed(base)
	return &SeedSource{rng: rng, base: base}
}

// NewSeedSourceFunc 建立由 fn 提供 seed 的來源；fn 會在鎖內被呼叫。
func NewSeedSourceFunc(fn Seeder) *SeedSource {
	return &SeedSource{fn: fn}
}

// SetLogger 設定自播種診斷紀錄使用的 logger；nil 代表使用 slog.Default()。
func (s *SeedSource) SetLogger(l *slog.Logger) {
	s.log.Store(l)
}

func (s *SeedSource) logger() *slog.Logger {
	if l := s.log.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// Next 取得下一個 seed。
func (s *SeedSource) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fn != nil {
		return s.fn()
	}
	return s.rng.Uint64()
}

// New 取得一個 seed 並建立產生器，同時記錄所選的 seed 以便重現。
func (s *SeedSource) New() *Core {
	seed := s.Next()
	s.logger().Info("self-seeded generator", slog.Uint64("seed", seed))
	return New(seed)
}

//---------------------------------------
// 行程層級預設來源
//---------------------------------------

var global struct {
	once    sync.Once
	mu      sync.Mutex
	started bool
	seeder  Seeder
	src     *SeedSource
}

// DefaultSeedSource 回傳行程預設的 SeedSource，第一次呼叫時才建立，之後不再改變。
//
// 若宿主先以 SetSeeder 安裝了 seeder 則使用之；否則 debug 建置以 DebugSeed、
// 一般建置以當下時間（奈秒）作為內部產生器的 base seed。
func DefaultSeedSource() *SeedSource {
	global.once.Do(func() {
		global.mu.Lock()
		defer global.mu.Unlock()
		global.started = true
		if global.seeder != nil {
			global.src = NewSeedSourceFunc(global.seeder)
			return
		}
		base := uint64(time.Now().UnixNano())
		if debugBuild {
			base = DebugSeed
		}
		global.src = NewSeedSource(base)
	})
	return global.src
}

// SetSeeder 安裝行程層級的 seeder，只能成功一次。
//
// 已安裝過，或預設來源已被使用過時，呼叫會被忽略並回傳 false。
func SetSeeder(fn Seeder) bool {
	if fn == nil {
		return false
	}
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.started || global.seeder != nil {
		return false
	}
	global.seeder = fn
	return true
}
