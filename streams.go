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

// Package detrand 在 sdk/core 之上提供多工使用的組裝層：
// 由單一 base seed 派生每個 worker 的獨立產生器（Streams），
// 以及平行的均勻性稽核（Auditor）。
//
// 單一 core.Core 不具併發安全；這裡的做法是「一個 worker 一個 Core」，
// 不在產生器上加鎖。
package detrand

import (
	"sync/atomic"

	"github.com/zintix-labs/detrand/errs"
	"github.com/zintix-labs/detrand/sdk/core"
)

// Streams 為由同一個 base seed 決定性派生的一組產生器。
//
// 第 i 個產生器的 seed 只取決於 base 與 i，因此相同 base 與數量永遠得到相同的一組 Streams。
// 各 seed 的低 32 位（引擎實際使用的部分）互不相同，所以任兩條序列都不會重複。
type Streams struct {
	base  uint64
	cores []*core.Core
}

// NewStreams 派生 n 個產生器。
func NewStreams(base uint64, n int) (*Streams, error) {
	if n <= 0 {
		return nil, errs.Invalidf("streams: count must be > 0, got %d", n)
	}
	seeds := deriveSeeds(base, n)
	s := &Streams{base: base, cores: make([]*core.Core, n)}
	for i, seed := range seeds {
		s.cores[i] = core.New(seed)
	}
	return s, nil
}

// RestoreStreams 以 Checkpoint 的結果重建 Streams。
// 每個 checkpoint 的 seed 必須與 base 的派生結果一致，否則回傳 CorruptState。
func RestoreStreams(base uint64, cps []core.Compact) (*Streams, error) {
	if len(cps) == 0 {
		return nil, errs.Corruptf("streams: empty checkpoint")
	}
	seeds := deriveSeeds(base, len(cps))
	s := &Streams{base: base, cores: make([]*core.Core, len(cps))}
	for i, cp := range cps {
		if cp.Seed != seeds[i] {
			return nil, errs.Corruptf("streams: checkpoint %d seed %d does not derive from base %d", i, cp.Seed, base)
		}
		s.cores[i] = cp.Restore()
	}
	return s, nil
}

func (s *Streams) Base() uint64 { return s.base }

func (s *Streams) Len() int { return len(s.cores) }

// At 回傳第 i 個產生器；同一個產生器同時只能由一個 goroutine 使用。
func (s *Streams) At(i int) *core.Core { return s.cores[i] }

// Checkpoint 回傳每個產生器目前的精簡狀態。
func (s *Streams) Checkpoint() []core.Compact {
	out := make([]core.Compact, len(s.cores))
	for i, c := range s.cores {
		out[i] = c.Compact()
	}
	return out
}

func deriveSeeds(base uint64, n int) []uint64 {
	return distinctLow32(newSeedMaker(base).next, n)
}

// distinctLow32 取 n 個低 32 位互不相同的 seed：引擎只吃低 32 位，
// 低位相同的兩個 seed 會產生完全相同的序列，因此碰撞的候選值直接略過。
func distinctLow32(next func() uint64, n int) []uint64 {
	out := make([]uint64, 0, n)
	seen := make(map[uint32]struct{}, n)
	for len(out) < n {
		v := next()
		if _, dup := seen[uint32(v)]; dup {
			continue
		}
		seen[uint32(v)] = struct{}{}
		out = append(out, v)
	}
	return out
}

const mask63 = uint64(1<<63) - 1

// seedMaker 以 mod 2^63 的全週期 LCG 推進，再經可逆 mix63 打散成子 seed。
type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed uint64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(seed & mask63)
	return s
}

// next 可被多個 goroutine 同時呼叫：以 CAS 迴圈保證每次取得唯一的下一個 state。
func (s *seedMaker) next() uint64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63
		if s.state.CompareAndSwap(old, next) {
			return mix63(next)
		}
	}
}

// mix63：只用可逆的 bit 操作與乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
