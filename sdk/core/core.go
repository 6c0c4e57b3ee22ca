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

// Package core 提供可跨平台逐位元重現的亂數產生器。
//
// 相同 seed 與相同呼叫序列，在任何平台與版本上都必須產生完全相同的輸出，
// 這是正確性需求而非品質需求。所有取樣演算法（取模、浮點轉換、洗牌、抽樣）
// 都只建立在 NextWord 之上，並逐步定義，不依賴標準庫的分佈實作。
//
// 單一 Core 不具併發安全：一個擁有者一個實例。需要多工時，
// 請為每個 worker 派生獨立的 Core（見 detrand.Streams）。
package core

// Core 為決定性亂數產生器：seed、已消耗字數 steps 與 MT19937 引擎狀態。
type Core struct {
	seed  uint64
	steps uint64
	eng   *engine
	// detached 為 true 時，引擎狀態不再等於 New(seed) 前進 steps 步
	// （由完整狀態紀錄還原），精簡格式無法重現它。
	detached bool
}

// New 以 seed 建立產生器。seed 0 為合法值。
//
// 引擎只使用 seed 的低 32 位；完整的 64-bit seed 仍會保存並由 Seed 回報。
func New(seed uint64) *Core {
	return &Core{seed: seed, eng: newEngine(seed)}
}

// NewSelfSeeded 由行程預設的 SeedSource 取得 seed 並建立產生器，seed 會被記錄到 log。
func NewSelfSeeded() *Core {
	return DefaultSeedSource().New()
}

// NextWord 推進引擎一步並回傳 32-bit 輸出，steps 加一。
func (c *Core) NextWord() uint32 {
	c.steps++
	return c.eng.next()
}

// Seed 回傳建構時的 seed。
func (c *Core) Seed() uint64 { return c.seed }

// Steps 回傳自建構（或還原）以來消耗的字數。
func (c *Core) Steps() uint64 { return c.steps }

// Discard 丟棄 n 個字，等同呼叫 n 次 NextWord。
func (c *Core) Discard(n uint64) {
	for ; n > 0; n-- {
		c.NextWord()
	}
}

// Replayable 回報 seed 與 steps 是否足以重播出目前的引擎狀態。
// 由完整狀態紀錄還原的產生器為 false，之後無法以精簡格式保存。
func (c *Core) Replayable() bool { return !c.detached }

// Equal 比對 seed、steps 與實際引擎狀態；三者皆同才相等。
//
// 完整狀態紀錄不含 steps，還原後 steps 歸零，因此與原產生器（steps 非零時）不相等，
// 但後續輸出相同；以同一筆紀錄還原的兩個產生器彼此相等。
func (c *Core) Equal(o *Core) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	return c.seed == o.seed && c.steps == o.steps && c.eng.equal(o.eng)
}

// Clone 回傳深拷貝；兩者之後各自獨立推進。
func (c *Core) Clone() *Core {
	return &Core{seed: c.seed, steps: c.steps, eng: c.eng.clone(), detached: c.detached}
}
