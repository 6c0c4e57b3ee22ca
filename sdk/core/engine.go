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
	"bytes"
	"encoding/binary"
	"math"

	"gonum.org/v1/gonum/mathext/prng"
)

const (
	// StateWords MT19937 內部狀態字數。
	StateWords = 624
	// EngineMin / EngineMax 為引擎單次輸出的值域（含端點）。
	EngineMin uint64 = 0
	EngineMax uint64 = math.MaxUint32

	// 二進位狀態長度：624 個 big-endian uint32 + 1 個 uint32 索引。
	engineBinaryLen = (StateWords + 1) * 4
)

// engine 包裝 gonum 的 MT19937，提供狀態字的讀寫。
//
// 所有上層演算法只經由 next 取值；只有序列化程式碼會碰 words / setWords。
type engine struct {
	src *prng.MT19937
}

// newEngine 以 seed 的低 32 位初始化（MT19937 的播種函式只吃 32-bit）。
func newEngine(seed uint64) *engine {
	src := prng.NewMT19937()
	src.Seed(uint64(uint32(seed)))
	return &engine{src: src}
}

func (e *engine) next() uint32 {
	return e.src.Uint32()
}

func (e *engine) marshal() []byte {
	// bytes.Buffer 寫入不會失敗
	b, _ := e.src.MarshalBinary()
	return b
}

// words 回傳 624 個狀態字與目前索引。
func (e *engine) words() ([]uint32, uint32) {
	b := e.marshal()
	ws := make([]uint32, StateWords)
	for i := range ws {
		ws[i] = binary.BigEndian.Uint32(b[i*4:])
	}
	return ws, binary.BigEndian.Uint32(b[StateWords*4:])
}

// setWords 直接覆寫狀態；呼叫端需先驗證 len(ws) == StateWords 且 index <= StateWords。
func (e *engine) setWords(ws []uint32, index uint32) error {
	b := make([]byte, 0, engineBinaryLen)
	for _, w := range ws {
		b = binary.BigEndian.AppendUint32(b, w)
	}
	b = binary.BigEndian.AppendUint32(b, index)
	return e.src.UnmarshalBinary(b)
}

func (e *engine) clone() *engine {
	cp := prng.NewMT19937()
	// 來源為同型別的合法狀態，不會失敗
	_ = cp.UnmarshalBinary(e.marshal())
	return &engine{src: cp}
}

func (e *engine) equal(o *engine) bool {
	return bytes.Equal(e.marshal(), o.marshal())
}
