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
	"math"

	"github.com/zintix-labs/detrand/errs"
)

// 2^32，Float64 的除數。
const wordSpan = 1 << 32

// UniformU32 回傳 NextWord() % max。
//
// 取模有偏差（max 不整除 2^32 時小值機率略高），這是刻意保留的可重現行為，
// 不可改成拒絕採樣。max == 0 回傳 InvalidArgument 且不消耗任何字。
func (c *Core) UniformU32(max uint32) (uint32, error) {
	if max == 0 {
		return 0, errs.Invalidf("uniform_u32: max must be > 0")
	}
	return c.NextWord() % max, nil
}

// uniform 為內部使用的 UniformU32，呼叫端保證 max > 0。
func (c *Core) uniform(max uint32) uint32 {
	return c.NextWord() % max
}

// Float64 回傳 [0,1) 的浮點數：NextWord() / 2^32，只有 32-bit 精度，消耗一個字。
func (c *Core) Float64() float64 {
	return float64(c.NextWord()) / wordSpan
}

// RealRange 回傳 [from,to) 的浮點數（from == to 時恆為 from）。
//
// from > to 或任一端為 NaN 時回傳 InvalidArgument 且不消耗任何字。
// 若捨入使結果落在 to，改回傳 to 之前最近的可表示值。
func (c *Core) RealRange(from, to float64) (float64, error) {
	if math.IsNaN(from) || math.IsNaN(to) || from > to {
		return 0, errs.Invalidf("real_range: invalid interval [%v,%v)", from, to)
	}
	// 明確轉型強制乘積先捨入，禁止編譯器在部分架構上融合成 FMA。
	v := from + float64((to-from)*c.Float64())
	if from < to && v >= to {
		v = math.Nextafter(to, from)
	}
	return v, nil
}

// Uint64 以兩個連續字組成 64-bit 值：hi<<32 | lo，消耗兩個字。
func (c *Core) Uint64() uint64 {
	hi := uint64(c.NextWord())
	lo := uint64(c.NextWord())
	return hi<<32 | lo
}
