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
	"slices"

	"github.com/zintix-labs/detrand/errs"
)

// Shuffle 使用 Fisher-Yates 演算法對 s 進行就地重排。
//
// 演算法固定如下，任何改動都會破壞跨平台重現性：
//
//	for i := n-1; i > 0; i-- {
//		j := UniformU32(i+1)
//		swap(s[i], s[j])
//	}
//
// 恰好消耗 n-1 個字；長度 0 或 1 不消耗。長度超過 2^32-1 會 panic。
func Shuffle[T any](c *Core, s []T) {
	if uint64(len(s)) > math.MaxUint32 {
		panic("core: shuffle length exceeds 2^32-1")
	}
	for i := len(s) - 1; i > 0; i-- {
		j := c.uniform(uint32(i + 1))
		s[i], s[j] = s[j], s[i]
	}
}

// Sample 從 population 取出 n 個元素的有序樣本，population 本身不會被修改。
//
// 做法為：複製母體、對複本執行 Shuffle、截斷為前 n 個。元素以賦值複製，
// 指標型別的元素仍指向同一物件。n == 0 回傳空切片且不消耗任何字；
// n > len(population) 回傳 InvalidArgument。
func Sample[T any](c *Core, population []T, n uint32) ([]T, error) {
	if n == 0 {
		return []T{}, nil
	}
	if uint64(n) > uint64(len(population)) {
		return nil, errs.Invalidf("sample: %d choices from population of %d", n, len(population))
	}
	pool := slices.Clone(population)
	Shuffle(c, pool)
	return slices.Clip(pool[:n]), nil
}

// Pick 從 src 隨機取出一個元素（消耗一個字），src 為空時 ok 為 false。
func Pick[T any](c *Core, src []T) (v T, ok bool) {
	if len(src) == 0 || uint64(len(src)) > math.MaxUint32 {
		return v, false
	}
	return src[c.uniform(uint32(len(src)))], true
}
