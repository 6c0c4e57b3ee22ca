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

// Package stats 彙整亂數輸出的統計量，並以卡方檢定評估均勻性。
package stats

import (
	"math"

	"github.com/zintix-labs/detrand/errs"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultAlpha 卡方檢定預設顯著水準。
const DefaultAlpha = 0.001

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"Lo"`
	Hi float64 `json:"Hi" yaml:"Hi"`
}

// Uniformity 累積 [0,Buckets) 整數抽樣的次數，以及 [0,1) 浮點抽樣的動差。
//
// 不具併發安全：每個 worker 各自累積，最後 Merge。
type Uniformity struct {
	Buckets uint32
	Counts  []uint64
	Draws   uint64

	floatN     uint64
	floatSum   float64
	floatSumSq float64
	belowHalf  uint64
}

func NewUniformity(buckets uint32) *Uniformity {
	return &Uniformity{Buckets: buckets, Counts: make([]uint64, buckets)}
}

// Record 記錄一次整數抽樣，v 需落在 [0,Buckets)；超出範圍直接 panic（呼叫端錯誤）。
func (u *Uniformity) Record(v uint32) {
	u.Counts[v]++
	u.Draws++
}

// RecordFloat 記錄一次 [0,1) 浮點抽樣。
func (u *Uniformity) RecordFloat(f float64) {
	u.floatN++
	u.floatSum += f
	u.floatSumSq += f * f
	if f < 0.5 {
		u.belowHalf++
	}
}

// Merge 把 o 的累積量加進 u；桶數不同回傳 InvalidArgument。
func (u *Uniformity) Merge(o *Uniformity) error {
	if o.Buckets != u.Buckets {
		return errs.Invalidf("merge: bucket count %d != %d", o.Buckets, u.Buckets)
	}
	for i, c := range o.Counts {
		u.Counts[i] += c
	}
	u.Draws += o.Draws
	u.floatN += o.floatN
	u.floatSum += o.floatSum
	u.floatSumSq += o.floatSumSq
	u.belowHalf += o.belowHalf
	return nil
}

// Report 均勻性檢定結果
type Report struct {
	Buckets         uint32   `json:"Buckets" yaml:"Buckets"`
	Draws           uint64   `json:"Draws" yaml:"Draws"`
	ChiSquare       float64  `json:"ChiSquare" yaml:"ChiSquare"`
	DoF             int      `json:"DoF" yaml:"DoF"`
	PValue          float64  `json:"PValue" yaml:"PValue"`
	Alpha           float64  `json:"Alpha" yaml:"Alpha"`
	Passed          bool     `json:"Passed" yaml:"Passed"`
	MaxRelDeviation float64  `json:"MaxRelDeviation" yaml:"MaxRelDeviation"`
	FloatDraws      uint64   `json:"FloatDraws" yaml:"FloatDraws"`
	FloatMean       float64  `json:"FloatMean" yaml:"FloatMean"`
	FloatVariance   float64  `json:"FloatVariance" yaml:"FloatVariance"`
	BelowHalf       float64  `json:"BelowHalf" yaml:"BelowHalf"`
	BelowHalfCI     CI       `json:"BelowHalfCI" yaml:"BelowHalfCI"`
	Counts          []uint64 `json:"Counts" yaml:"Counts"`
}

// Report 以顯著水準 alpha（<= 0 時用 DefaultAlpha）產生報告。
//
// 少於兩個桶或沒有抽樣時檢定無意義，PValue 視為 1。
func (u *Uniformity) Report(alpha float64) *Report {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}
	r := &Report{
		Buckets:    u.Buckets,
		Draws:      u.Draws,
		Alpha:      alpha,
		PValue:     1,
		FloatDraws: u.floatN,
		Counts:     append([]uint64(nil), u.Counts...),
	}
	if u.Buckets >= 2 && u.Draws > 0 {
		obs := make([]float64, u.Buckets)
		exp := make([]float64, u.Buckets)
		e := float64(u.Draws) / float64(u.Buckets)
		for i, c := range u.Counts {
			obs[i] = float64(c)
			exp[i] = e
			if d := math.Abs(obs[i]-e) / e; d > r.MaxRelDeviation {
				r.MaxRelDeviation = d
			}
		}
		r.ChiSquare = stat.ChiSquare(obs, exp)
		r.DoF = int(u.Buckets) - 1
		r.PValue = distuv.ChiSquared{K: float64(r.DoF)}.Survival(r.ChiSquare)
	}
	if n := float64(u.floatN); u.floatN > 0 {
		r.FloatMean = u.floatSum / n
		if u.floatN > 1 {
			r.FloatVariance = (u.floatSumSq - n*r.FloatMean*r.FloatMean) / (n - 1)
		}
		r.BelowHalf, r.BelowHalfCI = proportionCICP(u.belowHalf, u.floatN, 1-alpha)
	}
	r.Passed = r.PValue >= alpha
	return r
}

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k, n uint64, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}
