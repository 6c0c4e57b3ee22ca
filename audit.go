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

package detrand

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/detrand/errs"
	"github.com/zintix-labs/detrand/stats"
)

// 進度條每累積這麼多輪才更新一次，避免熱路徑上的原子操作。
const barStride = 4096

// Auditor 平行稽核產生器輸出的均勻性：每個 worker 用自己的 stream，
// 各自累積統計後合併。
//
// 對相同的 base、workers、buckets 與 rounds，結果完全相同（合併只是計數相加）。
type Auditor struct {
	streams *Streams
	buckets uint32
	alpha   float64
}

// NewAuditor 建立稽核器；buckets 需 >= 2。
func NewAuditor(base uint64, workers int, buckets uint32, alpha float64) (*Auditor, error) {
	if buckets < 2 {
		return nil, errs.Invalidf("audit: buckets must be >= 2, got %d", buckets)
	}
	s, err := NewStreams(base, workers)
	if err != nil {
		return nil, err
	}
	return &Auditor{streams: s, buckets: buckets, alpha: alpha}, nil
}

// Streams 回傳稽核使用的產生器組，可用於事後 Checkpoint。
func (a *Auditor) Streams() *Streams { return a.streams }

// Run 讓每個 worker 各跑 rounds 輪；每輪抽一次 UniformU32(buckets) 與一次 Float64。
func (a *Auditor) Run(rounds int, showpb bool) (*stats.Report, time.Duration, error) {
	return a.RunContext(context.Background(), rounds, showpb)
}

// RunContext 與 Run 相同，ctx 取消時各 worker 於下一個檢查點停止並回傳錯誤。
func (a *Auditor) RunContext(ctx context.Context, rounds int, showpb bool) (*stats.Report, time.Duration, error) {
	if rounds < 1 {
		return nil, 0, errs.Invalidf("audit: rounds must be > 0")
	}
	mp := a.streams.Len()
	parts := make([]*stats.Uniformity, mp)

	bar := pb.StartNew(rounds * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	wg := new(sync.WaitGroup)
	wg.Add(mp)
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			c := a.streams.At(i)
			u := stats.NewUniformity(a.buckets)
			for r := 0; r < rounds; r++ {
				if r%barStride == 0 {
					if ctx.Err() != nil {
						return
					}
					if r > 0 {
						bar.Add(barStride)
					}
				}
				v, _ := c.UniformU32(a.buckets)
				u.Record(v)
				u.RecordFloat(c.Float64())
			}
			bar.Add(rounds - (rounds-1)/barStride*barStride)
			parts[i] = u
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	if err := ctx.Err(); err != nil {
		return nil, used, errs.Wrap(err, "audit interrupted")
	}
	total := stats.NewUniformity(a.buckets)
	for _, p := range parts {
		if err := total.Merge(p); err != nil {
			return nil, used, err
		}
	}
	return total.Report(a.alpha), used, nil
}
