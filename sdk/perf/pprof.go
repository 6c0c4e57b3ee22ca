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

// Package perf 為指令列工具包上 pprof 的小工具。
package perf

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/detrand/errs"
)

// DefaultDir 為 profile 檔預設寫入的目錄。
const DefaultDir = "build/profiling"

// Mode 為 profile 種類。
type Mode string

const (
	ModeNone   Mode = ""
	ModeCPU    Mode = "cpu"
	ModeHeap   Mode = "heap"
	ModeAllocs Mode = "allocs"
)

// ParseMode 未知名稱回傳 InvalidArgument。
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNone, ModeCPU, ModeHeap, ModeAllocs:
		return m, nil
	}
	return ModeNone, errs.Invalidf("pprof mode must be one of '', cpu, heap, allocs; got %q", s)
}

// RunPProf 依 mode 執行 exe 並把 profile 寫到 DefaultDir；mode 無效時直接執行 exe。
// 寫檔失敗只輸出到 stderr，不影響 exe 本身。
//
//	go run ./cmd/audit -p cpu
func RunPProf(exe func(), mode string) {
	m, err := ParseMode(mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if err := Profile(DefaultDir, m, exe); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

// Profile 執行 exe，並依 m 在 dir 下寫出 <m>.pprof。
//
// cpu 包住整個 exe；heap 與 allocs 在 exe 結束後各拍一次快照，
// heap 之前會先 GC 讓 live objects 盡量貼近現況。
func Profile(dir string, m Mode, exe func()) error {
	if m == ModeNone {
		exe()
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		exe()
		return errs.Wrap(err, "create profiling dir failed")
	}
	f, err := os.Create(filepath.Join(dir, string(m)+".pprof"))
	if err != nil {
		exe()
		return errs.Wrap(err, "create profile failed")
	}
	defer f.Close()

	switch m {
	case ModeCPU:
		if err := pprof.StartCPUProfile(f); err != nil {
			exe()
			return errs.Wrap(err, "start cpu profile failed")
		}
		exe()
		pprof.StopCPUProfile()
	case ModeHeap:
		exe()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return errs.Wrap(err, "write heap profile failed")
		}
	case ModeAllocs:
		exe()
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			return errs.Wrap(err, "write allocs profile failed")
		}
	}
	return nil
}
