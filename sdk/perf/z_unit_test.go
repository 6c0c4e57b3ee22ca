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

package perf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zintix-labs/detrand/errs"
	"github.com/zintix-labs/detrand/sdk/core"
)

func work() {
	c := core.New(1)
	c.Discard(1 << 16)
}

func TestProfileWritesFile(t *testing.T) {
	dir := t.TempDir()
	for _, m := range []Mode{ModeHeap, ModeAllocs} {
		ran := false
		if err := Profile(dir, m, func() { ran = true; work() }); err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if !ran {
			t.Fatalf("%s: exe not called", m)
		}
		st, err := os.Stat(filepath.Join(dir, string(m)+".pprof"))
		if err != nil || st.Size() == 0 {
			t.Fatalf("%s: profile missing: %v", m, err)
		}
	}
}

func TestProfileNone(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "unused")
	ran := false
	if err := Profile(dir, ModeNone, func() { ran = true }); err != nil || !ran {
		t.Fatalf("none: ran=%v err=%v", ran, err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatal("none mode should not create the directory")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("cpu"); err != nil || m != ModeCPU {
		t.Fatalf("cpu: %v %v", m, err)
	}
	if _, err := ParseMode("trace"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("trace: %v", err)
	}
}
