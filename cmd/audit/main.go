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

// audit 以多條獨立串流大量抽樣，檢驗 MT19937 輸出的均勻性。
//
//	go run ./cmd/audit -seed 42 -worker 8 -rounds 10000000
//	go run ./cmd/audit -config ./detrand.yaml -format yaml
//	go run ./cmd/audit -p cpu
package main

import "github.com/zintix-labs/detrand/sdk/perf"

func main() {
	bindVar()
	perf.RunPProf(executeAudit, cfg.pprofmode)
}
