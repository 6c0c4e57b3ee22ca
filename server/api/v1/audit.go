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

package v1

import (
	"math"
	"net/http"
	"strconv"

	"github.com/zintix-labs/detrand"
	"github.com/zintix-labs/detrand/errs"
	"github.com/zintix-labs/detrand/stats"
)

const maxAuditWorkers = 64

// Audit GET /v1/audit?seed=&workers=&rounds=&buckets=&format=json|yaml
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	type auditResp struct {
		Seed     uint64        `json:"seed"`
		Workers  int           `json:"workers"`
		Rounds   int           `json:"rounds"`
		Report   *stats.Report `json:"report"`
		UsedTime int64         `json:"used_ms"`
	}
	q := r.URL.Query()
	seed, err := strconv.ParseUint(q.Get("seed"), 10, 64)
	if err != nil {
		h.fail(w, errs.Invalidf("seed must be uint64"))
		return
	}
	a := h.cfg.Audit
	workers, err := intParam(q, "workers", min(a.Workers, maxAuditWorkers), 1, maxAuditWorkers)
	if err != nil {
		h.fail(w, err)
		return
	}
	rounds, err := intParam(q, "rounds", a.MaxRounds/workers, 1, a.MaxRounds/workers)
	if err != nil {
		h.fail(w, err)
		return
	}
	buckets, err := intParam(q, "buckets", int(a.Buckets), 2, math.MaxUint16)
	if err != nil {
		h.fail(w, err)
		return
	}
	format := q.Get("format")
	if format != "" && format != "json" && format != "yaml" {
		h.fail(w, errs.Invalidf("format must be json or yaml"))
		return
	}

	au, err := detrand.NewAuditor(seed, workers, uint32(buckets), a.Alpha)
	if err != nil {
		h.fail(w, err)
		return
	}
	rep, used, err := au.RunContext(r.Context(), rounds, false)
	if err != nil {
		h.fail(w, err)
		return
	}
	if format == "yaml" {
		w.Header().Set("Content-Type", "application/yaml")
		if err := rep.WriteWith(w, &stats.YAMLReportRender{}); err != nil {
			h.cfg.Log.Warn("write audit yaml", "err", err)
		}
		return
	}
	writeJSON(w, auditResp{Seed: seed, Workers: workers, Rounds: rounds, Report: rep, UsedTime: used.Milliseconds()})
}
