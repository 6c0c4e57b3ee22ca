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

	"github.com/zintix-labs/detrand/errs"
)

// DrawResponse 整數類結果放 Words，浮點類放 Floats。
type DrawResponse struct {
	Kind   string    `json:"kind"`
	Words  []uint64  `json:"words,omitempty"`
	Floats []float64 `json:"floats,omitempty"`
	StateOut
}

// Draw GET /v1/draw?seed=&steps=&n=&kind=word|u32|u64|f64|range&max=&from=&to=
func (h *Handler) Draw(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cp, err := compactFromQuery(q)
	if err != nil {
		h.fail(w, err)
		return
	}
	n, err := intParam(q, "n", 1, 1, h.cfg.Server.MaxDraws)
	if err != nil {
		h.fail(w, err)
		return
	}
	kind := q.Get("kind")
	if kind == "" {
		kind = "word"
	}

	// 先驗證參數再重播，避免為錯誤請求付出重播成本。
	var max uint32
	var from, to float64
	switch kind {
	case "word", "u64", "f64":
	case "u32":
		m, perr := strconv.ParseUint(q.Get("max"), 10, 32)
		if perr != nil || m == 0 {
			h.fail(w, errs.Invalidf("max must be an integer in [1,%d]", uint32(math.MaxUint32)))
			return
		}
		max = uint32(m)
	case "range":
		if from, err = floatParam(q, "from"); err == nil {
			to, err = floatParam(q, "to")
		}
		if err == nil && !(from <= to) {
			err = errs.Invalidf("range requires from <= to")
		}
		if err != nil {
			h.fail(w, err)
			return
		}
	default:
		h.fail(w, errs.Invalidf("unknown kind %q", kind))
		return
	}

	c, err := h.restore(r.Context(), cp)
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := DrawResponse{Kind: kind}
	for i := 0; i < n; i++ {
		switch kind {
		case "word":
			resp.Words = append(resp.Words, uint64(c.NextWord()))
		case "u32":
			v, _ := c.UniformU32(max)
			resp.Words = append(resp.Words, uint64(v))
		case "u64":
			resp.Words = append(resp.Words, c.Uint64())
		case "f64":
			resp.Floats = append(resp.Floats, c.Float64())
		case "range":
			v, _ := c.RealRange(from, to)
			resp.Floats = append(resp.Floats, v)
		}
	}
	resp.StateOut = stateOut(c)
	writeJSON(w, resp)
}
