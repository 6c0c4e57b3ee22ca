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
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/detrand/errs"
	"github.com/zintix-labs/detrand/sdk/core"
)

// 元素以原始 JSON 保存，任何型別都能洗牌與抽樣，且輸出與輸入逐字相同。
type PermRequest struct {
	StateRef
	Items []json.RawMessage `json:"items"`
	N     uint32            `json:"n,omitempty"`
}

type PermResponse struct {
	Items []json.RawMessage `json:"items"`
	StateOut
}

// Shuffle POST /v1/shuffle
func (h *Handler) Shuffle(w http.ResponseWriter, r *http.Request) {
	req, c, ok := h.permInput(w, r)
	if !ok {
		return
	}
	core.Shuffle(c, req.Items)
	writeJSON(w, PermResponse{Items: req.Items, StateOut: stateOut(c)})
}

// Sample POST /v1/sample
func (h *Handler) Sample(w http.ResponseWriter, r *http.Request) {
	req, c, ok := h.permInput(w, r)
	if !ok {
		return
	}
	out, err := core.Sample(c, req.Items, req.N)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, PermResponse{Items: out, StateOut: stateOut(c)})
}

func (h *Handler) permInput(w http.ResponseWriter, r *http.Request) (*PermRequest, *core.Core, bool) {
	req := new(PermRequest)
	if err := decodeJSON(w, r, req); err != nil {
		h.fail(w, err)
		return nil, nil, false
	}
	if len(req.Items) > h.cfg.Server.MaxItems {
		h.fail(w, errs.Invalidf("items: at most %d allowed", h.cfg.Server.MaxItems))
		return nil, nil, false
	}
	if req.Items == nil {
		req.Items = []json.RawMessage{}
	}
	cp, err := req.compact()
	if err != nil {
		h.fail(w, err)
		return nil, nil, false
	}
	c, err := h.restore(r.Context(), cp)
	if err != nil {
		h.fail(w, err)
		return nil, nil, false
	}
	return req, c, true
}
