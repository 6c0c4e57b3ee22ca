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

// Package v1 為無狀態的亂數服務：每個請求都帶著產生器的精簡狀態（seed+steps 或 token），
// 服務端重播後取值，並回傳新的狀態。伺服器本身不保存任何產生器。
package v1

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/zintix-labs/detrand/corefmt"
	"github.com/zintix-labs/detrand/errs"
	"github.com/zintix-labs/detrand/sdk/core"
	"github.com/zintix-labs/detrand/server/httperr"
	"github.com/zintix-labs/detrand/server/svrcfg"
)

// 請求 body 上限
const (
	maxJSONBody = 8 << 20
	maxTextBody = 64 << 10
)

// Handler 持有 v1 全部端點共用的限制設定。
type Handler struct {
	cfg *svrcfg.SvrCfg
}

// New 建立 Handler；sCfg 需已通過 Valid。
func New(sCfg *svrcfg.SvrCfg) *Handler {
	return &Handler{cfg: sCfg}
}

// StateRef 為請求中的產生器引用：State 或 Token 擇一（Token 優先）。
type StateRef struct {
	State *core.Compact `json:"state,omitempty"`
	Token string        `json:"token,omitempty"`
}

// StateOut 為回應中的產生器新狀態。
type StateOut struct {
	State core.Compact `json:"state"`
	Token string       `json:"token"`
}

func stateOut(c *core.Core) StateOut {
	cp := c.Compact()
	b, _ := cp.MarshalBinary()
	return StateOut{State: cp, Token: corefmt.EncodeToken(b)}
}

func (ref StateRef) compact() (core.Compact, error) {
	if ref.Token != "" {
		return compactFromToken(ref.Token)
	}
	if ref.State == nil {
		return core.Compact{}, errs.Invalidf("state or token is required")
	}
	return *ref.State, nil
}

func compactFromToken(tok string) (core.Compact, error) {
	var cp core.Compact
	b, err := corefmt.DecodeToken(tok)
	if err != nil {
		return cp, err
	}
	err = cp.UnmarshalBinary(b)
	return cp, err
}

// compactFromQuery 讀取 token，或 seed（必要）與 steps（預設 0）。
func compactFromQuery(q url.Values) (core.Compact, error) {
	if tok := q.Get("token"); tok != "" {
		return compactFromToken(tok)
	}
	var cp core.Compact
	s := q.Get("seed")
	if s == "" {
		return cp, errs.Invalidf("seed or token is required")
	}
	var err error
	if cp.Seed, err = strconv.ParseUint(s, 10, 64); err != nil {
		return cp, errs.Invalidf("seed must be uint64")
	}
	if st := q.Get("steps"); st != "" {
		if cp.Steps, err = strconv.ParseUint(st, 10, 64); err != nil {
			return cp, errs.Invalidf("steps must be uint64")
		}
	}
	return cp, nil
}

// restore 在步數上限與逾時內重播出產生器。
func (h *Handler) restore(ctx context.Context, cp core.Compact) (*core.Core, error) {
	if cp.Steps > h.cfg.Server.MaxReplaySteps {
		return nil, errs.Invalidf("steps %d exceeds replay limit %d", cp.Steps, h.cfg.Server.MaxReplaySteps)
	}
	ctx, cancel := context.WithTimeout(ctx, h.cfg.Server.ReplayTimeout)
	defer cancel()
	return cp.RestoreContext(ctx, nil)
}

// FullState 以 JSON StateRef 為輸入，回傳完整狀態文字紀錄。
func (h *Handler) FullState(w http.ResponseWriter, r *http.Request) {
	var ref StateRef
	if err := decodeJSON(w, r, &ref); err != nil {
		h.fail(w, err)
		return
	}
	cp, err := ref.compact()
	if err != nil {
		h.fail(w, err)
		return
	}
	c, err := h.restore(r.Context(), cp)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := c.WriteFullState(w); err != nil {
		h.cfg.Log.Warn("write full state", "err", err)
	}
}

// Inspect 解析 body 中的完整狀態紀錄，回傳 seed 與接下來 n（預設 4）個字。
func (h *Handler) Inspect(w http.ResponseWriter, r *http.Request) {
	type inspectResp struct {
		Seed    uint64   `json:"seed"`
		Preview []uint32 `json:"preview"`
	}
	n, err := intParam(r.URL.Query(), "n", 4, 0, h.cfg.Server.MaxDraws)
	if err != nil {
		h.fail(w, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTextBody))
	if err != nil {
		h.fail(w, errs.WrapKind(err, errs.InvalidArgument, "read body"))
		return
	}
	c, err := core.Decode(body, core.FormatFull)
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := inspectResp{Seed: c.Seed(), Preview: make([]uint32, n)}
	for i := range resp.Preview {
		resp.Preview[i] = c.NextWord()
	}
	writeJSON(w, resp)
}

//---------------------------------------
// 共用工具
//---------------------------------------

func (h *Handler) fail(w http.ResponseWriter, err error) {
	httperr.Errs(w, err)
	httperr.Log(h.cfg.Log, "v1 request failed", err)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.WrapKind(err, errs.InvalidArgument, "invalid json")
	}
	return nil
}

// intParam 讀取整數參數；缺省時回傳 def，超出 [lo,hi] 為 InvalidArgument。
func intParam(q url.Values, name string, def, lo, hi int) (int, error) {
	s := q.Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < lo || v > hi {
		return 0, errs.Invalidf("%s must be an integer in [%d,%d]", name, lo, hi)
	}
	return v, nil
}

func floatParam(q url.Values, name string) (float64, error) {
	v, err := strconv.ParseFloat(q.Get(name), 64)
	if err != nil {
		return 0, errs.Invalidf("%s must be a number", name)
	}
	return v, nil
}
