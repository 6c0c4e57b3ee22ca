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

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/zintix-labs/detrand/sdk/core"
	v1 "github.com/zintix-labs/detrand/server/api/v1"
	"github.com/zintix-labs/detrand/server/httperr"
	"github.com/zintix-labs/detrand/server/netsvr"
	"github.com/zintix-labs/detrand/server/svrcfg"
	"github.com/zintix-labs/detrand/stats"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	sCfg := &svrcfg.SvrCfg{}
	if err := sCfg.Valid(); err != nil {
		t.Fatal(err)
	}
	sCfg.Server.MaxReplaySteps = 1 << 20
	svr := netsvr.NewChiServer(":0")
	RegisterRoutes(svr, sCfg)
	ts := httptest.NewServer(svr.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, ts *httptest.Server, path string, q url.Values, dst any) int {
	t.Helper()
	resp, err := http.Get(ts.URL + path + "?" + q.Encode())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func post(t *testing.T, ts *httptest.Server, path, ctype, body string) (int, []byte) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, ctype, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, b
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("healthz: %d %v", resp.StatusCode, resp.Header)
	}
}

func TestDrawWordsAndToken(t *testing.T) {
	ts := newTestServer(t)
	var first v1.DrawResponse
	code := getJSON(t, ts, "/v1/draw", url.Values{"seed": {"1"}, "n": {"2"}}, &first)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if !slices.Equal(first.Words, []uint64{1791095845, 4282876139}) {
		t.Fatalf("words: %v", first.Words)
	}
	if first.State != (core.Compact{Seed: 1, Steps: 2}) || first.Token == "" {
		t.Fatalf("state: %+v %q", first.State, first.Token)
	}

	// 以 token 接續
	var next v1.DrawResponse
	getJSON(t, ts, "/v1/draw", url.Values{"token": {first.Token}}, &next)
	if !slices.Equal(next.Words, []uint64{3093770124}) || next.State.Steps != 3 {
		t.Fatalf("continue: %+v", next)
	}
}

func TestDrawKinds(t *testing.T) {
	ts := newTestServer(t)
	var f v1.DrawResponse
	getJSON(t, ts, "/v1/draw", url.Values{"seed": {"1"}, "kind": {"f64"}}, &f)
	if len(f.Floats) != 1 || f.Floats[0] != 0.4170219984371215 {
		t.Fatalf("f64: %v", f.Floats)
	}
	var rr v1.DrawResponse
	getJSON(t, ts, "/v1/draw", url.Values{"seed": {"1"}, "kind": {"range"}, "from": {"10"}, "to": {"20"}}, &rr)
	if len(rr.Floats) != 1 || rr.Floats[0] != 14.170219984371215 {
		t.Fatalf("range: %v", rr.Floats)
	}
	var u v1.DrawResponse
	getJSON(t, ts, "/v1/draw", url.Values{"seed": {"1"}, "kind": {"u64"}}, &u)
	if len(u.Words) != 1 || u.Words[0] != 7692698082559361259 || u.State.Steps != 2 {
		t.Fatalf("u64: %+v", u)
	}
	var m v1.DrawResponse
	getJSON(t, ts, "/v1/draw", url.Values{"seed": {"1"}, "kind": {"u32"}, "max": {"10"}, "n": {"3"}}, &m)
	want := []uint64{1791095845 % 10, 4282876139 % 10, 3093770124 % 10}
	if !slices.Equal(m.Words, want) {
		t.Fatalf("u32: %v", m.Words)
	}
}

func TestDrawRejects(t *testing.T) {
	ts := newTestServer(t)
	cases := []url.Values{
		{},
		{"seed": {"-1"}},
		{"seed": {"1"}, "n": {"0"}},
		{"seed": {"1"}, "kind": {"nope"}},
		{"seed": {"1"}, "kind": {"u32"}},
		{"seed": {"1"}, "kind": {"u32"}, "max": {"0"}},
		{"seed": {"1"}, "kind": {"range"}, "from": {"2"}, "to": {"1"}},
		{"seed": {"1"}, "kind": {"range"}, "from": {"NaN"}, "to": {"1"}},
		{"seed": {"1"}, "steps": {"99999999999"}},
		{"token": {"!!"}},
		{"token": {"AAAA"}},
	}
	for _, q := range cases {
		var body httperr.Body
		if code := getJSON(t, ts, "/v1/draw", q, &body); code != http.StatusBadRequest {
			t.Fatalf("%v: status %d", q, code)
		}
		if body.Kind == "" {
			t.Fatalf("%v: missing kind in %+v", q, body)
		}
	}
}

func TestShuffleAndSample(t *testing.T) {
	ts := newTestServer(t)
	var out v1.PermResponse

	code, b := post(t, ts, "/v1/shuffle", "application/json", `{"state":{"seed":1,"steps":0},"items":[1,2,3,4]}`)
	if code != http.StatusOK {
		t.Fatalf("shuffle: %d %s", code, b)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if got := rawJoin(out.Items); got != "4,1,3,2" || out.State.Steps != 3 {
		t.Fatalf("shuffle: %s %+v", got, out.State)
	}

	code, b = post(t, ts, "/v1/sample", "application/json", `{"state":{"seed":1,"steps":0},"items":["a","b","c","d"],"n":2}`)
	if code != http.StatusOK {
		t.Fatalf("sample: %d %s", code, b)
	}
	out = v1.PermResponse{}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if got := rawJoin(out.Items); got != `"d","a"` {
		t.Fatalf("sample: %s", got)
	}

	code, _ = post(t, ts, "/v1/sample", "application/json", `{"state":{"seed":1},"items":[1],"n":2}`)
	if code != http.StatusBadRequest {
		t.Fatalf("oversized sample: %d", code)
	}
	code, _ = post(t, ts, "/v1/shuffle", "application/json", `{"items":[1]}`)
	if code != http.StatusBadRequest {
		t.Fatalf("missing state: %d", code)
	}
	code, _ = post(t, ts, "/v1/shuffle", "application/json", `{"state":{"seed":1},"bogus":1}`)
	if code != http.StatusBadRequest {
		t.Fatalf("unknown field: %d", code)
	}
}

func rawJoin(items []json.RawMessage) string {
	s := make([]string, len(items))
	for i, it := range items {
		s[i] = string(it)
	}
	return strings.Join(s, ",")
}

func TestFullStateAndInspect(t *testing.T) {
	ts := newTestServer(t)
	code, text := post(t, ts, "/v1/state/full", "application/json", `{"state":{"seed":862973,"steps":100}}`)
	if code != http.StatusOK {
		t.Fatalf("full: %d %s", code, text)
	}
	c := core.New(862973)
	c.Discard(100)
	want, _ := c.MarshalText()
	if string(text) != string(want) {
		t.Fatal("full state mismatch")
	}

	code, b := post(t, ts, "/v1/state/inspect?n=2", "text/plain", string(text))
	if code != http.StatusOK {
		t.Fatalf("inspect: %d %s", code, b)
	}
	var ins struct {
		Seed    uint64   `json:"seed"`
		Preview []uint32 `json:"preview"`
	}
	if err := json.Unmarshal(b, &ins); err != nil {
		t.Fatal(err)
	}
	if ins.Seed != 862973 || !slices.Equal(ins.Preview, []uint32{2276275187, 3537119063}) {
		t.Fatalf("inspect: %+v", ins)
	}

	code, b = post(t, ts, "/v1/state/inspect", "text/plain", "random-v2 1 2 endrandom-v2\n")
	if code != http.StatusBadRequest || !strings.Contains(string(b), "corrupt_state") {
		t.Fatalf("corrupt inspect: %d %s", code, b)
	}
}

func TestAudit(t *testing.T) {
	ts := newTestServer(t)
	var out struct {
		Seed   uint64        `json:"seed"`
		Report *stats.Report `json:"report"`
	}
	q := url.Values{"seed": {"42"}, "workers": {"4"}, "rounds": {"5000"}, "buckets": {"16"}}
	if code := getJSON(t, ts, "/v1/audit", q, &out); code != http.StatusOK {
		t.Fatalf("audit: %d", code)
	}
	want := []uint64{1275, 1257, 1238, 1187, 1254, 1266, 1248, 1278, 1238, 1210, 1285, 1264, 1250, 1266, 1310, 1174}
	if out.Seed != 42 || out.Report == nil || !slices.Equal(out.Report.Counts, want) {
		t.Fatalf("audit: %+v", out)
	}

	q.Set("format", "yaml")
	resp, err := http.Get(ts.URL + "/v1/audit?" + q.Encode())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), "Counts: [1275, 1257") {
		t.Fatalf("yaml audit: %s", b)
	}

	q.Set("rounds", "999999999")
	if code := getJSON(t, ts, "/v1/audit", q, nil); code != http.StatusBadRequest {
		t.Fatalf("rounds over limit: %d", code)
	}
}
