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

package stats

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/zintix-labs/detrand/errs"
	"gopkg.in/yaml.v3"
)

type ReportRender interface {
	Write(w io.Writer, r *Report) error
}

// Json渲染
type JsonReportRender struct{}

func (jr *JsonReportRender) Write(w io.Writer, r *Report) error {
	return json.NewEncoder(w).Encode(r)
}

// YAML渲染
type YAMLReportRender struct{}

func (yr *YAMLReportRender) Write(w io.Writer, r *Report) error {
	return forceReadableList(w, r)
}

// 表格渲染（給終端機看）
type TableReportRender struct {
	Title string
}

func (tr *TableReportRender) Write(w io.Writer, r *Report) error {
	keys, msg := r.fmtBasic()
	_, err := io.WriteString(w, fmtTable(tr.Title, keys, msg))
	return err
}

// RenderFor 依名稱（json / yaml / table）取得渲染器。
func RenderFor(name string) (ReportRender, error) {
	switch strings.ToLower(name) {
	case "json":
		return &JsonReportRender{}, nil
	case "yaml", "yml":
		return &YAMLReportRender{}, nil
	case "table", "":
		return &TableReportRender{Title: "Uniformity Audit"}, nil
	default:
		return nil, errs.Invalidf("unknown render %q", name)
	}
}

func (r *Report) WriteWith(w io.Writer, rep ReportRender) error {
	return rep.Write(w, r)
}

// YAML 內層方法：只有最內層的一維陣列才輸出成 flow style，避免 Counts 每個數字佔一行。
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
	case yaml.SequenceNode:
		leaf := true
		for _, c := range n.Content {
			if c != nil && c.Kind == yaml.SequenceNode {
				leaf = false
			}
			styleReadableSequences(c)
		}
		if leaf {
			n.Style = yaml.FlowStyle
		}
	}
}
