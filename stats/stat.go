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
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// StdOut 輸出耗時、吞吐量與表格。
func (r *Report) StdOut(w io.Writer, title string, ut time.Duration) {
	io.WriteString(w, formatDuration(ut, r.Draws+r.FloatDraws))
	keys, msg := r.fmtBasic()
	io.WriteString(w, fmtTable(title, keys, msg))
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, draws uint64) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	dps := int(float64(draws) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\ndps : %d draws/sec\n", sec, dps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\ndps : %d draws/sec\n", m, s, dps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\ndps : %d draws/sec\n", h, m, s, dps)
}

func (r *Report) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	verdict := "PASS"
	if !r.Passed {
		verdict = "FAIL"
	}
	basic := map[string]string{
		"Buckets":         p.Sprintf("%d", r.Buckets),
		"Integer Draws":   p.Sprintf("%d", r.Draws),
		"Chi-Square":      p.Sprintf("%.3f (dof %d)", r.ChiSquare, r.DoF),
		"P-Value":         p.Sprintf("%.4f", r.PValue),
		"Verdict":         p.Sprintf("%s @ alpha %g", verdict, r.Alpha),
		"Max Deviation":   p.Sprintf("%.3f %%", 100.0*r.MaxRelDeviation),
		"Float Draws":     p.Sprintf("%d", r.FloatDraws),
		"Float Mean":      p.Sprintf("%.6f", r.FloatMean),
		"Float Variance":  p.Sprintf("%.6f", r.FloatVariance),
		"P(x < 0.5)":      p.Sprintf("%.4f", r.BelowHalf),
		"P(x < 0.5) CI":   p.Sprintf("[%.4f, %.4f]", r.BelowHalfCI.Lo, r.BelowHalfCI.Hi),
	}
	keys := []string{"Buckets", "Integer Draws", "Chi-Square", "P-Value", "Verdict", "Max Deviation",
		"Float Draws", "Float Mean", "Float Variance", "P(x < 0.5)", "P(x < 0.5) CI"}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	maxKeyLen := runewidth.StringWidth(title)
	maxValLen := 0
	for _, k := range keys {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(msg[k]); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var b strings.Builder
	b.WriteString(top)
	b.WriteString("|" + blank(left) + title + blank(right) + "|\n")
	b.WriteString(divider)
	for _, k := range keys {
		v := msg[k]
		b.WriteString("| " + k + blank(maxKeyLen-2-runewidth.StringWidth(k)) +
			" | " + v + blank(maxValLen-2-runewidth.StringWidth(v)) + " |\n")
	}
	b.WriteString(divider)
	return b.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
