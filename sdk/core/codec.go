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

package core

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"strconv"
	"strings"

	"github.com/zintix-labs/detrand/errs"
)

// Format 為序列化格式。解碼一律依呼叫端指定的格式分派，不做內容嗅探。
type Format uint8

const (
	// FormatCompact 只保存 seed 與 steps，解碼時以重播還原（耗時與 steps 成正比）。
	FormatCompact Format = iota + 1
	// FormatFull 保存完整引擎狀態的文字紀錄，解碼為 O(1)。
	FormatFull
)

func (f Format) String() string {
	switch f {
	case FormatCompact:
		return "compact"
	case FormatFull:
		return "full"
	default:
		return "unknown"
	}
}

// ParseFormat 解析格式名稱（compact / full）。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compact":
		return FormatCompact, nil
	case "full":
		return FormatFull, nil
	default:
		return 0, errs.Invalidf("unknown format %q", s)
	}
}

// Encode 依格式序列化產生器。
// 由完整狀態紀錄還原的產生器無法以精簡格式輸出，回傳 InvalidArgument。
func Encode(c *Core, f Format) ([]byte, error) {
	switch f {
	case FormatCompact:
		if c.detached {
			return nil, errs.Invalidf("encode: generator restored from full state cannot be replayed from (seed %d, steps %d)", c.seed, c.steps)
		}
		return c.Compact().MarshalBinary()
	case FormatFull:
		return c.MarshalText()
	default:
		return nil, errs.Invalidf("encode: unknown format %d", f)
	}
}

// Decode 依格式還原產生器。
func Decode(data []byte, f Format) (*Core, error) {
	switch f {
	case FormatCompact:
		var cp Compact
		if err := cp.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		return cp.Restore(), nil
	case FormatFull:
		c := &Core{}
		if err := c.UnmarshalText(data); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errs.Invalidf("decode: unknown format %d", f)
	}
}

//---------------------------------------
// 精簡格式
//---------------------------------------

// compactLen 二進位精簡格式長度：seed(8) + steps(8)，big-endian。
const compactLen = 16

// replayChunk 為 RestoreContext 檢查 ctx 與回報進度的間隔。
const replayChunk = 1 << 16

// Compact 為精簡狀態：seed 與已消耗字數。
type Compact struct {
	Seed  uint64 `json:"seed" yaml:"seed"`
	Steps uint64 `json:"steps" yaml:"steps"`
}

// Compact 取得目前的精簡狀態。
//
// 只有 Replayable 為 true 時結果才能還原出同一條序列；
// 需要保存時請用 Encode，它會拒絕無法重播的產生器。
func (c *Core) Compact() Compact {
	return Compact{Seed: c.seed, Steps: c.steps}
}

// MarshalBinary 輸出 16 bytes：seed 與 steps 各 8 bytes big-endian。
func (cp Compact) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, compactLen)
	b = binary.BigEndian.AppendUint64(b, cp.Seed)
	b = binary.BigEndian.AppendUint64(b, cp.Steps)
	return b, nil
}

// UnmarshalBinary 長度不為 16 時回傳 CorruptState。
func (cp *Compact) UnmarshalBinary(b []byte) error {
	if len(b) != compactLen {
		return errs.Corruptf("compact state: want %d bytes, got %d", compactLen, len(b))
	}
	cp.Seed = binary.BigEndian.Uint64(b[:8])
	cp.Steps = binary.BigEndian.Uint64(b[8:])
	return nil
}

// Restore 以 seed 建立產生器後丟棄 Steps 個字；結果與原產生器 Equal。
func (cp Compact) Restore() *Core {
	c := New(cp.Seed)
	c.Discard(cp.Steps)
	return c
}

// RestoreContext 與 Restore 相同，但分段重播：每段檢查 ctx 是否取消，
// 並以已重播字數呼叫 progress（可為 nil）。
func (cp Compact) RestoreContext(ctx context.Context, progress func(done uint64)) (*Core, error) {
	c := New(cp.Seed)
	for c.steps < cp.Steps {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(err, "compact replay interrupted")
		}
		c.Discard(min(replayChunk, cp.Steps-c.steps))
		if progress != nil {
			progress(c.steps)
		}
	}
	return c, nil
}

//---------------------------------------
// 完整狀態文字格式
//---------------------------------------
//
// random-v2 <seed> <w0> ... <w623> <index> <min> <max> <0.0> <1.0> endrandom-v2
//
// token 以單一空白分隔，結尾換行；解碼容許任意空白。
// 紀錄中沒有 steps，解碼後的產生器 Steps() 為 0，且 Replayable() 為 false。

const (
	FullStateTag    = "random-v2"
	FullStateEndTag = "endrandom-v2"

	// tag + seed + 624 words + index + min + max + zero + one + end tag
	fullStateTokens = 1 + 1 + StateWords + 1 + 2 + 2 + 1
)

// 以 17 位有效小數的科學記號輸出的浮點哨兵值。
var (
	zeroSentinel = strconv.FormatFloat(0.0, 'e', 17, 64)
	oneSentinel  = strconv.FormatFloat(1.0, 'e', 17, 64)
)

// MarshalText 輸出完整狀態文字紀錄。
func (c *Core) MarshalText() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.WriteFullState(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFullState 將完整狀態文字紀錄寫入 w。
func (c *Core) WriteFullState(w io.Writer) error {
	ws, index := c.eng.words()
	b := make([]byte, 0, 12*fullStateTokens)
	b = append(b, FullStateTag...)
	b = append(b, ' ')
	b = strconv.AppendUint(b, c.seed, 10)
	for _, word := range ws {
		b = append(b, ' ')
		b = strconv.AppendUint(b, uint64(word), 10)
	}
	b = append(b, ' ')
	b = strconv.AppendUint(b, uint64(index), 10)
	b = append(b, ' ')
	b = strconv.AppendUint(b, EngineMin, 10)
	b = append(b, ' ')
	b = strconv.AppendUint(b, EngineMax, 10)
	b = append(b, ' ')
	b = append(b, zeroSentinel...)
	b = append(b, ' ')
	b = append(b, oneSentinel...)
	b = append(b, ' ')
	b = append(b, FullStateEndTag...)
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return errs.Wrap(err, "write full state")
	}
	return nil
}

// UnmarshalText 解析完整狀態文字紀錄並覆寫 c。token 數必須剛好吻合。
func (c *Core) UnmarshalText(b []byte) error {
	toks := strings.Fields(string(b))
	if len(toks) != fullStateTokens {
		return errs.Corruptf("full state: want %d tokens, got %d", fullStateTokens, len(toks))
	}
	return c.parseFullState(toks)
}

// ReadFullState 自 r 讀取一筆完整狀態紀錄（讀到結尾標籤為止）。
// r 可能被預讀超過紀錄結尾。
func ReadFullState(r io.Reader) (*Core, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	toks := make([]string, 0, fullStateTokens)
	for len(toks) < fullStateTokens && sc.Scan() {
		toks = append(toks, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(err, "read full state")
	}
	if len(toks) != fullStateTokens {
		return nil, errs.Corruptf("full state: truncated after %d tokens", len(toks))
	}
	c := &Core{}
	if err := c.parseFullState(toks); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Core) parseFullState(toks []string) error {
	if toks[0] != FullStateTag {
		return errs.Corruptf("full state: bad tag %q", toks[0])
	}
	if toks[len(toks)-1] != FullStateEndTag {
		return errs.Corruptf("full state: bad end tag %q", toks[len(toks)-1])
	}
	seed, err := strconv.ParseUint(toks[1], 10, 64)
	if err != nil {
		return errs.WrapKind(err, errs.CorruptState, "full state: seed")
	}
	ws := make([]uint32, StateWords)
	for i := range ws {
		w, err := strconv.ParseUint(toks[2+i], 10, 32)
		if err != nil {
			return errs.WrapKind(err, errs.CorruptState, "full state: word "+strconv.Itoa(i))
		}
		ws[i] = uint32(w)
	}
	rest := toks[2+StateWords:]
	index, err := strconv.ParseUint(rest[0], 10, 32)
	if err != nil {
		return errs.WrapKind(err, errs.CorruptState, "full state: index")
	}
	if index > StateWords {
		return errs.Corruptf("full state: index %d out of range", index)
	}
	if err := expectUint(rest[1], EngineMin, "min"); err != nil {
		return err
	}
	if err := expectUint(rest[2], EngineMax, "max"); err != nil {
		return err
	}
	if err := expectFloat(rest[3], 0.0, "zero sentinel"); err != nil {
		return err
	}
	if err := expectFloat(rest[4], 1.0, "one sentinel"); err != nil {
		return err
	}

	eng := newEngine(seed)
	if err := eng.setWords(ws, uint32(index)); err != nil {
		return errs.WrapKind(err, errs.CorruptState, "full state: engine")
	}
	c.seed, c.steps, c.eng, c.detached = seed, 0, eng, true
	return nil
}

func expectUint(tok string, want uint64, name string) error {
	v, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return errs.WrapKind(err, errs.CorruptState, "full state: "+name)
	}
	if v != want {
		return errs.Corruptf("full state: %s is %d, want %d", name, v, want)
	}
	return nil
}

func expectFloat(tok string, want float64, name string) error {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return errs.WrapKind(err, errs.CorruptState, "full state: "+name)
	}
	if v != want {
		return errs.Corruptf("full state: %s is %v, want %v", name, v, want)
	}
	return nil
}
