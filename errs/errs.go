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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Kind 描述錯誤的類別，與 ErrLevel 正交：ErrLevel 說嚴重度，Kind 說是哪一類問題。
type Kind uint8

const (
	// Unspecified 未分類的錯誤。
	Unspecified Kind = iota
	// InvalidArgument 呼叫端傳入不合法參數（例如 max == 0、from > to、取樣數大於母體）。
	InvalidArgument
	// CorruptState 序列化資料損毀或格式不符，無法還原產生器。
	CorruptState
)

var kindMap = map[Kind]string{
	Unspecified:     "",
	InvalidArgument: "invalid_argument",
	CorruptState:    "corrupt_state",
}

func (k Kind) String() string {
	return kindMap[k]
}

// 供 errors.Is 比對用的哨兵錯誤。
var (
	ErrInvalidArgument = &E{Message: "invalid argument", ErrLv: Warn, Kind: InvalidArgument}
	ErrCorruptState    = &E{Message: "corrupt state", ErrLv: Warn, Kind: CorruptState}
)

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 為嚴重度；Kind 為錯誤類別。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Kind    Kind
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s", ErrLv(e.ErrLv))
	if e.Kind != Unspecified {
		base += " kind=" + e.Kind.String()
	}
	base += " " + e.Message
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// Is 以 Kind 比對：target 為帶有 Kind 的 *E（通常是哨兵）時，同類別即視為相符。
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok || t.Kind == Unspecified {
		return false
	}
	return e.Kind == t.Kind
}

// New 依錯誤等級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

// Invalidf 建立 InvalidArgument 類別的錯誤（Warn 等級）。
func Invalidf(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Warn, Kind: InvalidArgument}
}

// Corruptf 建立 CorruptState 類別的錯誤（Warn 等級）。
func Corruptf(format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Warn, Kind: CorruptState}
}

// Wrap 以訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel 與 Kind 規則：
//   - 若 cause 鏈中有 *E，沿用最外層那個 *E 的 ErrLv 與 Kind。
//   - 否則（標準庫或三方依賴錯誤）ErrLv 一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	errLv, kind := Fatal, Unspecified
	if e, ok := AsErr(cause); ok {
		errLv, kind = e.ErrLv, e.Kind
	}
	return &E{Message: msg, Cause: cause, ErrLv: errLv, Kind: kind}
}

// WrapKind 以指定類別包裝底層錯誤；用於把解析錯誤等外部錯誤歸類。
func WrapKind(cause error, kind Kind, msg string) *E {
	return &E{Message: msg, Cause: cause, ErrLv: Warn, Kind: kind}
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// KindOf 回傳錯誤鏈中第一個 *E 的 Kind；非本包錯誤回傳 Unspecified。
func KindOf(err error) Kind {
	if e, ok := AsErr(err); ok {
		return e.Kind
	}
	return Unspecified
}
