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

package svrcfg

import (
	"log/slog"

	"github.com/zintix-labs/detrand/config"
	"github.com/zintix-labs/detrand/errs"
	"github.com/zintix-labs/detrand/server/logger"
)

// SvrCfg 為 server 組裝所需的全部依賴，皆由呼叫端明確注入。
type SvrCfg struct {
	Log    *slog.Logger
	Server config.ServerCfg
	Audit  config.AuditCfg
}

// FromConfig 由檔案設定組出 SvrCfg。
func FromConfig(c *config.Config, log *slog.Logger) *SvrCfg {
	return &SvrCfg{Log: log, Server: c.Server, Audit: c.Audit}
}

// Valid 補上缺省值並檢查限制；Log 為 nil 時給一個安靜的 logger。
func (sc *SvrCfg) Valid() error {
	if sc.Log == nil {
		sc.Log = logger.NewDefaultLogger(logger.ModeSilence)
	} else if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
		return errs.NewFatal("async log handler is not ready")
	}
	def := config.Default()
	if sc.Server.Addr == "" {
		sc.Server.Addr = def.Server.Addr
	}
	if sc.Server.MaxReplaySteps == 0 {
		sc.Server.MaxReplaySteps = def.Server.MaxReplaySteps
	}
	if sc.Server.ReplayTimeout <= 0 {
		sc.Server.ReplayTimeout = def.Server.ReplayTimeout
	}
	if sc.Server.MaxDraws <= 0 {
		sc.Server.MaxDraws = def.Server.MaxDraws
	}
	if sc.Server.MaxItems <= 0 {
		sc.Server.MaxItems = def.Server.MaxItems
	}
	if sc.Audit.Workers <= 0 {
		sc.Audit.Workers = def.Audit.Workers
	}
	if sc.Audit.Buckets < 2 {
		sc.Audit.Buckets = def.Audit.Buckets
	}
	if sc.Audit.MaxRounds <= 0 {
		sc.Audit.MaxRounds = def.Audit.MaxRounds
	}
	if sc.Audit.Alpha <= 0 || sc.Audit.Alpha >= 1 {
		sc.Audit.Alpha = def.Audit.Alpha
	}
	return nil
}
