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

// Package config 載入 detrand 各指令共用的 YAML 設定。
//
// 範例：
//
//	log:
//	  mode: prod
//	  async_buffer: 4096
//	seed:
//	  mode: fixed
//	  value: 20250101
//	server:
//	  addr: ":5808"
//	  max_replay_steps: 16777216
//	audit:
//	  workers: 8
//	  rounds: 1000000
//	  buckets: 64
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/zintix-labs/detrand/errs"
	"github.com/zintix-labs/detrand/sdk/core"
	"github.com/zintix-labs/detrand/server/logger"
	"gopkg.in/yaml.v3"
)

// SeedMode 決定行程預設 SeedSource 的 seed 來源。
type SeedMode string

const (
	SeedTime  SeedMode = "time"  // 依時間（預設行為，不安裝 seeder）
	SeedFixed SeedMode = "fixed" // 以 Seed.Value 為 base 的決定性序列
	SeedDebug SeedMode = "debug" // 以 core.DebugSeed 為 base
)

type Config struct {
	Log    LogCfg    `yaml:"log"`
	Seed   SeedCfg   `yaml:"seed"`
	Server ServerCfg `yaml:"server"`
	Audit  AuditCfg  `yaml:"audit"`
}

type LogCfg struct {
	Mode        string `yaml:"mode"`
	AsyncBuffer int    `yaml:"async_buffer"`
}

type SeedCfg struct {
	Mode  SeedMode `yaml:"mode"`
	Value uint64   `yaml:"value"`
}

type ServerCfg struct {
	Addr           string        `yaml:"addr"`
	MaxReplaySteps uint64        `yaml:"max_replay_steps"`
	MaxDraws       int           `yaml:"max_draws"`
	MaxItems       int           `yaml:"max_items"`
	ReplayTimeout  time.Duration `yaml:"replay_timeout"`
}

type AuditCfg struct {
	Workers int     `yaml:"workers"`
	Rounds  int     `yaml:"rounds"`
	Buckets uint32  `yaml:"buckets"`
	Alpha   float64 `yaml:"alpha"`
	// MaxRounds 限制 HTTP audit 端點單次請求的 workers*rounds。
	MaxRounds int `yaml:"max_rounds"`
}

// Default 回傳所有欄位皆為合法預設值的設定。
func Default() *Config {
	return &Config{
		Log:  LogCfg{Mode: "dev", AsyncBuffer: 4096},
		Seed: SeedCfg{Mode: SeedTime},
		Server: ServerCfg{
			Addr:           ":5808",
			MaxReplaySteps: 1 << 24,
			MaxDraws:       10_000,
			MaxItems:       100_000,
			ReplayTimeout:  5 * time.Second,
		},
		Audit: AuditCfg{Workers: 4, Rounds: 1_000_000, Buckets: 64, Alpha: 0.001, MaxRounds: 10_000_000},
	}
}

// Parse 以 Default 為底解析 YAML，未出現的欄位保留預設值；未知欄位視為錯誤。
func Parse(raw []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.WrapKind(err, errs.InvalidArgument, "parse config failed")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load 自 fsys 讀取 name 並解析。
func Load(fsys fs.FS, name string) (*Config, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.Wrap(err, "read config failed")
	}
	return Parse(raw)
}

// Validate 檢查欄位範圍。
func (c *Config) Validate() error {
	if _, err := logger.ParseMode(c.Log.Mode); err != nil {
		return err
	}
	switch c.Seed.Mode {
	case SeedTime, SeedFixed, SeedDebug:
	default:
		return errs.Invalidf("seed.mode must be time|fixed|debug, got %q", c.Seed.Mode)
	}
	if c.Server.Addr == "" {
		return errs.Invalidf("server.addr is required")
	}
	if c.Server.MaxDraws <= 0 || c.Server.MaxItems <= 0 {
		return errs.Invalidf("server.max_draws and server.max_items must be > 0")
	}
	if c.Server.ReplayTimeout <= 0 {
		return errs.Invalidf("server.replay_timeout must be > 0")
	}
	if c.Audit.Workers <= 0 || c.Audit.Rounds <= 0 || c.Audit.MaxRounds <= 0 {
		return errs.Invalidf("audit.workers, audit.rounds and audit.max_rounds must be > 0")
	}
	if c.Audit.Buckets < 2 {
		return errs.Invalidf("audit.buckets must be >= 2")
	}
	if c.Audit.Alpha <= 0 || c.Audit.Alpha >= 1 {
		return errs.Invalidf("audit.alpha must be in (0,1)")
	}
	return nil
}

// Logger 依 log 區段建立 logger；AsyncBuffer > 0 時為非阻塞版本，closer 需在結束時呼叫。
func (c *Config) Logger() (log *slog.Logger, closer func()) {
	mode, _ := logger.ParseMode(c.Log.Mode)
	if c.Log.AsyncBuffer <= 0 {
		return logger.NewDefaultLogger(mode), func() {}
	}
	log, ah := logger.NewAsync(c.Log.AsyncBuffer, mode)
	return log, ah.Close
}

// InstallSeeder 依 seed 區段設定行程預設 seed 來源。
//
// time 模式不安裝任何東西；其餘模式安裝以固定 base 的決定性序列。
// 回傳 core.SetSeeder 的結果（已被使用過則為 false）。
func (c *Config) InstallSeeder() bool {
	var base uint64
	switch c.Seed.Mode {
	case SeedFixed:
		base = c.Seed.Value
	case SeedDebug:
		base = core.DebugSeed
	default:
		return false
	}
	src := core.NewSeedSource(base)
	return core.SetSeeder(src.Next)
}
