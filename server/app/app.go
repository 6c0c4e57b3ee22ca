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

// Package app 管理多個 Component 的啟動與優雅關閉。
package app

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

// DefaultGrace 為關閉時等待所有 Component 的預設期限。
const DefaultGrace = 5 * time.Second

// App 啟動所有 Component，並在收到 SIGINT/SIGTERM、ctx 結束或任一 Component 返回時統一關閉。
type App struct {
	comps []Component
	grace time.Duration
	log   *slog.Logger
}

// NewWith 建立 App 並註冊 comps。
func NewWith(comps ...Component) *App {
	return &App{comps: comps, grace: DefaultGrace, log: slog.Default()}
}

func (a *App) Register(c Component) {
	a.comps = append(a.comps, c)
}

// SetLogger 設定關閉錯誤的輸出 logger。
func (a *App) SetLogger(l *slog.Logger) {
	if l != nil {
		a.log = l
	}
}

// Run 阻塞直到收到終止信號（回傳 nil）或任一 Component.Run 返回（回傳其錯誤）。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 與 Run 相同，但以 ctx 結束取代 OS 信號。
func (a *App) RunContext(ctx context.Context) error {
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}
	a.shutdown()
	return err
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.grace)
	defer cancel()
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			a.log.Error("shutdown failed", slog.Any("err", err))
		}
	}
}
