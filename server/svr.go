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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zintix-labs/detrand/errs"
	"github.com/zintix-labs/detrand/server/api"
	"github.com/zintix-labs/detrand/server/app"
	"github.com/zintix-labs/detrand/server/netsvr"
	"github.com/zintix-labs/detrand/server/svrcfg"
)

// Run 是 server 套件的組裝器與啟動入口：
//  1. 驗證 SvrCfg（包含 logger）。
//  2. 以 sCfg.Server.Addr 建立 HTTP server。
//  3. 註冊路由與 middleware。
//  4. 阻塞直到收到終止信號或 server 失敗。
//
// 所有依賴都經由 SvrCfg 注入；Run 不讀檔也不讀環境變數。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Server.Addr))
}

// RunWithSvr 與 Run 相同，但由呼叫端注入 NetSvr（自訂 listener、timeout 或外部路由框架）。
// 若 svr 是 ChiAdapter，要求 Ready() 為 true。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	return RunContext(context.Background(), sCfg, svr)
}

// RunContext 以 ctx 結束或 OS 信號作為停止條件。
func RunContext(ctx context.Context, sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		return errs.NewFatal("svr is required")
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return errs.NewFatal("default server is not ready")
	}

	api.RegisterRoutes(svr, sCfg)

	a := app.NewWith(svr)
	a.SetLogger(sCfg.Log)
	sCfg.Log.Info("[detrand] listening", slog.String("addr", sCfg.Server.Addr))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := a.RunContext(ctx); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	return nil
}
