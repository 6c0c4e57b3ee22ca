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

// svr 啟動無狀態的亂數 HTTP 服務。
//
//	go run ./cmd/svr -addr :5808 -log-mode prod
//	go run ./cmd/svr -config ./detrand.yaml
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zintix-labs/detrand/config"
	"github.com/zintix-labs/detrand/server"
	"github.com/zintix-labs/detrand/server/svrcfg"
)

func main() {
	sCfg, closer, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	err = server.Run(sCfg)
	closer()
	if err != nil {
		os.Exit(1)
	}
}

type flags struct {
	Config  string
	Addr    string
	LogMode string
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, func(), error) {
	f := new(flags)
	flag.StringVar(&f.Config, "config", "", "yaml config file")
	flag.StringVar(&f.Addr, "addr", "", "listen address (default: config or :5808)")
	flag.StringVar(&f.LogMode, "log-mode", "", "log mode: dev|prod|silence (default: config)")

	flag.Parse()

	c := config.Default()
	if f.Config != "" {
		var err error
		if c, err = config.Load(os.DirFS(filepath.Dir(f.Config)), filepath.Base(f.Config)); err != nil {
			return nil, nil, err
		}
	}
	if f.Addr != "" {
		c.Server.Addr = f.Addr
	}
	if f.LogMode != "" {
		c.Log.Mode = f.LogMode
	}
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	c.InstallSeeder()

	log, closer := c.Logger()
	return svrcfg.FromConfig(c, log), closer, nil
}
