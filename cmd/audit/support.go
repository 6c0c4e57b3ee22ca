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

package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/zintix-labs/detrand"
	"github.com/zintix-labs/detrand/config"
	"github.com/zintix-labs/detrand/sdk/core"
	"github.com/zintix-labs/detrand/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *flags = new(flags)

type flags struct {
	config    string
	seed      uint64
	seedSet   bool
	worker    int
	rounds    int
	buckets   uint
	format    string
	pprofmode string
}

// seedFlag 記錄使用者是否明確給了 seed（0 也是合法 seed）。
type seedFlag struct{ f *flags }

func (s seedFlag) String() string {
	if s.f == nil {
		return ""
	}
	return strconv.FormatUint(s.f.seed, 10)
}

func (s seedFlag) Set(v string) error {
	u, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return err
	}
	s.f.seed, s.f.seedSet = u, true
	return nil
}

func bindVar() {
	flag.StringVar(&cfg.config, "config", "", "yaml config file")
	flag.Var(seedFlag{cfg}, "seed", "uint64 base seed (default: process seed source)")
	flag.IntVar(&cfg.worker, "worker", 0, "number of streams / workers (default: config)")
	flag.IntVar(&cfg.rounds, "rounds", 0, "draws per worker (default: config)")
	flag.UintVar(&cfg.buckets, "buckets", 0, "number of buckets (default: config)")
	flag.StringVar(&cfg.format, "format", "table", "output: table|json|yaml")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

func executeAudit() {
	c, err := loadConfig(cfg.config)
	if err != nil {
		log.Fatal(err)
	}
	cfg.merge(c)

	lg, closeLog := c.Logger()
	defer closeLog()

	if !cfg.seedSet {
		c.InstallSeeder()
		src := core.DefaultSeedSource()
		src.SetLogger(lg)
		cfg.seed = src.Next()
	}
	render, err := stats.RenderFor(cfg.format)
	if err != nil {
		log.Fatal(err)
	}

	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	p.Fprintf(os.Stderr, "%s[SEED:%d] [WORKERS:%d] [ROUNDS:%d] [BUCKETS:%d]%s\n",
		green, cfg.seed, c.Audit.Workers, c.Audit.Workers*c.Audit.Rounds, c.Audit.Buckets, reset)

	a, err := detrand.NewAuditor(cfg.seed, c.Audit.Workers, c.Audit.Buckets, c.Audit.Alpha)
	if err != nil {
		log.Fatal(err)
	}
	rep, used, err := a.Run(c.Audit.Rounds, true)
	if err != nil {
		log.Fatal(err)
	}
	lg.Debug("audit finished", "seed", cfg.seed, "chi_square", rep.ChiSquare, "p_value", rep.PValue)

	if tr, ok := render.(*stats.TableReportRender); ok {
		rep.StdOut(os.Stdout, tr.Title, used)
	} else if err := rep.WriteWith(os.Stdout, render); err != nil {
		log.Fatal(err)
	}
	if !rep.Passed {
		lg.Warn("uniformity rejected", "alpha", rep.Alpha, "p_value", rep.PValue)
	}
}

// merge 以非零旗標覆蓋設定檔。
func (f *flags) merge(c *config.Config) {
	if f.worker > 0 {
		c.Audit.Workers = f.worker
	}
	if f.rounds > 0 {
		c.Audit.Rounds = f.rounds
	}
	if f.buckets > 0 {
		c.Audit.Buckets = uint32(f.buckets)
	}
	if err := c.Validate(); err != nil {
		log.Fatal(err)
	}
}
