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

// state 產生與檢視產生器的狀態檔。
//
//	go run ./cmd/state encode -seed 42 -steps 1000 -format full -zstd -o gen.drng
//	go run ./cmd/state encode -seed 42 -steps 1000 -format token
//	go run ./cmd/state decode -i gen.drng -preview 8
//	go run ./cmd/state decode -token AAAAAAAAACoAAAAAAAAD6A
//	curl -d '{"state":{"seed":42,"steps":1000}}' localhost:5808/v1/state/full | go run ./cmd/state decode -text
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/detrand/corefmt"
	"github.com/zintix-labs/detrand/sdk/core"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: state <encode|decode> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "encode":
		err = encode(ctx, os.Args[2:])
	case "decode":
		err = decode(ctx, os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func encode(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	seed := fs.Uint64("seed", core.DebugSeed, "uint64 seed")
	steps := fs.Uint64("steps", 0, "words already consumed")
	format := fs.String("format", "compact", "compact|full|token|hex")
	out := fs.String("o", "", "output file (default stdout)")
	compress := fs.Bool("zstd", false, "zstd-compress the checkpoint payload")
	fs.Parse(args)

	cp := core.Compact{Seed: *seed, Steps: *steps}
	// token 與 hex 只是精簡狀態的文字形式，直接印出。
	switch *format {
	case "token":
		b, _ := cp.MarshalBinary()
		fmt.Println(corefmt.EncodeToken(b))
		return nil
	case "hex":
		b, _ := cp.MarshalBinary()
		fmt.Println(corefmt.EncodeHex(b))
		return nil
	}
	f, err := core.ParseFormat(*format)
	if err != nil {
		return err
	}

	w, closeOut, err := output(*out)
	if err != nil {
		return err
	}
	// 剛寫完的檔案關閉失敗也要回報，否則 checkpoint 可能沒落地卻回傳 0。
	defer func() {
		if cerr := closeOut(); err == nil {
			err = cerr
		}
	}()

	// 精簡格式只需 seed 與 steps，不必重播。
	if f == core.FormatCompact {
		payload, _ := cp.MarshalBinary()
		return corefmt.WriteCheckpoint(w, f, payload, *compress)
	}
	bar := newReplayBar(cp.Steps)
	c, err := cp.RestoreContext(ctx, func(done uint64) { bar.SetCurrent(int64(done)) })
	bar.Finish()
	if err != nil {
		return err
	}
	return corefmt.SaveCore(w, c, f, *compress)
}

func decode(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	in := fs.String("i", "", "checkpoint file (default stdin)")
	preview := fs.Int("preview", 4, "number of upcoming words to print")
	maxBytes := fs.Uint64("max", corefmt.DefaultMaxCheckpoint, "payload size limit in bytes")
	token := fs.String("token", "", "compact state as url token (instead of -i)")
	hexs := fs.String("hex", "", "compact state as hex (instead of -i)")
	text := fs.Bool("text", false, "input is a bare full-state text record, e.g. from POST /v1/state/full")
	fs.Parse(args)

	var c *core.Core
	var f core.Format
	var err error
	var bar *pb.ProgressBar
	progress := func(done, total uint64) {
		if bar == nil {
			bar = newReplayBar(total)
		}
		bar.SetCurrent(int64(done))
	}
	switch {
	case *token != "" || *hexs != "":
		c, err = decodeText(ctx, *token, *hexs, progress)
		f = core.FormatCompact
	case *text:
		c, err = readText(*in)
		f = core.FormatFull
	default:
		c, f, err = loadFile(ctx, *in, *maxBytes, progress)
	}
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Printf("format : %s\n", f)
	p.Printf("seed   : %d\n", c.Seed())
	p.Printf("steps  : %d\n", c.Steps())
	for i := 0; i < *preview; i++ {
		p.Printf("next[%d]: %d\n", i, c.NextWord())
	}
	return nil
}

func decodeText(ctx context.Context, token, hexs string, progress func(done, total uint64)) (*core.Core, error) {
	var b []byte
	var err error
	if token != "" {
		b, err = corefmt.DecodeToken(token)
	} else {
		b, err = corefmt.DecodeHex(hexs)
	}
	if err != nil {
		return nil, err
	}
	var cp core.Compact
	if err := cp.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return cp.RestoreContext(ctx, func(done uint64) { progress(done, cp.Steps) })
}

func readText(in string) (*core.Core, error) {
	r, closeIn, err := input(in)
	if err != nil {
		return nil, err
	}
	defer closeIn()
	return core.ReadFullState(r)
}

func loadFile(ctx context.Context, in string, maxBytes uint64, progress func(done, total uint64)) (*core.Core, core.Format, error) {
	r, closeIn, err := input(in)
	if err != nil {
		return nil, 0, err
	}
	defer closeIn()
	return corefmt.LoadCore(ctx, r, maxBytes, progress)
}

func input(path string) (io.Reader, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return fh, func() { _ = fh.Close() }, nil
}

func newReplayBar(total uint64) *pb.ProgressBar {
	bar := pb.New64(int64(total))
	bar.SetWriter(os.Stderr)
	return bar.Start()
}

func output(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	fh, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return fh, fh.Close, nil
}
