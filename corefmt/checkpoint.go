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

package corefmt

import (
	"bytes"
	"context"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/detrand/errs"
	"github.com/zintix-labs/detrand/sdk/core"
)

// Checkpoint container layout:
//
//	"DRNG" | version(1) | format(1) | flags(1) | frame(payload)
//
// format is the core.Format of the payload and is the only thing decoding
// dispatches on. flags bit 0 marks a zstd-compressed payload.
const (
	checkpointVersion byte = 1
	flagZstd          byte = 1 << 0

	// DefaultMaxCheckpoint caps the payload of files read without an explicit limit.
	DefaultMaxCheckpoint uint64 = 1 << 20
)

var checkpointMagic = [4]byte{'D', 'R', 'N', 'G'}

// WriteCheckpoint writes payload (already encoded in format f) into w.
func WriteCheckpoint(w io.Writer, f core.Format, payload []byte, compress bool) error {
	var flags byte
	if compress {
		zw, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return errs.Wrap(err, "create zstd writer failed")
		}
		payload = zw.EncodeAll(payload, nil)
		_ = zw.Close()
		flags |= flagZstd
	}
	hdr := append(checkpointMagic[:], checkpointVersion, byte(f), flags)
	if _, err := w.Write(hdr); err != nil {
		return errs.Wrap(err, "write checkpoint header failed")
	}
	return WriteFrame(w, payload)
}

// ReadCheckpoint reads a container and returns the declared format with the
// decompressed payload. Anything malformed is CorruptState.
func ReadCheckpoint(r io.Reader, maxBytes uint64) (core.Format, []byte, error) {
	if maxBytes == 0 {
		maxBytes = DefaultMaxCheckpoint
	}
	br := byteReader(r)
	var hdr [7]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return 0, nil, errs.WrapKind(err, errs.CorruptState, "read checkpoint header failed")
	}
	if !bytes.Equal(hdr[:4], checkpointMagic[:]) {
		return 0, nil, errs.Corruptf("checkpoint: bad magic %q", hdr[:4])
	}
	if hdr[4] != checkpointVersion {
		return 0, nil, errs.Corruptf("checkpoint: unsupported version %d", hdr[4])
	}
	f := core.Format(hdr[5])
	if f != core.FormatCompact && f != core.FormatFull {
		return 0, nil, errs.Corruptf("checkpoint: unknown format %d", hdr[5])
	}
	payload, err := ReadFrame(br, maxBytes)
	if err != nil {
		return 0, nil, err
	}
	if hdr[6]&flagZstd != 0 {
		zr, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxBytes))
		if err != nil {
			return 0, nil, errs.Wrap(err, "create zstd reader failed")
		}
		defer zr.Close()
		if payload, err = zr.DecodeAll(payload, nil); err != nil {
			return 0, nil, errs.WrapKind(err, errs.CorruptState, "checkpoint: zstd payload")
		}
	}
	return f, payload, nil
}

// SaveCore encodes c in format f and writes it as a checkpoint.
func SaveCore(w io.Writer, c *core.Core, f core.Format, compress bool) error {
	payload, err := core.Encode(c, f)
	if err != nil {
		return err
	}
	return WriteCheckpoint(w, f, payload, compress)
}

// LoadCore reads a checkpoint and rebuilds the generator. Compact payloads are
// replayed under ctx; progress (may be nil) receives the words replayed so far.
func LoadCore(ctx context.Context, r io.Reader, maxBytes uint64, progress func(done, total uint64)) (*core.Core, core.Format, error) {
	f, payload, err := ReadCheckpoint(r, maxBytes)
	if err != nil {
		return nil, 0, err
	}
	if f == core.FormatFull {
		c, err := core.Decode(payload, f)
		return c, f, err
	}
	var cp core.Compact
	if err := cp.UnmarshalBinary(payload); err != nil {
		return nil, f, err
	}
	var report func(uint64)
	if progress != nil {
		report = func(done uint64) { progress(done, cp.Steps) }
	}
	c, err := cp.RestoreContext(ctx, report)
	return c, f, err
}
