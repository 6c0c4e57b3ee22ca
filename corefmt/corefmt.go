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

// Package corefmt moves serialized generator state across byte and text
// transports: base64/hex for JSON and logs, uvarint frames for streams, and
// the checkpoint container used for files.
package corefmt

import (
	"bufio"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/zintix-labs/detrand/errs"
)

// EncodeToken renders a compact state as a URL-safe token for query strings.
func EncodeToken(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeToken is the counterpart of EncodeToken. Malformed input is CorruptState.
func DecodeToken(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.WrapKind(err, errs.CorruptState, "decode token failed")
	}
	return b, nil
}

// EncodeHex is used for human-copyable dumps in logs and CLI output.
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.WrapKind(err, errs.CorruptState, "decode hex failed")
	}
	return b, nil
}

// WriteFrame writes uvarint(len(payload)) || payload into w.
func WriteFrame(w io.Writer, payload []byte) error {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(payload)))
	if _, err := w.Write(hdr[:n]); err != nil {
		return errs.Wrap(err, "write frame header failed")
	}
	if _, err := w.Write(payload); err != nil {
		return errs.Wrap(err, "write frame payload failed")
	}
	return nil
}

// ReadFrame reads one frame written by WriteFrame.
//
// maxBytes caps the declared length; 0 means DefaultMaxCheckpoint. A truncated
// or oversized frame is CorruptState.
// If r is not a *bufio.Reader it may be read past the end of the frame.
func ReadFrame(r io.Reader, maxBytes uint64) ([]byte, error) {
	br := byteReader(r)
	ln, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, errs.WrapKind(err, errs.CorruptState, "read frame header failed")
	}
	if maxBytes == 0 {
		maxBytes = DefaultMaxCheckpoint
	}
	if ln > maxBytes {
		return nil, errs.Corruptf("frame of %d bytes exceeds limit %d", ln, maxBytes)
	}
	buf := make([]byte, ln)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, errs.WrapKind(err, errs.CorruptState, "read frame payload failed")
	}
	return buf, nil
}

// byteReader wraps r so that it satisfies io.ByteReader.
func byteReader(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}
