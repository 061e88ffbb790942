// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package vrs

import (
	"bytes"
	"testing"
)

var blockHeaderTests = []struct {
	in  BlockHeader
	out error
}{
	{BlockHeader{MagicBytes: Magic, Type: BlockTypeFileHeader, BlockSize: 32}, nil},
	{BlockHeader{MagicBytes: Magic, Type: BlockTypeRecord, BlockSize: BlockHeaderSize}, nil},
}

func TestBlockHeaderRoundTrip(t *testing.T) {
	for _, tt := range blockHeaderTests {
		t.Run(tt.in.Type.String(), func(t *testing.T) {
			buf := tt.in.Marshal()
			got, err := UnmarshalBlockHeader(buf)
			if err != tt.out {
				t.Errorf("UnmarshalBlockHeader() failed, reason: %v", err)
				return
			}
			if got != tt.in {
				t.Errorf("UnmarshalBlockHeader() got %+v, want %+v", got, tt.in)
			}
		})
	}
}

func TestUnmarshalBlockHeaderTruncated(t *testing.T) {
	buf := BlockHeader{MagicBytes: Magic, Type: BlockTypeRecord, BlockSize: 64}.Marshal()
	for k := 1; k <= BlockHeaderSize; k++ {
		_, err := UnmarshalBlockHeader(buf[:BlockHeaderSize-k])
		if err != ErrNotEnoughData {
			t.Errorf("UnmarshalBlockHeader(truncated by %d) got %v, want ErrNotEnoughData", k, err)
		}
	}
}

func TestUnmarshalBlockHeaderBadMagic(t *testing.T) {
	buf := BlockHeader{MagicBytes: Magic, Type: BlockTypeRecord, BlockSize: 64}.Marshal()
	buf[0] ^= 0xff
	if _, err := UnmarshalBlockHeader(buf); err == nil {
		t.Errorf("UnmarshalBlockHeader(bad magic) succeeded, want error")
	}
}

func TestFileHeaderRoundTrip(t *testing.T) {
	h := FileHeader{FormatVersion: FormatVersion, DescriptionOffset: 4096}
	buf := h.Marshal()
	got, err := UnmarshalFileHeader(buf[BlockHeaderSize:])
	if err != nil {
		t.Fatalf("UnmarshalFileHeader() failed: %v", err)
	}
	if got != h {
		t.Errorf("UnmarshalFileHeader() = %+v, want %+v", got, h)
	}

	patched := MarshalDescriptionOffset(8192)
	copy(buf[DescriptionOffsetFieldOffset:], patched)
	got, err = UnmarshalFileHeader(buf[BlockHeaderSize:])
	if err != nil {
		t.Fatalf("UnmarshalFileHeader() after patch failed: %v", err)
	}
	if got.DescriptionOffset != 8192 {
		t.Errorf("DescriptionOffset after patch = %d, want 8192", got.DescriptionOffset)
	}
}

func TestStreamIdRoundTrip(t *testing.T) {
	ids := []StreamId{{1, 1}, {65535, 65535}, {0, 1}}
	for _, id := range ids {
		s := id.String()
		got, err := ParseStreamId(s)
		if err != nil {
			t.Errorf("ParseStreamId(%s) failed: %v", s, err)
			continue
		}
		if got != id {
			t.Errorf("ParseStreamId(%s) = %+v, want %+v", s, got, id)
		}
		if packed := UnpackStreamId(id.Pack()); packed != id {
			t.Errorf("UnpackStreamId(Pack()) = %+v, want %+v", packed, id)
		}
	}
}

func TestIndexEntryOrder(t *testing.T) {
	a := IndexEntry{Timestamp: 1, StreamId: StreamId{1, 1}, RecordType: RecordTypeData, Offset: 10}
	b := IndexEntry{Timestamp: 1, StreamId: StreamId{1, 1}, RecordType: RecordTypeData, Offset: 20}
	c := IndexEntry{Timestamp: 2, StreamId: StreamId{1, 1}, RecordType: RecordTypeData, Offset: 5}
	entries := []IndexEntry{c, b, a}
	SortIndexEntries(entries)
	if entries[0] != a || entries[1] != b || entries[2] != c {
		t.Errorf("SortIndexEntries() = %+v, want [a b c]", entries)
	}
}

func TestParsePathForms(t *testing.T) {
	local, err := ParsePath("/tmp/recording.vrs")
	if err != nil || local.FileName != "/tmp/recording.vrs" || local.IsChunked() || local.IsExternal() {
		t.Errorf("ParsePath(local) = %+v, err %v", local, err)
	}

	chunked, err := ParsePath(`{"chunks":["a.vrs","a.vrs_1"],"chunk_sizes":[1000,0]}`)
	if err != nil || !chunked.IsChunked() || len(chunked.Chunks) != 2 {
		t.Errorf("ParsePath(chunked) = %+v, err %v", chunked, err)
	}

	uri, err := ParsePath("s3:my-bucket/key?region=us-east-1")
	if err != nil || !uri.IsExternal() || uri.Scheme != "s3" || uri.Extras["region"] != "us-east-1" {
		t.Errorf("ParsePath(uri) = %+v, err %v", uri, err)
	}
}

func TestDescriptionRoundTrip(t *testing.T) {
	d := Description{
		FileTags: Tags{"session_id": "abc"},
		Streams: []StreamDescription{
			{TypeID: 100, InstanceID: 1, UserTags: Tags{"serial": "xyz"}},
		},
	}
	buf, err := d.Marshal()
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	got, err := UnmarshalDescription(buf)
	if err != nil {
		t.Fatalf("UnmarshalDescription() failed: %v", err)
	}
	if got.FileTags["session_id"] != "abc" || len(got.Streams) != 1 {
		t.Errorf("UnmarshalDescription() = %+v, want roundtrip of %+v", got, d)
	}
	if !bytes.Contains(buf, []byte("session_id")) {
		t.Errorf("Marshal() output missing expected field")
	}
}
