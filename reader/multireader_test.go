// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package reader_test

import (
	"path/filepath"
	"testing"

	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/reader"
	"github.com/openvrs/vrs/record"
	"github.com/openvrs/vrs/recordable"
	"github.com/openvrs/vrs/writer"
)

// writeSessionFile writes a one-stream file tagged with session_id,
// carrying a single data record on the given typeID/instanceID.
func writeSessionFile(t *testing.T, name, sessionID string, typeID, instanceID uint16, payload string, ts float64) string {
	t.Helper()
	stream := recordable.New(vrs.StreamId{TypeID: typeID, InstanceID: instanceID}, "test")

	w := writer.New(writer.Options{})
	w.SetFileTag("session_id", sessionID)
	if err := w.AddStream(stream, false, false); err != nil {
		t.Fatalf("AddStream() failed: %v", err)
	}
	stream.CreateDataRecord(ts, 1, record.RawBytes(payload))

	path := filepath.Join(t.TempDir(), name)
	if err := w.WriteToFile(path); err != nil {
		t.Fatalf("WriteToFile() failed: %v", err)
	}
	return path
}

func TestOpenMultiRejectsUnrelatedFile(t *testing.T) {
	a := writeSessionFile(t, "a.vrs", "S", 1, 1, "a", 1.0)
	b := writeSessionFile(t, "b.vrs", "S", 2, 1, "b", 2.0)
	c := writeSessionFile(t, "c.vrs", "S", 3, 1, "c", 3.0)
	unrelated := writeSessionFile(t, "d.vrs", "S-prime", 4, 1, "d", 4.0)

	m, err := reader.OpenMulti([]string{a, b, c}, nil)
	if err != nil {
		t.Fatalf("OpenMulti(related files) failed: %v", err)
	}
	defer m.Close()
	if got := m.RecordCount(); got != 3 {
		t.Fatalf("RecordCount() = %d, want 3", got)
	}

	if _, err := reader.OpenMulti([]string{a, b, c, unrelated}, nil); err == nil {
		t.Fatalf("OpenMulti(with unrelated file) succeeded, want error")
	}
}

func TestOpenMultiReassignsCollidingStreamIds(t *testing.T) {
	// Both files record a stream at type 1, instance 1; the second file's
	// stream must be reassigned to stay unique in the merged view.
	a := writeSessionFile(t, "a.vrs", "S", 1, 1, "from-a", 1.0)
	b := writeSessionFile(t, "b.vrs", "S", 1, 1, "from-b", 2.0)

	m, err := reader.OpenMulti([]string{a, b}, nil)
	if err != nil {
		t.Fatalf("OpenMulti() failed: %v", err)
	}
	defer m.Close()

	ids := m.StreamIds()
	if len(ids) != 2 {
		t.Fatalf("StreamIds() = %v, want 2 entries", ids)
	}
	if ids[0] != (vrs.StreamId{TypeID: 1, InstanceID: 1}) {
		t.Errorf("first stream id = %v, want {1 1} (kept, first in input order)", ids[0])
	}
	if ids[1] == ids[0] {
		t.Fatalf("second stream id collides with the first: %v", ids[1])
	}
	if ids[1].TypeID != 1 {
		t.Errorf("second stream id = %v, want TypeID 1 (reassigned instance only)", ids[1])
	}

	players := make(map[vrs.StreamId]*recordingPlayer)
	for _, id := range ids {
		p := &recordingPlayer{}
		players[id] = p
		m.SetStreamPlayer(id, p)
	}
	for i := 0; i < m.RecordCount(); i++ {
		if err := m.GetRecord(i); err != nil {
			t.Fatalf("GetRecord(%d) failed: %v", i, err)
		}
	}
	if len(players[ids[0]].payloads) != 1 || players[ids[0]].payloads[0] != "from-a" {
		t.Errorf("stream %v payloads = %v, want [from-a]", ids[0], players[ids[0]].payloads)
	}
	if len(players[ids[1]].payloads) != 1 || players[ids[1]].payloads[0] != "from-b" {
		t.Errorf("stream %v payloads = %v, want [from-b]", ids[1], players[ids[1]].payloads)
	}

	tags, ok := m.StreamTags(ids[1])
	if !ok {
		t.Fatalf("StreamTags(%v) not found", ids[1])
	}
	if tags.TypeID != 1 || tags.InstanceID != 1 {
		t.Errorf("StreamTags(%v) reports original identity %d-%d, want 1-1 (the real recorded id)", ids[1], tags.TypeID, tags.InstanceID)
	}
}

func TestOpenMultiGlobalOrderAcrossFiles(t *testing.T) {
	a := writeSessionFile(t, "a.vrs", "S", 10, 1, "late", 5.0)
	b := writeSessionFile(t, "b.vrs", "S", 20, 1, "early", 1.0)

	m, err := reader.OpenMulti([]string{a, b}, nil)
	if err != nil {
		t.Fatalf("OpenMulti() failed: %v", err)
	}
	defer m.Close()

	var order []string
	for _, id := range m.StreamIds() {
		m.SetStreamPlayer(id, captureInto(&order))
	}
	for i := 0; i < m.RecordCount(); i++ {
		if err := m.GetRecord(i); err != nil {
			t.Fatalf("GetRecord(%d) failed: %v", i, err)
		}
	}
	if len(order) != 2 || order[0] != "early" || order[1] != "late" {
		t.Errorf("merged global order = %v, want [early late]", order)
	}
}

// captureInto returns a StreamPlayer that appends every payload it sees
// to dst, for tests that only care about cross-file ordering.
func captureInto(dst *[]string) reader.StreamPlayer {
	return &orderingPlayer{dst: dst}
}

type orderingPlayer struct{ dst *[]string }

func (p *orderingPlayer) ProcessRecordHeader(reader.RecordInfo) bool { return true }

func (p *orderingPlayer) ProcessRecord(info reader.RecordInfo, payload []byte) error {
	*p.dst = append(*p.dst, string(payload))
	return nil
}
