// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package reader_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/reader"
	"github.com/openvrs/vrs/record"
	"github.com/openvrs/vrs/recordable"
	"github.com/openvrs/vrs/recordformat"
	"github.com/openvrs/vrs/writer"
)

func mustFormat(t *testing.T, s string) recordformat.Format {
	t.Helper()
	f, err := recordformat.Parse(s)
	if err != nil {
		t.Fatalf("recordformat.Parse(%q) failed: %v", s, err)
	}
	return f
}

// recordingPlayer captures every payload ProcessRecord is given, in the
// order it was dispatched.
type recordingPlayer struct {
	payloads []string
}

func (p *recordingPlayer) ProcessRecordHeader(reader.RecordInfo) bool { return true }

func (p *recordingPlayer) ProcessRecord(info reader.RecordInfo, payload []byte) error {
	p.payloads = append(p.payloads, string(payload))
	return nil
}

// writeCameraFile builds a one-stream file with a configuration record
// and two data records, and returns its path and stream id.
func writeCameraFile(t *testing.T) (string, vrs.StreamId) {
	t.Helper()
	streamID := vrs.StreamId{TypeID: 100, InstanceID: 1}
	camera := recordable.New(streamID, "camera")
	camera.RegisterRecordFormat(vrs.RecordTypeConfiguration, 1, mustFormat(t, "custom/cfg/size=3"))
	camera.RegisterRecordFormat(vrs.RecordTypeData, 1, mustFormat(t, "custom/frame/size=7"))

	w := writer.New(writer.Options{})
	if err := w.AddStream(camera, false, false); err != nil {
		t.Fatalf("AddStream() failed: %v", err)
	}
	camera.CreateConfigurationRecord(0, 1, record.RawBytes("cfg"))
	camera.CreateDataRecord(1.0, 1, record.RawBytes("frame-1"))
	camera.CreateDataRecord(2.0, 1, record.RawBytes("frame-2"))

	path := filepath.Join(t.TempDir(), "out.vrs")
	if err := w.WriteToFile(path); err != nil {
		t.Fatalf("WriteToFile() failed: %v", err)
	}
	return path, streamID
}

func TestOpenAndGetRecordGlobalOrder(t *testing.T) {
	path, streamID := writeCameraFile(t)

	rd, err := reader.Open(path, nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer rd.Close()

	if rd.RecordCount() != 3 {
		t.Fatalf("RecordCount() = %d, want 3", rd.RecordCount())
	}
	if ids := rd.StreamIds(); len(ids) != 1 || ids[0] != streamID {
		t.Fatalf("StreamIds() = %v, want [%v]", ids, streamID)
	}
	if rd.Degraded() {
		t.Errorf("Degraded() = true for a cleanly written file, want false")
	}

	player := &recordingPlayer{}
	rd.SetStreamPlayer(streamID, player)
	for i := 0; i < rd.RecordCount(); i++ {
		if err := rd.GetRecord(i); err != nil {
			t.Fatalf("GetRecord(%d) failed: %v", i, err)
		}
	}
	want := []string{"cfg", "frame-1", "frame-2"}
	if !reflect.DeepEqual(player.payloads, want) {
		t.Errorf("GetRecord() payloads = %v, want %v", player.payloads, want)
	}
}

func TestGetStreamAndStreamTypeRecord(t *testing.T) {
	path, streamID := writeCameraFile(t)

	rd, err := reader.Open(path, nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer rd.Close()

	player := &recordingPlayer{}
	rd.SetStreamPlayer(streamID, player)

	if got := rd.StreamRecordCount(streamID); got != 3 {
		t.Fatalf("StreamRecordCount() = %d, want 3", got)
	}
	if err := rd.GetStreamRecord(streamID, 1); err != nil {
		t.Fatalf("GetStreamRecord(1) failed: %v", err)
	}
	if err := rd.GetStreamTypeRecord(streamID, vrs.RecordTypeData, 1); err != nil {
		t.Fatalf("GetStreamTypeRecord(Data, 1) failed: %v", err)
	}
	want := []string{"frame-1", "frame-2"}
	if !reflect.DeepEqual(player.payloads, want) {
		t.Errorf("payloads = %v, want %v", player.payloads, want)
	}

	if err := rd.GetStreamRecord(streamID, 99); err == nil {
		t.Errorf("GetStreamRecord(99) succeeded, want out-of-range error")
	}
}

func TestGetRecordByTime(t *testing.T) {
	path, streamID := writeCameraFile(t)

	rd, err := reader.Open(path, nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer rd.Close()

	player := &recordingPlayer{}
	rd.SetStreamPlayer(streamID, player)

	if err := rd.GetRecordByTime(streamID, 1.5); err != nil {
		t.Fatalf("GetRecordByTime(1.5) failed: %v", err)
	}
	if err := rd.GetRecordByTime(streamID, 10.0); err != nil {
		t.Fatalf("GetRecordByTime(10.0) failed: %v", err)
	}
	want := []string{"frame-1", "frame-2"}
	if !reflect.DeepEqual(player.payloads, want) {
		t.Errorf("payloads = %v, want %v", player.payloads, want)
	}

	if err := rd.GetRecordByTime(streamID, -1.0); err == nil {
		t.Errorf("GetRecordByTime(-1.0) succeeded, want error (before any record)")
	}
}

func TestReadFirstConfigurationRecords(t *testing.T) {
	path, streamID := writeCameraFile(t)

	rd, err := reader.Open(path, nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer rd.Close()

	player := &recordingPlayer{}
	rd.SetStreamPlayer(streamID, player)

	if err := rd.ReadFirstConfigurationRecord(streamID); err != nil {
		t.Fatalf("ReadFirstConfigurationRecord() failed: %v", err)
	}
	if err := rd.ReadFirstConfigurationRecords(); err != nil {
		t.Fatalf("ReadFirstConfigurationRecords() failed: %v", err)
	}
	want := []string{"cfg", "cfg"}
	if !reflect.DeepEqual(player.payloads, want) {
		t.Errorf("payloads = %v, want %v", player.payloads, want)
	}

	other := vrs.StreamId{TypeID: 999, InstanceID: 1}
	if err := rd.ReadFirstConfigurationRecord(other); err == nil {
		t.Errorf("ReadFirstConfigurationRecord() for unknown stream succeeded, want error")
	}
}

func TestUnregisteredStreamIsSilentlySkipped(t *testing.T) {
	path, _ := writeCameraFile(t)

	rd, err := reader.Open(path, nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer rd.Close()

	// No SetStreamPlayer call: GetRecord must still succeed, doing nothing.
	if err := rd.GetRecord(0); err != nil {
		t.Fatalf("GetRecord() with no registered player failed: %v", err)
	}
}

func TestOpenRebuildsIndexWhenDescriptionIsCorrupt(t *testing.T) {
	path, streamID := writeCameraFile(t)

	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	header, err := vrs.UnmarshalFileHeader(buf[vrs.BlockHeaderSize:])
	if err != nil {
		t.Fatalf("UnmarshalFileHeader() failed: %v", err)
	}
	// Scribble over the description block's payload, leaving its block
	// header (and therefore the rest of the file's byte offsets) intact.
	corrupt := append([]byte(nil), buf...)
	start := header.DescriptionOffset + vrs.BlockHeaderSize
	for i := start; i < start+16 && int(i) < len(corrupt); i++ {
		corrupt[i] = 0xFF
	}
	corruptPath := filepath.Join(t.TempDir(), "corrupt.vrs")
	if err := os.WriteFile(corruptPath, corrupt, 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	rd, err := reader.Open(corruptPath, nil)
	if err != nil {
		t.Fatalf("Open() with corrupt description failed: %v", err)
	}
	defer rd.Close()

	// The degraded scan recovers every record but not stream tags, since
	// those live in the Description block itself.
	if !rd.Degraded() {
		t.Errorf("Degraded() = false, want true after a corrupt Description forced rebuild-by-scan")
	}
	if rd.RecordCount() != 3 {
		t.Fatalf("RecordCount() after scan-rebuild = %d, want 3", rd.RecordCount())
	}
	player := &recordingPlayer{}
	rd.SetStreamPlayer(streamID, player)
	for i := 0; i < rd.RecordCount(); i++ {
		if err := rd.GetRecord(i); err != nil {
			t.Fatalf("GetRecord(%d) after scan-rebuild failed: %v", i, err)
		}
	}
	if len(player.payloads) != 3 {
		t.Errorf("payloads after scan-rebuild = %v, want 3 entries", player.payloads)
	}
}

// TestOpenRebuildsIndexWhenDescriptionChecksumMismatches corrupts only the
// trailing checksum, leaving the JSON payload itself well-formed, to make
// sure the checksum cross-check (not just JSON decode failure) is what
// forces the degraded scan.
func TestOpenRebuildsIndexWhenDescriptionChecksumMismatches(t *testing.T) {
	path, _ := writeCameraFile(t)

	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	header, err := vrs.UnmarshalFileHeader(buf[vrs.BlockHeaderSize:])
	if err != nil {
		t.Fatalf("UnmarshalFileHeader() failed: %v", err)
	}
	descBlock, err := vrs.UnmarshalBlockHeader(buf[header.DescriptionOffset:])
	if err != nil {
		t.Fatalf("UnmarshalBlockHeader(description) failed: %v", err)
	}
	lastByte := header.DescriptionOffset + int64(descBlock.BlockSize) - 1

	corrupt := append([]byte(nil), buf...)
	corrupt[lastByte] ^= 0xFF
	corruptPath := filepath.Join(t.TempDir(), "corrupt-checksum.vrs")
	if err := os.WriteFile(corruptPath, corrupt, 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	rd, err := reader.Open(corruptPath, nil)
	if err != nil {
		t.Fatalf("Open() with bad description checksum failed: %v", err)
	}
	defer rd.Close()

	if !rd.Degraded() {
		t.Errorf("Degraded() = false, want true after a description checksum mismatch forced rebuild-by-scan")
	}
	if rd.RecordCount() != 3 {
		t.Fatalf("RecordCount() after scan-rebuild = %d, want 3", rd.RecordCount())
	}
}
