// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package recordable

import (
	"testing"

	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/record"
	"github.com/openvrs/vrs/recordformat"
)

func TestEnsureAttachedCreatesPlaceholdersOnlyWhenMissing(t *testing.T) {
	r := New(vrs.StreamId{TypeID: 5, InstanceID: 0}, "")
	configCalls, stateCalls := 0, 0
	r.SetConfigurationFactory(func() record.DataSource {
		configCalls++
		return record.RawBytes("config")
	})
	r.SetStateFactory(func() record.DataSource {
		stateCalls++
		return record.RawBytes("state")
	})

	r.EnsureAttached(false, false)
	if configCalls != 1 || stateCalls != 1 {
		t.Fatalf("EnsureAttached(false, false) called factories %d/%d times, want 1/1", configCalls, stateCalls)
	}
	if got := r.Manager().Pending(); got != 2 {
		t.Fatalf("Pending() = %d, want 2", got)
	}

	r.EnsureAttached(true, true)
	if configCalls != 1 || stateCalls != 1 {
		t.Errorf("EnsureAttached() called factories again after already attached")
	}
}

func TestEnsureAttachedSkipsFactoryWhenRecordAlreadyExists(t *testing.T) {
	r := New(vrs.StreamId{TypeID: 5, InstanceID: 0}, "")
	called := false
	r.SetConfigurationFactory(func() record.DataSource {
		called = true
		return record.RawBytes("config")
	})
	r.EnsureAttached(true, true)
	if called {
		t.Errorf("configuration factory called even though hasConfiguration was true")
	}
}

func TestRegisterAndLookupRecordFormat(t *testing.T) {
	r := New(vrs.StreamId{TypeID: 1, InstanceID: 0}, "")
	format, err := recordformat.Parse("data_layout/size=8")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	r.RegisterRecordFormat(vrs.RecordTypeData, 1, format)

	got, ok := r.RecordFormat(vrs.RecordTypeData, 1)
	if !ok {
		t.Fatalf("RecordFormat() not found after RegisterRecordFormat()")
	}
	if got.String() != format.String() {
		t.Errorf("RecordFormat() = %q, want %q", got.String(), format.String())
	}
	if tag := r.VRSTags()[vrs.RecordFormatTagName(vrs.RecordTypeData, 1)]; tag != format.String() {
		t.Errorf("VRSTags()[RF tag] = %q, want %q", tag, format.String())
	}
}

func TestInstanceIDRegistryStableAssignment(t *testing.T) {
	reg := NewInstanceIDRegistry()
	a := reg.Acquire(7)
	b := reg.Acquire(7)
	if a == b {
		t.Fatalf("Acquire() returned duplicate ids %d, %d for the same type", a, b)
	}
	reg.Release(7, a)
	c := reg.Acquire(7)
	if c != a {
		t.Errorf("Acquire() after Release() = %d, want lowest free id %d", c, a)
	}
}
