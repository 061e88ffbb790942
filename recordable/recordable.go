// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package recordable implements the per-stream identity and factory
// hooks a writer attaches to.
package recordable

import (
	"fmt"

	"github.com/openvrs/vrs"
	"github.com/openvrs/vrs/datalayout"
	"github.com/openvrs/vrs/record"
	"github.com/openvrs/vrs/recordformat"
)

// ConfigurationFactory builds a stream's configuration record on demand,
// called once when the writer attaches the stream if the caller has not
// already produced one.
type ConfigurationFactory func() record.DataSource

// StateFactory builds a stream's state record on demand, analogous to
// ConfigurationFactory.
type StateFactory func() record.DataSource

// Recordable is the base every stream type embeds: identity, tags, and
// an owned RecordManager. Go favors embedding over the original's
// inheritance-from-an-abstract-base design; concrete stream types embed
// *Recordable and add their own typed data-record creators.
type Recordable struct {
	streamID vrs.StreamId
	flavor   string

	userTags vrs.Tags
	vrsTags  vrs.Tags

	manager *record.Manager

	formats map[formatKey]recordformat.Format

	configFactory ConfigurationFactory
	stateFactory  StateFactory

	attached bool
}

type formatKey struct {
	recordType vrs.RecordType
	version    uint32
}

// New returns a Recordable with the given identity, ready to be embedded
// by a concrete stream type.
func New(streamID vrs.StreamId, flavor string) *Recordable {
	return &Recordable{
		streamID: streamID,
		flavor:   flavor,
		userTags: make(vrs.Tags),
		vrsTags:  make(vrs.Tags),
		manager:  record.NewManager(),
		formats:  make(map[formatKey]recordformat.Format),
	}
}

// StreamID returns the stream's identity.
func (r *Recordable) StreamID() vrs.StreamId { return r.streamID }

// Flavor returns the stream's optional flavor string, or "" if unset.
func (r *Recordable) Flavor() string { return r.flavor }

// Manager returns the stream's RecordManager, used to create and drain
// records.
func (r *Recordable) Manager() *record.Manager { return r.manager }

// SetUserTag sets a user-facing tag on the stream.
func (r *Recordable) SetUserTag(key, value string) { r.userTags[key] = value }

// UserTags returns the stream's user tags.
func (r *Recordable) UserTags() vrs.Tags { return r.userTags.Clone() }

// VRSTags returns the stream's internal VRS tags (registered RecordFormat
// and DataLayout schema tags).
func (r *Recordable) VRSTags() vrs.Tags { return r.vrsTags.Clone() }

// SetVRSTag sets a single internal VRS tag directly, for callers
// replicating another stream's tags verbatim (the filter/copy pipeline's
// stand-in streams) rather than deriving them through
// RegisterRecordFormat/RegisterDataLayout.
func (r *Recordable) SetVRSTag(key, value string) { r.vrsTags[key] = value }

// RegisterRecordFormat declares the RecordFormat used for recordType at
// formatVersion, recording it as a VRS tag the Description block will
// serialize.
func (r *Recordable) RegisterRecordFormat(recordType vrs.RecordType, formatVersion uint32, format recordformat.Format) {
	r.formats[formatKey{recordType, formatVersion}] = format
	r.vrsTags[vrs.RecordFormatTagName(recordType, formatVersion)] = format.String()
}

// RecordFormat returns the RecordFormat registered for (recordType,
// formatVersion), and whether one was found.
func (r *Recordable) RecordFormat(recordType vrs.RecordType, formatVersion uint32) (recordformat.Format, bool) {
	f, ok := r.formats[formatKey{recordType, formatVersion}]
	return f, ok
}

// RegisterDataLayout declares the schema a DataLayoutBlock at blockIndex,
// for (recordType, formatVersion), is encoded with, recording it as a VRS
// tag so a reader can parse that block without out-of-band knowledge of
// its field layout.
func (r *Recordable) RegisterDataLayout(recordType vrs.RecordType, formatVersion uint32, blockIndex int, layout *datalayout.DataLayout) error {
	schema, err := layout.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal data layout schema: %w", err)
	}
	r.vrsTags[vrs.DataLayoutTagName(recordType, formatVersion, blockIndex)] = string(schema)
	return nil
}

// SetConfigurationFactory installs the hook the writer calls to produce a
// placeholder configuration record if the caller created none before
// attach.
func (r *Recordable) SetConfigurationFactory(f ConfigurationFactory) { r.configFactory = f }

// SetStateFactory installs the hook the writer calls to produce a
// placeholder state record if the caller created none before attach.
func (r *Recordable) SetStateFactory(f StateFactory) { r.stateFactory = f }

// EnsureAttached queues a placeholder configuration record and a
// placeholder state record from the registered factories, for each kind
// the caller reports it has not produced. A kind with no factory
// registered, or whose factory returns nil, gets no record. Only the
// first call has any effect; the writer calls it when the stream is added.
func (r *Recordable) EnsureAttached(hasConfiguration, hasState bool) {
	if r.attached {
		return
	}
	r.attached = true
	if !hasConfiguration && r.configFactory != nil {
		if src := r.configFactory(); src != nil {
			r.manager.CreateRecord(r.streamID, vrs.RecordTypeConfiguration, 0, 0, src)
		}
	}
	if !hasState && r.stateFactory != nil {
		if src := r.stateFactory(); src != nil {
			r.manager.CreateRecord(r.streamID, vrs.RecordTypeState, 0, 0, src)
		}
	}
}

// CreateDataRecord queues a new data record for timestamp using source.
func (r *Recordable) CreateDataRecord(timestamp float64, formatVersion uint32, source record.DataSource) *record.Record {
	return r.manager.CreateRecord(r.streamID, vrs.RecordTypeData, formatVersion, timestamp, source)
}

// CreateConfigurationRecord queues a new configuration record.
func (r *Recordable) CreateConfigurationRecord(timestamp float64, formatVersion uint32, source record.DataSource) *record.Record {
	return r.manager.CreateRecord(r.streamID, vrs.RecordTypeConfiguration, formatVersion, timestamp, source)
}

// CreateStateRecord queues a new state record.
func (r *Recordable) CreateStateRecord(timestamp float64, formatVersion uint32, source record.DataSource) *record.Record {
	return r.manager.CreateRecord(r.streamID, vrs.RecordTypeState, formatVersion, timestamp, source)
}
