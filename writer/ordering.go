// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package writer

import (
	"sort"

	"github.com/openvrs/vrs/record"
)

// MergeBatches merges per-stream batches, each already sorted by
// record.Record.Less, into a single batch in record.GlobalLess order.
// Every Recordable hands back its pending records already ordered by
// CollectOldRecords, so the merge only needs to restore cross-stream
// order; a stable sort over the concatenation is sufficient and
// preserves arrival order on ties, matching the "equal sort keys emitted
// in arrival order" invariant.
func MergeBatches(batches [][]*record.Record) []*record.Record {
	total := 0
	for _, b := range batches {
		total += len(b)
	}
	merged := make([]*record.Record, 0, total)
	for _, b := range batches {
		merged = append(merged, b...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return record.GlobalLess(merged[i], merged[j])
	})
	return merged
}
