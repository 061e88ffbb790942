// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package vrs implements the on-disk container primitives for VRS: the
// 16-byte block header, stream identity, tags, record typing, the index
// entry ordering, and the file/chunk path forms. The streaming writer,
// reader, data-layout schema engine, record format grammar, and filter/copy
// pipeline live in the sibling packages chunkio, compress, datalayout,
// recordformat, record, recordable, writer, reader, and filter.
package vrs
