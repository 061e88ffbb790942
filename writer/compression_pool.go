// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package writer

import (
	"sync"

	"github.com/openvrs/vrs/compress"
)

// compressionPool bounds how many record payloads are compressed
// concurrently. Size 0 compresses inline on the caller's goroutine.
type compressionPool struct {
	size int
	sem  chan struct{}
}

func newCompressionPool(size int) *compressionPool {
	p := &compressionPool{size: size}
	if size > 0 {
		p.sem = make(chan struct{}, size)
	}
	return p
}

// compressJob is one payload awaiting compression, indexed so results can
// be placed back in their original position once every goroutine returns.
type compressJob struct {
	index   int
	payload []byte
	preset  compress.Preset
}

// CompressAll compresses every payload with its paired preset, returning
// framed results in the same order as the input. Backpressure: when the
// pool is bounded, a semaphore slot taken before each task starts and
// released when it finishes gates how many run concurrently.
func (p *compressionPool) CompressAll(payloads [][]byte, presets []compress.Preset) ([][]byte, error) {
	n := len(payloads)
	out := make([][]byte, n)
	if p.size <= 0 {
		for i := range payloads {
			frame, err := compress.Compress(payloads[i], presets[i])
			if err != nil {
				return nil, err
			}
			out[i] = frame
		}
		return out, nil
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		job := compressJob{index: i, payload: payloads[i], preset: presets[i]}
		wg.Add(1)
		p.sem <- struct{}{}
		go func(job compressJob) {
			defer wg.Done()
			defer func() { <-p.sem }()
			frame, err := compress.Compress(job.payload, job.preset)
			out[job.index] = frame
			errs[job.index] = err
		}(job)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
