// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package datalayout

// Fuzz exercises schema decoding against arbitrary input.
func Fuzz(data []byte) int {
	d, err := ParseSchema(data)
	if err != nil {
		return 0
	}
	if _, err := d.MarshalJSON(); err != nil {
		return 0
	}
	return 1
}
