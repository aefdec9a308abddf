// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sansio

import "code.hybscloud.com/atomix"

// Serial is a monotonically increasing engine identifier.
// Each Driver and Mux is assigned the next serial value on creation.
type Serial = uint32

// ID identifies a task hosted by a [Mux]. Ids are assigned sequentially
// from 1 at spawn time and are never reused by the same Mux.
type ID uint64

// counter is the global monotonic counter for engine serials.
var counter atomix.Uint32

// nextSerial returns the next monotonically increasing serial.
func nextSerial() Serial {
	return counter.Add(1)
}
