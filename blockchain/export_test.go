// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

// TstSetMaxMedianTimeEntries sets the maximum number of entries allowed in
// the median time implementation used to tests the impact of entry count
// without having to add a bunch of time samples to do so.
func TstSetMaxMedianTimeEntries(val int) {
	maxMedianTimeEntries = val
}
