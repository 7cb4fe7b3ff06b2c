// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"sort"
	"sync"
	"time"
)

// maxAllowedOffsetSeconds is the maximum number of seconds in either
// direction that local clock is allowed to be offset from the median of
// sampled peer times before the sample is ignored for adjustment purposes.
const maxAllowedOffsetSeconds = 70 * 60

// similarTimeSeconds is the number of seconds that is used to filter out
// peer time samples that are too similar to the local time, used to
// determine whether the local clock warrants a warning about being wrong.
const similarTimeSeconds = 5 * 60

// maxMedianTimeEntries is the maximum number of peer time samples that are
// stored and used to calculate the median time offset used to adjust the
// local clock.
var maxMedianTimeEntries = 200

// MedianTimeSource provides a mechanism to add several time samples which
// are used to determine a median time which is then used to offset the
// local clock. This is used because a network consisting of many nodes
// that are all using the same local time source should be more resistant
// to time-based attacks than a single node whose clock might be wrong.
//
// A source of this kind can back the AdjustedTime clock the block assembler
// seeds every candidate block's initial nTime from — it is
// consensus-adjacent even though it lives entirely client-side.
type MedianTimeSource interface {
	// AdjustedTime returns the current time adjusted by the median time
	// offset learned from the time samples added by AddTimeSample.
	AdjustedTime() time.Time

	// AddTimeSample adds a time sample that is used when determining the
	// median time of the added samples.
	AddTimeSample(id string, timeVal time.Time)

	// Offset returns the number of seconds to adjust the local clock
	// based upon the median of the time samples added by AddTimeSample.
	Offset() time.Duration
}

// int64Sorter implements sort.Interface to allow a slice of int64s to be
// sorted.
type int64Sorter []int64

func (s int64Sorter) Len() int           { return len(s) }
func (s int64Sorter) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s int64Sorter) Less(i, j int) bool { return s[i] < s[j] }

// medianTime provides an implementation of the MedianTimeSource interface.
// It is limited to maxMedianTimeEntries, and will only include one sample
// per peer id.
type medianTime struct {
	mtx                sync.Mutex
	knownIDs           map[string]struct{}
	offsets            []int64
	offsetSecs         int64
	invalidTimeChecked bool
}

// AdjustedTime returns the current time adjusted by the median time offset
// learned from the time samples added by AddTimeSample.
//
// This is part of the MedianTimeSource interface implementation.
func (m *medianTime) AdjustedTime() time.Time {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	now := time.Unix(time.Now().Unix(), 0)
	return now.Add(time.Duration(m.offsetSecs) * time.Second)
}

// AddTimeSample adds a time sample that is used when determining the median
// time of the added samples.
//
// This is part of the MedianTimeSource interface implementation.
func (m *medianTime) AddTimeSample(sourceID string, timeVal time.Time) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if _, exists := m.knownIDs[sourceID]; exists {
		return
	}
	m.knownIDs[sourceID] = struct{}{}

	now := time.Unix(time.Now().Unix(), 0)
	offsetSecs := int64(timeVal.Sub(now).Seconds())
	numOffsets := len(m.offsets)
	if numOffsets == maxMedianTimeEntries && maxMedianTimeEntries > 0 {
		m.offsets = m.offsets[1:]
		numOffsets--
	}
	m.offsets = append(m.offsets, offsetSecs)
	numOffsets++

	sortedOffsets := make([]int64, numOffsets)
	copy(sortedOffsets, m.offsets)
	sort.Sort(int64Sorter(sortedOffsets))

	offsetDuration := time.Duration(offsetSecs) * time.Second
	log.Debugf("Adding time sample of %v (total: %v)", offsetDuration,
		numOffsets)

	if numOffsets < 5 || numOffsets&1 != 1 {
		return
	}

	median := sortedOffsets[numOffsets/2]

	if median < -maxAllowedOffsetSeconds || median > maxAllowedOffsetSeconds {
		// The median is too far from local time to be trusted: apply no
		// offset, and warn once if no peer agrees with the local clock.
		m.offsetSecs = 0
		if m.invalidTimeChecked {
			return
		}
		m.invalidTimeChecked = true

		hasSimilarTime := false
		for _, offset := range sortedOffsets {
			if offset != 0 && offset > -similarTimeSeconds &&
				offset < similarTimeSeconds {
				hasSimilarTime = true
				break
			}
		}

		if !hasSimilarTime {
			log.Warnf("It appears that your system clock is not "+
				"synced with other nodes on the network; this may "+
				"cause assembled blocks to be rejected (median "+
				"offset %v)", time.Duration(median)*time.Second)
		}
		return
	}

	m.offsetSecs = median
}

// Offset returns the number of seconds to adjust the local clock based upon
// the median of the time samples added by AddTimeSample.
//
// This is part of the MedianTimeSource interface implementation.
func (m *medianTime) Offset() time.Duration {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return time.Duration(m.offsetSecs) * time.Second
}

// NewMedianTime returns a new instance of concurrency-safe implementation of
// the MedianTimeSource interface. The returned implementation holds no time
// samples and a zero offset, so calling AdjustedTime on the returned
// instance returns the current local time until enough samples are added.
func NewMedianTime() MedianTimeSource {
	m := &medianTime{
		knownIDs: make(map[string]struct{}),
		offsets:  make([]int64, 0, maxMedianTimeEntries),
	}
	return m
}
