package bzip2

import "github.com/arvida-labs/compresscore/ccerr"

// encodeRLE1 applies BZip2's initial run-length coding (spec.md §4.2 step 1):
// every run of 4 identical bytes is followed by a single count byte giving
// how many additional repeats follow (0-255), so a run unit covers at most
// 4+255=259 bytes; runs shorter than 4 are left untouched, and longer runs
// repeat the 4-plus-count unit.
func encodeRLE1(data []byte) []byte {
	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		b := data[i]
		runEnd := i + 1
		for runEnd < len(data) && data[runEnd] == b {
			runEnd++
		}
		run := runEnd - i
		for run >= 4 {
			unit := run
			if unit > 259 {
				unit = 259
			}
			out = append(out, b, b, b, b, byte(unit-4))
			run -= unit
		}
		for k := 0; k < run; k++ {
			out = append(out, b)
		}
		i = runEnd
	}
	return out
}

// decodeRLE1 reverses encodeRLE1: every 4th consecutive identical output
// byte is followed by a count byte (consumed, not emitted) giving how many
// more repeats to produce. Grounded on the teacher's
// internal/bzip2/bzip2.go readFromBlock state machine (lastByte/byteRepeats/
// repeats), adapted from its incremental io.Reader shape to a single pass
// over an in-memory slice.
func decodeRLE1(data []byte, maxOutput int) ([]byte, error) {
	out := make([]byte, 0, len(data))
	lastByte := -1
	byteRepeats := 0
	i := 0
	for i < len(data) {
		if byteRepeats == 3 {
			repeat := int(data[i])
			i++
			if len(out)+repeat > maxOutput {
				return nil, ccerr.New(ccerr.ResourceLimitExceeded, "bzip2: RLE1 output exceeds max_output %d", maxOutput)
			}
			for k := 0; k < repeat; k++ {
				out = append(out, byte(lastByte))
			}
			lastByte = -1
			byteRepeats = 0
			continue
		}
		b := data[i]
		i++
		if lastByte == int(b) {
			byteRepeats++
		} else {
			byteRepeats = 0
		}
		lastByte = int(b)
		if len(out) >= maxOutput {
			return nil, ccerr.New(ccerr.ResourceLimitExceeded, "bzip2: RLE1 output exceeds max_output %d", maxOutput)
		}
		out = append(out, b)
	}
	return out, nil
}
