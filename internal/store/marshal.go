package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/assume/internal/ir"
)

// marshalFrames converts frames to canonical JSON TEXT for storage.
func marshalFrames(frames []ir.FrameRecord) (string, error) {
	list := make(ir.IRArray, len(frames))
	for i, f := range frames {
		list[i] = f.ToIR()
	}
	data, err := ir.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal frames: %w", err)
	}
	return string(data), nil
}

// unmarshalFrames parses frames TEXT. Returns an empty slice, not nil, for
// an empty capture.
func unmarshalFrames(data string) ([]ir.FrameRecord, error) {
	frames := []ir.FrameRecord{}
	if data == "" || data == "[]" {
		return frames, nil
	}
	if err := json.Unmarshal([]byte(data), &frames); err != nil {
		return nil, fmt.Errorf("unmarshal frames: %w", err)
	}
	return frames, nil
}
