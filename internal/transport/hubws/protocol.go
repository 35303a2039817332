package hubws

import (
	"encoding/json"
	"fmt"
)

// Frame kinds on the hub socket. The server pushes "event" frames; the
// client sends "invoke" frames and receives matching "result" frames.
const (
	frameEvent      = "event"
	frameInvocation = "invoke"
	frameCompletion = "result"
)

// frame is the single wire envelope for every hub message.
type frame struct {
	Kind         string          `json:"kind"`
	InvocationID string          `json:"invocationId,omitempty"`
	Method       string          `json:"method,omitempty"`
	Args         json.RawMessage `json:"args,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	Error        string          `json:"error,omitempty"`
}

func encodeFrame(f frame) ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", f.Kind, err)
	}
	return b, nil
}

func decodeFrame(data []byte) (frame, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Kind == "" {
		return frame{}, fmt.Errorf("decode frame: missing kind")
	}
	return f, nil
}

func invocationFrame(id, method string, args any) (frame, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return frame{}, fmt.Errorf("encode %s args: %w", method, err)
	}
	return frame{
		Kind:         frameInvocation,
		InvocationID: id,
		Method:       method,
		Args:         raw,
	}, nil
}
