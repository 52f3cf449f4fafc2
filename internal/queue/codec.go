package queue

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/soltixdb/depotcast/internal/compression"
)

// EventCodec turns message structs into queue payloads: JSON, framed with
// the compression algorithm header. Decode also accepts bare JSON so that
// external producers can publish requests without framing them.
type EventCodec struct {
	compressor compression.Compressor
}

// NewEventCodec returns a codec that snappy-compresses payloads when
// compress is set.
func NewEventCodec(compress bool) EventCodec {
	if compress {
		return EventCodec{compressor: compression.SnappyCompressor{}}
	}
	return EventCodec{compressor: compression.NoneCompressor{}}
}

// Encode marshals v and frames it.
func (c EventCodec) Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	if c.compressor == nil {
		c.compressor = compression.NoneCompressor{}
	}
	return compression.Frame(c.compressor, raw)
}

// Decode unmarshals a framed or bare JSON payload into v.
func (c EventCodec) Decode(data []byte, v any) error {
	payload := data
	if !isBareJSON(data) {
		var err error
		payload, err = compression.Unframe(data)
		if err != nil {
			return fmt.Errorf("decode message: %w", err)
		}
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

func isBareJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
