package server

import "encoding/json"

// JSONCodec lets connect carry plain Go structs as application/json. It
// replaces connect's built-in "json" codec, which only accepts proto messages.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
