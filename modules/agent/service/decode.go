package service

import (
	"github.com/mitchellh/mapstructure"
)

// decodeInto copies a loosely typed completion object onto a tagged struct.
// Weak typing lets a lone "a@b.c" fill a []string attendee list.
func decodeInto(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}
