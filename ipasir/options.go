package ipasir

import (
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// DecodeOptions decodes an engine option string into out, a pointer to a
// struct whose fields carry mapstructure tags.
//
// The string is a list of key=value pairs separated by commas, colons or
// spaces, such as "restart=luby,var-decay=0.9". Keys may be prefixed by dashes
// and a key without a value is set to true. Unknown keys are an error.
func DecodeOptions(options string, out interface{}) error {
	raw := make(map[string]interface{})
	fields := strings.FieldsFunc(options, func(r rune) bool {
		return r == ',' || r == ':' || unicode.IsSpace(r)
	})
	for _, field := range fields {
		field = strings.TrimLeft(field, "-")
		if field == "" {
			continue
		}
		key, value, found := strings.Cut(field, "=")
		if !found {
			value = "true"
		}
		raw[key] = value
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, "could not build option decoder")
	}
	return errors.Wrapf(dec.Decode(raw), "invalid options %q", options)
}
