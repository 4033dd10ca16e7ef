package access

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/aescanero/dago-templates/internal/namemap"
)

// JSONAccessor reads values out of raw JSON documents (json.RawMessage,
// []byte, string or gjson.Result) without decoding them first. Objects are
// returned as json.RawMessage, arrays as []any of elements, scalars as
// string, float64, bool or nil.
type JSONAccessor struct {
	Mapper namemap.NameMapper
}

// Access evaluates name as a gjson path
func (a JSONAccessor) Access(data any, name string) (any, bool, error) {
	var raw []byte
	switch d := data.(type) {
	case json.RawMessage:
		raw = d
	case []byte:
		raw = d
	case string:
		raw = []byte(d)
	case gjson.Result:
		raw = []byte(d.Raw)
	default:
		return nil, false, nil
	}

	segs := strings.Split(name, ".")
	for i, s := range segs {
		segs[i] = mapName(a.Mapper, s)
	}
	v, ok := jsonGet(raw, strings.Join(segs, "."))
	return v, ok, nil
}

func jsonGet(raw []byte, path string) (any, bool) {
	r := gjson.GetBytes(raw, path)
	if !r.Exists() {
		return nil, false
	}
	return fromResult(r), true
}

func fromResult(r gjson.Result) any {
	switch {
	case r.IsObject():
		return json.RawMessage(r.Raw)
	case r.IsArray():
		out := make([]any, 0)
		r.ForEach(func(_, v gjson.Result) bool {
			out = append(out, fromResult(v))
			return true
		})
		return out
	default:
		return r.Value()
	}
}
