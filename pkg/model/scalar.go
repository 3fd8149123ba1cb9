package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Scalar holds a loosely typed value such as an id, a chromosome or a
// coordinate. Datasets store these as strings in some documents and numbers
// in others; both decode to text and anything unexpected decodes to blank.
type Scalar string

func (s *Scalar) UnmarshalBSONValue(typ byte, data []byte) error {
	v, _ := bsonText(bson.RawValue{Type: bson.Type(typ), Value: data})
	*s = Scalar(v)
	return nil
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*s = ""
		return nil
	}
	t, _ := jsonText(v)
	*s = Scalar(t)
	return nil
}

func (s Scalar) String() string {
	return strings.TrimSpace(string(s))
}

// IDList is a list of gene ids. A lone string or number is read as a list of
// one; elements that are not text or numbers are skipped.
type IDList []string

func (l *IDList) UnmarshalBSONValue(typ byte, data []byte) error {
	rv := bson.RawValue{Type: bson.Type(typ), Value: data}

	arr, ok := rv.ArrayOK()
	if !ok {
		*l = nil
		if v, ok := bsonText(rv); ok && v != "" {
			*l = IDList{v}
		}
		return nil
	}

	values, err := arr.Values()
	if err != nil {
		*l = nil
		return nil
	}
	ids := make(IDList, 0, len(values))
	for _, el := range values {
		if v, ok := bsonText(el); ok && v != "" {
			ids = append(ids, v)
		}
	}
	*l = ids
	return nil
}

func (l *IDList) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*l = nil
		return nil
	}

	*l = nil
	switch t := v.(type) {
	case []any:
		ids := make(IDList, 0, len(t))
		for _, el := range t {
			if s, ok := jsonText(el); ok && s != "" {
				ids = append(ids, s)
			}
		}
		*l = ids
	default:
		if s, ok := jsonText(t); ok && s != "" {
			*l = IDList{s}
		}
	}
	return nil
}

func bsonText(rv bson.RawValue) (string, bool) {
	switch rv.Type {
	case bson.TypeString:
		return rv.StringValueOK()
	case bson.TypeInt32:
		v, ok := rv.Int32OK()
		return strconv.FormatInt(int64(v), 10), ok
	case bson.TypeInt64:
		v, ok := rv.Int64OK()
		return strconv.FormatInt(v, 10), ok
	case bson.TypeDouble:
		v, ok := rv.DoubleOK()
		return strconv.FormatFloat(v, 'f', -1, 64), ok
	default:
		return "", false
	}
}

func jsonText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}
