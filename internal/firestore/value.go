package firestore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind discrimina los cinco tipos de atributo soportados.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInteger
	KindBoolean
	KindTimestamp
	KindNull
)

// Value es una union etiquetada: exactamente un tipo nativo por valor.
// Agregar un Kind nuevo exige tocar los switch de encode y decode.
type Value struct {
	kind Kind
	str  string
	num  int64
	b    bool
	ts   time.Time
}

func String(v string) Value { return Value{kind: KindString, str: v} }
func Integer(v int64) Value { return Value{kind: KindInteger, num: v} }
func Boolean(v bool) Value  { return Value{kind: KindBoolean, b: v} }
func Null() Value           { return Value{kind: KindNull} }
func Timestamp(v time.Time) Value {
	return Value{kind: KindTimestamp, ts: v.UTC()}
}

func (v Value) Kind() Kind { return v.kind }

// StringValue devuelve el string nativo y si el valor es de ese tipo.
func (v Value) StringValue() (string, bool) { return v.str, v.kind == KindString }

func (v Value) IntegerValue() (int64, bool) { return v.num, v.kind == KindInteger }

func (v Value) BooleanValue() (bool, bool) { return v.b, v.kind == KindBoolean }

func (v Value) TimestampValue() (time.Time, bool) { return v.ts, v.kind == KindTimestamp }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Equal compara por tipo y contenido; los timestamps por instante.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindInteger:
		return v.num == other.num
	case KindBoolean:
		return v.b == other.b
	case KindTimestamp:
		return v.ts.Equal(other.ts)
	case KindNull:
		return true
	default:
		return false
	}
}

// wireValue es la envoltura tipada del formato REST de Firestore:
// `{ "<tag>Value": <valor> }` con exactamente una etiqueta presente.
type wireValue struct {
	StringValue    *string          `json:"stringValue,omitempty"`
	IntegerValue   *string          `json:"integerValue,omitempty"`
	BooleanValue   *bool            `json:"booleanValue,omitempty"`
	TimestampValue *string          `json:"timestampValue,omitempty"`
	NullValue      *json.RawMessage `json:"nullValue,omitempty"`
}

var nullTag = json.RawMessage(`"NULL_VALUE"`)

// UnmarshalJSON detecta la etiqueta presente por nombre de clave y no por
// su valor: la API serializa los campos null como `"nullValue": null`
// (mapeo proto3 de NullValue), y el unmarshal por defecto dejaria el
// puntero en nil y la etiqueta pasaria desapercibida.
func (wv *wireValue) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["stringValue"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		wv.StringValue = &s
		return nil
	}
	if v, ok := raw["integerValue"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		wv.IntegerValue = &s
		return nil
	}
	if v, ok := raw["booleanValue"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return err
		}
		wv.BooleanValue = &b
		return nil
	}
	if v, ok := raw["timestampValue"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		wv.TimestampValue = &s
		return nil
	}
	if _, ok := raw["nullValue"]; ok {
		tag := nullTag
		wv.NullValue = &tag
		return nil
	}
	return nil
}

// encodeFields proyecta el mapa nativo al field set del documento.
// Los enteros viajan como string y los timestamps como RFC3339 UTC.
// Un Value de Kind no soportado se omite en silencio: el codec no
// representa mapas ni arrays anidados, y esa limitacion es deliberada.
func encodeFields(fields map[string]Value) map[string]wireValue {
	out := make(map[string]wireValue, len(fields))
	for name, v := range fields {
		switch v.kind {
		case KindString:
			s := v.str
			out[name] = wireValue{StringValue: &s}
		case KindInteger:
			s := strconv.FormatInt(v.num, 10)
			out[name] = wireValue{IntegerValue: &s}
		case KindBoolean:
			b := v.b
			out[name] = wireValue{BooleanValue: &b}
		case KindTimestamp:
			s := v.ts.UTC().Format(time.RFC3339Nano)
			out[name] = wireValue{TimestampValue: &s}
		case KindNull:
			tag := nullTag
			out[name] = wireValue{NullValue: &tag}
		}
	}
	return out
}

// decodeFields proyecta el field set del documento a valores nativos.
// Un field set ausente decodifica a mapa vacio, no a error. Un atributo
// sin ninguna etiqueta conocida se descarta.
func decodeFields(fields map[string]wireValue) (map[string]Value, error) {
	out := make(map[string]Value, len(fields))
	for name, wv := range fields {
		switch {
		case wv.StringValue != nil:
			out[name] = String(*wv.StringValue)
		case wv.IntegerValue != nil:
			n, err := strconv.ParseInt(*wv.IntegerValue, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("decode field %s: %w", name, err)
			}
			out[name] = Integer(n)
		case wv.BooleanValue != nil:
			out[name] = Boolean(*wv.BooleanValue)
		case wv.TimestampValue != nil:
			ts, err := time.Parse(time.RFC3339Nano, *wv.TimestampValue)
			if err != nil {
				return nil, fmt.Errorf("decode field %s: %w", name, err)
			}
			out[name] = Timestamp(ts)
		case wv.NullValue != nil:
			out[name] = Null()
		}
	}
	return out, nil
}
