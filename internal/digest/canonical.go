package digest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Payload is a string-keyed structure to be fingerprinted. Insertion order is
// irrelevant; keys are sorted during encoding.
type Payload map[string]any

// Canonical returns the canonical JSON encoding of p:
//   - object keys sorted bytewise
//   - strings NFC normalized with HTML escaping disabled
//   - decimals as their exact string form, times as RFC 3339 UTC strings
//   - floats as shortest round-trip strings so encoding never depends on locale
//
// Values of any other type are encoded as their fmt %v string.
func Canonical(p Payload) []byte {
	var buf bytes.Buffer
	writeObject(&buf, p)
	return buf.Bytes()
}

func writeValue(buf *bytes.Buffer, v any) {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case string:
		writeString(buf, val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float64:
		writeString(buf, strconv.FormatFloat(val, 'f', -1, 64))
	case float32:
		writeString(buf, strconv.FormatFloat(float64(val), 'f', -1, 32))
	case decimal.Decimal:
		writeString(buf, val.String())
	case *decimal.Decimal:
		if val == nil {
			buf.WriteString("null")
			return
		}
		writeString(buf, val.String())
	case time.Time:
		writeString(buf, val.UTC().Format(time.RFC3339Nano))
	case Payload:
		writeObject(buf, val)
	case map[string]any:
		writeObject(buf, val)
	case map[string]string:
		obj := make(Payload, len(val))
		for k, s := range val {
			obj[k] = s
		}
		writeObject(buf, obj)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeValue(buf, elem)
		}
		buf.WriteByte(']')
	case []string:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, elem)
		}
		buf.WriteByte(']')
	case fmt.Stringer:
		writeString(buf, val.String())
	default:
		writeString(buf, fmt.Sprintf("%v", val))
	}
}

func writeObject(buf *bytes.Buffer, obj map[string]any) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, k)
		buf.WriteByte(':')
		writeValue(buf, obj[k])
	}
	buf.WriteByte('}')
}

func writeString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	// Encoding a plain string cannot fail.
	_ = enc.Encode(norm.NFC.String(s))
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
}
