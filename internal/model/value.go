package model

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// FormatValue converts a decoded ABI value into a JSON friendly value.
// Addresses and hashes become hex, integers wider than 64 bits become decimal
// strings, byte arrays become 0x-prefixed hex. Slices and arrays are
// converted element by element.
func FormatValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case common.Address:
		return val.Hex()
	case *common.Address:
		if val == nil {
			return nil
		}
		return val.Hex()
	case common.Hash:
		return val.Hex()
	case *big.Int:
		if val == nil {
			return "0"
		}
		return val.String()
	case []byte:
		return hexutil.Encode(val)
	case string, bool:
		return val
	case int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		return val
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			buf := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(buf), rv)
			return hexutil.Encode(buf)
		}
		return formatList(rv)
	case reflect.Slice:
		return formatList(rv)
	case reflect.Struct:
		out := make(map[string]interface{}, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			field := rv.Type().Field(i)
			if !field.IsExported() {
				continue
			}
			out[field.Name] = FormatValue(rv.Field(i).Interface())
		}
		return out
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return FormatValue(rv.Elem().Interface())
	}
	return fmt.Sprintf("%v", v)
}

func formatList(rv reflect.Value) []interface{} {
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = FormatValue(rv.Index(i).Interface())
	}
	return out
}
