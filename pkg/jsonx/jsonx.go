package jsonx

import (
	"io"

	"github.com/bytedance/sonic"
)

func JSON(v any) []byte {
	data, _ := sonic.Marshal(v)
	return data
}

func JSONS(v any) string {
	return string(JSON(v))
}

func JSONE(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

func Pretty(v any) string {
	data, _ := sonic.MarshalIndent(v, "", " ")
	return string(data)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

// Decode reads r to EOF and decodes it into v.
func Decode(r io.Reader, v any) error {
	return sonic.ConfigDefault.NewDecoder(r).Decode(v)
}

type Lz[T bool] struct {
	v      any
	pretty bool
}

func (lz Lz[bool]) String() string {
	if lz.pretty {
		return Pretty(lz.v)
	}
	return JSONS(lz.v)
}

func LzJSON(v any) Lz[bool] {
	return Lz[bool]{v: v, pretty: false}
}

func LzPretty(v any) Lz[bool] {
	return Lz[bool]{v: v, pretty: true}
}
