// Package jsonutil reads typed values out of loosely shaped JSON documents.
//
// Every extractor resolves a gjson path against a value and falls back to the
// zero value of its target type when the path is absent or holds a value of
// another JSON type. Values are never coerced between types: a number read as
// a string is "", and a string read as a number is 0.
package jsonutil

import (
	"strconv"

	"github.com/tidwall/gjson"
)

// String returns the string at path, or "" when the path is missing or does
// not hold a JSON string.
func String(v gjson.Result, path string) string {
	res := v.Get(path)
	if res.Type != gjson.String {
		return ""
	}
	return res.Str
}

// Bool returns the boolean at path, or false when the path is missing or does
// not hold a JSON boolean.
func Bool(v gjson.Result, path string) bool {
	switch v.Get(path).Type { //nolint:exhaustive
	case gjson.True:
		return true
	default:
		return false
	}
}

func Uint16(v gjson.Result, path string) uint16 {
	return uint16(parseUint(v.Get(path), 16)) //nolint:gosec
}

func Uint64(v gjson.Result, path string) uint64 {
	return parseUint(v.Get(path), 64)
}

// Int returns the integer at path. Non-integral numbers, numbers outside the
// int range, and non-number values all yield 0.
func Int(v gjson.Result, path string) int {
	res := v.Get(path)
	if res.Type != gjson.Number {
		return 0
	}
	n, err := strconv.ParseInt(res.Raw, 10, strconv.IntSize)
	if nil != err {
		return 0
	}
	return int(n)
}

func parseUint(res gjson.Result, bitSize int) uint64 {
	if res.Type != gjson.Number {
		return 0
	}
	n, err := strconv.ParseUint(res.Raw, 10, bitSize)
	if nil != err {
		return 0
	}
	return n
}
