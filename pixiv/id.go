package pixiv

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/xeptore/flaw/v8"
)

// ID identifies pixiv entities. The App API emits IDs both as JSON strings and
// as JSON numbers; both forms decode to the same value.
type ID uint64

// ParseID reads an ID from a JSON value. A string that is not a base-10
// unsigned integer yields the zero ID without an error. Values that are
// neither strings nor numbers fail with a *DecodeError.
func ParseID(v gjson.Result) (ID, error) {
	if !v.Exists() {
		return 0, &DecodeError{Err: flaw.From(errors.New("missing field id"))}
	}

	switch v.Type { //nolint:exhaustive
	case gjson.String:
		n, err := strconv.ParseUint(v.Str, 10, 64)
		if nil != err {
			return 0, nil
		}
		return ID(n), nil
	case gjson.Number:
		n, err := strconv.ParseUint(v.Raw, 10, 64)
		if nil != err {
			flawP := flaw.P{"raw": v.Raw}
			return 0, &DecodeError{Err: flaw.From(fmt.Errorf("invalid id %s: expected a non-negative integer", v.Raw)).Append(flawP)}
		}
		return ID(n), nil
	default:
		flawP := flaw.P{"raw": v.Raw}
		return 0, &DecodeError{Err: flaw.From(fmt.Errorf("invalid type for id %s: expected a string or a number", v.Raw)).Append(flawP)}
	}
}

func (id *ID) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		flawP := flaw.P{"raw": string(b)}
		return &DecodeError{Err: flaw.From(errors.New("invalid json for id")).Append(flawP)}
	}
	v, err := ParseID(gjson.ParseBytes(b))
	if nil != err {
		return err
	}
	*id = v
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(id), 10), nil
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
