package pixiv

import "strconv"

// ErrorCode is a numeric error code reported by the pixiv OAuth endpoint or an
// App-API HTTP status.
type ErrorCode uint16

const (
	CodeBadRequest ErrorCode = 400
	CodeForbidden  ErrorCode = 403
	CodeNotFound   ErrorCode = 404

	CodeInvalidRequest ErrorCode = 918
	CodeInvalidGrant   ErrorCode = 1508
)

var errorCodeNames = [...]struct {
	code ErrorCode
	name string
}{
	{CodeBadRequest, "bad_request"},
	{CodeForbidden, "forbidden"},
	{CodeNotFound, "not_found"},
	{CodeInvalidRequest, "invalid_request"},
	{CodeInvalidGrant, "invalid_grant"},
}

// Name returns the classification label of c, or "unknown" for codes outside
// the known set.
func (c ErrorCode) Name() string {
	for _, v := range errorCodeNames {
		if v.code == c {
			return v.name
		}
	}
	return "unknown"
}

func (c ErrorCode) Known() bool {
	return c.Name() != "unknown"
}

func (c ErrorCode) String() string {
	return c.Name() + " code " + strconv.FormatUint(uint64(c), 10)
}
