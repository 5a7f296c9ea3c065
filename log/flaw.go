package log

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/pxv/pixiv"
)

func errorKind(err error) string {
	var (
		apiErr       *pixiv.APIError
		transportErr *pixiv.TransportError
		decodeErr    *pixiv.DecodeError
		ioErr        *pixiv.IOError
	)
	switch {
	case errors.As(err, &apiErr):
		return "api"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &ioErr):
		return "io"
	default:
		return "other"
	}
}

func Flaw(err error) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		e.Str("error_kind", errorKind(err))

		if apiErr := new(pixiv.APIError); errors.As(err, &apiErr) {
			e.Dict(
				"error",
				zerolog.
					Dict().
					Str("message", apiErr.Message).
					Stringer("origin", apiErr.Origin).
					Uint16("code", uint16(apiErr.Code)).
					Str("code_name", apiErr.Code.Name()),
			)
			return
		}

		if transportErr := new(pixiv.TransportError); errors.As(err, &transportErr) && transportErr.StatusCode != 0 {
			e.Int("status_code", transportErr.StatusCode)
		}

		if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
			e.Dict(
				"error",
				zerolog.
					Dict().
					Str("message", flawErr.Inner).
					Str("type_name", flawErr.InnerType).
					Str("syntax_representation", flawErr.InnerSyntaxRepr),
			)

			records := zerolog.Arr()
			for _, v := range flawErr.Records {
				if b, err := json.MarshalWithOption(v.Payload, json.UnorderedMap(), json.DisableNormalizeUTF8(), json.DisableHTMLEscape()); nil != err {
					records.Dict(zerolog.Dict().Str("function", v.Function).Dict("payload", zerolog.Dict().Str("error", err.Error()).Str("raw", fmt.Sprintf("%#+v", v.Payload))))
				} else {
					records.Dict(zerolog.Dict().Str("function", v.Function).RawJSON("payload", b))
				}
			}
			e.Array("records", records)

			joined := zerolog.Arr()
			for _, v := range flawErr.JoinedErrors {
				d := zerolog.
					Dict().
					Dict(
						"error",
						zerolog.
							Dict().
							Str("message", v.Message).
							Str("type_name", v.TypeName).
							Str("syntax_representation", v.SyntaxRepr),
					)
				if st := v.CallerStackTrace; nil != st {
					d.Dict(
						"caller_stack_trace",
						zerolog.
							Dict().
							Str("location", fmt.Sprintf("%s:%d", st.File, st.Line)).
							Str("function", st.Function),
					)
				} else {
					d.Stringer("caller_stack_trace", nil)
				}
				joined.Dict(d)
			}
			e.Array("joined_errors", joined)

			stackTraces := zerolog.Arr()
			for _, v := range flawErr.StackTrace {
				stackTraces.Dict(zerolog.Dict().Str("location", fmt.Sprintf("%s:%d", v.File, v.Line)).Str("function", v.Function))
			}
			e.Array("stack_traces", stackTraces)

			return
		}
		e.Err(err)
	}
}
