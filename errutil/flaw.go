package errutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/xeptore/flaw/v8"
	"gopkg.in/yaml.v3"
)

func HTTPResponseFlawPayload(res *http.Response) flaw.P {
	out := make(flaw.P, 7)
	out["status"] = res.Status
	out["status_code"] = res.StatusCode
	out["content_length"] = res.ContentLength
	out["proto"] = res.Proto
	out["proto_major"] = res.ProtoMajor
	out["proto_minor"] = res.ProtoMinor
	out["headers"] = headersFlawPayload(res.Header)
	return out
}

// HTTPRequestFlawPayload describes req with credential-bearing headers masked.
func HTTPRequestFlawPayload(req *http.Request) flaw.P {
	return flaw.P{
		"method":  req.Method,
		"url":     req.URL.Redacted(),
		"headers": headersFlawPayload(req.Header),
	}
}

var sensitiveHeaders = map[string]struct{}{
	"Authorization": {},
	"Cookie":        {},
	"Set-Cookie":    {},
}

func headersFlawPayload(h http.Header) flaw.P {
	out := make(flaw.P, len(h))
	for k, v := range h {
		if _, ok := sensitiveHeaders[http.CanonicalHeaderKey(k)]; ok {
			out[k] = "<redacted>"
			continue
		}
		out[k] = v
	}
	return out
}

// Report is the YAML shape of a *flaw.Flaw, written as the error report of a
// failed CLI run.
type Report struct {
	Inner        string        `yaml:"inner"`
	Records      []Record      `yaml:"records"`
	JoinedErrors []JoinedError `yaml:"joined_errors,omitempty"`
	StackTrace   []StackTrace  `yaml:"stack_trace,omitempty"`
}

type Record struct {
	Function string         `yaml:"function"`
	Payload  map[string]any `yaml:"payload"`
}

type JoinedError struct {
	Message          string      `yaml:"message"`
	CallerStackTrace *StackTrace `yaml:"caller_stack_trace,omitempty"`
}

type StackTrace struct {
	File     string `yaml:"file"`
	Line     int    `yaml:"line"`
	Function string `yaml:"function"`
}

func NewReport(f *flaw.Flaw) Report {
	r := Report{
		Inner:        f.Inner,
		Records:      make([]Record, 0, len(f.Records)),
		JoinedErrors: make([]JoinedError, 0, len(f.JoinedErrors)),
		StackTrace:   make([]StackTrace, 0, len(f.StackTrace)),
	}
	for _, v := range f.Records {
		r.Records = append(r.Records, Record{Function: v.Function, Payload: v.Payload})
	}
	for _, v := range f.JoinedErrors {
		je := JoinedError{Message: v.Message, CallerStackTrace: nil}
		if nil != v.CallerStackTrace {
			je.CallerStackTrace = &StackTrace{
				File:     v.CallerStackTrace.File,
				Line:     v.CallerStackTrace.Line,
				Function: v.CallerStackTrace.Function,
			}
		}
		r.JoinedErrors = append(r.JoinedErrors, je)
	}
	for _, v := range f.StackTrace {
		r.StackTrace = append(r.StackTrace, StackTrace{File: v.File, Line: v.Line, Function: v.Function})
	}
	return r
}

// FlawToYAML renders f as a YAML error report.
func FlawToYAML(f *flaw.Flaw) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(NewReport(f)); nil != err {
		flawP := flaw.P{"err_debug_tree": Tree(err).FlawP()}
		return nil, flaw.From(fmt.Errorf("failed to encode flaw to yaml: %v", err)).Append(flawP)
	}
	return buf.Bytes(), nil
}

func IsFlaw(err error) bool {
	if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
		return true
	}
	return false
}

// IsContext reports whether ctx has been canceled or its deadline has passed.
func IsContext(ctx context.Context) bool {
	err := ctx.Err()
	return nil != err && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func UnknownError(err error) string {
	return fmt.Sprintf("unknown error of type %T received: %v", err, err)
}
