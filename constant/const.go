package constant

import (
	_ "embed"
	"fmt"
	"strings"
	"time"
)

var (
	//go:embed version
	version string
	Version = strings.TrimSpace(version)

	// compileTime is overridden at build time with
	// -ldflags "-X github.com/xeptore/pxv/constant.compileTime=<RFC3339>".
	compileTime = "1970-01-01T00:00:00Z"
	CompileTime time.Time
)

func init() {
	t, err := time.Parse(time.RFC3339, compileTime)
	if nil != err {
		panic(fmt.Errorf("could not parse CompileTime constant %q. Make sure it is set at build time in RFC3339 format", compileTime))
	}
	CompileTime = t
}
