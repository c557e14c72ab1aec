package debuglog

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	enabledOnce sync.Once
	enabledFlag bool

	outputOnce sync.Once
	output     io.Writer = os.Stderr

	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger writes key=value debug lines for one component when XCAP_DEBUG=1
// or XCAP_<COMPONENT>_DEBUG=1 is set.
type Logger struct {
	component string
	enabled   bool
}

func New(component string) Logger {
	key := "XCAP_" + strings.ToUpper(component) + "_DEBUG"
	return Logger{
		component: component,
		enabled:   globalEnabled() || strings.TrimSpace(os.Getenv(key)) == "1",
	}
}

func (l Logger) Enabled() bool {
	return l.enabled
}

func (l Logger) Printf(format string, args ...any) {
	if !l.enabled {
		return
	}
	loggerOnce.Do(func() {
		logger = log.New(writer(), "", log.LstdFlags|log.Lmicroseconds)
	})
	logger.Printf("xcap/"+l.component+" "+format, args...)
}

// Throttle returns a gate that lets one call through per period. Hot paths
// such as frame drops use it to keep the log readable.
func Throttle(period time.Duration) *rate.Sometimes {
	return &rate.Sometimes{Interval: period}
}

func globalEnabled() bool {
	enabledOnce.Do(func() {
		enabledFlag = strings.TrimSpace(os.Getenv("XCAP_DEBUG")) == "1"
	})
	return enabledFlag
}

func writer() io.Writer {
	outputOnce.Do(func() {
		p := strings.TrimSpace(os.Getenv("XCAP_DEBUG_FILE"))
		if p == "" {
			return
		}
		f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "xcap debug log open failed: %v\n", err)
			return
		}
		output = f
	})
	return output
}
