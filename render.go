package ping

import (
	"fmt"
	"strings"
)

// Every value in a message sits between these markers until applyStyle
// swaps them for the markup of the requested style.
const (
	openMark  = "😊"
	closeMark = "😭"
)

const messageTemplate = "%s has been running for " + openMark + "%s" + closeMark +
	" from " + openMark + "%s" + closeMark + "😄\n" +
	"CPU: " + openMark + "%s" + closeMark + "\n" +
	"RAM: " + openMark + "%s" + closeMark + "\n" +
	"Network RX/TX: " + openMark + "%s/%s" + closeMark + "\n" +
	"IO R/W: " + openMark + "%s/%s" + closeMark + "\n"

var styleReplacers = map[Style]*strings.Replacer{
	StyleMarkdown: strings.NewReplacer(openMark, "`", closeMark, "`"),
	StyleHTML:     strings.NewReplacer(openMark, "<pre>", closeMark, "</pre>"),
}

func renderMetrics(displayName string, m Metrics) string {
	return fmt.Sprintf(messageTemplate, displayName,
		m.Uptime, m.StartedAt,
		m.CPU,
		m.Memory,
		m.NetworkRx, m.NetworkTx,
		m.IORead, m.IOWrite)
}

// renderFallback embeds the error type and its %+v form, which for errors
// built with github.com/pkg/errors includes the stack.
func renderFallback(runtime string, err error) string {
	return fmt.Sprintf("Runtime information is not available outside of %s.\n%s%T: %+v%s",
		runtime, openMark, err, err, closeMark)
}

func applyStyle(msg string, style Style) (string, error) {
	r, ok := styleReplacers[style]
	if !ok {
		return "", &ConfigurationError{Style: style}
	}
	return r.Replace(msg), nil
}
