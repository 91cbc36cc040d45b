package service

import (
	"fmt"
	"net/url"

	"github.com/esc4n0rx/sara/internal/model"
)

// BuildShortcutURL builds the deep link that opens the iOS shortcut
// creating the reminder on the user's phone. Parameters travel as a
// single plus-separated text argument: date, time, description,
// urgency.
func BuildShortcutURL(shortcutName, dateToken, timeToken, description string, urgency model.Urgency) string {
	text := fmt.Sprintf("%s %s %s %s", dateToken, timeToken, description, urgency)
	return fmt.Sprintf("shortcuts://run-shortcut?name=%s&input=text&text=%s",
		url.QueryEscape(shortcutName), url.QueryEscape(text))
}
