package browse

import "github.com/five82/rack/internal/catalog"

// Severity grades a user notice.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Sink receives everything the controller wants shown. Implementations must
// not call back into the Controller synchronously.
type Sink interface {
	Render(items []catalog.Item, appendMode bool)
	SetPaginationState(canGoPrev, canGoNext bool)
	PresentNotice(message string, severity Severity)
}

// Navigator routes the user to sign-in.
type Navigator interface {
	GoToLogin()
}

type nopSink struct{}

func (nopSink) Render([]catalog.Item, bool) {}
func (nopSink) SetPaginationState(bool, bool) {}
func (nopSink) PresentNotice(string, Severity) {}
func (nopSink) GoToLogin() {}
