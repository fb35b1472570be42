package types

// ItemStatus is the per-item state shown to the user.
type ItemStatus string

const (
	ItemPending ItemStatus = "pending"
	ItemSuccess ItemStatus = "success"
	ItemPartial ItemStatus = "partial"
	ItemFailed  ItemStatus = "failed"
)

// Icon returns the glyph the presentation layer renders for the status.
func (s ItemStatus) Icon() string {
	switch s {
	case ItemSuccess:
		return "✅"
	case ItemPartial:
		return "⚠️"
	case ItemFailed:
		return "❌"
	default:
		return "⏳"
	}
}

// Severity classifies status messages emitted to the presentation layer.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)
