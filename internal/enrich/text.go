package enrich

// Text is a generated-or-fallback string. The two constructors are the only
// way to build one, so downstream consumers cannot drop the distinction.
type Text struct {
	value    string
	fallback bool
}

// Generated wraps text produced by the generation service.
func Generated(value string) Text {
	return Text{value: value}
}

// Fallback wraps deterministic substitute text.
func Fallback(value string) Text {
	return Text{value: value, fallback: true}
}

// Value returns the text content.
func (t Text) Value() string {
	return t.value
}

// IsFallback reports whether the text came from fallback logic rather than
// the generation service.
func (t Text) IsFallback() bool {
	return t.fallback
}
