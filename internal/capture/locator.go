package capture

import "fmt"

// LocatorKind selects how a Locator expression is resolved in the page.
type LocatorKind int

const (
	CSS LocatorKind = iota
	XPath
)

// Locator identifies a DOM element by CSS selector or XPath expression.
// XPath is used when the element must be matched on its text content.
type Locator struct {
	Kind LocatorKind
	Expr string
}

// ByCSS returns a CSS selector locator.
func ByCSS(expr string) Locator { return Locator{Kind: CSS, Expr: expr} }

// ByXPath returns an XPath locator.
func ByXPath(expr string) Locator { return Locator{Kind: XPath, Expr: expr} }

func (l Locator) String() string {
	if l.Kind == XPath {
		return fmt.Sprintf("xpath(%s)", l.Expr)
	}
	return fmt.Sprintf("css(%s)", l.Expr)
}
