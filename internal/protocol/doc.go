// Package protocol implements the line-oriented command protocol between
// the Deckplane plugin and its controlling client.
//
// # Grammar
//
// One command per line, UTF-8, command names case-insensitive:
//
//	DefineKey <name> [title|null] [iconSpec|null]
//	SetKeyVisuals <name> [title|null] [iconSpec|null]
//	DefinePage <name>[:<baseName>] <jsonGrid>
//	SwitchPage <name>
//	ReturnPage [name]
//	SwitchProfile <name>
//	SwitchProfileBack
//
// where jsonGrid is a 5x3 JSON array of cells; a cell is null (inherit
// from the base page), "" (clear), or "KeyName" (explicit binding).
//
// Events flow the other way, one per line:
//
//	KeyPress <name>
//	KeyDefined <name> OK|ERROR [message]
//	KeyVisualsSet <name> OK|ERROR [message]
//	PageDefined <name> OK|ERROR [message]
//
// # Tokenization
//
// Double-quoted substrings are single tokens and may contain spaces. The
// bare token null is an explicit absence marker, distinct from the empty
// string; a quoted "null" is the literal string.
//
// # Error Handling
//
// Malformed input produces an ERROR event naming the command's target
// when a target name is parseable, else "unknown". Validation failures
// (missing keys, missing base page, inherit without base) are reported
// in full and leave the registry untouched. Unknown commands, unknown
// page or profile names, and empty-stack returns are logged and dropped
// without a response. No failure escapes a handler.
package protocol
