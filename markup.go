package fable

import "regexp"

// CommandKind distinguishes the variants of a tokenized Command.
type CommandKind uint8

const (
	CommandGlyph CommandKind = iota // a single visible character
	CommandStyle                    // a style directive such as "+shk" or "clr=#fff"
	CommandBreak                    // an explicit line or page break
)

// BreakTarget selects what a CommandBreak ends.
type BreakTarget uint8

const (
	BreakLine BreakTarget = iota
	BreakPage
)

// Command is one element of the flat stream produced by Tokenize. Exactly one
// variant's fields are meaningful, selected by Kind. Style commands are
// order-sensitive: they accumulate into a style set carried forward to every
// subsequent glyph until removed.
type Command struct {
	Kind CommandKind

	// CommandGlyph
	Char      rune
	Breakable bool // true when the line may wrap here (spaces, initially)

	// CommandStyle
	Style string

	// CommandBreak
	Target BreakTarget
}

// fakedown shorthand, rewritten in this fixed order. Non-greedy and
// non-nested.
var fakedownRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`##(.+?)##`), "{+shk}$1{-shk}"},
	{regexp.MustCompile(`~~(.+?)~~`), "{+wvy}$1{-wvy}"},
	{regexp.MustCompile(`==(.+?)==`), "{+rbw}$1{-rbw}"},
	{regexp.MustCompile(`__(.+?)__`), "{+r}$1{-r}"},
}

// ParseFakedown expands fakedown shorthand into explicit brace markup:
// ##x## to {+shk}x{-shk}, ~~x~~ to {+wvy}x{-wvy}, ==x== to {+rbw}x{-rbw},
// and __x__ to {+r}x{-r}.
func ParseFakedown(script string) string {
	for _, rule := range fakedownRules {
		script = rule.re.ReplaceAllString(script, rule.repl)
	}
	return script
}

// Tokenize converts a raw script string into a flat command stream: one glyph
// command per Unicode code point of visible text, style commands for
// brace-delimited directives, and break commands for newlines and the "br"
// and "pg" directives.
//
// Brace handling is deliberately lenient: a depth counter tracks nesting, and
// an unbalanced buffer left at end of input is flushed as markup rather than
// reported as an error.
func Tokenize(script string) []Command {
	var commands []Command
	var buffer []rune
	depth := 0

	flushText := func() {
		for _, r := range buffer {
			commands = append(commands, Command{
				Kind:      CommandGlyph,
				Char:      r,
				Breakable: r == ' ',
			})
		}
		buffer = buffer[:0]
	}

	flushMarkup := func() {
		markup := string(buffer)
		buffer = buffer[:0]
		switch markup {
		case "pg":
			commands = append(commands, Command{Kind: CommandBreak, Target: BreakPage})
		case "br":
			commands = append(commands, Command{Kind: CommandBreak, Target: BreakLine})
		default:
			commands = append(commands, Command{Kind: CommandStyle, Style: markup})
		}
	}

	for _, r := range script {
		switch {
		case r == '{':
			if depth == 0 {
				flushText()
			}
			depth++
		case r == '}':
			if depth == 0 {
				// Stray close brace: literal text.
				buffer = append(buffer, r)
				continue
			}
			depth--
			if depth == 0 {
				flushMarkup()
			}
		case r == '\n':
			flushText()
			commands = append(commands, Command{Kind: CommandBreak, Target: BreakLine})
		default:
			buffer = append(buffer, r)
		}
	}

	if depth > 0 {
		flushMarkup()
	} else {
		flushText()
	}

	return commands
}
