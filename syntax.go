package gias

// Token is a run of patch line content sharing one syntax style.
type Token struct {
	Text  string
	Style Style
}

// Style is the colouring of a Token. An empty Foreground keeps the line colour.
type Style struct {
	Foreground string
	Bold       bool
}

// Tokenizer splits one line of changed source into styled tokens.
type Tokenizer interface {
	// Tokenize returns nil when language has no lexer and an empty slice for
	// empty source.
	Tokenize(language, source string) []Token
}

// LanguageDetector maps a path from a patch header to a lexer name. Paths may
// carry the "a/" and "b/" prefixes of unified diffs.
type LanguageDetector interface {
	DetectFromPath(path string) string
}
