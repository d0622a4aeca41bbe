package chroma

import (
	chromalib "github.com/alecthomas/chroma/v2"
	"github.com/fwojciec/gias"
)

// StyleFromPalette returns a function that maps chroma token categories to
// gias styles using the palette's syntax colors.
func StyleFromPalette(p gias.Palette) StyleFunc {
	return func(tt chromalib.TokenType) gias.Style {
		switch {
		case tt == chromalib.KeywordType:
			return gias.Style{Foreground: string(p.Type), Bold: true}
		case tt.InCategory(chromalib.Keyword):
			return gias.Style{Foreground: string(p.Keyword), Bold: true}
		case tt.InCategory(chromalib.Comment):
			return gias.Style{Foreground: string(p.Comment)}
		case tt.InSubCategory(chromalib.String):
			return gias.Style{Foreground: string(p.String)}
		case tt.InSubCategory(chromalib.Number):
			return gias.Style{Foreground: string(p.Number)}
		case tt.InCategory(chromalib.Operator):
			return gias.Style{Foreground: string(p.Operator)}
		case tt == chromalib.NameFunction, tt == chromalib.NameFunctionMagic:
			return gias.Style{Foreground: string(p.Function)}
		case tt == chromalib.NameBuiltin, tt == chromalib.NameConstant:
			return gias.Style{Foreground: string(p.Constant)}
		case tt == chromalib.NameClass:
			return gias.Style{Foreground: string(p.Type)}
		case tt == chromalib.Punctuation:
			return gias.Style{Foreground: string(p.Punctuation)}
		default:
			return gias.Style{}
		}
	}
}
