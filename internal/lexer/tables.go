// Package lexer: static tables of keywords/operators/punctuation.
package lexer

// Keywords is the reserved-word set. Only a handful are load-bearing for
// this compiler's own grammar (fn, let, mut, if, else, while, loop, break,
// return, struct, pub, as, true, false, match, for); the rest are kept from
// the wider Rust keyword list so identifiers that are reserved words in
// real Rust source are rejected the same way here.
var Keywords = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true, "crate": true,
	"else": true, "enum": true, "extern": true, "false": true, "fn": true,
	"for": true, "if": true, "impl": true, "in": true, "let": true,
	"loop": true, "match": true, "mod": true, "move": true, "mut": true,
	"pub": true, "ref": true, "return": true, "self": true, "Self": true,
	"static": true, "struct": true, "super": true, "trait": true, "true": true,
	"type": true, "unsafe": true, "use": true, "where": true, "while": true,
	"async": true, "await": true, "dyn": true, "abstract": true, "become": true,
	"box": true, "do": true, "final": true, "macro": true, "override": true,
	"priv": true, "try": true, "typeof": true, "unsized": true, "virtual": true,
	"yield": true,
}

// Operators3 holds every 3-rune operator, checked before Operators2/1.
var Operators3 = map[string]bool{
	"<<=": true, ">>=": true, "..=": true,
}

// Operators2 holds every 2-rune operator.
var Operators2 = map[string]bool{
	"==": true, "!=": true, "<=": true, ">=": true, "&&": true, "||": true,
	"<<": true, ">>": true, "->": true, "=>": true, "+=": true, "-=": true,
	"*=": true, "/=": true, "%=": true, "&=": true, "|=": true, "^=": true,
}

// Operators1 holds every 1-rune operator.
var Operators1 = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"=": true, "<": true, ">": true, "&": true, "|": true, "^": true,
	"!": true, "~": true,
}

// Punctuations2 holds every 2-rune punctuation group.
var Punctuations2 = map[string]bool{
	"::": true, "..": true,
}

// Punctuations1 holds every 1-rune punctuation/delimiter character.
var Punctuations1 = map[string]bool{
	"{": true, "}": true, "(": true, ")": true, "[": true, "]": true,
	";": true, ",": true, ":": true, ".": true,
}

// BuiltinMacros lists the built-in Rust macros (names ending in !).
// Lexing and parsing accept macro calls as ordinary call syntax; expanding
// their bodies is out of scope.
var BuiltinMacros = map[string]bool{
	"println!": true, "print!": true, "eprintln!": true, "eprint!": true,
	"format!": true, "panic!": true, "assert!": true, "assert_eq!": true,
	"vec!": true, "format_args!": true, "write!": true, "writeln!": true,
	"dbg!": true, "todo!": true, "unimplemented!": true, "unreachable!": true,
}
