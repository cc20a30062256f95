package values

// Well-known symbols (ECMA-262 6.1.5.1). These are process-wide
// singletons, distinct from the per-realm Intrinsics table: two realms
// must still agree on what Symbol.iterator means for cross-realm
// iteration protocol interop.
var (
	SymbolIterator      = NewSymbol("Symbol.iterator")
	SymbolAsyncIterator = NewSymbol("Symbol.asyncIterator")
	SymbolToStringTag   = NewSymbol("Symbol.toStringTag")
	SymbolHasInstance   = NewSymbol("Symbol.hasInstance")
)
