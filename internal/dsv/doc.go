// Package dsv reads and writes delimiter-separated values.
//
// # Reading
//
// Reader is a streaming RFC 4180 parser with a configurable single-byte field
// delimiter (comma, tab, pipe, ...) and quote character. It keeps allocations
// low for large inputs and reports malformed data through ParseError, which
// wraps ErrBareQuote or ErrUnterminatedQuote together with the line and column
// of the failure.
//
// Strict by default. With LazyQuotes set, a quote that does not open a field
// is kept as a literal byte, so data such as 5" screen reads as written.
//
// Records may be ragged. Set FieldsPerRecord to a negative value to accept any
// number of fields per record; zero captures the width of the first record and
// enforces it for the rest of the stream.
//
// A Reader can be pointed at a rewound stream with Reset, which keeps its
// configuration and discards all buffered input. This is how a file is read
// twice without reallocating the parser.
//
// # Writing
//
// Writer emits records with the same delimiter and quoting rules, quoting a
// field only when it contains the delimiter, the quote character or a line
// break (or always, when AlwaysQuote is set).
package dsv
