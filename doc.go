// Package signedjson embeds cryptographic signatures into JSON documents
// without altering the document bytes, by writing signature records as
// comment-like prologue lines before the JSON body.
//
// See the [github.com/tarantool/go-signedjson/prologue] package for the
// exact line format and the [github.com/tarantool/go-signedjson/algorithm]
// package for the built-in and custom signature algorithms.
package signedjson
