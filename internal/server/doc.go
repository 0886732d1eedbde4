// Package server exposes rule resolution over HTTP.
//
// Routes:
//
//	GET  /{a}/{b}/{c}/{d}/{e}/{f}   resolve against the published rule set
//	POST /{a}/{b}/{c}/{d}/{e}/{f}   insert {"exprs": [...]} into a private
//	                                copy of the rule set, then resolve
//	POST /rules                     insert {"exprs": [...]} and publish
//	GET  /rules                     list the published rules
//
// Resolution responses are plain text: "Ok: <value>" on success, otherwise
// the error message. The request-scoped POST never changes what other
// requests see.
package server
