package server

import (
	"net/http"

	"github.com/roach88/cascade/internal/ir"
)

// scopeFromPath reads the six path wildcards of a resolve route.
func scopeFromPath(r *http.Request) (ir.Scope, error) {
	return ir.ParseScope(
		r.PathValue("a"),
		r.PathValue("b"),
		r.PathValue("c"),
		r.PathValue("d"),
		r.PathValue("e"),
		r.PathValue("f"),
	)
}
