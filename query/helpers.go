package query

import (
	"github.com/fieldsafe/go-sssp/scope"
)

func safeScopeGuard(g scope.Guard) scope.Guard {
	return scope.Ensure(g)
}
