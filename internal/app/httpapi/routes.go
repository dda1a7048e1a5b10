package httpapi

import (
	"strings"

	"github.com/R3E-Network/user_service/internal/rawhttp"
)

// Route identifies the operation a request maps to.
type Route int

const (
	RouteUnknown Route = iota
	RouteCreate
	RouteReadOne
	RouteReadAll
	RouteUpdate
	RouteDelete
)

func (r Route) String() string {
	switch r {
	case RouteCreate:
		return "create"
	case RouteReadOne:
		return "read_one"
	case RouteReadAll:
		return "read_all"
	case RouteUpdate:
		return "update"
	case RouteDelete:
		return "delete"
	}
	return "unknown"
}

const (
	collectionPrefix = "/users"
	itemPrefix       = "/users/"
)

// Match classifies req. Rules are checked in order and the first match wins:
// POST /users shares its prefix with GET /users, and GET /users/{id} must be
// tried before GET /users.
func Match(req rawhttp.Request) Route {
	switch {
	case req.Method == "POST" && strings.HasPrefix(req.Path, collectionPrefix):
		return RouteCreate
	case req.Method == "GET" && strings.HasPrefix(req.Path, itemPrefix):
		return RouteReadOne
	case req.Method == "GET" && strings.HasPrefix(req.Path, collectionPrefix):
		return RouteReadAll
	case req.Method == "PUT" && strings.HasPrefix(req.Path, itemPrefix):
		return RouteUpdate
	case req.Method == "DELETE" && strings.HasPrefix(req.Path, itemPrefix):
		return RouteDelete
	}
	return RouteUnknown
}
