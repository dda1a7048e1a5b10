package httpapi

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/R3E-Network/user_service/internal/app/domain/user"
	"github.com/R3E-Network/user_service/internal/app/metrics"
	"github.com/R3E-Network/user_service/internal/app/services/users"
	"github.com/R3E-Network/user_service/internal/rawhttp"
	"github.com/R3E-Network/user_service/pkg/logger"
)

// Router dispatches parsed requests to the shared user service handle and
// builds the response for each.
type Router struct {
	handle *users.Handle
	log    *logger.Logger
	table  []statusRule
}

// Option customizes a Router.
type Option func(*routerOptions)

type routerOptions struct {
	validationBadRequest bool
}

// WithValidationAsBadRequest reports business rule violations as 400 instead
// of 500.
func WithValidationAsBadRequest(enabled bool) Option {
	return func(o *routerOptions) {
		o.validationBadRequest = enabled
	}
}

// NewRouter creates a router over handle.
func NewRouter(handle *users.Handle, log *logger.Logger, opts ...Option) *Router {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Router{handle: handle, log: log, table: statusTable(o.validationBadRequest)}
}

// Dispatch routes req and produces its response. It never fails; every error
// is translated into a status and a short message.
func (r *Router) Dispatch(ctx context.Context, req rawhttp.Request) rawhttp.Response {
	start := time.Now()
	route := Match(req)

	body, err := r.serve(ctx, route, req)
	resp := rawhttp.Response{Status: rawhttp.StatusOK, Body: body}
	if err != nil {
		resp = translate(r.table, err)
		entry := r.log.WithField("route", route.String()).
			WithField("method", req.Method).
			WithField("path", req.Path).
			WithField("status", resp.Status.Code())
		if resp.Status == rawhttp.StatusInternalError {
			entry.WithError(err).Error("request failed")
		} else {
			entry.WithError(err).Debug("request rejected")
		}
	}

	metrics.RecordRequest(route.String(), resp.Status.Code(), time.Since(start))
	return resp
}

func (r *Router) serve(ctx context.Context, route Route, req rawhttp.Request) (string, error) {
	switch route {
	case RouteCreate:
		return r.createUser(ctx, req)
	case RouteReadOne:
		return r.getUser(ctx, req)
	case RouteReadAll:
		return r.listUsers(ctx)
	case RouteUpdate:
		return r.updateUser(ctx, req)
	case RouteDelete:
		return r.deleteUser(ctx, req)
	}
	return "", fail("404 not found", ErrUnmatched)
}

func (r *Router) createUser(ctx context.Context, req rawhttp.Request) (string, error) {
	u, err := user.Decode(req.Body)
	if err != nil {
		return "", fail("Invalid JSON body", ErrClientInput, err)
	}

	err = r.handle.With(ctx, func(ctx context.Context, svc *users.Service) error {
		return svc.CreateUser(ctx, u)
	})
	if err != nil {
		return "", fail("Failed to create user", err)
	}
	return "User Created", nil
}

func (r *Router) getUser(ctx context.Context, req rawhttp.Request) (string, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return "", err
	}

	var (
		found user.User
		ok    bool
	)
	err = r.handle.With(ctx, func(ctx context.Context, svc *users.Service) error {
		var err error
		found, ok, err = svc.GetUserByID(ctx, id)
		return err
	})
	if err != nil {
		return "", fail("Service error", err)
	}
	if !ok {
		return "", fail("User not found", ErrNotFound)
	}
	return encode(found)
}

func (r *Router) listUsers(ctx context.Context) (string, error) {
	var all []user.User
	err := r.handle.With(ctx, func(ctx context.Context, svc *users.Service) error {
		var err error
		all, err = svc.GetAllUsers(ctx)
		return err
	})
	if err != nil {
		return "", fail("Service error", err)
	}
	if all == nil {
		all = []user.User{}
	}
	return encode(all)
}

func (r *Router) updateUser(ctx context.Context, req rawhttp.Request) (string, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return "", err
	}
	u, err := user.Decode(req.Body)
	if err != nil {
		return "", fail("Invalid JSON body", ErrClientInput, err)
	}

	var updated bool
	err = r.handle.With(ctx, func(ctx context.Context, svc *users.Service) error {
		var err error
		updated, err = svc.UpdateUser(ctx, id, u)
		return err
	})
	if err != nil {
		return "", fail("Failed to update user", err)
	}
	if !updated {
		return "", fail("User not found", ErrNotFound)
	}
	return "User updated", nil
}

func (r *Router) deleteUser(ctx context.Context, req rawhttp.Request) (string, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return "", err
	}

	var deleted bool
	err = r.handle.With(ctx, func(ctx context.Context, svc *users.Service) error {
		var err error
		deleted, err = svc.DeleteUser(ctx, id)
		return err
	})
	if err != nil {
		return "", fail("Failed to delete user", err)
	}
	if !deleted {
		return "", fail("User not found", ErrNotFound)
	}
	return "User deleted", nil
}

// parseID accepts any 32-bit signed integer; range checks belong to the
// service.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fail("Invalid user ID", ErrClientInput, err)
	}
	return id, nil
}

func encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fail("JSON serialization error", ErrEncode, err)
	}
	return string(raw), nil
}
