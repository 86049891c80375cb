// Package streamhandler exposes the change feed over WebSocket.
//
// Each connection owns a changefeed.Scope holding its subscriptions. The
// scope is closed when the socket ends. The connection is also closed when
// its session is released on sign-out or reaches its expiry. Which
// collections carry full attrs is decided per connection and re-evaluated
// whenever the caller's role or the capability flags change.
package streamhandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/attendance"
	"hrms/internal/domain/core"
	"hrms/internal/domain/grievances"
	"hrms/internal/domain/payroll"
	"hrms/internal/domain/performance"
	"hrms/internal/domain/recruitment"
	"hrms/internal/domain/tasks"
	"hrms/internal/domain/transfers"
	"hrms/internal/platform/changefeed"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// collectionViews maps every streamable collection to the category that
// grants its full contents.
var collectionViews = map[string]access.Category{
	core.CollectionEmployees:           access.ViewEmployees,
	attendance.CollectionAttendance:    access.ViewAttendance,
	payroll.CollectionPayroll:          access.ViewPayroll,
	performance.CollectionPerformance:  access.ViewPerformance,
	transfers.CollectionTransfers:      access.ViewTransfers,
	grievances.CollectionGrievances:    access.ViewGrievances,
	tasks.CollectionTasks:              access.ViewTasks,
	recruitment.CollectionJobs:         access.ManageJobs,
	recruitment.CollectionApplications: access.ViewApplications,
	access.CollectionSystemConfig:      access.ViewConfig,
}

type Subscriber interface {
	Subscribe(filter changefeed.Filter, fn func(changefeed.Event)) *changefeed.Subscription
}

type RoleWatcher interface {
	WatchRole(accountID string, fn func(access.Role)) *changefeed.Subscription
}

type StreamMetrics interface {
	StreamOpened()
	StreamClosed()
}

type Handler struct {
	Hub            Subscriber
	Roles          RoleWatcher
	Sessions       *changefeed.Registry
	Policy         access.Checker
	Metrics        StreamMetrics
	OriginPatterns []string
}

func NewHandler(hub Subscriber, roles RoleWatcher, sessions *changefeed.Registry, policy access.Checker, metrics StreamMetrics, originPatterns []string) *Handler {
	return &Handler{Hub: hub, Roles: roles, Sessions: sessions, Policy: policy, Metrics: metrics, OriginPatterns: originPatterns}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth).Get("/stream", h.handleStream)
}

// Message is one frame sent to the client.
type Message struct {
	Type  string            `json:"type"`
	Event *changefeed.Event `json:"event,omitempty"`
	Role  string            `json:"role,omitempty"`
}

// visibility records which collections a connection may see in full. A role
// or flag change revokes every grant at once and bumps the generation, so a
// recomputation started before the change is discarded.
type visibility struct {
	mu   sync.RWMutex
	gen  uint64
	role access.Role
	full map[string]bool
}

func (v *visibility) allows(collection string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.full[collection]
}

func (v *visibility) revoke(role *access.Role) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	if role != nil {
		v.role = *role
	}
	v.full = map[string]bool{}
}

func (v *visibility) current() (uint64, access.Role) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.gen, v.role
}

func (v *visibility) grant(gen uint64, full map[string]bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen == v.gen {
		v.full = full
	}
}

func (h *Handler) fullView(ctx context.Context, user access.Actor, collections []string) map[string]bool {
	full := make(map[string]bool, len(collections))
	for _, collection := range collections {
		full[collection] = h.Policy.Allows(ctx, user, collectionViews[collection], false)
	}
	return full
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	collections, ok := requestedCollections(r.URL.Query().Get("collections"))
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_collections", "unknown collection requested", middleware.GetRequestID(r.Context()))
		return
	}

	opts := &websocket.AcceptOptions{}
	if len(h.OriginPatterns) > 0 {
		opts.OriginPatterns = h.OriginPatterns
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Warn("websocket accept failed", "err", err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.StreamOpened()
		defer h.Metrics.StreamClosed()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := make(chan Message, sendBuffer)
	send := func(msg Message) {
		select {
		case out <- msg:
		default:
			slog.Warn("stream client too slow, dropping event", "accountId", user.AccountID)
		}
	}

	vis := &visibility{role: user.Role, full: h.fullView(ctx, user, collections)}
	refresh := make(chan struct{}, 1)
	changed := func(role *access.Role) {
		vis.revoke(role)
		select {
		case refresh <- struct{}{}:
		default:
		}
	}

	scope := changefeed.NewScope()
	defer scope.Close()
	for _, collection := range collections {
		scope.Add(h.Hub.Subscribe(changefeed.Filter{Collection: collection}, func(evt changefeed.Event) {
			if !vis.allows(evt.Collection) {
				evt.Attrs = nil
			}
			send(Message{Type: "change", Event: &evt})
		}))
	}
	scope.Add(h.Hub.Subscribe(changefeed.Filter{Collection: access.CollectionSystemConfig}, func(changefeed.Event) {
		changed(nil)
	}))
	if h.Roles != nil {
		scope.Add(h.Roles.WatchRole(user.AccountID, func(role access.Role) {
			changed(&role)
			send(Message{Type: "role", Role: role.String()})
		}))
	}

	var sessionDone <-chan struct{}
	if h.Sessions != nil && user.SessionID != "" {
		sessionDone = h.Sessions.ScopeUntil(user.SessionID, user.ExpiresAt).Done()
	}
	var expired <-chan time.Time
	if !user.ExpiresAt.IsZero() {
		timer := time.NewTimer(time.Until(user.ExpiresAt))
		defer timer.Stop()
		expired = timer.C
	}

	_ = wsjson.Write(ctx, conn, Message{Type: "ready"})
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case <-readErr:
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case <-sessionDone:
			_ = conn.Close(websocket.StatusPolicyViolation, "signed_out")
			return
		case <-expired:
			_ = conn.Close(websocket.StatusPolicyViolation, "session_expired")
			return
		case <-refresh:
			gen, role := vis.current()
			actor := user
			actor.Role = role
			vis.grant(gen, h.fullView(ctx, actor, collections))
		case msg := <-out:
			writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, msg)
			cancelWrite()
			if err != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
				return
			}
		}
	}
}

// requestedCollections parses a comma separated list. An empty list selects
// every streamable collection.
func requestedCollections(raw string) ([]string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		out := make([]string, 0, len(collectionViews))
		for collection := range collectionViews {
			out = append(out, collection)
		}
		return out, true
	}
	seen := map[string]bool{}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		collection := strings.TrimSpace(part)
		if collection == "" || seen[collection] {
			continue
		}
		if _, ok := collectionViews[collection]; !ok {
			return nil, false
		}
		seen[collection] = true
		out = append(out, collection)
	}
	return out, len(out) > 0
}
