// Package services contains the application services of the Occasio client:
// the synchronization engine reconciling local and remote state, and the
// notification scheduler derived from it.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/occasio/occasio/internal/client/api"
	"github.com/occasio/occasio/internal/client/localstore"
	"github.com/occasio/occasio/internal/client/models"
	"github.com/occasio/occasio/internal/common"
	"github.com/occasio/occasio/internal/logging"
)

// otpTTL is the client-side expiry estimate for a one-time code; the server
// keeps its own authoritative expiry.
const otpTTL = 5 * time.Minute

// Connectivity is the engine's view of the network monitor.
type Connectivity interface {
	// Current performs a one-shot reachability check.
	Current(ctx context.Context) bool
	// Connected returns the cached reachability flag.
	Connected() bool
	// OnChange subscribes to state transitions; the result unsubscribes.
	OnChange(fn func(connected bool)) func()
}

// pendingOTP is the transient verification context persisted under the otp
// key. It is deleted after any verification attempt that reaches the server.
type pendingOTP struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SyncEngine reconciles the locally cached event/user state with the remote
// store. In-memory state is the source of truth for the current process;
// local persistence is best-effort durability, and remote pushes are batched
// on a periodic cycle.
//
// Construct exactly one instance per process and hand it to the UI layer;
// there is no ambient singleton.
type SyncEngine struct {
	apiClient api.Client
	store     localstore.Store
	monitor   Connectivity
	scheduler *Scheduler
	backup    *SnapshotBackup
	log       logging.Logger

	pushInterval     time.Duration
	identityRecovery bool

	cron        *cron.Cron
	unsubscribe func()
	now         func() time.Time

	mu     sync.Mutex
	user   *models.User
	events []models.Event
	dirty  bool
	otp    *pendingOTP
}

// NewSyncEngine wires the engine. scheduler and backup may be nil to disable
// notification scheduling and cloud backups respectively.
func NewSyncEngine(apiClient api.Client, store localstore.Store, monitor Connectivity,
	scheduler *Scheduler, backup *SnapshotBackup, pushInterval time.Duration,
	identityRecovery bool, log logging.Logger) *SyncEngine {
	return &SyncEngine{
		apiClient:        apiClient,
		store:            store,
		monitor:          monitor,
		scheduler:        scheduler,
		backup:           backup,
		log:              log,
		pushInterval:     pushInterval,
		identityRecovery: identityRecovery,
		now:              time.Now,
	}
}

// Start hydrates state from the local cache and launches the background
// tasks: the connectivity watcher subscription and the periodic push cycle.
// Background tasks live until Close.
func (e *SyncEngine) Start(ctx context.Context) error {
	user, err := e.LoadUserData(ctx)
	if err != nil {
		e.log.Warn(ctx, "local hydration failed", "error", err)
	}

	e.unsubscribe = e.monitor.OnChange(func(connected bool) {
		e.log.Debug(context.Background(), "connectivity update", "connected", connected)
	})

	e.cron = cron.New()
	if _, err := e.cron.AddFunc(fmt.Sprintf("@every %s", e.pushInterval), func() {
		e.pushCycle(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to schedule push cycle: %w", err)
	}
	e.cron.Start()

	// Startup pull: refresh the event set for a remembered session. Failures
	// are background noise; the cache stays authoritative until the next pull.
	if user != nil && user.LoggedIn {
		if err := e.RefreshEvents(ctx); err != nil {
			e.log.Warn(ctx, "startup event pull failed", "error", err)
		}
		e.scheduleNotifications(ctx)
	}

	return nil
}

// Close stops the background tasks and releases the API client. An in-flight
// push is not aborted; it completes and is superseded by later state.
func (e *SyncEngine) Close() error {
	if e.cron != nil {
		<-e.cron.Stop().Done()
	}
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	if e.scheduler != nil {
		e.scheduler.Stop()
	}
	return e.apiClient.Close()
}

// Connected reports the cached connectivity flag for UI consumption.
func (e *SyncEngine) Connected() bool {
	return e.monitor.Connected()
}

// Dirty reports whether local mutations await a push.
func (e *SyncEngine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// User returns a copy of the current user record, or nil when unauthenticated.
func (e *SyncEngine) User() *models.User {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.user == nil {
		return nil
	}
	u := *e.user
	return &u
}

// Events returns a copy of the in-memory event set.
func (e *SyncEngine) Events() []models.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Event, len(e.events))
	copy(out, e.events)
	return out
}

// EventsByDate returns the event set sorted by date for display.
func (e *SyncEngine) EventsByDate() []models.Event {
	return models.SortEventsByDate(e.Events())
}

// LoadUserData hydrates in-memory state from the local cache. The cache is
// trusted over the network at startup; an absent record simply means the
// unauthenticated state.
func (e *SyncEngine) LoadUserData(ctx context.Context) (*models.User, error) {
	raw, err := e.store.Get(ctx, localstore.KeyUserData)
	if err != nil {
		return nil, fmt.Errorf("failed to read user data: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user data: %w", err)
	}

	events := user.Events
	if rawEvents, err := e.store.Get(ctx, localstore.KeyEvents); err != nil {
		e.log.Warn(ctx, "failed to read cached events", "error", err)
	} else if rawEvents != nil {
		var cached []models.Event
		if err := json.Unmarshal(rawEvents, &cached); err != nil {
			e.log.Warn(ctx, "failed to decode cached events", "error", err)
		} else {
			events = cached
		}
	}

	if token, err := e.store.Get(ctx, localstore.KeyAuthToken); err != nil {
		e.log.Warn(ctx, "failed to read auth token", "error", err)
	} else if token != nil {
		e.apiClient.SetToken(string(token))
	}

	user.Events = nil

	e.mu.Lock()
	e.user = &user
	e.events = events
	e.mu.Unlock()

	u := user
	return &u, nil
}

// RecoverIdentity re-resolves a dangling email reference through the user
// directory when no local record exists. It never creates a session: the
// recovered record is stored logged-out.
func (e *SyncEngine) RecoverIdentity(ctx context.Context, email string) (*models.User, error) {
	if !e.identityRecovery {
		return nil, common.ErrNotFound
	}
	if !e.monitor.Current(ctx) {
		return nil, common.ErrNetworkUnavailable
	}

	users, err := e.apiClient.GetUsers(ctx)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.Email != email {
			continue
		}
		u.LoggedIn = false
		u.Events = nil

		e.mu.Lock()
		e.user = &u
		e.mu.Unlock()
		e.persistUser(ctx)

		found := u
		return &found, nil
	}
	return nil, common.ErrNotFound
}

// StoreUserData merges the given fields into the current user record and
// persists it wholesale. A profile edit marks the state dirty.
func (e *SyncEngine) StoreUserData(ctx context.Context, updated *models.User) error {
	if updated == nil || updated.Email == "" {
		return fmt.Errorf("%w: user email is required", common.ErrValidation)
	}

	e.mu.Lock()
	if e.user == nil {
		u := *updated
		u.Events = nil
		e.user = &u
	} else {
		mergeUser(e.user, updated)
	}
	e.dirty = true
	loggedIn := e.user.LoggedIn
	e.mu.Unlock()

	e.persistUser(ctx)
	if loggedIn {
		e.scheduleNotifications(ctx)
	}
	return nil
}

// RemoveUserData logs the session out: the bearer token is detached before
// the local cache is touched again, then the credentials and the user record
// are removed. The cached event list stays behind as stale offline data.
func (e *SyncEngine) RemoveUserData(ctx context.Context) error {
	e.apiClient.SetToken("")

	if err := e.store.DeleteMany(ctx, localstore.KeyAuthToken, localstore.KeyUserData); err != nil {
		e.log.Warn(ctx, "failed to remove session data", "error", err)
	}

	e.mu.Lock()
	e.user = nil
	e.events = nil
	e.dirty = false
	e.mu.Unlock()

	return nil
}

// AddEvent validates and inserts an event, generating an ID when absent.
// A duplicate ID overwrites the older entry.
func (e *SyncEngine) AddEvent(ctx context.Context, event models.Event) (models.Event, error) {
	if event.ID == "" {
		event.ID = models.NewEventID()
	}
	if err := event.Validate(); err != nil {
		return models.Event{}, err
	}

	e.mu.Lock()
	replaced := false
	for i := range e.events {
		if e.events[i].ID == event.ID {
			e.events[i] = event
			replaced = true
			break
		}
	}
	if !replaced {
		e.events = append(e.events, event)
	}
	e.dirty = true
	e.mu.Unlock()

	e.persistEvents(ctx)
	return event, nil
}

// EditEvent applies a partial patch to the event with the given ID.
func (e *SyncEngine) EditEvent(ctx context.Context, id string, patch models.EventPatch) (models.Event, error) {
	e.mu.Lock()
	idx := -1
	for i := range e.events {
		if e.events[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return models.Event{}, fmt.Errorf("%w: event %s", common.ErrNotFound, id)
	}

	edited := e.events[idx]
	patch.Apply(&edited)
	if err := edited.Validate(); err != nil {
		e.mu.Unlock()
		return models.Event{}, err
	}
	e.events[idx] = edited
	e.dirty = true
	e.mu.Unlock()

	e.persistEvents(ctx)
	return edited, nil
}

// DeleteEvent removes the event with the given ID.
func (e *SyncEngine) DeleteEvent(ctx context.Context, id string) error {
	e.mu.Lock()
	kept := e.events[:0]
	found := false
	for _, ev := range e.events {
		if ev.ID == id {
			found = true
			continue
		}
		kept = append(kept, ev)
	}
	if !found {
		e.mu.Unlock()
		return fmt.Errorf("%w: event %s", common.ErrNotFound, id)
	}
	e.events = kept
	e.dirty = true
	e.mu.Unlock()

	e.persistEvents(ctx)
	return nil
}

// LoginUser authenticates and pulls the server's event set. The server wins:
// local events are overwritten wholesale.
func (e *SyncEngine) LoginUser(ctx context.Context, email, password string) (*models.User, error) {
	if !e.monitor.Current(ctx) {
		return nil, common.ErrNetworkUnavailable
	}

	res, err := e.apiClient.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	e.apiClient.SetToken(res.Token)

	user := res.User
	user.LoggedIn = true

	events := user.Events
	if pulled, err := e.apiClient.GetEvents(ctx, user.Email); err != nil {
		e.log.Warn(ctx, "post-login event pull failed, using login payload", "error", err)
	} else {
		events = pulled
	}
	user.Events = nil

	e.mu.Lock()
	e.user = &user
	e.events = events
	e.dirty = false
	e.mu.Unlock()

	if err := e.store.Set(ctx, localstore.KeyAuthToken, []byte(res.Token)); err != nil {
		e.log.Warn(ctx, "failed to persist auth token", "error", err)
	}
	e.persistUser(ctx)
	e.persistEvents(ctx)

	e.scheduleNotifications(ctx)

	u := user
	return &u, nil
}

// SignupUser creates an account and stores the bootstrap user record locally,
// replacing any previous one. The server issues an OTP as part of signup.
func (e *SyncEngine) SignupUser(ctx context.Context, name, email, password, mobile string) (string, error) {
	if !e.monitor.Current(ctx) {
		return "", common.ErrNetworkUnavailable
	}

	user := models.NewUser(name, email, password, mobile)
	msg, err := e.apiClient.Signup(ctx, user)
	if err != nil {
		return "", err
	}

	if err := e.RemoveUserData(ctx); err != nil {
		e.log.Warn(ctx, "failed to clear previous user data", "error", err)
	}

	e.mu.Lock()
	e.user = user
	e.events = nil
	e.mu.Unlock()
	e.persistUser(ctx)

	e.recordPendingOTP(ctx, email)
	return msg, nil
}

// SendOTP requests a fresh one-time code for the email.
func (e *SyncEngine) SendOTP(ctx context.Context, email string) (string, error) {
	if !e.monitor.Current(ctx) {
		return "", common.ErrNetworkUnavailable
	}
	msg, err := e.apiClient.SendOTP(ctx, email)
	if err != nil {
		return "", err
	}
	e.recordPendingOTP(ctx, email)
	return msg, nil
}

// ResendOTP reissues the code and resets the client-side expiry estimate.
func (e *SyncEngine) ResendOTP(ctx context.Context, email string) (string, error) {
	if !e.monitor.Current(ctx) {
		return "", common.ErrNetworkUnavailable
	}
	msg, err := e.apiClient.ResendOTP(ctx, email)
	if err != nil {
		return "", err
	}
	e.recordPendingOTP(ctx, email)
	return msg, nil
}

// VerifyOTP confirms the code with the server. The persisted OTP context is
// deleted after any attempt that reaches the server, preventing replay. An
// expired client-side estimate fails fast without a network call.
func (e *SyncEngine) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	e.mu.Lock()
	pending := e.otp
	e.mu.Unlock()

	if pending != nil && e.now().After(pending.ExpiresAt) {
		e.clearPendingOTP(ctx)
		return "", fmt.Errorf("%w: request a new code", common.ErrOTPExpired)
	}

	if !e.monitor.Current(ctx) {
		return "", common.ErrNetworkUnavailable
	}

	msg, err := e.apiClient.VerifyOTP(ctx, email, code)
	e.clearPendingOTP(ctx)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	activated := e.user != nil && e.user.Email == email
	if activated {
		e.user.LoggedIn = true
	}
	e.mu.Unlock()

	if activated {
		e.persistUser(ctx)
		if err := e.RefreshEvents(ctx); err != nil {
			e.log.Warn(ctx, "post-verification event pull failed", "error", err)
		}
		e.scheduleNotifications(ctx)
	}
	return msg, nil
}

// ResetPassword sets a new password for the email.
func (e *SyncEngine) ResetPassword(ctx context.Context, email, newPassword string) (string, error) {
	if !e.monitor.Current(ctx) {
		return "", common.ErrNetworkUnavailable
	}
	return e.apiClient.ResetPassword(ctx, email, newPassword)
}

// RefreshEvents pulls the authoritative event set and overwrites the local
// copy. Callers decide when overwriting is safe (login, verification,
// startup of a remembered session).
func (e *SyncEngine) RefreshEvents(ctx context.Context) error {
	e.mu.Lock()
	if e.user == nil {
		e.mu.Unlock()
		return common.ErrUnauthorized
	}
	email := e.user.Email
	e.mu.Unlock()

	events, err := e.apiClient.GetEvents(ctx, email)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.events = events
	e.mu.Unlock()

	e.persistEvents(ctx)
	return nil
}

// pushCycle is the periodic batched upload. It runs only when there is
// something to push, a session to push for, and a network to push over.
// Failures are logged and retried on the next tick.
func (e *SyncEngine) pushCycle(ctx context.Context) {
	e.mu.Lock()
	if !e.dirty || e.user == nil || !e.user.LoggedIn || !e.monitor.Connected() {
		e.mu.Unlock()
		return
	}
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if err := e.apiClient.UpdateUser(ctx, snapshot); err != nil {
		e.log.Warn(ctx, "push cycle failed", "error", err)
		return
	}

	e.mu.Lock()
	e.dirty = false
	e.mu.Unlock()
	e.log.Info(ctx, "push cycle done", "events", len(snapshot.Events))

	if e.backup != nil && snapshot.Settings.CloudStorage {
		if err := e.backup.Upload(ctx, snapshot); err != nil {
			e.log.Warn(ctx, "cloud snapshot backup failed", "error", err)
		}
	}
}

// snapshotLocked composes the full User+Events snapshot. Caller holds e.mu.
func (e *SyncEngine) snapshotLocked() *models.User {
	snapshot := *e.user
	snapshot.Events = make([]models.Event, len(e.events))
	copy(snapshot.Events, e.events)
	return &snapshot
}

func mergeUser(dst, src *models.User) {
	dst.Email = src.Email
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Password != "" {
		dst.Password = src.Password
	}
	if src.Mobile != "" {
		dst.Mobile = src.Mobile
	}
	dst.LoggedIn = src.LoggedIn
	dst.Settings = src.Settings
}

// persistUser writes the user record to the local cache. Best effort: the
// in-memory update already happened and must not be rolled back.
func (e *SyncEngine) persistUser(ctx context.Context) {
	e.mu.Lock()
	if e.user == nil {
		e.mu.Unlock()
		return
	}
	snapshot := *e.user
	e.mu.Unlock()

	data, err := json.Marshal(&snapshot)
	if err != nil {
		e.log.Error(ctx, "failed to encode user data", "error", err)
		return
	}
	if err := e.store.Set(ctx, localstore.KeyUserData, data); err != nil {
		e.log.Warn(ctx, "failed to persist user data", "error", err)
	}
}

func (e *SyncEngine) persistEvents(ctx context.Context) {
	e.mu.Lock()
	events := make([]models.Event, len(e.events))
	copy(events, e.events)
	e.mu.Unlock()

	data, err := json.Marshal(events)
	if err != nil {
		e.log.Error(ctx, "failed to encode events", "error", err)
		return
	}
	if err := e.store.Set(ctx, localstore.KeyEvents, data); err != nil {
		e.log.Warn(ctx, "failed to persist events", "error", err)
	}
}

func (e *SyncEngine) recordPendingOTP(ctx context.Context, email string) {
	pending := &pendingOTP{Email: email, ExpiresAt: e.now().Add(otpTTL)}

	e.mu.Lock()
	e.otp = pending
	e.mu.Unlock()

	data, err := json.Marshal(pending)
	if err != nil {
		e.log.Error(ctx, "failed to encode otp context", "error", err)
		return
	}
	if err := e.store.Set(ctx, localstore.KeyOTP, data); err != nil {
		e.log.Warn(ctx, "failed to persist otp context", "error", err)
	}
}

func (e *SyncEngine) clearPendingOTP(ctx context.Context) {
	e.mu.Lock()
	e.otp = nil
	e.mu.Unlock()

	if err := e.store.Delete(ctx, localstore.KeyOTP); err != nil {
		e.log.Warn(ctx, "failed to remove otp context", "error", err)
	}
}

func (e *SyncEngine) scheduleNotifications(ctx context.Context) {
	if e.scheduler == nil {
		return
	}

	user := e.User()
	if user == nil || !user.Settings.Notifications {
		return
	}
	e.scheduler.Schedule(ctx, user)
}
