// Package session keeps the cross-page context of the agent: the selected
// store, table number, device id, auth token and display preferences.
//
// Every getter reads the backing store; nothing is cached in memory, so a value
// changed by another process or a restart is always observed.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tableorder-agent/internal/model"
	"tableorder-agent/internal/parse"
	"tableorder-agent/internal/store"
)

// Persisted keys.
const (
	KeyAdminLoggedIn = "admin_logged_in"
	KeyAdminUsername = "admin_username"
	KeyAdminStore    = "admin_store"
	KeyAuthToken     = "authToken"
	KeyUserInfo      = "userInfo"
	KeyUserStores    = "userStores"
	KeyTableNumber   = "table_number"
	KeyDeviceID      = "device_id"
	KeyLanguage      = "language"
	KeyDarkMode      = "darkMode"
	KeyTheme         = "theme"
)

var (
	ErrInvalidTableNumber = parse.ErrInvalidTableNumber
	ErrInvalidLanguage    = errors.New("unsupported language")
	ErrInvalidTheme       = errors.New("unsupported theme")
	ErrNoStore            = errors.New("no store selected")
)

// Languages lists the accepted language codes; the first one is the default.
var Languages = []string{"ko", "en", "ja", "zh"}

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Session is the typed view over the key-value store.
type Session struct {
	store store.Store
	now   func() time.Time
}

// New wraps a key-value store.
func New(s store.Store) *Session {
	return &Session{store: s, now: time.Now}
}

// Context is a point-in-time copy of everything the pages read at mount.
type Context struct {
	Store         *model.Store `json:"store,omitempty"`
	TableNumber   string       `json:"tableNumber,omitempty"`
	DeviceID      string       `json:"deviceId"`
	Language      string       `json:"language"`
	Theme         string       `json:"theme"`
	AdminLoggedIn bool         `json:"adminLoggedIn"`
	AdminUsername string       `json:"adminUsername,omitempty"`
}

// Snapshot reads every key once. Pages call it on mount.
func (s *Session) Snapshot(ctx context.Context) (Context, error) {
	var c Context
	var err error
	if c.Store, err = s.SelectedStore(ctx); err != nil && !errors.Is(err, ErrNoStore) {
		return c, err
	}
	if c.TableNumber, err = s.TableNumber(ctx); err != nil {
		return c, err
	}
	if c.DeviceID, err = s.DeviceID(ctx); err != nil {
		return c, err
	}
	if c.Language, err = s.Language(ctx); err != nil {
		return c, err
	}
	if c.Theme, err = s.Theme(ctx); err != nil {
		return c, err
	}
	if c.AdminLoggedIn, err = s.AdminLoggedIn(ctx); err != nil {
		return c, err
	}
	if c.AdminUsername, _, err = s.store.Get(ctx, KeyAdminUsername); err != nil {
		return c, err
	}
	return c, nil
}

// TableNumber returns the stored table number or "" when none is set.
func (s *Session) TableNumber(ctx context.Context) (string, error) {
	v, _, err := s.store.Get(ctx, KeyTableNumber)
	return v, err
}

// SetTableNumber validates and stores a table number. Invalid input leaves the
// stored value untouched.
func (s *Session) SetTableNumber(ctx context.Context, raw string) error {
	number, err := parse.TableNumber(raw)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, KeyTableNumber, number)
}

// ClearTableNumber forgets the table assignment.
func (s *Session) ClearTableNumber(ctx context.Context) error {
	return s.store.Delete(ctx, KeyTableNumber)
}

// DeviceID returns the device id, generating and persisting it on first use.
func (s *Session) DeviceID(ctx context.Context) (string, error) {
	v, ok, err := s.store.Get(ctx, KeyDeviceID)
	if err != nil {
		return "", err
	}
	if ok && v != "" {
		return v, nil
	}
	id := fmt.Sprintf("device_%s_%d", strings.ReplaceAll(uuid.NewString(), "-", "")[:12], s.now().UnixMilli())
	if err := s.store.Set(ctx, KeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}

// SelectedStore returns the cached store context or ErrNoStore.
func (s *Session) SelectedStore(ctx context.Context) (*model.Store, error) {
	v, ok, err := s.store.Get(ctx, KeyAdminStore)
	if err != nil {
		return nil, err
	}
	if !ok || v == "" {
		return nil, ErrNoStore
	}
	var st model.Store
	if err := json.Unmarshal([]byte(v), &st); err != nil {
		return nil, fmt.Errorf("corrupt %s entry: %w", KeyAdminStore, err)
	}
	if st.ID == "" {
		return nil, ErrNoStore
	}
	return &st, nil
}

// SetSelectedStore replaces the store context.
func (s *Session) SetSelectedStore(ctx context.Context, st model.Store) error {
	if st.ID == "" {
		return ErrNoStore
	}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, KeyAdminStore, string(b))
}

// StoreID returns the id of the selected store.
func (s *Session) StoreID(ctx context.Context) (string, error) {
	st, err := s.SelectedStore(ctx)
	if err != nil {
		return "", err
	}
	return st.ID, nil
}

// TenantID satisfies backend.Credentials. A missing store is not an error there.
func (s *Session) TenantID(ctx context.Context) (string, error) {
	id, err := s.StoreID(ctx)
	if errors.Is(err, ErrNoStore) {
		return "", nil
	}
	return id, err
}

// AuthToken returns the stored bearer token or "".
func (s *Session) AuthToken(ctx context.Context) (string, error) {
	v, _, err := s.store.Get(ctx, KeyAuthToken)
	return v, err
}

// SetAuth persists a successful login.
func (s *Session) SetAuth(ctx context.Context, res model.LoginResult) error {
	user, err := json.Marshal(res.User)
	if err != nil {
		return err
	}
	stores, err := json.Marshal(res.Stores)
	if err != nil {
		return err
	}
	for _, kv := range [][2]string{
		{KeyAuthToken, res.Token},
		{KeyUserInfo, string(user)},
		{KeyUserStores, string(stores)},
		{KeyAdminUsername, res.User.Username},
		{KeyAdminLoggedIn, "true"},
	} {
		if err := s.store.Set(ctx, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// UserStores returns the stores granted at login.
func (s *Session) UserStores(ctx context.Context) ([]model.Store, error) {
	v, ok, err := s.store.Get(ctx, KeyUserStores)
	if err != nil || !ok {
		return nil, err
	}
	var stores []model.Store
	if err := json.Unmarshal([]byte(v), &stores); err != nil {
		return nil, fmt.Errorf("corrupt %s entry: %w", KeyUserStores, err)
	}
	return stores, nil
}

// Logout drops every credential key. Device id, table and preferences survive.
func (s *Session) Logout(ctx context.Context) error {
	return s.store.Delete(ctx, KeyAuthToken, KeyUserInfo, KeyUserStores, KeyAdminUsername, KeyAdminLoggedIn, KeyAdminStore)
}

// AdminLoggedIn reports the stored login flag.
func (s *Session) AdminLoggedIn(ctx context.Context) (bool, error) {
	v, _, err := s.store.Get(ctx, KeyAdminLoggedIn)
	if err != nil {
		return false, err
	}
	ok, _ := strconv.ParseBool(v)
	return ok, nil
}

// TokenExpired reports whether the stored token is missing or past its exp claim.
// The signature is not verified; the backend remains the authority.
func (s *Session) TokenExpired(ctx context.Context) (bool, error) {
	tok, err := s.AuthToken(ctx)
	if err != nil {
		return true, err
	}
	if tok == "" {
		return true, nil
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		// Opaque tokens carry no expiry we can read.
		return false, nil
	}
	if claims.ExpiresAt == nil {
		return false, nil
	}
	return !s.now().Before(claims.ExpiresAt.Time), nil
}

// Authenticated combines the login flag and the token expiry.
func (s *Session) Authenticated(ctx context.Context) (bool, error) {
	in, err := s.AdminLoggedIn(ctx)
	if err != nil || !in {
		return false, err
	}
	expired, err := s.TokenExpired(ctx)
	if err != nil {
		return false, err
	}
	return !expired, nil
}

// Language returns the stored language or the default.
func (s *Session) Language(ctx context.Context) (string, error) {
	v, ok, err := s.store.Get(ctx, KeyLanguage)
	if err != nil {
		return "", err
	}
	if !ok || !supported(v) {
		return Languages[0], nil
	}
	return v, nil
}

// SetLanguage stores a supported language code.
func (s *Session) SetLanguage(ctx context.Context, lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !supported(lang) {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	return s.store.Set(ctx, KeyLanguage, lang)
}

// Theme returns "light" or "dark". The legacy darkMode flag is honoured when
// no theme was stored.
func (s *Session) Theme(ctx context.Context) (string, error) {
	v, ok, err := s.store.Get(ctx, KeyTheme)
	if err != nil {
		return "", err
	}
	if ok && (v == ThemeLight || v == ThemeDark) {
		return v, nil
	}
	dark, _, err := s.store.Get(ctx, KeyDarkMode)
	if err != nil {
		return "", err
	}
	if b, _ := strconv.ParseBool(dark); b {
		return ThemeDark, nil
	}
	return ThemeLight, nil
}

// SetTheme stores the theme and mirrors it into darkMode.
func (s *Session) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	if err := s.store.Set(ctx, KeyTheme, theme); err != nil {
		return err
	}
	return s.store.Set(ctx, KeyDarkMode, strconv.FormatBool(theme == ThemeDark))
}

func supported(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}
