package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/internal/auth"
	"authgate/internal/repository"
	"authgate/internal/service"
	"authgate/internal/testutil"
	"authgate/internal/testutil/testdb"
)

type testApp struct {
	handler http.Handler
	users   *repository.UserRepository
}

type appOptions struct {
	authType auth.Type
	lifetime time.Duration
	now      func() time.Time
}

func newTestApp(t *testing.T, opts appOptions) *testApp {
	t.Helper()
	db := testdb.Open(t)
	log := testutil.MakeNoopLogger()

	users := repository.NewUserRepository(db)
	scheme, err := auth.New(auth.Options{
		Type:            opts.authType,
		Excluded:        ExcludedPaths,
		SessionDuration: opts.lifetime,
		Users:           users,
		Sessions:        repository.NewSessionRepository(db),
		Logger:          log,
		Now:             opts.now,
	})
	require.NoError(t, err)

	return &testApp{
		handler: NewRouter(RouterConfig{
			Scheme:      scheme,
			Users:       users,
			UserService: service.NewUserService(users, log),
			AuthService: service.NewAuthService(users, nil, log),
			Logger:      log,
		}),
		users: users,
	}
}

type call struct {
	method  string
	path    string
	form    url.Values
	json    string
	header  string
	cookies []*http.Cookie
}

func (a *testApp) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	switch {
	case c.form != nil:
		r = httptest.NewRequest(c.method, c.path, strings.NewReader(c.form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	case c.json != "":
		r = httptest.NewRequest(c.method, c.path, strings.NewReader(c.json))
		r.Header.Set("Content-Type", "application/json")
	default:
		r = httptest.NewRequest(c.method, c.path, nil)
	}
	if c.header != "" {
		r.Header.Set("Authorization", c.header)
	}
	for _, cookie := range c.cookies {
		r.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	return w
}

func findCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestUserServiceLoginScenario(t *testing.T) {
	app := newTestApp(t, appOptions{})
	creds := url.Values{"email": {"a@b.com"}, "password": {"pw1"}}

	w := app.do(t, call{method: http.MethodGet, path: "/"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Bienvenue"}`, w.Body.String())

	w = app.do(t, call{method: http.MethodPost, path: "/users", form: url.Values{"email": {"long@b.com"}, "password": {strings.Repeat("p", 73)}}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "password longer than bcrypt accepts")

	w = app.do(t, call{method: http.MethodPost, path: "/users", form: creds})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"a@b.com","message":"user created"}`, w.Body.String())

	w = app.do(t, call{method: http.MethodPost, path: "/users", form: creds})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"email already registered"}`, w.Body.String())

	w = app.do(t, call{method: http.MethodPost, path: "/sessions", form: url.Values{"email": {"a@b.com"}, "password": {"nope"}}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, call{method: http.MethodPost, path: "/sessions", form: creds})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"a@b.com","message":"logged in"}`, w.Body.String())
	session := findCookie(t, w, UserSessionCookieName)

	w = app.do(t, call{method: http.MethodGet, path: "/profile", cookies: []*http.Cookie{session}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"a@b.com"}`, w.Body.String())

	w = app.do(t, call{method: http.MethodGet, path: "/profile"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, call{method: http.MethodDelete, path: "/sessions", cookies: []*http.Cookie{session}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = app.do(t, call{method: http.MethodGet, path: "/profile", cookies: []*http.Cookie{session}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, call{method: http.MethodDelete, path: "/sessions", cookies: []*http.Cookie{session}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserServiceResetScenario(t *testing.T) {
	app := newTestApp(t, appOptions{})

	w := app.do(t, call{method: http.MethodPost, path: "/reset_password", form: url.Values{"email": {"ghost@b.com"}}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, call{method: http.MethodPost, path: "/users", form: url.Values{"email": {"a@b.com"}, "password": {"pw1"}}})
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, call{method: http.MethodPost, path: "/reset_password", form: url.Values{"email": {"a@b.com"}}})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "a@b.com", body["email"])
	stale, _ := body["reset_token"].(string)
	require.NotEmpty(t, stale)

	w = app.do(t, call{method: http.MethodPost, path: "/reset_password", form: url.Values{"email": {"a@b.com"}}})
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := decode(t, w)["reset_token"].(string)

	update := func(token string) *httptest.ResponseRecorder {
		return app.do(t, call{method: http.MethodPut, path: "/reset_password", form: url.Values{
			"email":        {"a@b.com"},
			"reset_token":  {token},
			"new_password": {"pw2"},
		}})
	}

	assert.Equal(t, http.StatusForbidden, update(stale).Code, "replaced token")

	w = app.do(t, call{method: http.MethodPut, path: "/reset_password", form: url.Values{
		"email":        {"a@b.com"},
		"reset_token":  {token},
		"new_password": {strings.Repeat("p", 73)},
	}})
	assert.Equal(t, http.StatusForbidden, w.Code, "password longer than bcrypt accepts")

	w = update(token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"a@b.com","message":"Password updated"}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, update(token).Code, "consumed token")

	w = app.do(t, call{method: http.MethodPost, path: "/sessions", form: url.Values{"email": {"a@b.com"}, "password": {"pw1"}}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = app.do(t, call{method: http.MethodPost, path: "/sessions", form: url.Values{"email": {"a@b.com"}, "password": {"pw2"}}})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRoutes(t *testing.T) {
	app := newTestApp(t, appOptions{})

	for _, path := range []string{"/nope", "/api/v1/nope", "/api/v1"} {
		w := app.do(t, call{method: http.MethodGet, path: path})
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String(), path)
	}
}

func TestAPIBasicAuth(t *testing.T) {
	app := newTestApp(t, appOptions{authType: auth.TypeBasic})
	_, err := app.users.AddUser(t.Context(), "bob@hbtn.io", mustHash(t, "H0lbertonSchool98!"))
	require.NoError(t, err)
	valid := auth.EncodeBasic("bob@hbtn.io", "H0lbertonSchool98!")

	w := app.do(t, call{method: http.MethodGet, path: "/api/v1/status/"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK"}`, w.Body.String())

	w = app.do(t, call{method: http.MethodGet, path: "/api/v1/unauthorized"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = app.do(t, call{method: http.MethodGet, path: "/api/v1/forbidden"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, call{method: http.MethodGet, path: "/api/v1/users"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	w = app.do(t, call{method: http.MethodGet, path: "/api/v1/users", header: "Basic not-base64"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = app.do(t, call{method: http.MethodGet, path: "/api/v1/users", header: auth.EncodeBasic("bob@hbtn.io", "wrong")})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, call{method: http.MethodGet, path: "/api/v1/users", header: valid})
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "bob@hbtn.io", users[0]["email"])
	assert.NotContains(t, w.Body.String(), "hashed_password")

	w = app.do(t, call{method: http.MethodGet, path: "/api/v1/users/me", header: valid})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob@hbtn.io", decode(t, w)["email"])

	w = app.do(t, call{method: http.MethodGet, path: "/api/v1/stats", header: valid})
	assert.JSONEq(t, `{"users":1}`, w.Body.String())
}

func TestAPIUserCRUD(t *testing.T) {
	app := newTestApp(t, appOptions{authType: auth.TypeBasic})
	_, err := app.users.AddUser(t.Context(), "admin@hbtn.io", mustHash(t, "pw"))
	require.NoError(t, err)
	admin := auth.EncodeBasic("admin@hbtn.io", "pw")

	badRequests := []struct {
		body string
		want string
	}{
		{body: "not json", want: "Not a JSON"},
		{body: `{"password":"pw"}`, want: "Missing email"},
		{body: `{"email":"new@hbtn.io"}`, want: "Missing password"},
		{body: `{"email":"admin@hbtn.io","password":"pw"}`, want: "Can't create User: email already registered"},
		{body: `{"email":"long@hbtn.io","password":"` + strings.Repeat("p", 73) + `"}`, want: "Can't create User: password: password must be at most 72 bytes"},
	}
	for _, tt := range badRequests {
		w := app.do(t, call{method: http.MethodPost, path: "/api/v1/users", json: tt.body, header: admin})
		assert.Equal(t, http.StatusBadRequest, w.Code, tt.body)
		assert.Equal(t, tt.want, decode(t, w)["error"], tt.body)
	}

	w := app.do(t, call{method: http.MethodPost, path: "/api/v1/users", header: admin,
		json: `{"email":"new@hbtn.io","password":"pw","first_name":"New"}`})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	assert.Equal(t, "New", created["first_name"])
	assert.Nil(t, created["last_name"])
	id := int64(created["id"].(float64))
	userPath := "/api/v1/users/" + strconv.FormatInt(id, 10)

	w = app.do(t, call{method: http.MethodPut, path: userPath, header: admin, json: `{"last_name":"Person","email":"ignored@hbtn.io"}`})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode(t, w)
	assert.Equal(t, "Person", updated["last_name"])
	assert.Equal(t, "new@hbtn.io", updated["email"])

	w = app.do(t, call{method: http.MethodPut, path: userPath, header: admin, json: "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, call{method: http.MethodDelete, path: userPath, header: admin})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w = app.do(t, call{method: method, path: userPath, header: admin})
		assert.Equal(t, http.StatusNotFound, w.Code, method)
	}
	w = app.do(t, call{method: http.MethodPut, path: userPath, header: admin, json: `{}`})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIMeWithoutScheme(t *testing.T) {
	app := newTestApp(t, appOptions{})

	w := app.do(t, call{method: http.MethodGet, path: "/api/v1/users/me"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, call{method: http.MethodPost, path: "/api/v1/auth_session/login", form: url.Values{"email": {"a@b.com"}}})
	assert.Equal(t, http.StatusNotFound, w.Code, "login needs a session scheme")
}

func TestAPISessionLogin(t *testing.T) {
	for _, authType := range []auth.Type{auth.TypeSession, auth.TypeSessionExp, auth.TypeSessionDB} {
		t.Run(string(authType), func(t *testing.T) {
			app := newTestApp(t, appOptions{authType: authType})
			_, err := app.users.AddUser(t.Context(), "bob@hbtn.io", mustHash(t, "pw:1"))
			require.NoError(t, err)
			login := "/api/v1/auth_session/login"

			w := app.do(t, call{method: http.MethodPost, path: login, form: url.Values{}})
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"email missing"}`, w.Body.String())

			w = app.do(t, call{method: http.MethodPost, path: login, form: url.Values{"email": {"bob@hbtn.io"}}})
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"password missing"}`, w.Body.String())

			w = app.do(t, call{method: http.MethodPost, path: login, form: url.Values{"email": {"eve@hbtn.io"}, "password": {"x"}}})
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.JSONEq(t, `{"error":"no user found for this email"}`, w.Body.String())

			w = app.do(t, call{method: http.MethodPost, path: login, form: url.Values{"email": {"bob@hbtn.io"}, "password": {"x"}}})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"wrong password"}`, w.Body.String())

			w = app.do(t, call{method: http.MethodPost, path: login + "/", form: url.Values{"email": {"bob@hbtn.io"}, "password": {"pw:1"}}})
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "bob@hbtn.io", decode(t, w)["email"])
			session := findCookie(t, w, auth.DefaultCookieName)

			w = app.do(t, call{method: http.MethodGet, path: "/api/v1/users/me", cookies: []*http.Cookie{session}})
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "bob@hbtn.io", decode(t, w)["email"])

			w = app.do(t, call{method: http.MethodDelete, path: "/api/v1/auth_session/logout", cookies: []*http.Cookie{session}})
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{}`, w.Body.String())

			w = app.do(t, call{method: http.MethodGet, path: "/api/v1/users/me", cookies: []*http.Cookie{session}})
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}

func TestAPIDatabaseSessionExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	app := newTestApp(t, appOptions{
		authType: auth.TypeSessionDB,
		lifetime: time.Minute,
		now:      func() time.Time { return now },
	})
	_, err := app.users.AddUser(t.Context(), "bob@hbtn.io", mustHash(t, "pw"))
	require.NoError(t, err)

	w := app.do(t, call{method: http.MethodPost, path: "/api/v1/auth_session/login", form: url.Values{"email": {"bob@hbtn.io"}, "password": {"pw"}}})
	require.Equal(t, http.StatusOK, w.Code)
	session := findCookie(t, w, auth.DefaultCookieName)

	now = now.Add(59 * time.Second)
	w = app.do(t, call{method: http.MethodGet, path: "/api/v1/users/me", cookies: []*http.Cookie{session}})
	assert.Equal(t, http.StatusOK, w.Code)

	now = now.Add(2 * time.Second)
	w = app.do(t, call{method: http.MethodGet, path: "/api/v1/users/me", cookies: []*http.Cookie{session}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, call{method: http.MethodDelete, path: "/api/v1/auth_session/logout", cookies: []*http.Cookie{session}})
	assert.Equal(t, http.StatusForbidden, w.Code, "expired session was removed")
}
