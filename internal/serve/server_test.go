package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"gazeta/internal/articles"
	"gazeta/internal/auth"
	"gazeta/internal/domain/config"
	"gazeta/internal/issue"
	"gazeta/internal/store"
)

const (
	adminEmail    = "redactie@example.ro"
	adminPassword = "parola-lunga"
)

type fixture struct {
	srv   *Server
	store *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	st, err := store.Open(store.OpenOptions{Path: filepath.Join(dir, "gazeta.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	authSvc := auth.NewService(auth.NewRepo(st), auth.TokenService{
		Secret:   []byte("test-secret"),
		Issuer:   "gazeta",
		Duration: time.Hour,
	}, nil, nil)
	authSvc.Cost = bcrypt.MinCost
	if err := authSvc.EnsureUser(adminEmail, adminPassword); err != nil {
		t.Fatal(err)
	}

	seed := map[string]store.Fields{
		"a1": {"title": "Toamna în liceu", "author": "Ana", "body_html": "<p>Frunze</p>", "summary": "Despre toamnă",
			"tags": []string{"eseu"}, "status": "published", "date": "17 oct 2025", "slug": "toamna-in-liceu"},
		"a2": {"title": "Interviu cu directorul", "author": "Mihai", "body_html": "<p>Întrebări</p>",
			"tags": []string{"interviu"}, "status": "published", "date": "3 sep 2025", "slug": "interviu-cu-directorul"},
		"a3": {"title": "Ciornă secretă", "author": "Ana", "body_html": "<p>Nimic</p>",
			"status": "draft", "date": "1 nov 2025", "slug": "ciorna-secreta"},
	}
	if _, err := st.Import(store.Articles, seed); err != nil {
		t.Fatal(err)
	}
	if err := st.Set(store.Issues, "rev-1", store.Fields{"title": "Revista de iarnă", "pdf": "iarna.pdf", "date": "12 dec 2024"}); err != nil {
		t.Fatal(err)
	}
	if err := st.Set(store.Issues, "rev-2", store.Fields{"title": "Revista online", "pdf": "https://cdn.example.ro/vara.pdf", "date": "1 iun 2025"}); err != nil {
		t.Fatal(err)
	}

	pdfDir := filepath.Join(dir, "revista")
	if err := os.MkdirAll(pdfDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pdfDir, "iarna.pdf"), []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Site.SiteURL = "https://gazeta.example.ro"
	cfg.Build.ThemeDir = filepath.Join("..", "..", "themes")
	cfg.Build.PagesDir = filepath.Join("..", "..", "pages")
	cfg.Build.PublicDir = dir

	srv, err := New(Options{
		Config:   cfg,
		Store:    st,
		Auth:     authSvc,
		Articles: articles.NewService(st, nil),
		PDFs:     issue.DirSource{Dir: pdfDir},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return &fixture{srv: srv, store: st}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) get(t *testing.T, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return f.do(t, req)
}

func (f *fixture) postForm(t *testing.T, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return f.do(t, req)
}

func (f *fixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := f.postForm(t, "/admin/login", url.Values{"email": {adminEmail}, "password": {adminPassword}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != auth.DashboardPath {
		t.Fatalf("login: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("login: no session cookie")
	return nil
}

func assertContains(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Fatalf("body does not contain %q:\n%s", want, body)
	}
}

func assertNotContains(t *testing.T, body, unwanted string) {
	t.Helper()
	if strings.Contains(body, unwanted) {
		t.Fatalf("body contains %q", unwanted)
	}
}

func TestHomeShowsPublishedOnly(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	assertContains(t, body, "Toamna în liceu")
	assertContains(t, body, "Interviu cu directorul")
	assertContains(t, body, "Revista de iarnă")
	assertNotContains(t, body, "Ciornă secretă")

	// newest first
	if strings.Index(body, "Toamna în liceu") > strings.Index(body, "Interviu cu directorul") {
		t.Fatalf("articles are not ordered by date")
	}
}

func TestListingSearchAndRange(t *testing.T) {
	f := newFixture(t)

	body := f.get(t, "/publicatii").Body.String()
	assertContains(t, body, "Afișate 1-2 din 2 articole")

	body = f.get(t, "/publicatii?q=INTERVIU").Body.String()
	assertContains(t, body, "Interviu cu directorul")
	assertNotContains(t, body, "Toamna în liceu")

	body = f.get(t, "/publicatii?q=nimic-de-gasit").Body.String()
	assertContains(t, body, "Nu s-au găsit rezultate")

	for _, path := range []string{"/publicatii?page=9223372036854775807", "/reviste?page=9223372036854775807"} {
		if rec := f.get(t, path); rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", path, rec.Code)
		}
	}
}

func TestArticleCountsViews(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/articol/toamna-in-liceu")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	assertContains(t, rec.Body.String(), "Frunze")
	assertContains(t, rec.Body.String(), "Alte articole")

	f.srv.views.Wait()
	got, err := f.store.Get(store.Articles, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := got["views"].(json.Number); n.String() != "1" {
		t.Fatalf("views = %v, want 1", got["views"])
	}
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/articol/ciorna-secreta", "/articol/nu-exista", "/nicaieri", "/revista/iarna.pdf", "/revista/lipsa"} {
		rec := f.get(t, path)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d, want 404", path, rec.Code)
		}
		assertContains(t, rec.Body.String(), "Pagina nu a fost găsită.")
	}
}

func TestStaticPages(t *testing.T) {
	f := newFixture(t)

	body := f.get(t, "/echipa").Body.String()
	assertContains(t, body, "Lord Byron")
	assertContains(t, body, "Redacția")

	rec := f.get(t, "/contact")
	if rec.Code != http.StatusOK {
		t.Fatalf("contact status = %d", rec.Code)
	}
}

func TestIssuePDF(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/revista/rev-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("issue status = %d", rec.Code)
	}
	assertContains(t, rec.Body.String(), `data-pdf="/revista/rev-1/pdf"`)

	rec = f.get(t, "/revista/rev-1/pdf")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf: %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "%PDF-1.4 test" {
		t.Fatalf("pdf body = %q", rec.Body.String())
	}

	rec = f.get(t, "/revista/rev-2/pdf")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "https://cdn.example.ro/vara.pdf" {
		t.Fatalf("external pdf: %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestViewerState(t *testing.T) {
	f := newFixture(t)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/revista/rev-1/viewer", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return f.do(t, req)
	}

	rec := post(`{"pages": 6, "mobile": false, "spread": 0, "zoom": 1, "action": "next"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var st issue.State
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Spread != 1 || len(st.Current) != 2 || st.Current[0] != 2 || st.Width != 400 {
		t.Fatalf("state = %+v", st)
	}

	rec = post(`{"pages": 6, "zoom": 3, "action": "zoom-in"}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Zoom != 3 || st.CanZoomIn {
		t.Fatalf("zoom state = %+v", st)
	}

	if rec := post(`{"pages": 6, "action": "sari"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown action status = %d", rec.Code)
	}
	if rec := post(`{"pages": -1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative pages status = %d", rec.Code)
	}
	if rec := post(`{"pages": 20000000, "action": "next"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized pages status = %d", rec.Code)
	}
	rec = post(`{"pages": 2000, "spread": 5000, "action": "next"}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || st.Spreads != 1001 || st.HasNext {
		t.Fatalf("largest issue: %d %+v", rec.Code, st)
	}
}

func TestSitemapAndRobots(t *testing.T) {
	f := newFixture(t)

	body := f.get(t, "/sitemap.xml").Body.String()
	assertContains(t, body, "<loc>https://gazeta.example.ro/articol/toamna-in-liceu</loc>")
	assertContains(t, body, "<loc>https://gazeta.example.ro/echipa</loc>")
	assertNotContains(t, body, "ciorna-secreta")

	body = f.get(t, "/robots.txt").Body.String()
	assertContains(t, body, "Disallow: /admin")
	assertContains(t, body, "Sitemap: https://gazeta.example.ro/sitemap.xml")
}

func TestAdminRequiresSession(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/admin/dashboard")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != auth.LoginPath {
		t.Fatalf("dashboard without session: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	rec = f.postForm(t, "/admin/new-article", url.Values{"title": {"x"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("post without session: %d", rec.Code)
	}
}

func TestLoginFailure(t *testing.T) {
	f := newFixture(t)
	rec := f.postForm(t, "/admin/login", url.Values{"email": {adminEmail}, "password": {"gresit"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	assertContains(t, rec.Body.String(), "Email sau parolă incorecte.")
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			t.Fatalf("failed login set a session cookie")
		}
	}
}

func TestAdminFlow(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	rec := f.get(t, "/admin", cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login page with session: %d", rec.Code)
	}

	body := f.get(t, "/admin/dashboard", cookie).Body.String()
	assertContains(t, body, "Autentificare reușită")
	assertContains(t, body, "Publicate (2)")
	assertContains(t, body, "Ciorne (1)")

	body = f.get(t, "/admin/dashboard?tab=draft", cookie).Body.String()
	assertContains(t, body, "Ciornă secretă")
	assertNotContains(t, body, "Interviu cu directorul")

	// invalid form re-renders with field errors
	rec = f.postForm(t, "/admin/new-article", url.Values{"title": {""}, "author": {"Ana"}, "body_html": {"<p><br></p>"}}, cookie)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid create: %d", rec.Code)
	}
	assertContains(t, rec.Body.String(), "titlul este obligatoriu")
	assertContains(t, rec.Body.String(), "conținutul este obligatoriu")

	rec = f.postForm(t, "/admin/new-article", url.Values{
		"title":     {"Cronica balului"},
		"author":    {"Ioana"},
		"body_html": {"<p>Seara a fost lungă.</p>"},
		"status":    {"published"},
		"tags":      {"eveniment"},
		"tags_text": {"bal, eveniment"},
	}, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/dashboard?tab=published" {
		t.Fatalf("create: %d %q", rec.Code, rec.Header().Get("Location"))
	}

	// visible right away on the public site
	rec = f.get(t, "/articol/cronica-balului")
	if rec.Code != http.StatusOK {
		t.Fatalf("new article status = %d", rec.Code)
	}
	assertContains(t, rec.Body.String(), "EVENIMENT · BAL")

	body = f.get(t, "/admin/dashboard", cookie).Body.String()
	assertContains(t, body, "Articolul a fost publicat.")
	assertContains(t, body, "Publicate (3)")

	// edit moves the draft to published
	rec = f.postForm(t, "/admin/edit-article/a3", url.Values{
		"title":     {"Ciornă secretă"},
		"author":    {"Ana"},
		"body_html": {"<p>Acum e gata.</p>"},
		"status":    {"published"},
	}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("update: %d", rec.Code)
	}
	if rec := f.get(t, "/articol/ciorna-secreta"); rec.Code != http.StatusOK {
		t.Fatalf("updated article status = %d", rec.Code)
	}

	rec = f.postForm(t, "/admin/articles/a2/delete", nil, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := f.get(t, "/articol/interviu-cu-directorul"); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted article status = %d", rec.Code)
	}

	// a missing article sends the editor back to the dashboard
	rec = f.get(t, "/admin/edit-article/lipsa", cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("edit missing: %d", rec.Code)
	}
	assertContains(t, f.get(t, "/admin/dashboard", cookie).Body.String(), "Articolul nu a fost găsit")

	rec = f.postForm(t, "/admin/logout", nil, cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin?out=1" {
		t.Fatalf("logout: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if rec := f.get(t, "/admin/dashboard", cookie); rec.Code != http.StatusSeeOther {
		t.Fatalf("token still valid after logout: %d", rec.Code)
	}
	assertContains(t, f.get(t, "/admin?out=1").Body.String(), "Deconectat cu succes")
}

func TestWriteGuard(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	sess, err := f.srv.auth.SessionFromToken(cookie.Value)
	if err != nil {
		t.Fatal(err)
	}
	release, ok := f.srv.guard.Acquire(sess.ID)
	if !ok {
		t.Fatal("guard busy before any write")
	}
	defer release()

	rec := f.postForm(t, "/admin/new-article", url.Values{
		"title": {"Dublu"}, "author": {"Ana"}, "body_html": {"<p>x</p>"},
	}, cookie)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	assertContains(t, rec.Body.String(), "Operațiune în curs")
}

func TestTagStep(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	step := func(body string) tagState {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/admin/tags", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(cookie)
		rec := f.do(t, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var st tagState
		if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
			t.Fatal(err)
		}
		return st
	}

	st := step(`{"key": "Enter", "buffer": " poezie ", "tags": ["eseu"]}`)
	if !st.Consumed || st.Buffer != "" || strings.Join(st.Tags, ",") != "eseu,poezie" {
		t.Fatalf("enter: %+v", st)
	}
	st = step(`{"key": ",", "buffer": "eseu", "tags": ["eseu"]}`)
	if strings.Join(st.Tags, ",") != "eseu" {
		t.Fatalf("duplicate: %+v", st)
	}
	st = step(`{"key": "Backspace", "buffer": "", "tags": ["eseu", "poezie"]}`)
	if !st.Consumed || strings.Join(st.Tags, ",") != "eseu" {
		t.Fatalf("backspace: %+v", st)
	}
	st = step(`{"remove": "eseu", "tags": ["eseu", "poezie"]}`)
	if strings.Join(st.Tags, ",") != "poezie" || st.Text != "poezie" {
		t.Fatalf("remove: %+v", st)
	}
}

func TestToastStream(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/admin/toasts", nil).WithContext(ctx)
	req.AddCookie(cookie)
	rec := f.do(t, req)

	body := rec.Body.String()
	assertContains(t, body, "event: toasts\n")
	assertContains(t, body, "Autentificare reușită")
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestDismissToast(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	sess, err := f.srv.auth.SessionFromToken(cookie.Value)
	if err != nil {
		t.Fatal(err)
	}
	q := f.srv.toasts.For(sess.ID)
	toasts := q.Snapshot()
	if len(toasts) != 1 {
		t.Fatalf("toasts = %+v", toasts)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/toasts/"+strconv.FormatInt(toasts[0].ID, 10)+"/dismiss", nil)
	req.Header.Set("X-Requested-With", "fetch")
	req.AddCookie(cookie)
	if rec := f.do(t, req); rec.Code != http.StatusNoContent {
		t.Fatalf("dismiss status = %d", rec.Code)
	}
	if got := q.Snapshot(); len(got) != 0 {
		t.Fatalf("toast still queued: %+v", got)
	}
}

func TestFeedSocket(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/feed?kind=articles"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() feedMessage {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg feedMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}

	first := read()
	if first.Kind != "articles" || first.Total != 2 || first.Fingerprint == "" {
		t.Fatalf("first message = %+v", first)
	}

	if err := f.store.Set(store.Articles, "a9", store.Fields{
		"title": "Nou", "author": "Ana", "body_html": "<p>x</p>",
		"status": "published", "date": "5 nov 2025", "slug": "nou",
	}); err != nil {
		t.Fatal(err)
	}
	next := read()
	if next.Total != 3 || next.Fingerprint == first.Fingerprint {
		t.Fatalf("update message = %+v", next)
	}
}
