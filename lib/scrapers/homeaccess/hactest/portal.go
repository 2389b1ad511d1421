// Package hactest runs an in-process imitation of a Home Access Center
// portal for tests: login form with an anti-forgery token, cookie-bound
// authentication and a daily schedule table.
package hactest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

const sessionCookie = "ASP.NET_SessionId"
const authCookie = ".AuthCookie"

type Options struct {
	Username string
	Password string
	// Token defaults to "abc123".
	Token string
	// OmitToken renders the login page without the hidden token input.
	OmitToken bool
	// FlatLogin makes a correct submission answer 200 with a welcome page
	// instead of the usual 302 into the authenticated area.
	FlatLogin bool
	// AmbiguousLogin makes a correct submission answer 200 with a page
	// carrying neither failure nor success markers.
	AmbiguousLogin bool
}

// Row is one schedule table row: period, course, description, teacher, room.
type Row [5]string

type Portal struct {
	*httptest.Server
	opts Options

	mu        sync.Mutex
	sessionId int
	schedules map[string][]Row

	LoginPageHits  int
	LoginPostHits  int
	ScheduleHits   int
	RedirectedHits int
}

func New(opts Options) *Portal {
	if opts.Token == "" {
		opts.Token = "abc123"
	}
	p := &Portal{
		opts:      opts,
		schedules: map[string][]Row{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/HomeAccess/Account/LogOn", p.handleLogOn)
	mux.HandleFunc("/HomeAccess/MyHome", p.handleHome)
	mux.HandleFunc("/HomeAccess/Content/Student/DailySchedule.aspx", p.handleSchedule)

	p.Server = httptest.NewServer(mux)
	return p
}

// SetSchedule registers the rows served for a (studentId, MM/DD/YYYY) pair.
func (p *Portal) SetSchedule(studentId, date string, rows []Row) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.schedules[studentId+"|"+date] = rows
}

func (p *Portal) handleLogOn(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		p.mu.Lock()
		p.LoginPageHits++
		p.sessionId++
		sid := p.sessionId
		p.mu.Unlock()

		http.SetCookie(w, &http.Cookie{
			Name:  sessionCookie,
			Value: "sess-" + strconv.Itoa(sid),
			Path:  "/",
		})

		token := ""
		if !p.opts.OmitToken {
			token = fmt.Sprintf(
				`<input name="__RequestVerificationToken" type="hidden" value="%s" />`,
				p.opts.Token,
			)
		}
		fmt.Fprintf(w, `<html><body><form action="/HomeAccess/Account/LogOn" method="post">%s</form></body></html>`, token)
		return
	}

	p.mu.Lock()
	p.LoginPostHits++
	p.mu.Unlock()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	_, hasSession := cookieValue(r, sessionCookie)
	ok := hasSession &&
		r.PostForm.Get("__RequestVerificationToken") == p.opts.Token &&
		r.PostForm.Get("Database") == "10" &&
		r.PostForm.Get("VerificationOption") == "UsernamePassword" &&
		r.PostForm.Get("LogOnDetails.UserName") == p.opts.Username &&
		r.PostForm.Get("LogOnDetails.Password") == p.opts.Password

	if !ok {
		fmt.Fprint(w, `<html><body><span id="plnMain_FailureText">Invalid username or password</span></body></html>`)
		return
	}

	if p.opts.AmbiguousLogin {
		fmt.Fprint(w, `<html><body><p>please wait</p></body></html>`)
		return
	}
	if p.opts.FlatLogin {
		p.grantAuth(w)
		fmt.Fprint(w, `<html><body><h1>Welcome back</h1></body></html>`)
		return
	}

	p.grantAuth(w)
	w.Header().Set("Location", "/HomeAccess/MyHome")
	w.WriteHeader(http.StatusFound)
}

func (p *Portal) grantAuth(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "granted",
		Path:     "/",
		HttpOnly: true,
	})
}

func (p *Portal) handleHome(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.RedirectedHits++
	p.mu.Unlock()

	if !authenticated(r) {
		w.Header().Set("Location", "/HomeAccess/Account/LogOn")
		w.WriteHeader(http.StatusFound)
		return
	}

	// the portal rotates the session cookie once the login settles
	p.mu.Lock()
	p.sessionId++
	sid := p.sessionId
	p.mu.Unlock()
	http.SetCookie(w, &http.Cookie{
		Name:  sessionCookie,
		Value: "sess-" + strconv.Itoa(sid),
		Path:  "/",
	})

	fmt.Fprint(w, `<html><body><div id="hac-StudentSummary">Welcome</div></body></html>`)
}

func (p *Portal) handleSchedule(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.ScheduleHits++
	p.mu.Unlock()

	if !authenticated(r) {
		w.Header().Set("Location", "/HomeAccess/Account/LogOn")
		w.WriteHeader(http.StatusFound)
		return
	}

	key := r.URL.Query().Get("student_id") + "|" + r.URL.Query().Get("ScheduleDate")
	p.mu.Lock()
	rows := p.schedules[key]
	p.mu.Unlock()

	var table strings.Builder
	table.WriteString(`<html><body><table id="plnMain_dgSchedule">`)
	table.WriteString(`<tr class="sg-asp-table-header-row"><th>Period</th><th>Course</th><th>Description</th><th>Teacher</th><th>Room</th></tr>`)
	for i, row := range rows {
		class := "sg-asp-table-data-row"
		if i%2 == 1 {
			class = "sg-asp-table-data-row-alt"
		}
		fmt.Fprintf(
			&table,
			`<tr class="%s"><td> %s </td><td> %s </td><td> %s </td><td> %s </td><td> %s </td></tr>`,
			class, row[0], row[1], row[2], row[3], row[4],
		)
	}
	table.WriteString(`</table></body></html>`)
	fmt.Fprint(w, table.String())
}

func authenticated(r *http.Request) bool {
	v, ok := cookieValue(r, authCookie)
	return ok && v == "granted"
}

func cookieValue(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}
