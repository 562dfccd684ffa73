// Package functest drives the running application over HTTP the way a user
// would: loading pages, following links and submitting forms.
package functest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/sethvargo/go-retry"
	"golang.org/x/net/html"
)

const (
	DefaultWait  = 10 * time.Second
	pollInterval = 50 * time.Millisecond
)

// Browser is a cookie-keeping HTTP client that remembers the last page it
// loaded. Every navigation failure fails the test.
type Browser struct {
	t       testing.TB
	base    *url.URL
	client  *http.Client
	Wait    time.Duration
	current *url.URL
	status  int
	doc     *html.Node

	// reloadable is set when the current page came from a GET.
	reloadable bool
}

func NewBrowser(t testing.TB, baseURL string) *Browser {
	t.Helper()
	base, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url %q: %v", baseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &Browser{
		t:      t,
		base:   base,
		client: &http.Client{Jar: jar, Timeout: DefaultWait},
		Wait:   DefaultWait,
	}
}

// Get loads path, which may be relative to the current page or absolute.
func (b *Browser) Get(path string) *Browser {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.resolve(path).String(), nil)
	if err != nil {
		b.t.Fatalf("build request for %s: %v", path, err)
	}
	b.do(req)
	return b
}

func (b *Browser) Reload() *Browser {
	b.t.Helper()
	if b.current == nil {
		b.t.Fatalf("reload: no page loaded")
	}
	return b.Get(b.current.String())
}

// ClickLink follows the first link whose visible text is exactly text.
func (b *Browser) ClickLink(text string) *Browser {
	b.t.Helper()
	for _, a := range b.FindAll("a[href]") {
		if strings.TrimSpace(textContent(a)) == text {
			return b.Get(attr(a, "href"))
		}
	}
	b.t.Fatalf("no link with text %q on %s", text, b.URL())
	return b
}

// Submit fills the form matched by selector with values and submits it.
// Inputs not named in values keep their rendered value.
func (b *Browser) Submit(selector string, values url.Values) *Browser {
	b.t.Helper()
	form := b.Find(selector)
	if form == nil {
		b.t.Fatalf("no form matching %q on %s", selector, b.URL())
	}

	data := url.Values{}
	for _, input := range mustCompile(b.t, "input[name]").MatchAll(form) {
		data.Set(attr(input, "name"), attr(input, "value"))
	}
	for k, v := range values {
		data[k] = v
	}

	action := attr(form, "action")
	if action == "" {
		action = b.current.String()
	}
	method := strings.ToUpper(attr(form, "method"))
	if method == "" {
		method = http.MethodGet
	}

	target := b.resolve(action)
	var req *http.Request
	var err error
	if method == http.MethodGet {
		target.RawQuery = data.Encode()
		req, err = http.NewRequest(method, target.String(), nil)
	} else {
		req, err = http.NewRequest(method, target.String(), strings.NewReader(data.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		b.t.Fatalf("build form request: %v", err)
	}
	b.do(req)
	return b
}

// Find returns the first element matching selector, or nil.
func (b *Browser) Find(selector string) *html.Node {
	b.t.Helper()
	if b.doc == nil {
		return nil
	}
	return mustCompile(b.t, selector).MatchFirst(b.doc)
}

func (b *Browser) FindAll(selector string) []*html.Node {
	b.t.Helper()
	if b.doc == nil {
		return nil
	}
	return mustCompile(b.t, selector).MatchAll(b.doc)
}

// Text returns the trimmed text of the first element matching selector.
func (b *Browser) Text(selector string) (string, bool) {
	b.t.Helper()
	n := b.Find(selector)
	if n == nil {
		return "", false
	}
	return strings.TrimSpace(textContent(n)), true
}

// Texts returns the trimmed text of every element matching selector.
func (b *Browser) Texts(selector string) []string {
	b.t.Helper()
	var out []string
	for _, n := range b.FindAll(selector) {
		out = append(out, strings.TrimSpace(textContent(n)))
	}
	return out
}

// Attr returns attribute name of the first element matching selector.
func (b *Browser) Attr(selector, name string) string {
	b.t.Helper()
	n := b.Find(selector)
	if n == nil {
		return ""
	}
	return attr(n, name)
}

// WaitFor polls check until it returns nil or the browser's wait budget runs
// out, in which case the test fails with the last error. Between attempts a
// page loaded by GET is fetched again; the result of a form POST is checked
// as it is.
func (b *Browser) WaitFor(check func() error) {
	b.t.Helper()
	backoff := retry.WithMaxDuration(b.Wait, retry.NewConstant(pollInterval))

	var last error
	attempt := 0
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		if attempt > 0 && b.reloadable {
			b.Reload()
		}
		attempt++
		if last = check(); last != nil {
			return retry.RetryableError(last)
		}
		return nil
	})
	if err != nil {
		b.t.Fatalf("timed out after %s on %s: %v", b.Wait, b.URL(), last)
	}
}

// WaitForText waits until the first element matching selector has text want.
func (b *Browser) WaitForText(selector, want string) {
	b.t.Helper()
	b.WaitFor(func() error {
		got, ok := b.Text(selector)
		if !ok {
			return fmt.Errorf("no element matching %q", selector)
		}
		if got != want {
			return fmt.Errorf("%s text = %q, want %q", selector, got, want)
		}
		return nil
	})
}

func (b *Browser) URL() string {
	if b.current == nil {
		return ""
	}
	return b.current.String()
}

func (b *Browser) Path() string {
	if b.current == nil {
		return ""
	}
	return b.current.Path
}

func (b *Browser) Status() int {
	return b.status
}

// Cookies returns the cookies the browser would send to the server.
func (b *Browser) Cookies() []*http.Cookie {
	return b.client.Jar.Cookies(b.base)
}

func (b *Browser) SetCookie(c *http.Cookie) {
	b.client.Jar.SetCookies(b.base, []*http.Cookie{c})
}

func (b *Browser) do(req *http.Request) {
	b.t.Helper()
	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		b.t.Fatalf("parse %s: %v", req.URL, err)
	}

	// resp.Request is the final request after redirects
	b.current = resp.Request.URL
	b.status = resp.StatusCode
	b.doc = doc
	b.reloadable = resp.Request.Method == http.MethodGet
}

func (b *Browser) resolve(ref string) *url.URL {
	b.t.Helper()
	u, err := url.Parse(ref)
	if err != nil {
		b.t.Fatalf("parse url %q: %v", ref, err)
	}
	from := b.base
	if b.current != nil {
		from = b.current
	}
	return from.ResolveReference(u)
}

func mustCompile(t testing.TB, selector string) cascadia.Selector {
	t.Helper()
	sel, err := cascadia.Compile(selector)
	if err != nil {
		t.Fatalf("bad selector %q: %v", selector, err)
	}
	return sel
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
