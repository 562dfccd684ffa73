package functest

import (
	"fmt"
	"net/url"
	"strings"
)

// ListPage wraps the home and list pages, which share the item input.
type ListPage struct {
	b *Browser
}

func NewListPage(b *Browser) *ListPage {
	return &ListPage{b: b}
}

func (p *ListPage) Browser() *Browser {
	return p.b
}

// AddListItem submits text through the item input and waits for it to show
// up as the next numbered row.
func (p *ListPage) AddListItem(text string) *ListPage {
	p.b.t.Helper()
	n := len(p.TableRows()) + 1
	p.b.Submit("form:has(#id_text)", url.Values{"text": {text}})
	p.WaitForRow(fmt.Sprintf("%d: %s", n, text))
	return p
}

// SubmitItem submits text without waiting for a new row.
func (p *ListPage) SubmitItem(text string) *ListPage {
	p.b.t.Helper()
	p.b.Submit("form:has(#id_text)", url.Values{"text": {text}})
	return p
}

func (p *ListPage) TableRows() []string {
	return p.b.Texts("#id_list_table tr")
}

func (p *ListPage) WaitForRow(row string) {
	p.b.t.Helper()
	p.b.WaitFor(func() error {
		for _, got := range p.TableRows() {
			if got == row {
				return nil
			}
		}
		return fmt.Errorf("row %q not in %q", row, p.TableRows())
	})
}

// ErrorText returns the field error shown under the item input.
func (p *ListPage) ErrorText() string {
	text, _ := p.b.Text(".invalid-feedback")
	return text
}

// LoginPage drives the navbar login form and the emailed link.
type LoginPage struct {
	b      *Browser
	outbox *Outbox
}

func NewLoginPage(b *Browser, outbox *Outbox) *LoginPage {
	return &LoginPage{b: b, outbox: outbox}
}

// RequestLink submits email in the navbar form.
func (p *LoginPage) RequestLink(email string) *LoginPage {
	p.b.t.Helper()
	p.b.Get("/")
	p.b.Submit(`form[action="/accounts/send_login_email"]`, url.Values{"email": {email}})
	return p
}

// FollowLink opens the most recent login link sent to email.
func (p *LoginPage) FollowLink(email string) *LoginPage {
	p.b.t.Helper()
	var msg Email
	p.b.WaitFor(func() error {
		var ok bool
		if msg, ok = p.outbox.Last(email); !ok {
			return fmt.Errorf("no email sent to %s", email)
		}
		return nil
	})
	p.b.Get(msg.Link)
	return p
}

func (p *LoginPage) LogIn(email string) *LoginPage {
	p.b.t.Helper()
	return p.RequestLink(email).FollowLink(email)
}

func (p *LoginPage) LogOut() *LoginPage {
	p.b.t.Helper()
	p.b.Submit(`form[action="/accounts/logout"]`, nil)
	return p
}

// WaitToBeLoggedIn waits for the navbar to show email as the current user.
func (p *LoginPage) WaitToBeLoggedIn(email string) {
	p.b.t.Helper()
	p.b.WaitForText(".navbar-text", "Logged in as "+email)
}

func (p *LoginPage) WaitToBeLoggedOut() {
	p.b.t.Helper()
	p.b.WaitFor(func() error {
		if p.b.Find(`input[name="email"]`) == nil {
			return fmt.Errorf("login form not shown")
		}
		return nil
	})
}

// MessageText returns the flash message shown on the current page.
func (p *LoginPage) MessageText() string {
	text, _ := p.b.Text("#id_messages")
	return strings.TrimSpace(text)
}
