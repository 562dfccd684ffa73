package functest

// MyListsPage is the page object for a user's "My Lists" page.
type MyListsPage struct {
	b *Browser
}

func NewMyListsPage(b *Browser) *MyListsPage {
	return &MyListsPage{b: b}
}

// GoToMyListsPage starts from the landing page, follows the "My lists" link
// and waits for the page header. It fails the test if the header does not
// appear within the browser's wait budget.
func (p *MyListsPage) GoToMyListsPage() *MyListsPage {
	p.b.t.Helper()
	p.b.Get("/")
	p.b.ClickLink("My lists")
	p.b.WaitForText("h1", "My Lists")
	return p
}

// ListNames returns the names of the lists shown, in page order.
func (p *MyListsPage) ListNames() []string {
	return p.b.Texts("#id_my_lists a")
}

// OpenList follows the link to the list with the given name.
func (p *MyListsPage) OpenList(name string) *ListPage {
	p.b.t.Helper()
	p.b.ClickLink(name)
	return NewListPage(p.b)
}
