// Package web holds the embedded HTML templates and static assets.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
)

//go:embed templates static
var files embed.FS

// Pages lists the page templates rendered inside layout.html.
var Pages = []string{"home.html", "list.html", "my_lists.html"}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"dict": func(pairs ...any) (map[string]any, error) {
		if len(pairs)%2 != 0 {
			return nil, errors.New("dict: odd number of arguments")
		}
		m := make(map[string]any, len(pairs)/2)
		for i := 0; i < len(pairs); i += 2 {
			key, ok := pairs[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
			}
			m[key] = pairs[i+1]
		}
		return m, nil
	},
	"pathEscape": url.PathEscape,
}

// Templates parses one template set per page so each page can define its
// own blocks without colliding.
func Templates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(Pages))
	for _, page := range Pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(files,
			"templates/layout.html",
			"templates/item_form.html",
			"templates/"+page,
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		templates[page] = tmpl
	}
	return templates, nil
}

// Static returns the static asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
