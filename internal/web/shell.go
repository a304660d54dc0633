package web

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/net/html"
)

// ErrNoScript means the bundled shell does not load any script, so the page
// could never initialize the module.
var ErrNoScript = errors.New("application shell references no script")

// ShellScripts parses the bundled HTML shell and returns the src of every
// <script> element. Inline scripts are reported as "inline".
func ShellScripts(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open application shell: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse application shell: %w", err)
	}

	var scripts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			if src := getAttr(n, "src"); src != "" {
				scripts = append(scripts, src)
			} else if n.FirstChild != nil {
				scripts = append(scripts, "inline")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(scripts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoScript, path)
	}
	return scripts, nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
