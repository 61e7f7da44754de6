package preview

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// extract pulls Open Graph metadata out of an HTML document, falling back
// to Twitter-card tags and then the <title> element.
func extract(r io.Reader, baseURL string) (*Preview, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	meta := map[string]string{}
	var pageTitle string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				key := attr(n, "property")
				if key == "" {
					key = attr(n, "name")
				}
				if key != "" {
					if content := attr(n, "content"); content != "" {
						if _, seen := meta[key]; !seen {
							meta[key] = content
						}
					}
				}
			case "title":
				if pageTitle == "" && n.FirstChild != nil {
					pageTitle = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	p := &Preview{
		URL:         baseURL,
		Title:       firstOf(meta, "og:title", "twitter:title"),
		Description: firstOf(meta, "og:description", "twitter:description", "description"),
		Image:       firstOf(meta, "og:image", "twitter:image"),
	}
	if p.Title == "" {
		p.Title = pageTitle
	}
	if p.Image != "" {
		p.Image = resolveURL(baseURL, p.Image)
	}
	return p, nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func firstOf(meta map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := meta[k]; v != "" {
			return v
		}
	}
	return ""
}

func resolveURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
