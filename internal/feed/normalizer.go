// Package feed fetches job feeds over HTTP and turns RSS, Atom and ad-hoc XML
// documents into normalised items.
package feed

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/shivambatholiya/knovator-job-import/internal/model"
)

// shape is the document layout detected at the root of a feed.
type shape int

const (
	shapeNone shape = iota
	shapeRSS
	shapeAtom
	shapeBareItem
	shapeBareItems
	shapeFirstArray
)

func (s shape) String() string {
	switch s {
	case shapeRSS:
		return "rss"
	case shapeAtom:
		return "atom"
	case shapeBareItem:
		return "item"
	case shapeBareItems:
		return "items"
	case shapeFirstArray:
		return "first-array"
	default:
		return "none"
	}
}

// Prioritised source keys per normalised field.
var (
	titleKeys       = []string{"title", "job_title", "position"}
	linkKeys        = []string{"link", "url", "guid"}
	descriptionKeys = []string{"description", "summary", "content", "content:encoded"}
	dateKeys        = []string{"pubDate", "published", "dc:date", "updated", "date"}
	idKeys          = []string{"guid", "id"}
	companyKeys     = []string{"company", "company:name", "companyName", "hiringOrganization", "employer"}
	locationKeys    = []string{"location", "jobLocation", "job_location", "city"}
)

// Normalize parses an XML feed body and extracts one item per entry. It only
// fails when the body is not well-formed XML; unknown layouts yield no items.
func Normalize(body []byte) ([]model.NormalizedItem, error) {
	tree, err := parseTree(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	_, entries := detect(tree)

	items := make([]model.NormalizedItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, extract(e))
	}
	return items, nil
}

// detect picks the entry list according to the root layout.
func detect(root *object) (shape, []any) {
	if rss, ok := root.get("rss"); ok {
		if channel, ok := rss.(*object); ok {
			if ch, ok := channel.get("channel"); ok {
				if chObj, ok := ch.(*object); ok {
					items, _ := chObj.get("item")
					return shapeRSS, asList(items)
				}
				return shapeRSS, nil
			}
		}
	}
	if f, ok := root.get("feed"); ok {
		if fo, ok := f.(*object); ok {
			entries, _ := fo.get("entry")
			return shapeAtom, asList(entries)
		}
		return shapeAtom, nil
	}
	if it, ok := root.get("item"); ok {
		return shapeBareItem, asList(it)
	}
	if its, ok := root.get("items"); ok {
		return shapeBareItems, unwrapItems(its)
	}
	if list, ok := firstArray(root); ok {
		return shapeFirstArray, list
	}
	return shapeNone, nil
}

func unwrapItems(v any) []any {
	o, ok := v.(*object)
	if !ok {
		return asList(v)
	}
	if inner, ok := o.get("item"); ok {
		return asList(inner)
	}
	if list, ok := firstArray(o); ok {
		return list
	}
	return []any{o}
}

func extract(entry any) model.NormalizedItem {
	obj, _ := entry.(*object)

	var it model.NormalizedItem
	it.Title = firstScalar(obj, titleKeys)
	it.URL = resolveLink(obj)
	it.Description = firstScalar(obj, descriptionKeys)
	it.Company = firstScalar(obj, companyKeys)
	it.Location = firstScalar(obj, locationKeys)
	it.ExternalID = firstScalar(obj, idKeys)
	if it.ExternalID == "" {
		it.ExternalID = it.URL
	}
	if s := firstScalar(obj, dateKeys); s != "" {
		if ts, err := dateparse.ParseIn(s, time.UTC); err == nil {
			ts = ts.UTC()
			it.DatePosted = &ts
		}
	}
	if raw, err := json.Marshal(entry); err == nil {
		it.Raw = raw
	}
	return it
}

func firstScalar(obj *object, keys []string) string {
	for _, k := range keys {
		if v, ok := obj.get(k); ok {
			if s := scalar(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// resolveLink prefers an Atom rel="alternate" link when several are present.
func resolveLink(obj *object) string {
	if v, ok := obj.get("link"); ok {
		if list, isList := v.([]any); isList {
			for _, l := range list {
				if lo, ok := l.(*object); ok {
					if rel, _ := lo.get("rel"); rel == "alternate" {
						if s := scalar(lo); s != "" {
							return s
						}
					}
				}
			}
		}
	}
	return firstScalar(obj, linkKeys)
}

// scalar unwraps text and single-child containers down to a single string.
// Attributes are never a value on their own, except href on links.
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case *object:
		if s, ok := t.get(textKey); ok {
			return scalar(s)
		}
		if s, ok := t.get("href"); ok && t.attrs["href"] {
			return scalar(s)
		}
		children := t.children()
		if len(children) == 1 {
			return scalar(t.values[children[0]])
		}
		if s, ok := t.get("name"); ok && !t.attrs["name"] {
			return scalar(s)
		}
	case []any:
		for _, e := range t {
			if s := scalar(e); s != "" {
				return s
			}
		}
	}
	return ""
}
