package lookups

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrUnknownShape is returned when no adapter understands a response.
var ErrUnknownShape = errors.New("unrecognised lookup response")

// ShapeAdapter turns one response layout into options. Extract reports
// false when the document does not have its layout or holds no options.
type ShapeAdapter struct {
	Name    string
	Extract func(doc gjson.Result) ([]Option, bool)
}

// Adapters are tried in order; the first that matches wins.
var Adapters = []ShapeAdapter{
	{Name: "array", Extract: extractArray},
	{Name: "data", Extract: extractData},
	{Name: "object", Extract: extractObject},
}

// Normalize runs the adapters over body and returns the options, the name
// of the adapter that matched and whether any did.
func Normalize(body []byte) ([]Option, string, bool) {
	if !gjson.ValidBytes(body) {
		return nil, "", false
	}
	doc := gjson.ParseBytes(body)
	for _, a := range Adapters {
		if opts, ok := a.Extract(doc); ok {
			return opts, a.Name, true
		}
	}
	return nil, "", false
}

// extractArray handles a top-level list of strings or objects.
func extractArray(doc gjson.Result) ([]Option, bool) {
	if !doc.IsArray() {
		return nil, false
	}
	return optionsFromList(doc)
}

// extractData handles {"data": [...]}.
func extractData(doc gjson.Result) ([]Option, bool) {
	data := doc.Get("data")
	if !data.IsArray() {
		return nil, false
	}
	return optionsFromList(data)
}

// extractObject handles {"<id>": {...}} and {"<id>": "<label>"}.
func extractObject(doc gjson.Result) ([]Option, bool) {
	if !doc.IsObject() {
		return nil, false
	}
	var opts []Option
	doc.ForEach(func(key, value gjson.Result) bool {
		opt, ok := optionFrom(value)
		if !ok {
			return true
		}
		if value.IsObject() && !hasAny(value, valueKeys) {
			opt.Value = key.String()
		}
		opts = append(opts, opt)
		return true
	})
	return opts, len(opts) > 0
}

func optionsFromList(list gjson.Result) ([]Option, bool) {
	var opts []Option
	for _, item := range list.Array() {
		if opt, ok := optionFrom(item); ok {
			opts = append(opts, opt)
		}
	}
	return opts, len(opts) > 0
}

var (
	labelKeys = []string{"name", "title", "label", "value"}
	valueKeys = []string{"id", "_id", "value", "code"}
)

func optionFrom(item gjson.Result) (Option, bool) {
	switch {
	case item.Type == gjson.String || item.Type == gjson.Number:
		s := strings.TrimSpace(item.String())
		if s == "" {
			return Option{}, false
		}
		return Option{Value: s, Label: displayLabel(s)}, true
	case item.IsObject():
		label := firstString(item, labelKeys)
		if label == "" {
			return Option{}, false
		}
		value := firstString(item, valueKeys)
		if value == "" {
			value = label
		}
		return Option{Value: value, Label: displayLabel(label)}, true
	default:
		return Option{}, false
	}
}

func firstString(item gjson.Result, keys []string) string {
	for _, k := range keys {
		if v := item.Get(k); v.Exists() {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func hasAny(item gjson.Result, keys []string) bool {
	for _, k := range keys {
		if item.Get(k).Exists() {
			return true
		}
	}
	return false
}

// displayLabel title-cases labels written entirely in one case.
func displayLabel(s string) string {
	if s == strings.ToUpper(s) || s == strings.ToLower(s) {
		if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ") {
			return cases.Title(language.English).String(s)
		}
	}
	return s
}
