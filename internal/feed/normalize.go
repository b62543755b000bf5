// Package feed – offer normalization.
//
// This file maps raw, shape-varying feed records into canonical offer
// candidates. The feed's documented variants disagree on field names and on
// price encoding, so every lookup runs through an alias list and prices are
// currency-normalized. Malformed records are defaulted, not rejected.
package feed

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Candidate is a canonical offer produced by Normalize, independent of the
// source feed's field naming. Identity for persistence is the pair
// (ExternalID, Store).
type Candidate struct {
	ExternalID string
	Title      string
	Store      string
	Price      float64
	OldPrice   float64
	URL        string
	ImageURL   string
	Category   string
}

// Top-level keys under which the different feed variants put the item list,
// in lookup priority order.
var itemListKeys = []string{"items", "data", "result"}

// Normalize extracts the item list from a raw search payload and maps each
// record to a Candidate. defaultStore labels records that carry no store
// field of their own.
//
// A nil or listless payload normalizes to an empty slice. Records missing an
// identifier are kept with ExternalID == ""; they will collide on the
// identity key with any other unidentified record from the same store, which
// mirrors the upstream feed's behavior.
func Normalize(payload map[string]any, defaultStore string) []Candidate {
	if payload == nil {
		return nil
	}

	var items []any
	for _, key := range itemListKeys {
		if v, ok := payload[key]; ok {
			if list, ok := v.([]any); ok && len(list) > 0 {
				items = list
				break
			}
		}
	}

	out := make([]Candidate, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, normalizeItem(item, defaultStore))
	}
	return out
}

func normalizeItem(item map[string]any, defaultStore string) Candidate {
	c := Candidate{
		ExternalID: firstString(item, "itemid", "id", "external_id"),
		Title:      firstString(item, "name", "title"),
		Store:      firstString(item, "shop_name", "store"),
		URL:        firstString(item, "url"),
		ImageURL:   firstString(item, "image"),
		Category:   firstString(item, "category"),
	}
	if c.Store == "" {
		c.Store = defaultStore
	}

	// Current price: integer encodings are minor currency units.
	if v, ok := lookup(item, "price", "current_price"); ok {
		f, integral := numberValue(v)
		if integral {
			c.Price = f / 100
		} else {
			c.Price = f
		}
	}

	// Reference price is always major units, regardless of encoding.
	if v, ok := lookup(item, "old_price"); ok {
		f, _ := numberValue(v)
		c.OldPrice = f
	}

	return c
}

// lookup returns the first present, non-nil value among keys.
func lookup(item map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := item[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// firstString coerces the first present value among keys to a string.
// Numeric identifiers (a json.Number "itemid", say) become their decimal
// text; anything unconvertible yields "".
func firstString(item map[string]any, keys ...string) string {
	v, ok := lookup(item, keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

// numberValue converts a raw value to float64 and reports whether the source
// encoding was integral. json.Number carries the original literal, so an
// integer price like 199900 is distinguishable from a decimal like 250.0
// even though both arrive through the same decoder.
func numberValue(v any) (f float64, integral bool) {
	switch t := v.(type) {
	case json.Number:
		s := t.String()
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		integral = !strings.ContainsAny(s, ".eE")
		return f, integral
	case float64:
		return t, false
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, false
	default:
		return 0, false
	}
}
