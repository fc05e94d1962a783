// Package report turns loosely shaped analysis payloads into a uniform view
// model. Every function here is pure and total: any JSON value is accepted and
// none of them return errors or panic.
package report

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
)

// NoData is the text a renderer shows for a section with ShapeAbsent.
const NoData = "No data available"

// Classify maps a raw fragment onto the closed set of shapes.
func Classify(raw any) models.Shape {
	switch v := raw.(type) {
	case map[string]any:
		if _, ok := v["score"]; ok {
			return models.ShapeScoredList
		}
		if _, ok := v["items"]; ok {
			return models.ShapeScoredList
		}
		if _, ok := v["tips"].([]any); ok {
			return models.ShapeScoredList
		}
		return models.ShapeAbsent
	case []any, []string:
		return models.ShapePlainList
	case string:
		return models.ShapePlainText
	default:
		return models.ShapeAbsent
	}
}

// Normalize converts raw into a NormalizedSection stored under key. When raw
// carries no usable data the fallback section is returned (marked Fallback),
// or a "no data" sentinel when fallback is nil.
func Normalize(key string, raw any, fallback *models.NormalizedSection) models.NormalizedSection {
	switch Classify(raw) {
	case models.ShapeScoredList:
		return scoredList(key, raw.(map[string]any))
	case models.ShapePlainList:
		return models.NormalizedSection{
			Key:   key,
			Items: listItems(raw),
			Raw:   raw,
			Shape: models.ShapePlainList,
		}
	case models.ShapePlainText:
		return models.NormalizedSection{
			Key:   key,
			Items: []string{raw.(string)},
			Raw:   raw,
			Shape: models.ShapePlainText,
		}
	case models.ShapeAbsent:
		return absent(key, raw, fallback)
	}
	return absent(key, raw, fallback)
}

func scoredList(key string, obj map[string]any) models.NormalizedSection {
	section := models.NormalizedSection{
		Key:   key,
		Items: []string{},
		Raw:   obj,
		Shape: models.ShapeScoredList,
	}
	if n, ok := number(obj["score"]); ok {
		section.Score = &n
	}

	switch items := obj["items"].(type) {
	case []any, []string:
		section.Items = listItems(items)
	case nil:
		// Older payloads carry {score, tips: [{type, tip, explanation}]}.
		if tips, ok := obj["tips"].([]any); ok {
			section.Items = tipItems(tips)
		}
	}
	return section
}

func absent(key string, raw any, fallback *models.NormalizedSection) models.NormalizedSection {
	if fallback != nil {
		out := *fallback
		if out.Key == "" {
			out.Key = key
		}
		out.Items = append([]string{}, fallback.Items...)
		if fallback.Score != nil {
			score := *fallback.Score
			out.Score = &score
		}
		out.Fallback = true
		return out
	}
	return models.NormalizedSection{
		Key:   key,
		Items: []string{},
		Raw:   raw,
		Shape: models.ShapeAbsent,
	}
}

func listItems(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		items := make([]string, 0, len(v))
		for _, elem := range v {
			items = append(items, stringify(elem))
		}
		return items
	}
	return []string{}
}

func tipItems(tips []any) []string {
	items := make([]string, 0, len(tips))
	for _, t := range tips {
		if obj, ok := t.(map[string]any); ok {
			if tip, ok := obj["tip"].(string); ok {
				items = append(items, tip)
				continue
			}
		}
		items = append(items, stringify(t))
	}
	return items
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// number accepts the numeric types a decoded JSON document can hold.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
