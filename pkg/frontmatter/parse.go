package frontmatter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dtnitsch/higdocs/models"
	"gopkg.in/yaml.v3"
)

// Parsed is a decoded corpus file.
type Parsed struct {
	FrontMatter models.FrontMatter
	Body        string
	Attribution string
}

var knownKeys = map[string]bool{
	"title": true, "platform": true, "category": true, "url": true, "id": true,
	"lastUpdated": true, "extractionMethod": true, "qualityScore": true,
	"confidence": true, "contentLength": true, "hasCodeExamples": true,
	"hasImages": true, "keywords": true,
}

// Parse decodes a complete corpus file.
func Parse(raw []byte) (*Parsed, error) {
	header, body, err := Split(raw)
	if err != nil {
		return nil, err
	}

	fm, err := Decode(header)
	if err != nil {
		return nil, err
	}

	content, attribution := SplitAttribution(body)
	return &Parsed{FrontMatter: *fm, Body: normalizeBody(content), Attribution: attribution}, nil
}

// Decode converts a YAML header into FrontMatter. Scalars are coerced
// leniently: quoted numbers and booleans are accepted, keywords may be a
// list or a comma separated string, and lastUpdated accepts any common
// date layout.
func Decode(header []byte) (*models.FrontMatter, error) {
	values := map[string]any{}
	if err := yaml.Unmarshal(header, &values); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}

	fm := &models.FrontMatter{}
	var err error
	for key, value := range values {
		switch key {
		case "title":
			fm.Title = toString(value)
		case "platform":
			fm.Platform = toString(value)
		case "category":
			fm.Category = toString(value)
		case "url":
			fm.URL = toString(value)
		case "id":
			fm.ID = toString(value)
		case "extractionMethod":
			fm.ExtractionMethod = toString(value)
		case "lastUpdated":
			fm.LastUpdated, err = toTime(value)
		case "qualityScore":
			fm.QualityScore, err = toFloat(value)
		case "confidence":
			fm.Confidence, err = toFloat(value)
		case "contentLength":
			fm.ContentLength, err = toInt(value)
		case "hasCodeExamples":
			fm.HasCodeExamples, err = toBool(value)
		case "hasImages":
			fm.HasImages, err = toBool(value)
		case "keywords":
			fm.Keywords, err = toStrings(value)
		default:
			if fm.Extra == nil {
				fm.Extra = map[string]any{}
			}
			fm.Extra[key] = value
		}
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
	}
	return fm, nil
}

// normalizeBody drops blank lines around the body and ends it with a
// single newline.
func normalizeBody(body string) string {
	body = strings.TrimLeft(body, "\n")
	body = strings.TrimRight(body, " \t\n")
	if body == "" {
		return ""
	}
	return body + "\n"
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int:
		return float64(t), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, fmt.Errorf("not a finite number: %v", t)
		}
		return t, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not a number: %v", t)
	}
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int:
		return t, nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("not an integer: %v", t)
		}
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("not an integer: %v", t)
	}
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, fmt.Errorf("not a boolean: %q", t)
		}
		return b, nil
	default:
		return false, fmt.Errorf("not a boolean: %v", t)
	}
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, nil
		}
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts.UTC(), nil
		}
		ts, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("not a date: %q", s)
		}
		return ts.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("not a date: %v", t)
	}
}

func toStrings(v any) ([]string, error) {
	var out []string
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case []any:
		for _, item := range t {
			switch item.(type) {
			case map[string]any, []any:
				return nil, fmt.Errorf("keyword must be a scalar: %v", item)
			}
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		return nil, fmt.Errorf("not a keyword list: %v", t)
	}
	return out, nil
}
