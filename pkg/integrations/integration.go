package integrations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/iancoleman/strcase"
	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
)

// Status is the lifecycle state of an integration.
type Status string

const (
	StatusConfigured Status = "CONFIGURED"
	StatusActivated  Status = "ACTIVATED"
)

// Link is a hyperlink descriptor returned with an integration. Only the
// target is kept.
type Link struct {
	Href string `mapstructure:"href" json:"href"`
}

// Attributes is the typed view of the integration fields the client acts on.
type Attributes struct {
	Name    string `mapstructure:"name" json:"name" yaml:"name"`
	Code    string `mapstructure:"code" json:"code" yaml:"code"`
	Version string `mapstructure:"version" json:"version" yaml:"version"`
	Status  Status `mapstructure:"status" json:"status" yaml:"status"`
	Links   []Link `mapstructure:"-" json:"-" yaml:"-"`
}

// Integration is one item of the catalogue. The full JSON object is kept so
// that any field can be matched; typed accessors cover the rest.
type Integration struct {
	raw    []byte
	fields map[string]any
	attrs  Attributes
}

// NewIntegration decodes a single catalogue item.
func NewIntegration(raw []byte) (Integration, error) {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return Integration{}, fmt.Errorf("failed to decode integration: %w", err)
	}
	if fields == nil {
		return Integration{}, fmt.Errorf("integration is not a JSON object")
	}

	var attrs Attributes
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       dropNonScalar,
		WeaklyTypedInput: true,
		Result:           &attrs,
	})
	if err != nil {
		return Integration{}, err
	}
	if err := decoder.Decode(fields); err != nil {
		return Integration{}, fmt.Errorf("failed to decode integration attributes: %w", err)
	}
	attrs.Links = extractLinks(fields["links"])

	return Integration{raw: raw, fields: fields, attrs: attrs}, nil
}

// dropNonScalar decodes an object or array as the empty string when a string
// attribute is expected, so one odd item does not fail the whole catalogue.
func dropNonScalar(from, to reflect.Kind, data any) (any, error) {
	if to != reflect.String {
		return data, nil
	}
	switch from {
	case reflect.Map, reflect.Slice:
		return "", nil
	}
	return data, nil
}

// ParseIntegrations decodes the catalogue response body. The body must be a
// JSON object with an "items" array.
func ParseIntegrations(body []byte) ([]Integration, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}

	items := gjson.GetBytes(body, "items")
	if !items.Exists() || !items.IsArray() {
		return nil, fmt.Errorf("response has no items array")
	}

	var (
		out  = make([]Integration, 0, len(items.Array()))
		perr error
		idx  int
	)
	items.ForEach(func(_, value gjson.Result) bool {
		it, err := NewIntegration([]byte(value.Raw))
		if err != nil {
			perr = fmt.Errorf("item %d: %w", idx, err)
			return false
		}
		out = append(out, it)
		idx++
		return true
	})
	if perr != nil {
		return nil, perr
	}

	return out, nil
}

// extractLinks keeps the href of every well-formed link. Anything that is not
// a list of objects yields no links.
func extractLinks(v any) []Link {
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	var links []Link
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		href, ok := m["href"].(string)
		if !ok || href == "" {
			continue
		}
		links = append(links, Link{Href: href})
	}
	return links
}

func (i Integration) Name() string           { return i.attrs.Name }
func (i Integration) Code() string           { return i.attrs.Code }
func (i Integration) Version() string        { return i.attrs.Version }
func (i Integration) Status() Status         { return i.attrs.Status }
func (i Integration) Attributes() Attributes { return i.attrs }

// Href returns the integration's own resource link. When several links are
// present the last one wins.
func (i Integration) Href() (string, bool) {
	if len(i.attrs.Links) == 0 {
		return "", false
	}
	return i.attrs.Links[len(i.attrs.Links)-1].Href, true
}

// DisplayName identifies the integration in log output.
func (i Integration) DisplayName() string {
	return fmt.Sprintf("%s %s:%s", i.attrs.Name, i.attrs.Code, i.attrs.Version)
}

// ArchiveName is the file name used for exported archives.
func (i Integration) ArchiveName() string {
	return fmt.Sprintf("%s-%s.iar", i.attrs.Code, i.attrs.Version)
}

// FieldString returns the text of a scalar field. The field is looked up as
// an exact key, then in lowerCamel form, then as a gjson path into the item.
// Missing, null, object and array values report false.
func (i Integration) FieldString(field string) (string, bool) {
	if v, ok := i.fields[field]; ok {
		return scalarString(v)
	}

	if alt := strcase.ToLowerCamel(field); alt != field {
		if v, ok := i.fields[alt]; ok {
			return scalarString(v)
		}
	}

	r := gjson.GetBytes(i.raw, field)
	switch r.Type {
	case gjson.String:
		return r.Str, true
	case gjson.Number, gjson.True, gjson.False:
		return r.Raw, true
	default:
		return "", false
	}
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
