package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rhinontech/rhinontech-platform-sub002/pkg/constants"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/utils"
)

// CustomFields is a schemaless document attached to every entity. Values are
// either scalars or descriptor objects such as {"type": "number", "value": 0}.
type CustomFields map[string]interface{}

// Clone returns a copy one level deep
func (cf CustomFields) Clone() CustomFields {
	out := make(CustomFields, len(cf))
	for k, v := range cf {
		if obj, ok := v.(map[string]interface{}); ok {
			inner := make(map[string]interface{}, len(obj))
			for ik, iv := range obj {
				inner[ik] = iv
			}
			out[k] = inner
			continue
		}
		out[k] = v
	}
	return out
}

// Merge applies incoming over cf and returns the result. When both sides
// hold an object at a key the objects are merged one level deep with
// incoming winning; otherwise the incoming value replaces. Keys absent from
// incoming are kept. Neither input is modified.
func (cf CustomFields) Merge(incoming map[string]interface{}) CustomFields {
	out := cf.Clone()
	for k, v := range incoming {
		existing, exOK := out[k].(map[string]interface{})
		update, upOK := v.(map[string]interface{})
		if exOK && upOK {
			for ik, iv := range update {
				existing[ik] = iv
			}
			out[k] = existing
			continue
		}
		out[k] = v
	}
	return out
}

// ShallowMerge overwrites top-level keys only
func (cf CustomFields) ShallowMerge(incoming map[string]interface{}) CustomFields {
	out := make(CustomFields, len(cf)+len(incoming))
	for k, v := range cf {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

// Raw returns the value at key, unwrapping a descriptor object's "value"
func (cf CustomFields) Raw(key string) (interface{}, bool) {
	v, ok := cf[key]
	if !ok || v == nil {
		return nil, false
	}
	if obj, isObj := v.(map[string]interface{}); isObj {
		inner, has := obj[constants.CustomFieldValue]
		if !has || inner == nil {
			return nil, false
		}
		return inner, true
	}
	return v, true
}

// Number reads a numeric field, 0 when absent or not numeric
func (cf CustomFields) Number(key string) float64 {
	v, ok := cf.Raw(key)
	if !ok {
		return 0
	}
	f, _ := utils.ToFloat(v)
	return f
}

// String reads a string field, "" when absent
func (cf CustomFields) String(key string) string {
	v, ok := cf.Raw(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// DealValue returns custom_fields.dealValue
func (cf CustomFields) DealValue() float64 {
	return cf.Number(constants.CustomFieldDealValue)
}

// Priority returns custom_fields.priority, defaulting to "Medium"
func (cf CustomFields) Priority() string {
	if p := strings.TrimSpace(cf.String(constants.CustomFieldPriority)); p != "" {
		return p
	}
	return constants.DefaultPriority
}

// CreatedAtField returns custom_fields.createdAtField as a time if it parses
func (cf CustomFields) CreatedAtField() *time.Time {
	s := strings.TrimSpace(cf.String(constants.CustomFieldCreatedAt))
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Marshal encodes the document, "{}" for nil
func (cf CustomFields) Marshal() (string, error) {
	if cf == nil {
		return "{}", nil
	}
	b, err := json.Marshal(cf)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseCustomFields decodes a stored document. Empty input yields an empty map.
func ParseCustomFields(raw string) (CustomFields, error) {
	cf := CustomFields{}
	if strings.TrimSpace(raw) == "" || raw == "null" {
		return cf, nil
	}
	if err := json.Unmarshal([]byte(raw), &cf); err != nil {
		return nil, err
	}
	if cf == nil {
		cf = CustomFields{}
	}
	return cf, nil
}
