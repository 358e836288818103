package models

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
)

// Field types allowed in the match schema.
const (
	FieldTypeString = "string"
	FieldTypeSelect = "select"
	FieldTypeList   = "list"
)

type Match struct {
	ID             string                `json:"id,omitempty"`
	Date           *string               `json:"date"`
	Players        []string              `json:"players"`
	AdditionalData map[string]FieldValue `json:"additionalData"`
	Finished       bool                  `json:"finished"`
}

// MatchField describes one operator-defined extra field on a match.
type MatchField struct {
	Type              string   `json:"type"`
	Name              string   `json:"name"`
	DisplayInOverview bool     `json:"displayInOverview"`
	AnnounceInDiscord bool     `json:"announceInDiscord"`
	Options           []string `json:"options,omitempty"`
}

type PlayerIDMap struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// FieldValue is a schema field value, encoded on the wire as either a
// single JSON string or an array of strings.
type FieldValue struct {
	Single string
	List   []string
	IsList bool
}

func StringValue(s string) FieldValue {
	return FieldValue{Single: s}
}

func ListValue(vals ...string) FieldValue {
	return FieldValue{List: vals, IsList: true}
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.IsList {
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Single)
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		v.Single = ""
		v.IsList = true
		return json.Unmarshal(data, &v.List)
	}
	v.List = nil
	v.IsList = false
	return json.Unmarshal(data, &v.Single)
}

// Equal reports structural equality, including the string/list distinction.
func (v FieldValue) Equal(o FieldValue) bool {
	if v.IsList != o.IsList {
		return false
	}
	if v.IsList {
		return slices.Equal(v.List, o.List)
	}
	return v.Single == o.Single
}

// Lines renders the value for display, list entries newline-joined.
func (v FieldValue) Lines() string {
	if v.IsList {
		return strings.Join(v.List, "\n")
	}
	return v.Single
}

// FieldByName returns the schema entry with the given name, or nil.
func FieldByName(schema []MatchField, name string) *MatchField {
	for i := range schema {
		if schema[i].Name == name {
			return &schema[i]
		}
	}
	return nil
}
