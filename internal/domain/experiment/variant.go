package experiment

import (
	"fmt"
)

// ParameterDelta is one DBMS configuration override applied to a
// variant's parameter group. Deltas are applied in declaration order.
type ParameterDelta struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// utf8Defaults are appended to every variant because the platform's
// default parameter group ships with latin1 as the server character set.
var utf8Defaults = []ParameterDelta{
	{Name: "character_set_server", Value: "utf8"},
	{Name: "character_set_client", Value: "utf8"},
	{Name: "character_set_connection", Value: "utf8"},
	{Name: "character_set_database", Value: "utf8"},
	{Name: "character_set_results", Value: "utf8"},
	{Name: "collation_server", Value: "utf8_general_ci"},
	{Name: "collation_connection", Value: "utf8_general_ci"},
}

// WithUTF8Defaults returns a copy of deltas with the standard UTF-8
// parameters appended. The input slice is not modified.
func WithUTF8Defaults(deltas []ParameterDelta) []ParameterDelta {
	out := make([]ParameterDelta, 0, len(deltas)+len(utf8Defaults))
	out = append(out, deltas...)
	out = append(out, utf8Defaults...)
	return out
}

// Variant is one configuration-delta set under test. It is immutable
// once created; the orchestrator tracks mutable progress in VariantRun.
type Variant struct {
	Index     int              `json:"index"`
	Name      string           `json:"name"`
	GroupName string           `json:"group_name"`
	Deltas    []ParameterDelta `json:"deltas"`
}

// NewVariant builds a variant with deterministic naming and the UTF-8
// defaults appended to its deltas. An empty delta set yields a group
// that only overrides the character-set parameters.
func NewVariant(label string, index int, deltas []ParameterDelta) *Variant {
	return &Variant{
		Index:     index,
		Name:      fmt.Sprintf("%s-%d", label, index),
		GroupName: fmt.Sprintf("pg%s-%d", label, index),
		Deltas:    WithUTF8Defaults(deltas),
	}
}

// InstanceID returns the remote instance identifier for this variant.
// The run label is embedded so the cleanup reaper can find the instance
// by substring match.
func (v *Variant) InstanceID(label string) string {
	return fmt.Sprintf("%s-%d-%s", label, v.Index, v.GroupName)
}
