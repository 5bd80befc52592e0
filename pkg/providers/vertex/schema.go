package vertex

import "strings"

// Keywords the generateContent schema dialect rejects. These are stripped
// everywhere they appear; $ref/$defs are resolved by inlining first.
var unsupportedSchemaKeys = map[string]bool{
	"$schema":               true,
	"$defs":                 true,
	"definitions":           true,
	"additionalProperties":  true,
	"unevaluatedProperties": true,
	"strict":                true,
}

// SanitizeSchema converts a JSON Schema into the subset accepted by
// generateContent's responseSchema and function declaration parameters.
// Internal $ref pointers are resolved by inlining their $defs/definitions
// targets; unsupported keywords are dropped at every level. The input is
// not modified.
//
// Recursive (self-referential) schemas cannot be inlined; a $ref whose
// expansion would recurse is replaced by a permissive object schema.
func SanitizeSchema(schema map[string]interface{}) map[string]interface{} {
	if schema == nil {
		return nil
	}

	defs := collectDefs(schema)
	out := sanitizeValue(schema, defs, nil)
	if m, ok := out.(map[string]interface{}); ok {
		return m
	}
	return nil
}

// collectDefs gathers $defs and definitions from the schema root.
func collectDefs(schema map[string]interface{}) map[string]map[string]interface{} {
	defs := make(map[string]map[string]interface{})
	for _, key := range []string{"$defs", "definitions"} {
		raw, ok := schema[key].(map[string]interface{})
		if !ok {
			continue
		}
		for name, def := range raw {
			if m, ok := def.(map[string]interface{}); ok {
				defs[name] = m
			}
		}
	}
	return defs
}

func sanitizeValue(value interface{}, defs map[string]map[string]interface{}, active []string) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		// Resolve internal references by inlining the target definition.
		if ref, ok := v["$ref"].(string); ok {
			return resolveRef(ref, defs, active)
		}

		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			if unsupportedSchemaKeys[key] {
				continue
			}
			out[key] = sanitizeValue(val, defs, active)
		}
		return out

	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = sanitizeValue(item, defs, active)
		}
		return out

	default:
		return value
	}
}

func resolveRef(ref string, defs map[string]map[string]interface{}, active []string) interface{} {
	name := refName(ref)
	def, ok := defs[name]
	if !ok {
		return map[string]interface{}{"type": "object"}
	}
	for _, seen := range active {
		if seen == name {
			// Recursive reference: fall back to a permissive object.
			return map[string]interface{}{"type": "object"}
		}
	}
	return sanitizeValue(def, defs, append(active, name))
}

// refName extracts the definition name from "#/$defs/Name" or
// "#/definitions/Name" pointers.
func refName(ref string) string {
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}
