package llmagent

import "github.com/anycrawl/anycrawl-core/internal/models"

// normalizeSchema implements spec §4.8's schema normalization:
//   - a top-level array is wrapped as {type:object, properties:{items:<schema>},
//     required:[items], additionalProperties:false}; the caller unwraps "items"
//     back out of the result after extraction.
//   - a bare property map (no type set) is promoted the same way, with every
//     key required.
//   - default is stripped recursively regardless of which branch applies.
//
// wrapped reports whether the result needs unwrapping via unwrapArrayResult.
func normalizeSchema(schema *models.ExtractSchema) (normalized *models.ExtractSchema, wrapped bool) {
	stripped := stripDefaults(schema)

	if stripped.Type == models.SchemaTypeArray {
		return wrapObject(map[string]*models.ExtractSchema{"items": stripped}, []string{"items"}), true
	}

	if stripped.Type == "" && len(stripped.Properties) > 0 {
		keys := make([]string, 0, len(stripped.Properties))
		for k := range stripped.Properties {
			keys = append(keys, k)
		}
		stripped.Type = models.SchemaTypeObject
		stripped.Required = keys
		no := false
		stripped.AdditionalProperties = &no
		return stripped, false
	}

	return stripped, false
}

func wrapObject(props map[string]*models.ExtractSchema, required []string) *models.ExtractSchema {
	no := false
	return &models.ExtractSchema{
		Type:                 models.SchemaTypeObject,
		Properties:           props,
		Required:             required,
		AdditionalProperties: &no,
	}
}

// stripDefaults returns a deep copy of schema with Default cleared at every
// level (spec §4.8: "recursively strip default").
func stripDefaults(schema *models.ExtractSchema) *models.ExtractSchema {
	if schema == nil {
		return &models.ExtractSchema{}
	}
	out := *schema
	out.Default = nil

	if schema.Properties != nil {
		out.Properties = make(map[string]*models.ExtractSchema, len(schema.Properties))
		for k, v := range schema.Properties {
			out.Properties[k] = stripDefaults(v)
		}
	}
	if schema.Items != nil {
		out.Items = stripDefaults(schema.Items)
	}
	return &out
}

// unwrapArrayResult pulls the "items" key back out of a result that was
// normalized from a top-level array schema.
func unwrapArrayResult(data interface{}) interface{} {
	if m, ok := data.(map[string]interface{}); ok {
		if items, ok := m["items"]; ok {
			return items
		}
	}
	return data
}
