package llmagent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/anycrawl/anycrawl-core/internal/models"
)

// buildFieldPrompt renders a nested, indented field list describing schema,
// per spec §4.8's "field prompt builder": type hints like "(array of T)" /
// "(object)" plus descriptions, recursing into array items and nested
// objects.
func buildFieldPrompt(schema *models.ExtractSchema) string {
	var b strings.Builder
	writeFields(&b, schema, 0)
	return strings.TrimRight(b.String(), "\n")
}

func writeFields(b *strings.Builder, schema *models.ExtractSchema, depth int) {
	if schema == nil || schema.Properties == nil {
		return
	}
	indent := strings.Repeat("  ", depth)

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field := schema.Properties[name]
		hint := typeHint(field)
		line := fmt.Sprintf("%s- %s %s", indent, name, hint)
		if field.Description != "" {
			line += ": " + field.Description
		}
		b.WriteString(line)
		b.WriteString("\n")

		switch field.Type {
		case models.SchemaTypeObject:
			writeFields(b, field, depth+1)
		case models.SchemaTypeArray:
			if field.Items != nil && field.Items.Type == models.SchemaTypeObject {
				writeFields(b, field.Items, depth+1)
			}
		}
	}
}

func typeHint(schema *models.ExtractSchema) string {
	switch schema.Type {
	case models.SchemaTypeArray:
		item := "item"
		if schema.Items != nil && schema.Items.Type != "" {
			item = schema.Items.Type
		}
		return fmt.Sprintf("(array of %s)", item)
	case models.SchemaTypeObject:
		return "(object)"
	case "":
		return ""
	default:
		return fmt.Sprintf("(%s)", schema.Type)
	}
}
