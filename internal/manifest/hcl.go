// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file parses the HCL and JSON manifest syntaxes. JSON documents are
// routed through HCL's JSON syntax so both share one decoding path and one
// diagnostics format.

package manifest

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// parseHCL decodes a manifest body of the form
//
//	s1 = [0, 1]
//	s2 = 3
//
// or, equivalently, the same mapping nested under a single `scenes`
// attribute. A list value declares explicit case descriptors (its length is
// the case count); a number value declares the count directly.
func parseHCL(path string, src []byte, isJSON bool) ([]sceneEntry, error) {
	parser := hclparse.NewParser()

	var file *hcl.File
	var diags hcl.Diagnostics
	if isJSON {
		file, diags = parser.ParseJSON(src, path)
	} else {
		file, diags = parser.ParseHCL(src, path)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse manifest %s: %w", path, diags)
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse manifest %s: %w", path, diags)
	}

	// The nested wrapper form: exactly one top-level `scenes` attribute whose
	// value is an object.
	if len(attrs) == 1 {
		if wrapper, ok := attrs["scenes"]; ok {
			val, diags := wrapper.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("parse manifest %s: %w", path, diags)
			}
			if val.Type().IsObjectType() || val.Type().IsMapType() {
				return scenesFromObject(path, val)
			}
		}
	}

	// Direct mapping form: every top-level attribute is a scene. Iterate in
	// source order so submission order follows the document.
	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		ordered = append(ordered, attr)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
	})

	entries := make([]sceneEntry, 0, len(ordered))
	for _, attr := range ordered {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parse manifest %s: %w", path, diags)
		}
		count, err := countFromValue(attr.Name, val)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
		entries = append(entries, sceneEntry{name: attr.Name, count: count})
	}
	return entries, nil
}

// scenesFromObject unpacks the `scenes` wrapper object. cty iterates object
// attributes in name order, which keeps wrapped manifests deterministic.
func scenesFromObject(path string, val cty.Value) ([]sceneEntry, error) {
	entries := make([]sceneEntry, 0, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		key, elem := it.Element()
		name := key.AsString()
		count, err := countFromValue(name, elem)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
		entries = append(entries, sceneEntry{name: name, count: count})
	}
	return entries, nil
}

// countFromValue resolves a scene's case value: a sequence contributes its
// length, a number is the count itself.
func countFromValue(scene string, val cty.Value) (int, error) {
	ty := val.Type()
	switch {
	case ty.IsTupleType() || ty.IsListType():
		count := val.LengthInt()
		return count, checkCount(scene, count)
	case ty == cty.Number:
		var count int
		if err := gocty.FromCtyValue(val, &count); err != nil {
			return 0, fmt.Errorf("scene %q: %w", scene, ErrMalformedCaseCount)
		}
		return count, checkCount(scene, count)
	default:
		return 0, fmt.Errorf("scene %q declares cases of type %s: %w", scene, ty.FriendlyName(), ErrMalformedCaseCount)
	}
}
