package agents

import (
	"fmt"
	"sort"
)

// obfuscation replaces category names with neutral placeholders (CAT000,
// CAT001, ...) so the finalizing model judges categories by description
// alone, without bias from familiar names. The mapping lives only for one
// call and is discarded afterwards.
type obfuscation struct {
	toReal map[string]string
	// listing maps placeholder to description for the existing categories
	// only; the new category placeholder is kept separate.
	listing map[string]string
	newName string
}

// obfuscate assigns placeholders to the existing categories in sorted name
// order, then one more for the new category.
func obfuscate(existing map[string]string, newCategory string) *obfuscation {
	names := make([]string, 0, len(existing))
	for name := range existing {
		names = append(names, name)
	}
	sort.Strings(names)

	o := &obfuscation{
		toReal:  make(map[string]string, len(names)+1),
		listing: make(map[string]string, len(names)),
	}
	for i, name := range names {
		placeholder := fmt.Sprintf("CAT%03d", i)
		o.toReal[placeholder] = name
		o.listing[placeholder] = existing[name]
	}
	o.newName = fmt.Sprintf("CAT%03d", len(names))
	o.toReal[o.newName] = newCategory
	return o
}

// real resolves a placeholder back to the category name.
func (o *obfuscation) real(placeholder string) (string, bool) {
	name, ok := o.toReal[placeholder]
	return name, ok
}
