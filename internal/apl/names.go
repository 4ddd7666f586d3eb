package apl

import (
	"fmt"
	"strings"
)

// Names is the set of abilities and buffs a rotation may refer to.
// A nil *Names accepts every name.
type Names struct {
	abilities map[string]struct{}
	buffs     map[string]struct{}
}

// NewNames builds a name set. Names are normalized with NormalizeName.
func NewNames(abilities, buffs []string) *Names {
	n := &Names{
		abilities: make(map[string]struct{}, len(abilities)),
		buffs:     make(map[string]struct{}, len(buffs)),
	}
	for _, a := range abilities {
		n.abilities[NormalizeName(a)] = struct{}{}
	}
	for _, b := range buffs {
		n.buffs[NormalizeName(b)] = struct{}{}
	}
	return n
}

// NormalizeName lowercases and joins words with underscores, so "Glare III",
// "glare_iii" and " glare iii " all name the same ability.
func NormalizeName(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '\t'
	})
	return strings.Join(fields, "_")
}

func (n *Names) validateAbilityName(name string) (string, error) {
	norm := NormalizeName(name)
	if norm == "" {
		return norm, fmt.Errorf("ability name missing")
	}
	if n == nil {
		return norm, nil
	}
	if _, ok := n.abilities[norm]; !ok {
		return "", fmt.Errorf("unknown ability '%s'", name)
	}
	return norm, nil
}

func (n *Names) validateBuffName(name string) (string, error) {
	norm := NormalizeName(name)
	if norm == "" {
		return norm, fmt.Errorf("buff name missing")
	}
	if n == nil {
		return norm, nil
	}
	if _, ok := n.buffs[norm]; !ok {
		return "", fmt.Errorf("unknown buff '%s'", name)
	}
	return norm, nil
}
