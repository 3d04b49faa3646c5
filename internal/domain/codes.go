package domain

import "strings"

// VariableDescriptor describes one DSSAT variable code from DATA.CDE.
type VariableDescriptor struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// CodeDictionary maps variable codes to their descriptors.
type CodeDictionary map[string]VariableDescriptor

// Label returns the display label for code, or "" when unknown.
func (d CodeDictionary) Label(code string) string {
	return d[code].Label
}

// LabelOr returns the display label for code, falling back to def.
func (d CodeDictionary) LabelOr(code, def string) string {
	if l := d.Label(code); l != "" {
		return l
	}
	return def
}

// ParseCodeDictionary reads DATA.CDE content. Lines starting with "!" or
// "*" are comments. After an "@" header, each non-blank line carries the
// code in columns 0-6, the label in 7-20 and the description in 21-70.
func ParseCodeDictionary(lines []string) CodeDictionary {
	dict := make(CodeDictionary)
	inSection := false
	for _, line := range lines {
		if strings.HasPrefix(line, "!") || strings.HasPrefix(line, "*") {
			continue
		}
		if strings.HasPrefix(line, "@") {
			inSection = true
			continue
		}
		if !inSection || strings.TrimSpace(line) == "" {
			continue
		}
		code := strings.TrimSpace(field(line, 0, 6))
		if code == "" {
			continue
		}
		dict[code] = VariableDescriptor{
			Code:        code,
			Label:       strings.TrimSpace(field(line, 7, 20)),
			Description: strings.TrimSpace(field(line, 21, 70)),
		}
	}
	return dict
}
