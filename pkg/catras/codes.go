package catras

import (
	"fmt"
	"strings"
)

// Every code type reserves its zero value for "not set". Wire codes are
// looked up through the tables below; a code missing from a table decodes
// to the zero value.

// Scope describes which part of the stem the measured series covers.
type Scope uint8

const (
	ScopeUnset Scope = iota
	ScopeUnspecified
	ScopePith
	ScopeWaldkante
	ScopePithToWaldkante
	ScopeBark
	ScopePithToBark
)

var scopeCodes = codeTable[Scope]{
	ScopeUnspecified:     {0, "unspecified"},
	ScopePith:            {1, "pith"},
	ScopeWaldkante:       {2, "waldkante"},
	ScopePithToWaldkante: {3, "pith-to-waldkante"},
	ScopeBark:            {4, "bark"},
	ScopePithToBark:      {5, "pith-to-bark"},
}

// LastRing describes whether the outermost ring is complete.
type LastRing uint8

const (
	LastRingUnset LastRing = iota
	LastRingComplete
	LastRingEarlywoodOnly
)

var lastRingCodes = codeTable[LastRing]{
	LastRingComplete:      {0, "complete"},
	LastRingEarlywoodOnly: {1, "earlywood-only"},
}

// VariableType is the measured variable.
type VariableType uint8

const (
	VariableUnset VariableType = iota
	VariableRingWidth
	VariableEarlywoodWidth
	VariableLatewoodWidth
)

var variableCodes = codeTable[VariableType]{
	VariableRingWidth:      {0, "ring-width"},
	VariableEarlywoodWidth: {1, "earlywood-width"},
	VariableLatewoodWidth:  {2, "latewood-width"},
}

// Source records how the values were captured. On the wire it is an ASCII
// letter.
type Source uint8

const (
	SourceUnset Source = iota
	SourceAveraged
	SourceDigitized
	SourceExternal
	SourceManual
)

var sourceCodes = codeTable[Source]{
	SourceAveraged:  {'A', "averaged"},
	SourceDigitized: {'D', "digitized"},
	SourceExternal:  {'E', "external"},
	SourceManual:    {'H', "manual"},
}

// Protection is the CATRAS edit lock.
type Protection uint8

const (
	ProtectionUnset Protection = iota
	ProtectionNone
	ProtectionNotToBeDeleted
	ProtectionNotToBeAmended
)

var protectionCodes = codeTable[Protection]{
	ProtectionNone:           {0, "none"},
	ProtectionNotToBeDeleted: {1, "not-to-be-deleted"},
	ProtectionNotToBeAmended: {2, "not-to-be-amended"},
}

// FileType distinguishes raw measurements from derived series.
type FileType uint8

const (
	FileTypeUnset FileType = iota
	FileTypeRaw
	FileTypeTreeCurve
	FileTypeChronology
)

var fileTypeCodes = codeTable[FileType]{
	FileTypeRaw:        {0, "raw"},
	FileTypeTreeCurve:  {1, "tree-curve"},
	FileTypeChronology: {2, "chronology"},
}

// HasSampleDepth reports whether files of this type carry a sample-depth
// block. An unset type is treated as raw.
func (t FileType) HasSampleDepth() bool {
	return t == FileTypeTreeCurve || t == FileTypeChronology
}

type codeEntry struct {
	code uint8
	name string
}

type codeTable[T ~uint8] map[T]codeEntry

func (t codeTable[T]) lookup(code uint8) (T, bool) {
	for v, e := range t {
		if e.code == code {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// wire returns the code to store for v; unset values store zero.
func (t codeTable[T]) wire(v T) (uint8, error) {
	if v == 0 {
		return 0, nil
	}
	e, ok := t[v]
	if !ok {
		return 0, fmt.Errorf("undefined value %d", v)
	}
	return e.code, nil
}

func (t codeTable[T]) name(v T) string {
	if v == 0 {
		return ""
	}
	if e, ok := t[v]; ok {
		return e.name
	}
	return fmt.Sprintf("%d", uint8(v))
}

func (t codeTable[T]) parse(kind, s string) (T, error) {
	var zero T
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zero, nil
	}
	for v, e := range t {
		if e.name == s {
			return v, nil
		}
	}
	return zero, fmt.Errorf("unknown %s %q", kind, s)
}

func (s Scope) String() string { return scopeCodes.name(s) }

func (s Scope) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Scope) UnmarshalText(b []byte) (err error) {
	*s, err = scopeCodes.parse("scope", string(b))
	return err
}

func (l LastRing) String() string { return lastRingCodes.name(l) }

func (l LastRing) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *LastRing) UnmarshalText(b []byte) (err error) {
	*l, err = lastRingCodes.parse("last ring", string(b))
	return err
}

func (v VariableType) String() string { return variableCodes.name(v) }

func (v VariableType) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *VariableType) UnmarshalText(b []byte) (err error) {
	*v, err = variableCodes.parse("variable type", string(b))
	return err
}

func (s Source) String() string { return sourceCodes.name(s) }

func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Source) UnmarshalText(b []byte) (err error) {
	*s, err = sourceCodes.parse("source", string(b))
	return err
}

func (p Protection) String() string { return protectionCodes.name(p) }

func (p Protection) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Protection) UnmarshalText(b []byte) (err error) {
	*p, err = protectionCodes.parse("protection", string(b))
	return err
}

func (t FileType) String() string { return fileTypeCodes.name(t) }

func (t FileType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *FileType) UnmarshalText(b []byte) (err error) {
	*t, err = fileTypeCodes.parse("file type", string(b))
	return err
}
