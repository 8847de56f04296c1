// Package form holds the data and validity model of one wizard instance.
package form

import (
	"fmt"
	"strings"
)

// Kind identifies which wizard a form belongs to.
type Kind string

// Form kinds.
const (
	KindNomination   Kind = "nomination"
	KindRegistration Kind = "registration"
)

// ParseKind converts a user supplied form name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindNomination, KindRegistration:
		return k, nil
	default:
		return "", fmt.Errorf("unknown form %q (expected nomination or registration)", s)
	}
}

// ValueType tags the variant held by a Value.
type ValueType int

// Value variants.
const (
	TypeNone ValueType = iota
	TypeText
	TypeBool
	TypeFile
)

// Value is a field value: a string, a boolean or an uploaded file.
// The zero Value is empty.
type Value struct {
	typ  ValueType
	text string
	flag bool
	file *UploadedFile
}

// Text returns a string value.
func Text(s string) Value { return Value{typ: TypeText, text: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{typ: TypeBool, flag: b} }

// File returns a file value. A nil file is an empty value.
func File(f *UploadedFile) Value {
	if f == nil {
		return Value{}
	}
	return Value{typ: TypeFile, file: f}
}

// Type returns the variant held by v.
func (v Value) Type() ValueType { return v.typ }

// AsText returns the string held by v, or "".
func (v Value) AsText() string { return v.text }

// AsBool returns the boolean held by v, or false.
func (v Value) AsBool() bool { return v.flag }

// AsFile returns the file held by v, or nil.
func (v Value) AsFile() *UploadedFile { return v.file }

// IsEmpty reports whether v counts as "not filled in": no value, blank
// text, an unchecked box or a missing file.
func (v Value) IsEmpty() bool {
	switch v.typ {
	case TypeText:
		return strings.TrimSpace(v.text) == ""
	case TypeBool:
		return !v.flag
	case TypeFile:
		return v.file == nil || len(v.file.Original) == 0
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.typ {
	case TypeText:
		return v.text
	case TypeBool:
		if v.flag {
			return "true"
		}
		return "false"
	case TypeFile:
		return fmt.Sprintf("%s (%s, %d bytes)", v.file.Name, v.file.MIMEType, v.file.Size())
	default:
		return ""
	}
}

// UploadedFile is an image chosen by the user. A new selection replaces the
// whole struct; it is never edited in place.
type UploadedFile struct {
	Name      string
	Original  []byte
	MIMEType  string
	SizeBytes int64
	// Resized is set when the original exceeded the size limit and was
	// re-encoded.
	Resized []byte
	// Preview is the handle of the preview created for this selection.
	Preview string
}

// Payload returns the bytes to upload: the resized blob when present.
func (f *UploadedFile) Payload() []byte {
	if len(f.Resized) > 0 {
		return f.Resized
	}
	return f.Original
}

// Size returns the byte size of Payload.
func (f *UploadedFile) Size() int64 {
	if len(f.Resized) > 0 {
		return int64(len(f.Resized))
	}
	return f.SizeBytes
}

// clone returns a deep copy so snapshots never share buffers with live state.
func (f *UploadedFile) clone() *UploadedFile {
	if f == nil {
		return nil
	}
	c := *f
	c.Original = append([]byte(nil), f.Original...)
	if f.Resized != nil {
		c.Resized = append([]byte(nil), f.Resized...)
	}
	return &c
}
