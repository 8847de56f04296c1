package mcp

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/summitforms/internal/domain/lookups"
)

// maxImageBase64 bounds the encoded image accepted by summitforms_submit.
const maxImageBase64 = 16 << 20

// ValidateLookupInput validates LookupInput fields.
func ValidateLookupInput(in *LookupInput) error {
	if _, err := lookups.ParseKind(in.Kind); err != nil {
		return fmt.Errorf("invalid kind: %w", err)
	}
	return nil
}

// ValidateSubmitInput validates SubmitInput fields.
func ValidateSubmitInput(in *SubmitInput) error {
	if strings.TrimSpace(in.Form) == "" {
		return fmt.Errorf("form is required")
	}
	for name := range in.Answers {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("answers contain an empty field name")
		}
	}
	switch {
	case in.ImageField != "" && in.ImageBase64 == "":
		return fmt.Errorf("image_field %q needs image_base64", in.ImageField)
	case in.ImageField == "" && in.ImageBase64 != "":
		return fmt.Errorf("image_base64 needs image_field")
	case len(in.ImageBase64) > maxImageBase64:
		return fmt.Errorf("image_base64 exceeds %d bytes", maxImageBase64)
	}
	return nil
}
