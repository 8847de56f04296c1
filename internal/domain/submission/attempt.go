// Package submission sends a finished form to the remote API. The API's
// accepted payload shape is not known in advance, so the engine walks an
// ordered list of request shapes and stops at the first one accepted.
package submission

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"slices"
	"sort"

	"github.com/felixgeelhaar/summitforms/internal/domain/form"
)

// Stage names one step of the fallback cascade.
type Stage string

// Cascade stages, in the order they are tried.
const (
	StagePrimary   Stage = "primary"
	StageReduced   Stage = "reduced"
	StageMultipart Stage = "multipart"
	StageMinimal   Stage = "minimal"
)

// Shape is the encoding of a request body.
type Shape string

// Request shapes.
const (
	ShapeJSON      Shape = "json"
	ShapeMultipart Shape = "multipart"
)

// ContentTypeVariant is one spelling of the JSON content type to probe.
type ContentTypeVariant struct {
	Name  string
	Value string
}

// DefaultContentTypes are probed when a profile lists none.
var DefaultContentTypes = []ContentTypeVariant{
	{Name: "plain", Value: "application/json"},
	{Name: "charset", Value: "application/json; charset=utf-8"},
	{Name: "charset-nospace", Value: "application/json;charset=utf-8"},
}

// Profile is the submission contract of one form: where it is posted and
// how form fields are named on the wire.
type Profile struct {
	Form     form.Kind
	Endpoint string
	// StageEndpoints overrides Endpoint for individual stages.
	StageEndpoints map[Stage]string
	// FieldMap maps form field names to API field names. Unmapped fields
	// are never sent.
	FieldMap map[string]string
	// Optional fields are dropped by the reduced stage.
	Optional []string
	// Minimal fields are the only ones sent by the last-resort stage.
	Minimal      []string
	ContentTypes []ContentTypeVariant
}

func (p Profile) endpoint(stage Stage) string {
	if ep, ok := p.StageEndpoints[stage]; ok && ep != "" {
		return ep
	}
	return p.Endpoint
}

func (p Profile) contentTypes() []ContentTypeVariant {
	if len(p.ContentTypes) == 0 {
		return DefaultContentTypes
	}
	return p.ContentTypes
}

// Attempt is one fully built request of the cascade. Attempts are
// read-only once planned.
type Attempt struct {
	Name        string
	Stage       Stage
	Shape       Shape
	ContentType string
	Endpoint    string
	// FieldMap holds the form to API name mapping of the fields sent.
	FieldMap map[string]string
	Payload  []byte
}

// Plan expands profile into the ordered attempts for snapshot: the
// primary JSON payload once per content-type variant, the same payload
// without optional fields, the full payload as multipart and finally the
// minimal payload. The reduced stage is left out when no optional field
// is populated, since it would repeat the primary request.
func Plan(profile Profile, snapshot form.Snapshot) ([]Attempt, error) {
	full := mappedFields(profile, snapshot, nil)
	if len(full) == 0 {
		return nil, fmt.Errorf("%s form has no fields to submit", profile.Form)
	}
	variants := profile.contentTypes()

	primary, err := encodeJSON(snapshot, full)
	if err != nil {
		return nil, err
	}

	var attempts []Attempt
	for _, ct := range variants {
		attempts = append(attempts, Attempt{
			Name:        string(StagePrimary) + "/" + ct.Name,
			Stage:       StagePrimary,
			Shape:       ShapeJSON,
			ContentType: ct.Value,
			Endpoint:    profile.endpoint(StagePrimary),
			FieldMap:    full,
			Payload:     primary,
		})
	}

	reducedFields := mappedFields(profile, snapshot, func(f string) bool {
		return !slices.Contains(profile.Optional, f)
	})
	if len(reducedFields) < len(full) {
		reduced, err := encodeJSON(snapshot, reducedFields)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, Attempt{
			Name:        string(StageReduced),
			Stage:       StageReduced,
			Shape:       ShapeJSON,
			ContentType: variants[0].Value,
			Endpoint:    profile.endpoint(StageReduced),
			FieldMap:    reducedFields,
			Payload:     reduced,
		})
	}

	body, contentType, err := encodeMultipart(snapshot, full)
	if err != nil {
		return nil, err
	}
	attempts = append(attempts, Attempt{
		Name:        string(StageMultipart),
		Stage:       StageMultipart,
		Shape:       ShapeMultipart,
		ContentType: contentType,
		Endpoint:    profile.endpoint(StageMultipart),
		FieldMap:    full,
		Payload:     body,
	})

	minimalFields := mappedFields(profile, snapshot, func(f string) bool {
		return slices.Contains(profile.Minimal, f)
	})
	if len(minimalFields) > 0 {
		minimal, err := encodeJSON(snapshot, minimalFields)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, Attempt{
			Name:        string(StageMinimal),
			Stage:       StageMinimal,
			Shape:       ShapeJSON,
			ContentType: variants[0].Value,
			Endpoint:    profile.endpoint(StageMinimal),
			FieldMap:    minimalFields,
			Payload:     minimal,
		})
	}
	return attempts, nil
}

// mappedFields returns the populated, mapped fields of snapshot accepted by
// keep (all when keep is nil).
func mappedFields(profile Profile, snapshot form.Snapshot, keep func(string) bool) map[string]string {
	out := make(map[string]string)
	for field, apiName := range profile.FieldMap {
		if !snapshot.Populated(field) {
			continue
		}
		if keep != nil && !keep(field) {
			continue
		}
		out[field] = apiName
	}
	return out
}

// encodeJSON renders the mapped fields as a JSON object. Files are sent as
// base64 data URLs.
func encodeJSON(snapshot form.Snapshot, fieldMap map[string]string) ([]byte, error) {
	obj := make(map[string]any, len(fieldMap))
	for field, apiName := range fieldMap {
		v := snapshot.Get(field)
		switch v.Type() {
		case form.TypeBool:
			obj[apiName] = v.AsBool()
		case form.TypeFile:
			f := v.AsFile()
			obj[apiName] = "data:" + payloadMIME(f) + ";base64," + base64.StdEncoding.EncodeToString(f.Payload())
		default:
			obj[apiName] = v.AsText()
		}
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON payload: %w", err)
	}
	return data, nil
}

// encodeMultipart renders the mapped fields as multipart/form-data in API
// name order, with files as file parts.
func encodeMultipart(snapshot form.Snapshot, fieldMap map[string]string) ([]byte, string, error) {
	byAPIName := make(map[string]string, len(fieldMap))
	names := make([]string, 0, len(fieldMap))
	for field, apiName := range fieldMap {
		byAPIName[apiName] = field
		names = append(names, apiName)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, apiName := range names {
		v := snapshot.Get(byAPIName[apiName])
		if v.Type() == form.TypeFile {
			f := v.AsFile()
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, apiName, f.Name))
			h.Set("Content-Type", payloadMIME(f))
			part, err := w.CreatePart(h)
			if err != nil {
				return nil, "", fmt.Errorf("failed to encode multipart payload: %w", err)
			}
			if _, err := part.Write(f.Payload()); err != nil {
				return nil, "", fmt.Errorf("failed to encode multipart payload: %w", err)
			}
			continue
		}
		if err := w.WriteField(apiName, v.String()); err != nil {
			return nil, "", fmt.Errorf("failed to encode multipart payload: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to encode multipart payload: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func payloadMIME(f *form.UploadedFile) string {
	if f.MIMEType == "" {
		return "application/octet-stream"
	}
	return f.MIMEType
}
