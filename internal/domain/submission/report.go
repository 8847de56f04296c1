package submission

import (
	"encoding/hex"

	"github.com/felixgeelhaar/summitforms/internal/domain/form"
	"golang.org/x/crypto/blake2b"
)

// Report describes one submission: every attempt made, the final result
// and which stage was accepted.
type Report struct {
	Form        form.Kind
	RequestID   string
	Fingerprint string
	Attempts    []Result
	Final       Result
	// SucceededStage is empty when nothing was accepted.
	SucceededStage Stage
}

// Succeeded reports whether any attempt was accepted.
func (r *Report) Succeeded() bool { return r.SucceededStage != "" }

// Minimal reports whether only the minimal payload was accepted, meaning
// the server may hold just a subset of the form.
func (r *Report) Minimal() bool { return r.SucceededStage == StageMinimal }

// Fingerprint hashes the primary payload of snapshot so identical
// submissions can be recognised later.
func Fingerprint(profile Profile, snapshot form.Snapshot) (string, error) {
	payload, err := encodeJSON(snapshot, mappedFields(profile, snapshot, nil))
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(append([]byte(string(profile.Form)+"\n"), payload...))
	return hex.EncodeToString(sum[:]), nil
}
