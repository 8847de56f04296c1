// Package receipts keeps an append-only YAML journal of submissions so a
// repeated submission of the same answers can be flagged before it is sent.
package receipts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/summitforms/internal/domain/submission"
	"github.com/felixgeelhaar/summitforms/internal/ports"
	"gopkg.in/yaml.v3"
)

// ErrJournalCorrupt is returned when the journal cannot be decoded.
var ErrJournalCorrupt = errors.New("receipts journal is corrupt")

// Receipt records the outcome of one submission.
type Receipt struct {
	RequestID   string    `yaml:"request_id"`
	Form        string    `yaml:"form"`
	Stage       string    `yaml:"stage,omitempty"`
	Outcome     string    `yaml:"outcome"`
	Fingerprint string    `yaml:"fingerprint"`
	Attempts    int       `yaml:"attempts"`
	Time        time.Time `yaml:"time"`
}

// Succeeded reports whether the submission was accepted.
func (r Receipt) Succeeded() bool {
	return r.Outcome == submission.OutcomeSuccess.String()
}

// FromReport builds the receipt of a finished submission.
func FromReport(report *submission.Report, at time.Time) Receipt {
	return Receipt{
		RequestID:   report.RequestID,
		Form:        string(report.Form),
		Stage:       string(report.SucceededStage),
		Outcome:     report.Final.Outcome.String(),
		Fingerprint: report.Fingerprint,
		Attempts:    len(report.Attempts),
		Time:        at.UTC(),
	}
}

// Journal appends receipts to one YAML file, one document per receipt.
type Journal struct {
	fs   ports.FileSystem
	path string
	now  func() time.Time
}

// NewJournal creates a journal stored at path.
func NewJournal(fs ports.FileSystem, path string) *Journal {
	return &Journal{fs: fs, path: ports.ExpandPath(path), now: time.Now}
}

// Path returns the journal location.
func (j *Journal) Path() string { return j.path }

// Record appends the receipt of report and returns it.
func (j *Journal) Record(report *submission.Report) (Receipt, error) {
	r := FromReport(report, j.now())

	data, err := yaml.Marshal(&r)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode receipt: %w", err)
	}
	if err := j.fs.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return Receipt{}, fmt.Errorf("create receipts directory: %w", err)
	}
	doc := append([]byte("---\n"), data...)
	if err := j.fs.AppendFile(j.path, doc, 0o600); err != nil {
		return Receipt{}, fmt.Errorf("append receipt: %w", err)
	}
	return r, nil
}

// List returns every receipt, oldest first. A missing journal is empty.
func (j *Journal) List() ([]Receipt, error) {
	if !j.fs.Exists(j.path) {
		return nil, nil
	}
	data, err := j.fs.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read receipts: %w", err)
	}

	var out []Receipt
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var r Receipt
		err := dec.Decode(&r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrJournalCorrupt, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// FindSuccess returns the most recent accepted submission with the given
// fingerprint.
func (j *Journal) FindSuccess(fingerprint string) (Receipt, bool, error) {
	all, err := j.List()
	if err != nil {
		return Receipt{}, false, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Fingerprint == fingerprint && all[i].Succeeded() {
			return all[i], true, nil
		}
	}
	return Receipt{}, false, nil
}
