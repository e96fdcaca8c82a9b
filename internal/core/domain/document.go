package domain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// DocumentStatus is the lifecycle state of a document
type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "UPLOADED"
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusParsed     DocumentStatus = "PARSED"
	StatusIndexed    DocumentStatus = "INDEXED"
	StatusFailed     DocumentStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusIndexed || s == StatusFailed
}

// Valid reports whether s is a known status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusParsed, StatusIndexed, StatusFailed:
		return true
	}
	return false
}

// documentNamespace seeds deterministic document IDs.
var documentNamespace = uuid.MustParse("6f3b7c1e-2a4d-4f0b-9c55-1d8e7a2b9f40")

// Document is the aggregate root of the ingestion pipeline.
// State only changes through the transition methods below.
type Document struct {
	id            string
	filename      string
	content       string
	status        DocumentStatus
	metadata      map[string]string
	parsedContent string
	err           string
	createdAt     time.Time
	updatedAt     time.Time
}

// NewDocument creates a document in UPLOADED state with a random ID.
// The filename is reduced to its base name.
func NewDocument(filename, content string) (*Document, error) {
	return NewDocumentWithID(uuid.NewString(), filename, content)
}

// NewDocumentWithID creates a document in UPLOADED state with the given ID.
func NewDocumentWithID(id, filename, content string) (*Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	now := time.Now()
	return &Document{
		id:        id,
		filename:  name,
		content:   content,
		status:    StatusUploaded,
		metadata:  make(map[string]string),
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ContentHash returns the hex BLAKE2b-256 digest of a filename and its text.
func ContentHash(filename, content string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(filepath.Base(filename)))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// DeterministicDocumentID derives a stable ID from the filename and content,
// so re-ingesting the same file overwrites the previous document.
func DeterministicDocumentID(filename, content string) string {
	return uuid.NewSHA1(documentNamespace, []byte(ContentHash(filename, content))).String()
}

func (d *Document) ID() string { return d.id }
func (d *Document) Filename() string { return d.filename }
func (d *Document) Content() string { return d.content }
func (d *Document) Status() DocumentStatus { return d.status }
func (d *Document) ParsedContent() string { return d.parsedContent }
func (d *Document) ErrorMessage() string { return d.err }
func (d *Document) CreatedAt() time.Time { return d.createdAt }
func (d *Document) UpdatedAt() time.Time { return d.updatedAt }
func (d *Document) MetadataValue(k string) string { return d.metadata[k] }

// Metadata returns a copy of the document metadata.
func (d *Document) Metadata() map[string]string {
	return maps.Clone(d.metadata)
}

// Annotate sets a single metadata entry.
func (d *Document) Annotate(key, value string) {
	if d.metadata == nil {
		d.metadata = make(map[string]string)
	}
	d.metadata[key] = value
	d.updatedAt = time.Now()
}

// StartProcessing moves UPLOADED -> PROCESSING.
func (d *Document) StartProcessing() error {
	if d.status != StatusUploaded {
		return &InvalidTransitionError{From: d.status, Op: "start processing"}
	}
	d.transition(StatusProcessing)
	return nil
}

// MarkParsed moves PROCESSING -> PARSED and stores the extraction output.
func (d *Document) MarkParsed(parsedContent string) error {
	if d.status != StatusProcessing {
		return &InvalidTransitionError{From: d.status, Op: "mark parsed"}
	}
	if parsedContent == "" {
		return fmt.Errorf("%w: parsed content is empty", ErrInvalidInput)
	}
	d.parsedContent = parsedContent
	d.transition(StatusParsed)
	return nil
}

// MarkIndexed moves PARSED -> INDEXED.
func (d *Document) MarkIndexed() error {
	if d.status != StatusParsed {
		return &InvalidTransitionError{From: d.status, Op: "mark indexed"}
	}
	d.transition(StatusIndexed)
	return nil
}

// MarkFailed moves any non-terminal status to FAILED.
func (d *Document) MarkFailed(msg string) error {
	if d.status.IsTerminal() {
		return &InvalidTransitionError{From: d.status, Op: "mark failed"}
	}
	if strings.TrimSpace(msg) == "" {
		return fmt.Errorf("%w: failure message is empty", ErrInvalidInput)
	}
	d.err = msg
	d.transition(StatusFailed)
	return nil
}

func (d *Document) transition(to DocumentStatus) {
	d.status = to
	d.updatedAt = time.Now()
}

// DocumentSnapshot is the persisted form of a document.
type DocumentSnapshot struct {
	ID            string            `json:"id"`
	Filename      string            `json:"filename"`
	Content       string            `json:"content"`
	Status        DocumentStatus    `json:"status"`
	Metadata      map[string]string `json:"metadata"`
	ParsedContent string            `json:"parsed_content,omitempty"`
	Error         string            `json:"error,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Snapshot copies the document state for storage.
func (d *Document) Snapshot() DocumentSnapshot {
	return DocumentSnapshot{
		ID:            d.id,
		Filename:      d.filename,
		Content:       d.content,
		Status:        d.status,
		Metadata:      d.Metadata(),
		ParsedContent: d.parsedContent,
		Error:         d.err,
		CreatedAt:     d.createdAt,
		UpdatedAt:     d.updatedAt,
	}
}

// RestoreDocument rebuilds a document loaded from storage.
func RestoreDocument(s DocumentSnapshot) (*Document, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	if !s.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s.Status)
	}
	md := maps.Clone(s.Metadata)
	if md == nil {
		md = make(map[string]string)
	}
	return &Document{
		id:            s.ID,
		filename:      s.Filename,
		content:       s.Content,
		status:        s.Status,
		metadata:      md,
		parsedContent: s.ParsedContent,
		err:           s.Error,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
	}, nil
}

// MarshalJSON encodes the snapshot form.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Snapshot())
}

// UnmarshalJSON decodes the snapshot form.
func (d *Document) UnmarshalJSON(data []byte) error {
	var s DocumentSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	restored, err := RestoreDocument(s)
	if err != nil {
		return err
	}
	*d = *restored
	return nil
}
