package activity

import (
	"strings"
	"time"
)

// ObjectTypeDocument is the object type of every store event.
const ObjectTypeDocument = "document"

// Store lifecycle verbs.
const (
	VerbLoaded      = "docstore.loaded"
	VerbDefaulted   = "docstore.defaulted"
	VerbQuarantined = "docstore.quarantined"
	VerbRecovered   = "docstore.recovered"
	VerbExhausted   = "docstore.exhausted"
	VerbSaved       = "docstore.saved"
	VerbSaveFailed  = "docstore.save_failed"
	VerbDeleted     = "docstore.deleted"
)

// DocumentEventInput describes the common fields of store lifecycle events.
type DocumentEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	Name           string
	Channel        string
	Path           string
	QuarantinePath string
	Reason         string
	Duration       time.Duration
	Err            error
	Metadata       map[string]any
	OccurredAt     time.Time
}

// BuildLoadedEvent reports a primary document decoded from disk.
func BuildLoadedEvent(input DocumentEventInput) Event {
	return buildDocumentEvent(VerbLoaded, input)
}

// BuildDefaultedEvent reports a default document constructed because no
// primary existed.
func BuildDefaultedEvent(input DocumentEventInput) Event {
	return buildDocumentEvent(VerbDefaulted, input)
}

// BuildQuarantinedEvent reports a corrupt primary preserved under a
// timestamped name.
func BuildQuarantinedEvent(input DocumentEventInput) Event {
	return buildDocumentEvent(VerbQuarantined, input)
}

// BuildRecoveredEvent reports a document restored from its backup.
func BuildRecoveredEvent(input DocumentEventInput) Event {
	return buildDocumentEvent(VerbRecovered, input)
}

// BuildExhaustedEvent reports that neither primary nor backup were usable
// and the stored data was replaced by defaults in memory.
func BuildExhaustedEvent(input DocumentEventInput) Event {
	return buildDocumentEvent(VerbExhausted, input)
}

// BuildSavedEvent reports a successful save.
func BuildSavedEvent(input DocumentEventInput) Event {
	return buildDocumentEvent(VerbSaved, input)
}

// BuildSaveFailedEvent reports a failed save.
func BuildSaveFailedEvent(input DocumentEventInput) Event {
	return buildDocumentEvent(VerbSaveFailed, input)
}

// BuildDeletedEvent reports removal of the document files.
func BuildDeletedEvent(input DocumentEventInput) Event {
	return buildDocumentEvent(VerbDeleted, input)
}

func buildDocumentEvent(verb string, input DocumentEventInput) Event {
	metadata := CloneMetadata(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.Path != "" {
		set("path", input.Path)
	}
	if input.QuarantinePath != "" {
		set("quarantine_path", input.QuarantinePath)
	}
	if input.Reason != "" {
		set("reason", input.Reason)
	}
	if input.Duration > 0 {
		set("duration_ms", input.Duration.Milliseconds())
	}
	if input.Err != nil {
		set("error", input.Err.Error())
	}

	objectID := strings.TrimSpace(input.Name)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Path)
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeDocument,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
