package main

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/goliatone/go-docstore"
)

const (
	stateOK         = "ok"
	stateMissing    = "missing"
	stateEmpty      = "empty"
	stateNull       = "null"
	stateCorrupt    = "corrupt"
	stateInvalid    = "invalid"
	stateUnreadable = "unreadable"
)

// fileStatus describes one file without touching it.
type fileStatus struct {
	Path    string    `json:"path"`
	State   string    `json:"state"`
	Size    int64     `json:"size,omitempty"`
	ModTime time.Time `json:"mod_time,omitzero"`
	Error   string    `json:"error,omitempty"`
}

// statFile classifies path. A nil validator accepts any decodable document.
func statFile(path string, codec docstore.Codec, validator docstore.Validator) fileStatus {
	status := fileStatus{Path: path}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			status.State = stateMissing
			return status
		}
		status.State = stateUnreadable
		status.Error = err.Error()
		return status
	}
	status.Size = info.Size()
	status.ModTime = info.ModTime()

	data, err := os.ReadFile(path)
	switch {
	case err != nil:
		status.State = stateUnreadable
		status.Error = err.Error()
	case len(data) == 0:
		status.State = stateEmpty
	case codec.IsNull(data):
		status.State = stateNull
	default:
		var doc any
		if err := codec.Decode(data, &doc); err != nil {
			status.State = stateCorrupt
			status.Error = err.Error()
			break
		}
		status.State = stateOK
		if validator == nil {
			break
		}
		if err := validator.Validate(docstore.Candidate{Raw: data, Doc: &doc}); err != nil {
			status.State = stateInvalid
			status.Error = err.Error()
		}
	}
	return status
}

// usable reports whether the store would load the file as is.
func (s fileStatus) usable() bool {
	return s.State == stateOK
}

// broken reports whether the store would quarantine the file.
func (s fileStatus) broken() bool {
	switch s.State {
	case stateNull, stateCorrupt, stateInvalid, stateUnreadable:
		return true
	}
	return false
}
