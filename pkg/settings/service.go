package settings

import (
	"fmt"

	"github.com/goliatone/go-docstore"
)

// ServiceType groups the service registries.
type ServiceType int

const (
	ServiceTypeTranslation ServiceType = iota
	ServiceTypeOCR
	ServiceTypeTTS
	ServiceTypeVocabulary
)

var serviceTypeNames = docstore.NewEnumNames(map[ServiceType]string{
	ServiceTypeTranslation: "Translation",
	ServiceTypeOCR:         "OCR",
	ServiceTypeTTS:         "TTS",
	ServiceTypeVocabulary:  "Vocabulary",
})

func (s ServiceType) String() string                { return serviceTypeNames.Name(s) }
func (s ServiceType) MarshalText() ([]byte, error)  { return serviceTypeNames.MarshalText(s) }
func (s *ServiceType) UnmarshalText(b []byte) error { return serviceTypeNames.UnmarshalText(b, s) }

// ServiceData is one configured service instance.
type ServiceData struct {
	SvcID     string `validate:"required"`
	Name      string
	IsEnabled bool
	Options   map[string]any `json:",omitempty"`
}

// ServiceSettings holds the registry of every service kind plus the
// services picked for text replacement and image translation.
type ServiceSettings struct {
	ReplaceSvcID        string
	ImageTranslateSvcID string
	TranSvcDatas        []ServiceData `validate:"dive"`
	TtsSvcDatas         []ServiceData `validate:"dive"`
	OcrSvcDatas         []ServiceData `validate:"dive"`
	VocabularySvcDatas  []ServiceData `validate:"dive"`
}

// SetDefaults starts every registry empty rather than null.
func (s *ServiceSettings) SetDefaults() {
	*s = ServiceSettings{
		TranSvcDatas:       []ServiceData{},
		TtsSvcDatas:        []ServiceData{},
		OcrSvcDatas:        []ServiceData{},
		VocabularySvcDatas: []ServiceData{},
	}
}

// Validate rejects duplicate service IDs within a registry.
func (s ServiceSettings) Validate() error {
	for _, kind := range []ServiceType{ServiceTypeTranslation, ServiceTypeOCR, ServiceTypeTTS, ServiceTypeVocabulary} {
		seen := map[string]struct{}{}
		for _, svc := range s.Services(kind) {
			if _, dup := seen[svc.SvcID]; dup {
				return fmt.Errorf("settings: duplicate %s service %q", kind, svc.SvcID)
			}
			seen[svc.SvcID] = struct{}{}
		}
	}
	return nil
}

// Services returns the registry of kind.
func (s ServiceSettings) Services(kind ServiceType) []ServiceData {
	switch kind {
	case ServiceTypeTranslation:
		return s.TranSvcDatas
	case ServiceTypeOCR:
		return s.OcrSvcDatas
	case ServiceTypeTTS:
		return s.TtsSvcDatas
	case ServiceTypeVocabulary:
		return s.VocabularySvcDatas
	default:
		return nil
	}
}

// Enabled returns the enabled services of kind, in registry order.
func (s ServiceSettings) Enabled(kind ServiceType) []ServiceData {
	var out []ServiceData
	for _, svc := range s.Services(kind) {
		if svc.IsEnabled {
			out = append(out, svc)
		}
	}
	return out
}

// Find looks up a service by ID across every registry.
func (s ServiceSettings) Find(id string) (ServiceData, ServiceType, bool) {
	for _, kind := range []ServiceType{ServiceTypeTranslation, ServiceTypeOCR, ServiceTypeTTS, ServiceTypeVocabulary} {
		for _, svc := range s.Services(kind) {
			if svc.SvcID == id {
				return svc, kind, true
			}
		}
	}
	return ServiceData{}, 0, false
}

// Upsert replaces the service with the same ID in the registry of kind, or
// appends it. The registry is copied, never edited in place.
func (s *ServiceSettings) Upsert(kind ServiceType, svc ServiceData) {
	list := s.registry(kind)
	if list == nil {
		return
	}
	next := make([]ServiceData, 0, len(*list)+1)
	replaced := false
	for _, existing := range *list {
		if existing.SvcID == svc.SvcID {
			existing = svc
			replaced = true
		}
		next = append(next, existing)
	}
	if !replaced {
		next = append(next, svc)
	}
	*list = next
}

// Remove drops the service with id from the registry of kind.
func (s *ServiceSettings) Remove(kind ServiceType, id string) bool {
	list := s.registry(kind)
	if list == nil {
		return false
	}
	next := make([]ServiceData, 0, len(*list))
	for _, existing := range *list {
		if existing.SvcID != id {
			next = append(next, existing)
		}
	}
	removed := len(next) != len(*list)
	*list = next
	return removed
}

func (s *ServiceSettings) registry(kind ServiceType) *[]ServiceData {
	switch kind {
	case ServiceTypeTranslation:
		return &s.TranSvcDatas
	case ServiceTypeOCR:
		return &s.OcrSvcDatas
	case ServiceTypeTTS:
		return &s.TtsSvcDatas
	case ServiceTypeVocabulary:
		return &s.VocabularySvcDatas
	default:
		return nil
	}
}
