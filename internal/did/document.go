package did

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Document is the subset of a DID document the broker reads.
type Document struct {
	ID string `json:"id"`
	// VerificationMethod is nil when the document carries no array at all.
	VerificationMethod []VerificationMethod         `json:"verificationMethod"`
	Authentication     []VerificationRelationship `json:"authentication"`
}

type VerificationMethod struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Controller   string          `json:"controller"`
	PublicKeyJwk json.RawMessage `json:"publicKeyJwk,omitempty"`
}

// VerificationRelationship is either a reference to a verification method
// (a DID URL or a relative "#fragment") or an embedded method.
type VerificationRelationship struct {
	Reference string
	Embedded  *VerificationMethod
}

func (r *VerificationRelationship) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty verification relationship")
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &r.Reference)
	case '{':
		var vm VerificationMethod
		if err := json.Unmarshal(data, &vm); err != nil {
			return err
		}
		r.Embedded = &vm
		return nil
	default:
		return errors.New("verification relationship must be a string or an object")
	}
}

func (r VerificationRelationship) MarshalJSON() ([]byte, error) {
	if r.Embedded != nil {
		return json.Marshal(r.Embedded)
	}
	return json.Marshal(r.Reference)
}

// findMethod looks up a verification method by id. Relative ids on either
// side are resolved against the document id.
func (d *Document) findMethod(ref string) (*VerificationMethod, bool) {
	target := d.absolute(ref)
	for i := range d.VerificationMethod {
		if d.absolute(d.VerificationMethod[i].ID) == target {
			return &d.VerificationMethod[i], true
		}
	}
	return nil, false
}

func (d *Document) absolute(ref string) string {
	if strings.HasPrefix(ref, "#") {
		return d.ID + ref
	}
	return ref
}

// splitDIDURL separates "did:method:id#fragment" into its DID and the full URL.
// ok is false for relative references.
func splitDIDURL(ref string) (didPart string, ok bool) {
	if !strings.HasPrefix(ref, "did:") {
		return "", false
	}
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		return ref[:i], true
	}
	return ref, true
}
