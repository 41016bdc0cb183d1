package service

import (
	"encoding/json"
	"fmt"

	"github.com/golang-cz/textcase"
	"golang.org/x/oauth2"

	"didgate/internal/directory"
	"didgate/internal/session"
)

const (
	siopAuthURL              = "siopv2://authenticate"
	presentationDefinitionID = "registration-data"
)

type InputDescriptor struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Constraints struct{} `json:"constraints"`
}

type PresentationDefinition struct {
	ID               string            `json:"id"`
	InputDescriptors []InputDescriptor `json:"input_descriptors"`
}

// skipDescriptor is sent when no fields are wanted; wallets reject an empty
// descriptor list.
var skipDescriptor = InputDescriptor{ID: "skip", Name: "Skip"}

// NewPresentationDefinition requests one descriptor per field of def for
// sign-up. Sign-in, or a service without a default definition, gets the skip
// descriptor.
func NewPresentationDefinition(action session.Action, def *directory.Definition) PresentationDefinition {
	pd := PresentationDefinition{ID: presentationDefinitionID}
	if action == session.ActionSignUp && def != nil && len(def.Fields) > 0 {
		for _, field := range def.Fields {
			pd.InputDescriptors = append(pd.InputDescriptors, InputDescriptor{
				ID:   textcase.SnakeCase(field),
				Name: field,
			})
		}
		return pd
	}
	pd.InputDescriptors = []InputDescriptor{skipDescriptor}
	return pd
}

// authorizationURI builds the SIOPv2 request a wallet scans.
func (s *Service) authorizationURI(clientID, state, nonce string, pd PresentationDefinition) (string, error) {
	definition, err := json.Marshal(pd)
	if err != nil {
		return "", fmt.Errorf("encode presentation definition: %w", err)
	}
	cfg := oauth2.Config{
		ClientID:    clientID,
		RedirectURL: s.authnURL + "/auth",
		Endpoint:    oauth2.Endpoint{AuthURL: siopAuthURL},
		Scopes:      []string{"openid", "vp_token"},
	}
	return cfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("response_type", "id_token vp_token"),
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_mode", "post"),
		oauth2.SetAuthURLParam("id_token_type", "subject_signed_id_token"),
		oauth2.SetAuthURLParam("presentation_definition", string(definition)),
	), nil
}
