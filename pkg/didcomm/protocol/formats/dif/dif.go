/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package dif implements the DIF presentation exchange proof formats (RFC 0510).
package dif

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
)

// Name is the name the service is registered under.
const Name = "dif"

// Format identifiers.
const (
	DefinitionsFormat = "dif/presentation-exchange/definitions@v1.0"
	SubmissionFormat  = "dif/presentation-exchange/submission@v1.0"
)

// nolint: gochecknoglobals
var presentationContext = []interface{}{
	"https://www.w3.org/2018/credentials/v1",
	"https://identity.foundation/presentation-exchange/submission/v1",
}

// InputDescriptor is an input descriptor of a presentation definition.
type InputDescriptor struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name,omitempty"`
	Purpose     string                 `json:"purpose,omitempty"`
	Schema      interface{}            `json:"schema,omitempty"`
	Constraints map[string]interface{} `json:"constraints,omitempty"`
}

// PresentationDefinition is what a verifier asks to be presented.
type PresentationDefinition struct {
	ID               string            `json:"id"`
	Name             string            `json:"name,omitempty"`
	Purpose          string            `json:"purpose,omitempty"`
	InputDescriptors []InputDescriptor `json:"input_descriptors"`
}

// RequestOptions bind a presentation to a challenge and domain.
type RequestOptions struct {
	Challenge string `json:"challenge,omitempty"`
	Domain    string `json:"domain,omitempty"`
}

// Request is the payload of a presentation request.
type Request struct {
	Options                RequestOptions         `json:"options"`
	PresentationDefinition PresentationDefinition `json:"presentation_definition"`
}

// DescriptorMapping maps an input descriptor to the presented credential satisfying it.
type DescriptorMapping struct {
	ID     string `json:"id"`
	Format string `json:"format"`
	Path   string `json:"path"`
}

// Submission describes how a presentation satisfies a definition.
type Submission struct {
	ID            string              `json:"id"`
	DefinitionID  string              `json:"definition_id"`
	DescriptorMap []DescriptorMapping `json:"descriptor_map"`
}

// Presenter builds the verifiable presentation answering a request.
type Presenter func(req *Request) (map[string]interface{}, error)

// Option configures a Service.
type Option func(s *Service)

// WithPresenter sets the hook that creates and signs presentations.
func WithPresenter(p Presenter) Option {
	return func(s *Service) {
		s.presenter = p
	}
}

// Service implements the DIF presentation exchange formats.
type Service struct {
	presenter Presenter
}

// New returns the presentation exchange format service.
func New(opts ...Option) *Service {
	s := &Service{presenter: unsignedPresentation}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the service name.
func (s *Service) Name() string { return Name }

// FormatID returns the format identifier of stage.
func (s *Service) FormatID(stage format.Stage) string {
	switch stage {
	case format.StageProposal, format.StageRequest:
		return DefinitionsFormat
	case format.StageFinal:
		return SubmissionFormat
	default:
		return ""
	}
}

// Validate checks an attachment of stage.
func (s *Service) Validate(stage format.Stage, att *decorator.Attachment) (format.Payload, error) {
	p, err := format.ReadAttachment(att)
	if err != nil {
		return nil, err
	}

	if err := schemas.Validate(stage, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Build returns the attachment of p.
func (s *Service) Build(stage format.Stage, p format.Payload) (*decorator.Attachment, error) {
	if err := schemas.Validate(stage, p); err != nil {
		return nil, err
	}

	return format.NewAttachment(p), nil
}

// Derive builds the payload of stage. A request built from a proposal keeps the proposed input descriptors
// and uses the nonce as challenge. A request started without a proposal takes them from its overrides.
func (s *Service) Derive(stage format.Stage, in *format.DeriveInput) (format.Payload, error) {
	switch stage {
	case format.StageProposal:
		return format.CarryForward(nil, in.Overrides)
	case format.StageRequest:
		return s.deriveRequest(in)
	case format.StageFinal:
		var req Request

		if err := format.Decode(in.Received, &req); err != nil {
			return nil, errors.Wrap(err, "decode presentation request")
		}

		vp, err := s.presenter(&req)
		if err != nil {
			return nil, errors.WithMessage(err, "create presentation")
		}

		return format.CarryForward(vp, in.Overrides)
	default:
		return nil, fmt.Errorf("dif: unsupported stage %q", stage)
	}
}

func (s *Service) deriveRequest(in *format.DeriveInput) (format.Payload, error) {
	var proposal struct {
		InputDescriptors []InputDescriptor `json:"input_descriptors"`
		Options          RequestOptions    `json:"options"`
	}

	source, overrides := in.Received, in.Overrides
	if source == nil {
		// A started request names its input descriptors the way a proposal does.
		source = in.Overrides
		overrides = without(in.Overrides, "input_descriptors", "options")
	}

	if err := format.Decode(source, &proposal); err != nil {
		return nil, errors.Wrap(err, "decode presentation proposal")
	}

	req, err := format.ToPayload(Request{
		Options: RequestOptions{Challenge: in.Nonce, Domain: proposal.Options.Domain},
		PresentationDefinition: PresentationDefinition{
			ID:               uuid.New().String(),
			InputDescriptors: proposal.InputDescriptors,
		},
	})
	if err != nil {
		return nil, err
	}

	return format.CarryForward(req, overrides)
}

func without(p format.Payload, keys ...string) format.Payload {
	out := make(format.Payload, len(p))

	for k, v := range p {
		if !slices.Contains(keys, k) {
			out[k] = v
		}
	}

	return out
}

// Verify checks that a presentation submits every input descriptor of the request.
func (s *Service) Verify(stage format.Stage, received, prior format.Payload) error {
	if stage != format.StageFinal || prior == nil {
		return nil
	}

	var (
		req Request
		vp  struct {
			Submission Submission `json:"presentation_submission"`
		}
	)

	if err := format.Decode(prior, &req); err != nil {
		return exchange.NewValidationError(err, "stored presentation request")
	}

	if err := format.Decode(received, &vp); err != nil {
		return exchange.NewValidationError(err, "presentation")
	}

	if vp.Submission.DefinitionID != req.PresentationDefinition.ID {
		return exchange.NewValidationError(nil, "presentation submits definition %q, requested %q",
			vp.Submission.DefinitionID, req.PresentationDefinition.ID)
	}

	mapped := map[string]struct{}{}
	for _, m := range vp.Submission.DescriptorMap {
		mapped[m.ID] = struct{}{}
	}

	for _, d := range req.PresentationDefinition.InputDescriptors {
		if _, ok := mapped[d.ID]; !ok {
			return exchange.NewValidationError(nil, "presentation does not submit input descriptor %q", d.ID)
		}
	}

	return nil
}

// unsignedPresentation maps every input descriptor to an empty credential slot. It creates no proof.
func unsignedPresentation(req *Request) (map[string]interface{}, error) {
	submission := Submission{
		ID:            uuid.New().String(),
		DefinitionID:  req.PresentationDefinition.ID,
		DescriptorMap: make([]DescriptorMapping, 0, len(req.PresentationDefinition.InputDescriptors)),
	}

	credentials := make([]interface{}, 0, len(req.PresentationDefinition.InputDescriptors))

	for i, d := range req.PresentationDefinition.InputDescriptors {
		submission.DescriptorMap = append(submission.DescriptorMap, DescriptorMapping{
			ID:     d.ID,
			Format: "ldp_vc",
			Path:   fmt.Sprintf("$.verifiableCredential[%d]", i),
		})
		credentials = append(credentials, map[string]interface{}{})
	}

	vp, err := format.ToPayload(map[string]interface{}{
		"@context":                presentationContext,
		"type":                    []string{"VerifiablePresentation", "PresentationSubmission"},
		"presentation_submission": submission,
		"verifiableCredential":    credentials,
	})
	if err != nil {
		return nil, err
	}

	return vp, nil
}
