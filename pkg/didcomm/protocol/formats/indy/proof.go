/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package indy

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
)

const (
	defaultProofRequestName    = "proof-request"
	defaultProofRequestVersion = "1.0"
)

// ProofRequest is an indy proof request. Proposals use the same shape without a nonce.
type ProofRequest struct {
	Name                string                   `json:"name,omitempty"`
	Version             string                   `json:"version,omitempty"`
	Nonce               string                   `json:"nonce,omitempty"`
	RequestedAttributes map[string]AttributeInfo `json:"requested_attributes"`
	RequestedPredicates map[string]PredicateInfo `json:"requested_predicates,omitempty"`
	NonRevoked          map[string]interface{}   `json:"non_revoked,omitempty"`
}

// AttributeInfo is a requested attribute, or group of attributes, of a ProofRequest.
type AttributeInfo struct {
	Name         string                   `json:"name,omitempty"`
	Names        []string                 `json:"names,omitempty"`
	Restrictions []map[string]interface{} `json:"restrictions,omitempty"`
}

// PredicateInfo is a requested predicate of a ProofRequest.
type PredicateInfo struct {
	Name         string                   `json:"name"`
	PType        string                   `json:"p_type"`
	PValue       int                      `json:"p_value"`
	Restrictions []map[string]interface{} `json:"restrictions,omitempty"`
}

// Proof is an indy presentation.
type Proof struct {
	Proof          map[string]interface{} `json:"proof,omitempty"`
	RequestedProof RequestedProof         `json:"requested_proof"`
	Identifiers    []Identifier           `json:"identifiers,omitempty"`
}

// RequestedProof maps the referents of a ProofRequest to what the prover disclosed.
type RequestedProof struct {
	RevealedAttrs      map[string]RevealedAttribute `json:"revealed_attrs,omitempty"`
	RevealedAttrGroups map[string]interface{}       `json:"revealed_attr_groups,omitempty"`
	SelfAttestedAttrs  map[string]string            `json:"self_attested_attrs,omitempty"`
	UnrevealedAttrs    map[string]interface{}       `json:"unrevealed_attrs,omitempty"`
	Predicates         map[string]SubProofReferent  `json:"predicates,omitempty"`
}

// RevealedAttribute is a revealed attribute of a Proof.
type RevealedAttribute struct {
	SubProofIndex int    `json:"sub_proof_index"`
	Raw           string `json:"raw"`
	Encoded       string `json:"encoded"`
}

// SubProofReferent points at the sub proof that satisfies a predicate.
type SubProofReferent struct {
	SubProofIndex int `json:"sub_proof_index"`
}

// Identifier names the schema and credential definition of a sub proof.
type Identifier struct {
	SchemaID  string `json:"schema_id"`
	CredDefID string `json:"cred_def_id"`
}

// Presenter builds the presentation answering a proof request.
type Presenter func(req *ProofRequest, preview *exchange.Preview) (*Proof, error)

// ProofOption configures a ProofService.
type ProofOption func(s *ProofService)

// WithPresenter sets the hook that creates presentations.
func WithPresenter(p Presenter) ProofOption {
	return func(s *ProofService) {
		s.presenter = p
	}
}

// ProofService implements the indy proof formats.
type ProofService struct {
	schemas   *format.SchemaValidator
	presenter Presenter
}

// NewProofService returns the indy proof format service.
func NewProofService(opts ...ProofOption) *ProofService {
	s := &ProofService{schemas: proofSchemas, presenter: PresentFromPreview}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the service name.
func (s *ProofService) Name() string { return Name }

// FormatID returns the format identifier of stage.
func (s *ProofService) FormatID(stage format.Stage) string {
	switch stage {
	case format.StageProposal, format.StageRequest:
		return ProofReqFormat
	case format.StageFinal:
		return ProofFormat
	default:
		return ""
	}
}

// Validate checks an attachment of stage.
func (s *ProofService) Validate(stage format.Stage, att *decorator.Attachment) (format.Payload, error) {
	p, err := format.ReadAttachment(att)
	if err != nil {
		return nil, err
	}

	if err := s.schemas.Validate(stage, p); err != nil {
		return nil, err
	}

	if stage == format.StageRequest {
		if nonce, _ := p["nonce"].(string); nonce == "" { // nolint: errcheck
			return nil, exchange.NewValidationError(nil, "indy proof request without nonce")
		}
	}

	return p, nil
}

// Build returns the attachment of p.
func (s *ProofService) Build(stage format.Stage, p format.Payload) (*decorator.Attachment, error) {
	if err := s.schemas.Validate(stage, p); err != nil {
		return nil, err
	}

	return format.NewAttachment(p), nil
}

// Derive builds the payload of stage. A request derived from a proposal keeps every proposed parameter and
// gets a fresh nonce.
func (s *ProofService) Derive(stage format.Stage, in *format.DeriveInput) (format.Payload, error) {
	switch stage {
	case format.StageProposal:
		if in.Overrides == nil && in.Preview != nil {
			return format.ToPayload(ProofRequestFromPreview(in.Preview))
		}

		return format.CarryForward(nil, in.Overrides)
	case format.StageRequest:
		return s.deriveRequest(in)
	case format.StageFinal:
		return s.derivePresentation(in)
	default:
		return nil, fmt.Errorf("indy proof: unsupported stage %q", stage)
	}
}

func (s *ProofService) deriveRequest(in *format.DeriveInput) (format.Payload, error) {
	from := in.Received
	if from == nil && in.Preview != nil {
		p, err := format.ToPayload(ProofRequestFromPreview(in.Preview))
		if err != nil {
			return nil, err
		}

		from = p
	}

	req, err := format.CarryForward(from, in.Overrides)
	if err != nil {
		return nil, err
	}

	if _, ok := req["name"]; !ok {
		req["name"] = defaultProofRequestName
	}

	if _, ok := req["version"]; !ok {
		req["version"] = defaultProofRequestVersion
	}

	if _, ok := req["requested_predicates"]; !ok {
		req["requested_predicates"] = map[string]interface{}{}
	}

	req["nonce"] = in.Nonce

	return req, nil
}

func (s *ProofService) derivePresentation(in *format.DeriveInput) (format.Payload, error) {
	var req ProofRequest

	if err := format.Decode(in.Received, &req); err != nil {
		return nil, errors.Wrap(err, "decode proof request")
	}

	proof, err := s.presenter(&req, in.Preview)
	if err != nil {
		return nil, errors.WithMessage(err, "create indy presentation")
	}

	p, err := format.ToPayload(proof)
	if err != nil {
		return nil, err
	}

	return format.CarryForward(p, in.Overrides)
}

// Verify checks that a presentation answers every referent of the request it was made for.
func (s *ProofService) Verify(stage format.Stage, received, prior format.Payload) error {
	if stage != format.StageFinal || prior == nil {
		return nil
	}

	var (
		req   ProofRequest
		proof Proof
	)

	if err := format.Decode(prior, &req); err != nil {
		return exchange.NewValidationError(err, "stored indy proof request")
	}

	if err := format.Decode(received, &proof); err != nil {
		return exchange.NewValidationError(err, "indy presentation")
	}

	rp := proof.RequestedProof

	for referent := range req.RequestedAttributes {
		_, revealed := rp.RevealedAttrs[referent]
		_, group := rp.RevealedAttrGroups[referent]
		_, selfAttested := rp.SelfAttestedAttrs[referent]
		_, unrevealed := rp.UnrevealedAttrs[referent]

		if !revealed && !group && !selfAttested && !unrevealed {
			return exchange.NewValidationError(nil, "indy presentation does not answer attribute %q", referent)
		}
	}

	for referent := range req.RequestedPredicates {
		if _, ok := rp.Predicates[referent]; !ok {
			return exchange.NewValidationError(nil, "indy presentation does not answer predicate %q", referent)
		}
	}

	return nil
}

// ProofRequestFromPreview converts a presentation preview into the proof request it proposes.
func ProofRequestFromPreview(preview *exchange.Preview) *ProofRequest {
	req := &ProofRequest{
		Name:                defaultProofRequestName,
		Version:             defaultProofRequestVersion,
		RequestedAttributes: make(map[string]AttributeInfo, len(preview.Attributes)),
		RequestedPredicates: make(map[string]PredicateInfo, len(preview.Predicates)),
	}

	for i, attr := range preview.Attributes {
		referent := attr.Referent
		if referent == "" {
			referent = fmt.Sprintf("attribute_%d", i)
		}

		info := req.RequestedAttributes[referent]
		if info.Name == "" && len(info.Names) == 0 {
			info.Name = attr.Name
		} else {
			if info.Name != "" {
				info.Names = []string{info.Name}
				info.Name = ""
			}

			info.Names = append(info.Names, attr.Name)
		}

		if attr.CredDefID != "" && len(info.Restrictions) == 0 {
			info.Restrictions = []map[string]interface{}{{"cred_def_id": attr.CredDefID}}
		}

		req.RequestedAttributes[referent] = info
	}

	for i, pred := range preview.Predicates {
		info := PredicateInfo{Name: pred.Name, PType: pred.Predicate, PValue: pred.Threshold}
		if pred.CredDefID != "" {
			info.Restrictions = []map[string]interface{}{{"cred_def_id": pred.CredDefID}}
		}

		req.RequestedPredicates[fmt.Sprintf("predicate_%d", i)] = info
	}

	return req
}

// PresentFromPreview is the default Presenter. It reveals the attributes the preview holds a value for,
// self attests the empty value for the rest and marks every predicate as satisfied by the first sub proof.
// It creates no cryptographic proof.
func PresentFromPreview(req *ProofRequest, preview *exchange.Preview) (*Proof, error) {
	proof := &Proof{
		Proof: map[string]interface{}{},
		RequestedProof: RequestedProof{
			RevealedAttrs:     map[string]RevealedAttribute{},
			SelfAttestedAttrs: map[string]string{},
			Predicates:        map[string]SubProofReferent{},
		},
	}

	for referent, info := range req.RequestedAttributes {
		if len(info.Names) > 0 {
			values := map[string]interface{}{}

			for _, name := range info.Names {
				raw, _ := preview.Value(name)
				values[name] = map[string]interface{}{"raw": raw, "encoded": EncodeValue(raw)}
			}

			if proof.RequestedProof.RevealedAttrGroups == nil {
				proof.RequestedProof.RevealedAttrGroups = map[string]interface{}{}
			}

			proof.RequestedProof.RevealedAttrGroups[referent] = map[string]interface{}{
				"sub_proof_index": 0,
				"values":          values,
			}

			continue
		}

		raw, ok := preview.Value(info.Name)
		if !ok {
			logger.Debugf("self attesting attribute %s without a preview value", info.Name)
			proof.RequestedProof.SelfAttestedAttrs[referent] = ""

			continue
		}

		proof.RequestedProof.RevealedAttrs[referent] = RevealedAttribute{Raw: raw, Encoded: EncodeValue(raw)}
	}

	for referent := range req.RequestedPredicates {
		proof.RequestedProof.Predicates[referent] = SubProofReferent{}
	}

	return proof, nil
}
