/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package indy

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
)

// CredentialFilter narrows the credential a holder proposes.
type CredentialFilter struct {
	SchemaIssuerDID string `json:"schema_issuer_did,omitempty"`
	SchemaName      string `json:"schema_name,omitempty"`
	SchemaVersion   string `json:"schema_version,omitempty"`
	SchemaID        string `json:"schema_id,omitempty"`
	IssuerDID       string `json:"issuer_did,omitempty"`
	CredDefID       string `json:"cred_def_id,omitempty"`
}

// CredentialOffer is the offer abstract of an indy credential.
type CredentialOffer struct {
	SchemaID            string                 `json:"schema_id"`
	CredDefID           string                 `json:"cred_def_id"`
	Nonce               string                 `json:"nonce"`
	KeyCorrectnessProof map[string]interface{} `json:"key_correctness_proof,omitempty"`
}

// CredentialRequest is the holder's request for an indy credential.
type CredentialRequest struct {
	ProverDID                 string                 `json:"prover_did,omitempty"`
	CredDefID                 string                 `json:"cred_def_id"`
	BlindedMS                 map[string]interface{} `json:"blinded_ms,omitempty"`
	BlindedMSCorrectnessProof map[string]interface{} `json:"blinded_ms_correctness_proof,omitempty"`
	Nonce                     string                 `json:"nonce"`
}

// AttributeValue is a raw attribute value with its encoding.
type AttributeValue struct {
	Raw     string `json:"raw"`
	Encoded string `json:"encoded"`
}

// Credential is an issued indy credential.
type Credential struct {
	SchemaID                  string                    `json:"schema_id"`
	CredDefID                 string                    `json:"cred_def_id"`
	RevRegID                  string                    `json:"rev_reg_id,omitempty"`
	Values                    map[string]AttributeValue `json:"values"`
	Signature                 map[string]interface{}    `json:"signature,omitempty"`
	SignatureCorrectnessProof map[string]interface{}    `json:"signature_correctness_proof,omitempty"`
}

// CredentialSigner completes a credential with its signature.
type CredentialSigner func(cred *Credential, req *CredentialRequest) error

// CredentialOption configures a CredentialService.
type CredentialOption func(s *CredentialService)

// WithCredentialSigner sets the hook that signs issued credentials.
func WithCredentialSigner(signer CredentialSigner) CredentialOption {
	return func(s *CredentialService) {
		s.signer = signer
	}
}

// WithProverDID sets the DID written into credential requests.
func WithProverDID(did string) CredentialOption {
	return func(s *CredentialService) {
		s.proverDID = did
	}
}

// CredentialService implements the indy credential formats.
type CredentialService struct {
	schemas   *format.SchemaValidator
	signer    CredentialSigner
	proverDID string
}

// NewCredentialService returns the indy credential format service.
func NewCredentialService(opts ...CredentialOption) *CredentialService {
	s := &CredentialService{schemas: credentialSchemas}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the service name.
func (s *CredentialService) Name() string { return Name }

// FormatID returns the format identifier of stage.
func (s *CredentialService) FormatID(stage format.Stage) string {
	switch stage {
	case format.StageProposal:
		return CredFilterFormat
	case format.StageOffer:
		return CredAbstractFormat
	case format.StageRequest:
		return CredReqFormat
	case format.StageFinal:
		return CredFormat
	default:
		return ""
	}
}

// Validate checks an attachment of stage.
func (s *CredentialService) Validate(stage format.Stage, att *decorator.Attachment) (format.Payload, error) {
	p, err := format.ReadAttachment(att)
	if err != nil {
		return nil, err
	}

	if err := s.schemas.Validate(stage, p); err != nil {
		return nil, err
	}

	if stage != format.StageFinal {
		return p, nil
	}

	var cred Credential

	if err := format.Decode(p, &cred); err != nil {
		return nil, exchange.NewValidationError(err, "indy credential")
	}

	for name, v := range cred.Values {
		if v.Encoded != EncodeValue(v.Raw) {
			return nil, exchange.NewValidationError(nil, "indy credential: attribute %q is not encoded correctly", name)
		}
	}

	return p, nil
}

// Build returns the attachment of p.
func (s *CredentialService) Build(stage format.Stage, p format.Payload) (*decorator.Attachment, error) {
	if err := s.schemas.Validate(stage, p); err != nil {
		return nil, err
	}

	return format.NewAttachment(p), nil
}

// Derive builds the payload of stage.
func (s *CredentialService) Derive(stage format.Stage, in *format.DeriveInput) (format.Payload, error) {
	switch stage {
	case format.StageProposal:
		return format.CarryForward(nil, in.Overrides)
	case format.StageOffer:
		return s.deriveOffer(in)
	case format.StageRequest:
		return s.deriveRequest(in)
	case format.StageFinal:
		return s.deriveCredential(in)
	default:
		return nil, fmt.Errorf("indy credential: unsupported stage %q", stage)
	}
}

func (s *CredentialService) deriveOffer(in *format.DeriveInput) (format.Payload, error) {
	var filter CredentialFilter

	source := in.Received
	if source == nil {
		source = in.Prior
	}

	if err := format.Decode(source, &filter); err != nil {
		return nil, errors.Wrap(err, "decode credential filter")
	}

	offer, err := format.ToPayload(CredentialOffer{
		SchemaID:  filter.SchemaID,
		CredDefID: filter.CredDefID,
		Nonce:     in.Nonce,
	})
	if err != nil {
		return nil, err
	}

	return format.CarryForward(offer, in.Overrides)
}

func (s *CredentialService) deriveRequest(in *format.DeriveInput) (format.Payload, error) {
	var offer CredentialOffer

	if err := format.Decode(in.Received, &offer); err != nil {
		return nil, errors.Wrap(err, "decode credential offer")
	}

	req, err := format.ToPayload(CredentialRequest{
		ProverDID: s.proverDID,
		CredDefID: offer.CredDefID,
		Nonce:     in.Nonce,
	})
	if err != nil {
		return nil, err
	}

	return format.CarryForward(req, in.Overrides)
}

func (s *CredentialService) deriveCredential(in *format.DeriveInput) (format.Payload, error) {
	var (
		req   CredentialRequest
		offer CredentialOffer
	)

	if err := format.Decode(in.Received, &req); err != nil {
		return nil, errors.Wrap(err, "decode credential request")
	}

	if err := format.Decode(in.Prior, &offer); err != nil {
		return nil, errors.Wrap(err, "decode credential offer")
	}

	if in.Preview == nil || len(in.Preview.Attributes) == 0 {
		return nil, errors.New("indy credential: no attribute values to issue")
	}

	cred := &Credential{
		SchemaID:  offer.SchemaID,
		CredDefID: req.CredDefID,
		Values:    make(map[string]AttributeValue, len(in.Preview.Attributes)),
	}

	for _, attr := range in.Preview.Attributes {
		cred.Values[attr.Name] = AttributeValue{Raw: attr.Value, Encoded: EncodeValue(attr.Value)}
	}

	if s.signer != nil {
		if err := s.signer(cred, &req); err != nil {
			return nil, errors.WithMessage(err, "sign indy credential")
		}
	}

	p, err := format.ToPayload(cred)
	if err != nil {
		return nil, err
	}

	return format.CarryForward(p, in.Overrides)
}

// Verify checks that a request or credential belongs to the credential definition offered or requested.
func (s *CredentialService) Verify(stage format.Stage, received, prior format.Payload) error {
	if stage != format.StageRequest && stage != format.StageFinal {
		return nil
	}

	got, _ := received["cred_def_id"].(string) // nolint: errcheck
	want, _ := prior["cred_def_id"].(string)   // nolint: errcheck

	if want != "" && got != want {
		return exchange.NewValidationError(nil, "indy %s: cred_def_id %q does not match %q", stage, got, want)
	}

	return nil
}

// PreviewOf returns a credential preview holding the raw values of an indy credential payload.
func PreviewOf(p format.Payload) (*exchange.Preview, error) {
	var cred Credential

	if err := format.Decode(p, &cred); err != nil {
		return nil, errors.Wrap(err, "decode indy credential")
	}

	names := make([]string, 0, len(cred.Values))
	for name := range cred.Values {
		names = append(names, name)
	}

	sort.Strings(names)

	preview := &exchange.Preview{Attributes: make([]exchange.PreviewAttribute, 0, len(names))}
	for _, name := range names {
		preview.Attributes = append(preview.Attributes, exchange.PreviewAttribute{
			Name:  name,
			Value: cred.Values[name].Raw,
		})
	}

	return preview, nil
}
