/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ldproof implements the Aries linked data proof credential formats (RFC 0593).
package ldproof

import (
	"fmt"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange/format"
)

// Name is the name the service is registered under.
const Name = "ldproof"

// Format identifiers.
const (
	DetailFormat     = "aries/ld-proof-vc-detail@v1.0"
	CredentialFormat = "aries/ld-proof-vc@v1.0"
)

// Detail describes the credential to issue and the proof it should carry.
type Detail struct {
	Credential map[string]interface{} `json:"credential"`
	Options    Options                `json:"options"`
}

// Options of the requested linked data proof.
type Options struct {
	ProofPurpose string `json:"proofPurpose,omitempty"`
	Created      string `json:"created,omitempty"`
	Domain       string `json:"domain,omitempty"`
	Challenge    string `json:"challenge,omitempty"`
	ProofType    string `json:"proofType"`
}

// Signer adds a proof to an unsigned credential.
type Signer func(credential map[string]interface{}, opts *Options) error

// Option configures a Service.
type Option func(s *Service)

// WithSigner sets the hook that signs issued credentials.
func WithSigner(signer Signer) Option {
	return func(s *Service) {
		s.signer = signer
	}
}

// WithIssuer sets the issuer written into credentials that do not name one.
func WithIssuer(issuer string) Option {
	return func(s *Service) {
		s.issuer = issuer
	}
}

// Service implements the linked data proof credential formats.
type Service struct {
	signer Signer
	issuer string
	now    func() time.Time
}

// New returns the linked data proof format service.
func New(opts ...Option) *Service {
	s := &Service{now: time.Now}

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
	case format.StageProposal, format.StageOffer, format.StageRequest:
		return DetailFormat
	case format.StageFinal:
		return CredentialFormat
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

// Derive builds the payload of stage. Offers and requests carry the detail they answer forward.
func (s *Service) Derive(stage format.Stage, in *format.DeriveInput) (format.Payload, error) {
	switch stage {
	case format.StageProposal:
		return format.CarryForward(nil, in.Overrides)
	case format.StageOffer, format.StageRequest:
		from := in.Received
		if from == nil {
			from = in.Prior
		}

		return format.CarryForward(from, in.Overrides)
	case format.StageFinal:
		return s.issue(in)
	default:
		return nil, fmt.Errorf("ld proof: unsupported stage %q", stage)
	}
}

func (s *Service) issue(in *format.DeriveInput) (format.Payload, error) {
	var detail Detail

	if err := format.Decode(in.Received, &detail); err != nil {
		return nil, errors.Wrap(err, "decode credential detail")
	}

	vc, err := format.CarryForward(detail.Credential, in.Overrides)
	if err != nil {
		return nil, err
	}

	if _, ok := vc["issuer"]; !ok && s.issuer != "" {
		vc["issuer"] = s.issuer
	}

	if _, ok := vc["issuanceDate"]; !ok {
		vc["issuanceDate"] = s.now().UTC().Format(time.RFC3339)
	}

	if s.signer != nil {
		if err := s.signer(vc, &detail.Options); err != nil {
			return nil, errors.WithMessage(err, "sign credential")
		}
	}

	return vc, nil
}

// Verify checks that a request asks for the offered credential and that the issued credential is the one
// requested.
func (s *Service) Verify(stage format.Stage, received, prior format.Payload) error {
	if prior == nil {
		return nil
	}

	switch stage {
	case format.StageRequest:
		if !cmp.Equal(received["credential"], prior["credential"]) {
			return exchange.NewValidationError(nil, "ld proof request differs from offer: %s",
				cmp.Diff(prior["credential"], received["credential"]))
		}
	case format.StageFinal:
		requested, _ := prior["credential"].(map[string]interface{}) // nolint: errcheck

		for _, field := range []string{"type", "credentialSubject"} {
			if !cmp.Equal(received[field], requested[field]) {
				return exchange.NewValidationError(nil, "ld proof credential %s differs from request", field)
			}
		}
	}

	return nil
}
