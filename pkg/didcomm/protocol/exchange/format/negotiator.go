/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package format

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/exchange"
)

// Binding ties a negotiated format to its service and the attachment it came with.
type Binding struct {
	FormatID   string
	Service    Service
	Attachment *decorator.Attachment
}

// Negotiator computes the formats both parties can process. It holds no state between calls.
type Negotiator struct {
	registry *Registry
}

// NewNegotiator returns a negotiator over the services of registry.
func NewNegotiator(registry *Registry) *Negotiator {
	return &Negotiator{registry: registry}
}

// Intersect returns every peer format identifier supported locally at stage, in peer order. An empty
// intersection fails with a *exchange.FormatNegotiationError.
func (n *Negotiator) Intersect(stage Stage, peer []string) ([]string, error) {
	local := n.registry.Supported(stage)

	var common []string

	for _, id := range peer {
		if slices.Contains(local, id) && !slices.Contains(common, id) {
			common = append(common, id)
		}
	}

	if len(common) == 0 {
		return nil, &exchange.FormatNegotiationError{Stage: string(stage), Local: local, Remote: peer}
	}

	return common, nil
}

// Negotiate binds every common format of msg at stage to its service and attachment.
func (n *Negotiator) Negotiate(stage Stage, msg *exchange.Message) ([]Binding, error) {
	common, err := n.Intersect(stage, msg.FormatIDs())
	if err != nil {
		return nil, err
	}

	bindings := make([]Binding, 0, len(common))

	for _, id := range common {
		svc, _ := n.registry.ByFormatID(id)

		att, ok := msg.Attachment(id)
		if !ok {
			return nil, &exchange.FormatNegotiationError{
				Stage:  string(stage),
				Reason: fmt.Sprintf("no attachment for declared format %q", id),
			}
		}

		bindings = append(bindings, Binding{FormatID: id, Service: svc, Attachment: att})
	}

	return bindings, nil
}

// Fixed binds the single format a fixed format protocol version carries, without negotiation.
func (n *Negotiator) Fixed(stage Stage, serviceName string, msg *exchange.Message) ([]Binding, error) {
	svc, ok := n.registry.Get(serviceName)
	if !ok {
		return nil, &exchange.FormatNegotiationError{
			Stage:  string(stage),
			Reason: fmt.Sprintf("fixed format service %q not registered", serviceName),
		}
	}

	id := svc.FormatID(stage)

	att, ok := msg.Attachment(id)
	if !ok {
		return nil, &exchange.FormatNegotiationError{
			Stage:  string(stage),
			Reason: fmt.Sprintf("missing %q attachment", id),
		}
	}

	return []Binding{{FormatID: id, Service: svc, Attachment: att}}, nil
}

// Services returns the services the local party offers at stage when starting a message, limited to names
// when names is not empty.
func (n *Negotiator) Services(stage Stage, names []string) ([]Service, error) {
	var services []Service

	for _, svc := range n.registry.Services() {
		if svc.FormatID(stage) == "" {
			continue
		}

		if len(names) > 0 && !slices.Contains(names, svc.Name()) {
			continue
		}

		services = append(services, svc)
	}

	if len(services) == 0 {
		return nil, &exchange.FormatNegotiationError{
			Stage:  string(stage),
			Local:  n.registry.Supported(stage),
			Remote: names,
		}
	}

	return services, nil
}
