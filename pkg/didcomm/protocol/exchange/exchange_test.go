/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-exchange-go/pkg/didcomm/protocol/decorator"
)

func TestState(t *testing.T) {
	for _, s := range []State{StateDone, StateDeclined, StateAbandoned} {
		require.True(t, s.IsTerminal(), s)
	}

	for _, s := range []State{StateStart, StateOfferSent, StateRequestReceived, StatePresentationSent} {
		require.False(t, s.IsTerminal(), s)
	}

	require.True(t, StateOfferReceived.IsReceived())
	require.False(t, StateOfferSent.IsReceived())
}

func TestParseAutoAccept(t *testing.T) {
	tests := map[string]AutoAccept{
		"":                 AutoAcceptUnset,
		"always":           AutoAcceptAlways,
		"Never":            AutoAcceptNever,
		"content-approved": AutoAcceptContentApproved,
		"contentApproved":  AutoAcceptContentApproved,
	}

	for in, expected := range tests {
		p, err := ParseAutoAccept(in)
		require.NoError(t, err, in)
		require.Equal(t, expected, p)
	}

	_, err := ParseAutoAccept("sometimes")
	require.Error(t, err)
}

func TestMessage_Attachment(t *testing.T) {
	msg := &Message{
		Formats: []decorator.Format{
			{AttachID: "a1", Format: "format/a"},
			{AttachID: "missing", Format: "format/b"},
		},
		Attachments: []decorator.Attachment{{ID: "a1"}},
	}

	att, ok := msg.Attachment("format/a")
	require.True(t, ok)
	require.Equal(t, "a1", att.ID)

	_, ok = msg.Attachment("format/b")
	require.False(t, ok)

	_, ok = msg.Attachment("format/c")
	require.False(t, ok)

	require.Equal(t, []string{"format/a", "format/b"}, msg.FormatIDs())
}

func TestPreview_Value(t *testing.T) {
	var nilPreview *Preview

	_, ok := nilPreview.Value("name")
	require.False(t, ok)

	p := &Preview{Attributes: []PreviewAttribute{{Name: "name", Value: "Alice"}}}
	v, ok := p.Value("name")
	require.True(t, ok)
	require.Equal(t, "Alice", v)
}

func TestRecord_Clone(t *testing.T) {
	rec := &Record{ID: "id", Formats: []string{"a"}}
	c := rec.Clone()
	c.Formats[0] = "b"

	require.Equal(t, "a", rec.Formats[0])
}

func TestProblemCode(t *testing.T) {
	require.Equal(t, CodeUnsupportedFormat, ProblemCode(&FormatNegotiationError{Stage: "offer"}))
	require.Equal(t, CodeIllegalTransition, ProblemCode(fmt.Errorf("wrapped: %w", &TransitionError{})))
	require.Equal(t, CodeInvalidMessage, ProblemCode(NewValidationError(nil, "bad %s", "thing")))
	require.Equal(t, CodeVerification, ProblemCode(&VerificationError{Format: "hlindy", Err: errors.New("x")}))
	require.Equal(t, CodeInternal, ProblemCode(errors.New("boom")))
}

func TestErrors(t *testing.T) {
	cause := errors.New("cause")

	verr := NewValidationError(cause, "attachment %s", "a1")
	require.EqualError(t, verr, "validation: attachment a1: cause")
	require.True(t, errors.Is(verr, cause))
	require.EqualError(t, &ValidationError{Reason: "r"}, "validation: r")

	terr := &TransitionError{
		Protocol: IssueCredential, From: StateDone, Role: RoleHolder, Kind: KindOffer, Err: ErrDuplicateMessage,
	}
	require.Contains(t, terr.Error(), "inbound offer")
	require.True(t, errors.Is(terr, ErrDuplicateMessage))

	terr.Outbound = true
	require.Contains(t, terr.Error(), "outbound offer")

	require.Contains(t, (&MissingPredecessorError{RecordID: "r", Kind: KindOffer}).Error(), "no offer message")
	require.Contains(t, (&FormatNegotiationError{Stage: "offer", Local: []string{"A"}, Remote: []string{"C"}}).Error(),
		"local [A] and peer [C]")
	require.Contains(t, (&FormatNegotiationError{Stage: "offer", Reason: "missing"}).Error(), "missing")
	require.Contains(t, (&RecordNotFoundError{ID: "r"}).Error(), "record r")
	require.Contains(t, (&RecordNotFoundError{ThreadID: "T"}).Error(), "thread T")

	vfErr := &VerificationError{Format: "hlindy", Err: cause}
	require.EqualError(t, vfErr, "verify hlindy payload: cause")
	require.True(t, errors.Is(vfErr, cause))

	cerr := &ConnectionMissingError{ConnectionID: "c", Err: cause}
	require.True(t, errors.Is(cerr, cause))
	require.Contains(t, (&ConnectionMissingError{ConnectionID: "c"}).Error(), `"c"`)
}

func TestSortMessages(t *testing.T) {
	now := time.Now()
	msgs := []*MessageRecord{
		{Kind: KindRequest, CreatedAt: now},
		{Kind: KindFinal, CreatedAt: now.Add(time.Second)},
		{Kind: KindOffer, CreatedAt: now},
		{Kind: KindProposal, CreatedAt: now.Add(-time.Second)},
	}

	SortMessages(msgs)

	var kinds []MessageKind
	for _, m := range msgs {
		kinds = append(kinds, m.Kind)
	}

	require.Equal(t, []MessageKind{KindProposal, KindOffer, KindRequest, KindFinal}, kinds)
}
