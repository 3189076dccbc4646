package flow_helpers

import (
	"context"

	"github.com/onflow/flow-go-sdk"
)

// SignProposeAndPayAs makes account the proposer, payer and single
// authorizer of tx and signs the envelope.
func SignProposeAndPayAs(ctx context.Context, flowClient AccountGetter, account *Account, tx *flow.Transaction) error {
	key, err := account.GetProposalKey(ctx, flowClient)
	if err != nil {
		return err
	}

	signer, err := account.GetSigner()
	if err != nil {
		return err
	}

	tx.
		SetProposalKey(account.Address, key.Index, key.SequenceNumber).
		SetPayer(account.Address).
		AddAuthorizer(account.Address)

	return tx.SignEnvelope(account.Address, key.Index, signer)
}
