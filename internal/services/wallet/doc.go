/*
Package wallet owns the per-user currency balance and its transaction log.

Every balance mutation runs in the same database transaction as the log row
that explains it, through the helpers in ledger.go:

	err := store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
	    _, err := wallet.Append(ctx, tx, wallet.AppendRequest{...}, now)
	    return err
	})

Credit types (contribution_payout, exchange, refund) raise available and
total balance. A withdrawal reserves funds: available moves to pending and
the total is unchanged until the withdrawal is settled (pending and total
drop) or cancelled (pending returns to available).

Wallet reads are cached per user and invalidated after every commit.
*/
package wallet
